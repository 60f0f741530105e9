// Implements the SampleWindow, a bounded rolling history of metric samples.
// The DecisionEngine itself takes a plain []MetricSample; this type is a
// convenience for callers that own and maintain the history.

package scale

import "fmt"

// SampleWindow holds the most recent MetricSamples, oldest to newest, up to
// a fixed capacity. Adding beyond capacity evicts the oldest sample.
//
// The window is exclusively owned by its caller. It is not safe for
// concurrent mutation with an in-flight Decide call on its contents.
type SampleWindow struct {
	capacity int
	samples  []MetricSample
}

// NewSampleWindow creates an empty window with the given capacity.
func NewSampleWindow(capacity int) *SampleWindow {
	if capacity <= 0 {
		panic(fmt.Sprintf("SampleWindow: capacity must be > 0, got %d", capacity))
	}
	return &SampleWindow{capacity: capacity}
}

// Add appends a sample, evicting the oldest if the window is at capacity.
func (w *SampleWindow) Add(s MetricSample) {
	w.samples = append(w.samples, s)
	if len(w.samples) > w.capacity {
		w.samples = w.samples[len(w.samples)-w.capacity:]
	}
}

// Len returns the number of samples currently held.
func (w *SampleWindow) Len() int {
	return len(w.samples)
}

// Capacity returns the fixed target capacity of the window.
func (w *SampleWindow) Capacity() int {
	return w.capacity
}

// Full reports whether the window has reached its capacity.
func (w *SampleWindow) Full() bool {
	return len(w.samples) == w.capacity
}

// Newest returns the most recent sample, or false if the window is empty.
func (w *SampleWindow) Newest() (MetricSample, bool) {
	if len(w.samples) == 0 {
		return MetricSample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

// Samples returns the window contents, oldest to newest.
// The returned slice is the window's internal storage -- callers may read it
// but MUST NOT append to or reslice it. Use Add for mutation.
func (w *SampleWindow) Samples() []MetricSample {
	return w.samples
}
