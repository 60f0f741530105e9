package scale

// Defaults for MonitorConfig. The reference behavior of the monitor uses a
// 6-sample window and assumes one worker absorbs 1000 events per poll.
const (
	DefaultWindowCapacity      = 6
	DefaultThroughputPerWorker = 1000
	DefaultFetchConcurrency    = 16
)

// MonitorConfig groups the tunables of the scale monitor.
type MonitorConfig struct {
	WindowCapacity      int   // samples required before trend rules may fire (must be > 0)
	ThroughputPerWorker int64 // assumed events one worker absorbs per poll (must be > 0)
	FetchConcurrency    int   // max concurrent checkpoint reads per poll (must be > 0)
}

// DefaultMonitorConfig returns the reference configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		WindowCapacity:      DefaultWindowCapacity,
		ThroughputPerWorker: DefaultThroughputPerWorker,
		FetchConcurrency:    DefaultFetchConcurrency,
	}
}

// normalized fills zero-valued fields with defaults.
func (c MonitorConfig) normalized() MonitorConfig {
	if c.WindowCapacity <= 0 {
		c.WindowCapacity = DefaultWindowCapacity
	}
	if c.ThroughputPerWorker <= 0 {
		c.ThroughputPerWorker = DefaultThroughputPerWorker
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = DefaultFetchConcurrency
	}
	return c
}
