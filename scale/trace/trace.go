// Package trace records scale decisions for offline analysis.
package trace

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Level controls the verbosity of decision tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelDecisions captures every scale decision with its diagnostic messages.
	LevelDecisions Level = "decisions"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:      true,
	LevelDecisions: true,
	"":             true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// DecisionRecord captures one scale decision.
type DecisionRecord struct {
	Timestamp      time.Time `yaml:"timestamp"`
	WorkerCount    int       `yaml:"worker_count"`
	EventCount     int64     `yaml:"event_count"`
	PartitionCount int       `yaml:"partition_count"`
	Vote           string    `yaml:"vote"`
	Rule           string    `yaml:"rule"`
	Messages       []string  `yaml:"messages,omitempty"`
}

// Recorder collects decision records during a monitoring run.
type Recorder struct {
	level   Level
	Records []DecisionRecord
}

// NewRecorder creates a Recorder for the given level.
func NewRecorder(level Level) *Recorder {
	return &Recorder{level: level, Records: make([]DecisionRecord, 0)}
}

// Enabled reports whether the recorder captures decisions.
func (r *Recorder) Enabled() bool {
	return r.level == LevelDecisions
}

// Record appends a decision record. No-op unless the recorder is enabled.
func (r *Recorder) Record(record DecisionRecord) {
	if !r.Enabled() {
		return
	}
	r.Records = append(r.Records, record)
}

// WriteYAML renders the collected records as a YAML document.
func (r *Recorder) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(r.Records); err != nil {
		return fmt.Errorf("encode decision trace: %w", err)
	}
	return enc.Close()
}
