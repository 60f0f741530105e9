package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/streamscale/streamscale/scale"
)

// WatchConfig is the configuration for the watch command.
type WatchConfig struct {
	Target  TargetConfig  `mapstructure:"target"`
	Store   StoreConfig   `mapstructure:"store"`
	Polling PollingConfig `mapstructure:"polling"`
	Scaling ScalingConfig `mapstructure:"scaling"`
}

// TargetConfig identifies the monitored consumer group.
type TargetConfig struct {
	Namespace     string `mapstructure:"namespace"`
	Entity        string `mapstructure:"entity"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	FunctionID    string `mapstructure:"function_id"`
}

// StoreConfig locates the checkpoint store.
type StoreConfig struct {
	// Path is the SQLite database file holding lease records.
	Path string `mapstructure:"path"`
}

// PollingConfig controls the poll loop.
type PollingConfig struct {
	// IntervalSeconds is the time between polls.
	IntervalSeconds int `mapstructure:"interval_seconds"`
	// TimeoutSeconds bounds the total latency of one poll's checkpoint reads.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// InputsFile is a YAML file, re-read each poll, holding the current
	// worker count and per-partition tail info. It stands in for the
	// stream-management collaborator and the host's worker accounting.
	InputsFile string `mapstructure:"inputs_file"`
	// TolerateFailures keeps polling through per-partition checkpoint
	// faults, trading strict correctness for availability.
	TolerateFailures bool `mapstructure:"tolerate_failures"`
}

// ScalingConfig tunes the decision engine and estimator.
type ScalingConfig struct {
	WindowCapacity      int   `mapstructure:"window_capacity"`
	ThroughputPerWorker int64 `mapstructure:"throughput_per_worker"`
	FetchConcurrency    int   `mapstructure:"fetch_concurrency"`
}

// LoadWatchConfig loads configuration from the given file (or, when empty,
// from streamscale.yaml in the working directory), with environment
// variable overrides under the STREAMSCALE_ prefix.
func LoadWatchConfig(path string) (*WatchConfig, error) {
	v := viper.New()
	setWatchDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("streamscale")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STREAMSCALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg WatchConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setWatchDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "streamscale.db")
	v.SetDefault("polling.interval_seconds", 10)
	v.SetDefault("polling.timeout_seconds", 5)
	v.SetDefault("polling.tolerate_failures", true)
	v.SetDefault("scaling.window_capacity", scale.DefaultWindowCapacity)
	v.SetDefault("scaling.throughput_per_worker", scale.DefaultThroughputPerWorker)
	v.SetDefault("scaling.fetch_concurrency", scale.DefaultFetchConcurrency)
}

// Validate checks for values the poll loop cannot run with.
func (c *WatchConfig) Validate() error {
	if c.Target.Entity == "" {
		return fmt.Errorf("target.entity is required")
	}
	if c.Target.ConsumerGroup == "" {
		return fmt.Errorf("target.consumer_group is required")
	}
	if c.Polling.InputsFile == "" {
		return fmt.Errorf("polling.inputs_file is required")
	}
	if c.Polling.IntervalSeconds <= 0 {
		return fmt.Errorf("polling.interval_seconds must be > 0, got %d", c.Polling.IntervalSeconds)
	}
	if c.Polling.TimeoutSeconds <= 0 {
		return fmt.Errorf("polling.timeout_seconds must be > 0, got %d", c.Polling.TimeoutSeconds)
	}
	if c.Scaling.WindowCapacity <= 0 {
		return fmt.Errorf("scaling.window_capacity must be > 0, got %d", c.Scaling.WindowCapacity)
	}
	if c.Scaling.ThroughputPerWorker <= 0 {
		return fmt.Errorf("scaling.throughput_per_worker must be > 0, got %d", c.Scaling.ThroughputPerWorker)
	}
	return nil
}

// PollInterval returns the poll interval as a duration.
func (c *WatchConfig) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds) * time.Second
}

// PollTimeout returns the per-poll timeout as a duration.
func (c *WatchConfig) PollTimeout() time.Duration {
	return time.Duration(c.Polling.TimeoutSeconds) * time.Second
}

// PollInputs is the operator-maintained live input file for the watch loop.
type PollInputs struct {
	WorkerCount int        `yaml:"worker_count"`
	Tails       []TailSpec `yaml:"tails"`
}

// LoadPollInputs reads the inputs file. Called once per poll so operators
// can update worker count and tails while the loop runs.
func LoadPollInputs(path string) (*PollInputs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs file: %w", err)
	}
	var inputs PollInputs
	if err := yaml.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("parse inputs file: %w", err)
	}
	if inputs.WorkerCount < 0 {
		return nil, fmt.Errorf("worker_count must be >= 0, got %d", inputs.WorkerCount)
	}
	return &inputs, nil
}

func (p *PollInputs) tails() []scale.PartitionTailInfo {
	out := make([]scale.PartitionTailInfo, len(p.Tails))
	for i, t := range p.Tails {
		out[i] = scale.PartitionTailInfo{
			PartitionID:                t.Partition,
			LastEnqueuedSequenceNumber: t.LastEnqueued,
		}
	}
	return out
}
