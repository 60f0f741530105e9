package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/streamscale/streamscale/scale"
	"github.com/streamscale/streamscale/scale/checkpoint"
	"github.com/streamscale/streamscale/scale/checkpoint/memory"
)

// ScenarioSpec is the top-level configuration for the simulate command.
// Loaded from YAML via LoadScenarioSpec(path). Each poll describes the
// partition tails reported by the stream and the lease records present in
// the checkpoint store at that instant.
type ScenarioSpec struct {
	Target              TargetSpec `yaml:"target"`
	WorkerCount         int        `yaml:"worker_count"`
	WindowCapacity      int        `yaml:"window_capacity,omitempty"`
	ThroughputPerWorker int64      `yaml:"throughput_per_worker,omitempty"`
	TolerateFailures    bool       `yaml:"tolerate_failures"`
	Polls               []PollSpec `yaml:"polls"`
}

// TargetSpec identifies the monitored consumer group.
type TargetSpec struct {
	Namespace     string `yaml:"namespace"`
	Entity        string `yaml:"entity"`
	ConsumerGroup string `yaml:"consumer_group"`
	FunctionID    string `yaml:"function_id"`
}

// PollSpec describes the external state observed by one poll.
type PollSpec struct {
	WorkerCount int         `yaml:"worker_count,omitempty"` // overrides the scenario default
	Tails       []TailSpec  `yaml:"tails"`
	Leases      []LeaseSpec `yaml:"leases"`
}

// TailSpec is one partition's reported stream tail.
type TailSpec struct {
	Partition    string `yaml:"partition"`
	LastEnqueued int64  `yaml:"last_enqueued"`
}

// LeaseSpec is one partition's checkpoint record. A nil Offset models a
// partition that has never been checkpointed; Corrupt seeds an unparsable
// payload to exercise the malformed-lease path.
type LeaseSpec struct {
	Partition string  `yaml:"partition"`
	Offset    *string `yaml:"offset,omitempty"`
	Sequence  int64   `yaml:"sequence"`
	Corrupt   bool    `yaml:"corrupt,omitempty"`
}

// LoadScenarioSpec reads and validates a scenario file.
func LoadScenarioSpec(path string) (*ScenarioSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var spec ScenarioSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &spec, nil
}

// Validate checks the scenario for values the replay loop cannot handle.
func (s *ScenarioSpec) Validate() error {
	if s.Target.Entity == "" {
		return fmt.Errorf("target.entity is required")
	}
	if s.Target.ConsumerGroup == "" {
		return fmt.Errorf("target.consumer_group is required")
	}
	if s.WorkerCount < 0 {
		return fmt.Errorf("worker_count must be >= 0, got %d", s.WorkerCount)
	}
	if len(s.Polls) == 0 {
		return fmt.Errorf("at least one poll is required")
	}
	for i, poll := range s.Polls {
		if len(poll.Tails) == 0 {
			return fmt.Errorf("poll %d: at least one tail is required", i)
		}
		for _, tail := range poll.Tails {
			if tail.Partition == "" {
				return fmt.Errorf("poll %d: tail partition id is required", i)
			}
		}
	}
	return nil
}

// scaleTarget converts the spec identity into the core Target.
func (s TargetSpec) scaleTarget() scale.Target {
	return scale.Target{
		Namespace:     s.Namespace,
		EntityName:    s.Entity,
		ConsumerGroup: s.ConsumerGroup,
		FunctionID:    s.FunctionID,
	}
}

// seedStore replaces the store contents with the poll's lease records.
func (p PollSpec) seedStore(store *memory.Store, target scale.Target) error {
	store.Reset()
	for _, lease := range p.Leases {
		key := checkpoint.LeaseKey(target.Namespace, target.EntityName, target.ConsumerGroup, lease.Partition)
		if lease.Corrupt {
			store.Put(key, []byte("{not json"))
			continue
		}
		payload, err := json.Marshal(checkpoint.LeaseRecord{
			Offset:         lease.Offset,
			SequenceNumber: lease.Sequence,
		})
		if err != nil {
			return fmt.Errorf("marshal lease for partition %s: %w", lease.Partition, err)
		}
		store.Put(key, payload)
	}
	return nil
}

// tails converts the poll's tail specs into core tail info.
func (p PollSpec) tails() []scale.PartitionTailInfo {
	out := make([]scale.PartitionTailInfo, len(p.Tails))
	for i, t := range p.Tails {
		out[i] = scale.PartitionTailInfo{
			PartitionID:                t.Partition,
			LastEnqueuedSequenceNumber: t.LastEnqueued,
		}
	}
	return out
}
