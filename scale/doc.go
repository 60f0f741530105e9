// Package scale is the scale-decision core for a partitioned event-stream
// consumer group.
//
// # Reading Guide
//
// Start with these three files to understand the decision core:
//   - types.go: PartitionTailInfo, MetricSample, and Vote
//   - estimator.go: backlog estimation from per-partition checkpoint state
//   - engine.go: the ordered decision rules over a window of samples
//
// # Architecture
//
// The package is driven entirely by caller polls; it holds no background
// goroutines or timers. Each poll, the caller obtains per-partition tail
// info from its stream-management collaborator, asks the BacklogEstimator
// for a MetricSample, appends the sample to a caller-owned window, and
// passes the window plus the current worker count to the DecisionEngine.
// The resulting Vote is consumed by an external autoscaler; this package
// never scales workers itself.
//
// Checkpoint state is read through the scale/checkpoint store contract;
// implementations live in sub-packages:
//   - scale/checkpoint/memory: in-memory store for tests and scenario replay
//   - scale/checkpoint/sqlite: durable store on modernc.org/sqlite
//
// Decision traces can be captured for offline analysis via scale/trace.
package scale
