// Implements the BacklogEstimator, which reconciles noisy, partially
// available per-partition checkpoint state into one MetricSample per poll.

package scale

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/streamscale/streamscale/scale/checkpoint"
)

// EstimatorOption customizes a BacklogEstimator.
type EstimatorOption func(*BacklogEstimator)

// WithFetchConcurrency bounds the number of concurrent checkpoint reads per
// poll. Values <= 0 fall back to DefaultFetchConcurrency.
func WithFetchConcurrency(n int) EstimatorOption {
	return func(e *BacklogEstimator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// BacklogEstimator computes per-poll unprocessed-event estimates for one
// target by reading each partition's checkpoint record from the store.
type BacklogEstimator struct {
	store       checkpoint.Store
	target      Target
	concurrency int
}

// NewBacklogEstimator creates an estimator reading checkpoint state for the
// given target from store.
func NewBacklogEstimator(store checkpoint.Store, target Target, opts ...EstimatorOption) *BacklogEstimator {
	e := &BacklogEstimator{
		store:       store,
		target:      target,
		concurrency: DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate produces one MetricSample for the polled partitions.
//
// Per-partition checkpoint reads run concurrently with bounded fanout; the
// call completes only once all reads complete, so no partial sample is ever
// observable. A failed partition contributes 0 backlog but still counts
// toward PartitionCount.
//
// With tolerateFailures, all partitions are attempted, every failure reason
// is collected into one consolidated warning, and a best-effort sample is
// returned. Without it, the first fault aborts the poll and the returned
// error carries every reason accumulated so far.
func (e *BacklogEstimator) Estimate(ctx context.Context, tails []PartitionTailInfo, tolerateFailures bool) (MetricSample, error) {
	// Index-aligned result slices: each goroutine writes only its own slot,
	// so aggregation after Wait needs no locking.
	deltas := make([]int64, len(tails))
	faults := make([]*checkpoint.Fault, len(tails))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, tail := range tails {
		i, tail := i, tail
		g.Go(func() error {
			delta, fault := e.partitionBacklog(gctx, tail)
			if fault != nil {
				faults[i] = fault
				if !tolerateFailures {
					return fault
				}
				return nil
			}
			deltas[i] = delta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MetricSample{}, newFaultError(checkpoint.NewFaultSet(faults...))
	}

	if fs := checkpoint.NewFaultSet(faults...); fs != nil {
		logrus.Warn(fs.Error())
	}

	var total int64
	for _, d := range deltas {
		total += d
	}
	return MetricSample{
		EventCount:     total,
		PartitionCount: len(tails),
		Timestamp:      time.Now(),
	}, nil
}

// partitionBacklog estimates one partition's unprocessed events, mapping any
// store or parse error into the fault taxonomy at this boundary.
func (e *BacklogEstimator) partitionBacklog(ctx context.Context, tail PartitionTailInfo) (int64, *checkpoint.Fault) {
	key := checkpoint.LeaseKey(e.target.Namespace, e.target.EntityName, e.target.ConsumerGroup, tail.PartitionID)

	payload, err := e.store.Get(ctx, key)
	if err != nil {
		kind := checkpoint.FaultOther
		if errors.Is(err, checkpoint.ErrNotFound) {
			kind = checkpoint.FaultNotFound
		}
		return 0, &checkpoint.Fault{Kind: kind, PartitionID: tail.PartitionID, Err: err}
	}

	lease, err := checkpoint.ParseLeaseRecord(payload)
	if err != nil {
		return 0, &checkpoint.Fault{Kind: checkpoint.FaultMalformed, PartitionID: tail.PartitionID, Err: err}
	}

	delta := tail.LastEnqueuedSequenceNumber - lease.SequenceNumber
	if lease.Offset == nil {
		// Never checkpointed: the event at the recorded sequence number has
		// itself not been consumed, so it counts toward the backlog.
		delta++
	}
	if delta < 0 {
		// Checkpoint momentarily ahead of the reported tail due to poll staleness.
		delta = 0
	}
	return delta, nil
}

// newFaultError guards against a nil FaultSet ending up inside a non-nil
// error interface value.
func newFaultError(fs *checkpoint.FaultSet) error {
	if fs == nil {
		return nil
	}
	return fs
}
