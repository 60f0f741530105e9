package scale

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamscale/streamscale/scale/checkpoint"
	"github.com/streamscale/streamscale/scale/checkpoint/memory"
)

func putLease(t *testing.T, store *memory.Store, target Target, partition string, offset *string, seq int64) {
	t.Helper()
	payload, err := json.Marshal(checkpoint.LeaseRecord{Offset: offset, SequenceNumber: seq})
	require.NoError(t, err)
	store.Put(checkpoint.LeaseKey(target.Namespace, target.EntityName, target.ConsumerGroup, partition), payload)
}

func strPtr(s string) *string {
	return &s
}

func tail(partition string, last int64) PartitionTailInfo {
	return PartitionTailInfo{PartitionID: partition, LastEnqueuedSequenceNumber: last}
}

func TestEstimate_CheckpointCurrent_ZeroBacklog(t *testing.T) {
	store := memory.NewStore()
	putLease(t, store, testTarget, "0", strPtr("0"), 0)
	estimator := NewBacklogEstimator(store, testTarget)

	sample, err := estimator.Estimate(context.Background(), []PartitionTailInfo{tail("0", 0)}, false)

	require.NoError(t, err)
	assert.Equal(t, int64(0), sample.EventCount)
	assert.Equal(t, 1, sample.PartitionCount)
	assert.False(t, sample.Timestamp.IsZero())
}

func TestEstimate_NeverCheckpointed_CountsFirstEvent(t *testing.T) {
	// No offset committed: the event at the recorded sequence number is
	// itself unconsumed, so backlog is last - seq + 1.
	store := memory.NewStore()
	putLease(t, store, testTarget, "0", nil, 0)
	estimator := NewBacklogEstimator(store, testTarget)

	sample, err := estimator.Estimate(context.Background(), []PartitionTailInfo{tail("0", 5)}, false)

	require.NoError(t, err)
	assert.Equal(t, int64(6), sample.EventCount)
	assert.Equal(t, 1, sample.PartitionCount)
}

func TestEstimate_CheckpointAheadOfTail_ClampsToZero(t *testing.T) {
	store := memory.NewStore()
	putLease(t, store, testTarget, "0", strPtr("25"), 11)
	estimator := NewBacklogEstimator(store, testTarget)

	sample, err := estimator.Estimate(context.Background(), []PartitionTailInfo{tail("0", 10)}, false)

	require.NoError(t, err)
	assert.Equal(t, int64(0), sample.EventCount)
}

func TestEstimate_SumsAcrossPartitions(t *testing.T) {
	store := memory.NewStore()
	putLease(t, store, testTarget, "0", strPtr("100"), 2)
	putLease(t, store, testTarget, "1", strPtr("200"), 3)
	putLease(t, store, testTarget, "2", strPtr("300"), 4)
	estimator := NewBacklogEstimator(store, testTarget)

	tails := []PartitionTailInfo{tail("0", 12), tail("1", 13), tail("2", 14)}
	sample, err := estimator.Estimate(context.Background(), tails, false)

	require.NoError(t, err)
	assert.Equal(t, int64(30), sample.EventCount)
	assert.Equal(t, 3, sample.PartitionCount)
}

func TestEstimate_SumIndependentOfCompletionOrder(t *testing.T) {
	// Aggregation is commutative: with fanout forced down to 2 the per-run
	// completion order changes but the sample never does.
	store := memory.NewStore()
	tails := make([]PartitionTailInfo, 32)
	var want int64
	for i := range tails {
		partition := fmt.Sprintf("%d", i)
		putLease(t, store, testTarget, partition, strPtr("0"), 0)
		tails[i] = tail(partition, int64(i))
		want += int64(i)
	}
	estimator := NewBacklogEstimator(store, testTarget, WithFetchConcurrency(2))

	for run := 0; run < 5; run++ {
		sample, err := estimator.Estimate(context.Background(), tails, false)
		require.NoError(t, err)
		assert.Equal(t, want, sample.EventCount)
		assert.Equal(t, len(tails), sample.PartitionCount)
	}
}

func TestEstimate_Lenient_MissingRecordContributesZero(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	store := memory.NewStore()
	putLease(t, store, testTarget, "0", strPtr("0"), 2)
	// partition 1 has no checkpoint record
	estimator := NewBacklogEstimator(store, testTarget)

	tails := []PartitionTailInfo{tail("0", 12), tail("1", 100)}
	sample, err := estimator.Estimate(context.Background(), tails, true)

	require.NoError(t, err)
	assert.Equal(t, int64(10), sample.EventCount)
	assert.Equal(t, 2, sample.PartitionCount, "failed partition still counts toward PartitionCount")

	warnings := warningEntries(hook)
	require.Len(t, warnings, 1, "exactly one consolidated warning per poll")
	assert.Equal(t,
		"Unable to deserialize partition or lease info with the following errors: "+
			"no checkpoint record found for partition '1'",
		warnings[0].Message)
}

func TestEstimate_Lenient_AggregatesAllReasonsIntoOneWarning(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	store := memory.NewStore()
	store.Put(checkpoint.LeaseKey(testTarget.Namespace, testTarget.EntityName, testTarget.ConsumerGroup, "1"),
		[]byte("{not json"))
	putLease(t, store, testTarget, "2", strPtr("0"), 1)
	estimator := NewBacklogEstimator(store, testTarget)

	tails := []PartitionTailInfo{tail("0", 50), tail("1", 50), tail("2", 50)}
	sample, err := estimator.Estimate(context.Background(), tails, true)

	require.NoError(t, err)
	assert.Equal(t, int64(49), sample.EventCount, "only the healthy partition contributes")
	assert.Equal(t, 3, sample.PartitionCount)

	warnings := warningEntries(hook)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message,
		"Unable to deserialize partition or lease info with the following errors: ")
	assert.Contains(t, warnings[0].Message, "no checkpoint record found for partition '0'")
	assert.Contains(t, warnings[0].Message, "malformed lease payload for partition '1'")
	assert.Regexp(t, `partition '0'.*; .*partition '1'`, warnings[0].Message,
		"reasons are ordered by partition id and joined with '; '")
}

func TestEstimate_Strict_AbortsWithAccumulatedReasons(t *testing.T) {
	store := memory.NewStore()
	// no records at all
	estimator := NewBacklogEstimator(store, testTarget, WithFetchConcurrency(1))

	tails := []PartitionTailInfo{tail("0", 10), tail("1", 10)}
	sample, err := estimator.Estimate(context.Background(), tails, false)

	require.Error(t, err)
	assert.Equal(t, MetricSample{}, sample)

	var faults *checkpoint.FaultSet
	require.ErrorAs(t, err, &faults)
	assert.GreaterOrEqual(t, faults.Len(), 1)
	assert.Contains(t, err.Error(),
		"Unable to deserialize partition or lease info with the following errors: ")
	assert.Contains(t, err.Error(), "no checkpoint record found for partition '0'")
}

func TestEstimate_CancelledContext_IsAnOrdinaryPartitionFault(t *testing.T) {
	store := memory.NewStore()
	putLease(t, store, testTarget, "0", strPtr("0"), 0)
	estimator := NewBacklogEstimator(store, testTarget)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := estimator.Estimate(ctx, []PartitionTailInfo{tail("0", 10)}, false)

	require.Error(t, err)
	var faults *checkpoint.FaultSet
	require.ErrorAs(t, err, &faults)
	assert.Equal(t, checkpoint.FaultOther, faults.Faults()[0].Kind)
}

func TestEstimate_NoPartitions_EmptySample(t *testing.T) {
	estimator := NewBacklogEstimator(memory.NewStore(), testTarget)

	sample, err := estimator.Estimate(context.Background(), nil, false)

	require.NoError(t, err)
	assert.Equal(t, int64(0), sample.EventCount)
	assert.Equal(t, 0, sample.PartitionCount)
}

// warningEntries filters captured log entries down to warnings.
func warningEntries(hook *logrustest.Hook) []logrus.Entry {
	var out []logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			out = append(out, *entry)
		}
	}
	return out
}
