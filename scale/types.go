package scale

import "time"

// PartitionTailInfo is a read-only snapshot of one partition's stream tail,
// supplied by the stream-management collaborator each poll.
type PartitionTailInfo struct {
	PartitionID                string // independently-ordered shard identifier
	LastEnqueuedSequenceNumber int64  // sequence number of the newest enqueued event
}

// MetricSample is one aggregated backlog observation across all polled
// partitions. Samples are immutable once produced.
type MetricSample struct {
	EventCount     int64     // total unprocessed-event estimate, never negative
	PartitionCount int       // number of partitions polled, including failed reads
	Timestamp      time.Time // when the sample was produced
}

// Vote is the scale signal consumed by the external autoscaler.
type Vote int

// enumeration of Vote
const (
	VoteNone Vote = iota
	VoteScaleOut
	VoteScaleIn
)

func (v Vote) String() string {
	switch v {
	case VoteScaleOut:
		return "ScaleOut"
	case VoteScaleIn:
		return "ScaleIn"
	default:
		return "None"
	}
}
