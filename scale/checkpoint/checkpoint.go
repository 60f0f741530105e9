// Package checkpoint defines the contract between the scale core and the
// durable key-value store holding per-partition checkpoint records, plus the
// fault taxonomy every store or parse error is mapped into at this boundary.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Store.Get when no record exists at the key.
// Routine for a partition no consumer has ever processed.
var ErrNotFound = errors.New("checkpoint record not found")

// Store is the read contract the scale core needs from the durable
// key-value store. Implementations must honor context cancellation so that
// callers can bound total poll latency.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// LeaseKey derives the lookup key for one partition's checkpoint record.
// The entity name is lower-cased so that differently-cased references to the
// same entity resolve to the same record.
func LeaseKey(authorityHost, entityName, consumerGroup, partitionID string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		authorityHost, strings.ToLower(entityName), consumerGroup, partitionID)
}

// LeaseRecord is the parsed per-partition checkpoint state.
//
// A nil Offset means the partition has never been checkpointed by any
// consumer: a sequence number may be present from lease bookkeeping, but no
// event has actually been committed as processed.
type LeaseRecord struct {
	Offset         *string `json:"offset,omitempty"`
	SequenceNumber int64   `json:"sequencenumber"`
}

// ParseLeaseRecord decodes a raw checkpoint payload.
func ParseLeaseRecord(payload []byte) (LeaseRecord, error) {
	var rec LeaseRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return LeaseRecord{}, fmt.Errorf("unmarshal lease payload: %w", err)
	}
	return rec, nil
}
