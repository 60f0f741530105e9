// Package memory provides an in-memory checkpoint store, used by tests and
// by offline scenario replay.
package memory

import (
	"context"
	"sync"

	"github.com/streamscale/streamscale/scale/checkpoint"
)

// Store is a thread-safe in-memory key-value store of lease payloads.
type Store struct {
	mu     sync.RWMutex
	leases map[string][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{leases: make(map[string][]byte)}
}

// Get returns a copy of the payload at key, or checkpoint.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.leases[key]
	if !ok {
		return nil, checkpoint.ErrNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Put stores a copy of payload at key, replacing any existing record.
func (s *Store) Put(key string, payload []byte) {
	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases[key] = stored
}

// Delete removes the record at key, if any.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leases, key)
}

// Reset drops all records.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases = make(map[string][]byte)
}
