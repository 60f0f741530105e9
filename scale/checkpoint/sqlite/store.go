// Package sqlite provides a durable checkpoint store backed by a local
// SQLite database. One row per lease key; writers upsert, the scale core
// only reads.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/streamscale/streamscale/scale/checkpoint"
)

const schema = `
CREATE TABLE IF NOT EXISTS leases (
	key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at_utc_ns INTEGER NOT NULL
);
`

// Store is a SQLite-backed checkpoint store.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at path and ensures the
// schema exists.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply lease schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the payload at key, or checkpoint.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM leases WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkpoint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read lease %q: %w", key, err)
	}
	return payload, nil
}

// Put upserts the payload at key.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO leases(key, payload, updated_at_utc_ns) VALUES(?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at_utc_ns = excluded.updated_at_utc_ns`,
		key, payload, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("write lease %q: %w", key, err)
	}
	return nil
}

// Delete removes the record at key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM leases WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete lease %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
