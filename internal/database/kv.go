package database

import (
	"database/sql"
	"fmt"
	"time"
)

// BlobStore is the durable key-value backing for the progress store. Values
// are opaque serialized aggregates; the schema knows nothing about their
// shape.
type BlobStore struct {
	db *DB
}

func NewBlobStore(db *DB) *BlobStore {
	return &BlobStore{db: db}
}

// Get returns the stored value for a key. The second return is false when
// the key has never been written.
func (s *BlobStore) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM player_progress WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read progress blob: %w", err)
	}
	return []byte(value), true, nil
}

// Set writes a value under a key, replacing any previous value.
func (s *BlobStore) Set(key string, value []byte) error {
	query := `
		INSERT INTO player_progress (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, string(value), time.Now()); err != nil {
		return fmt.Errorf("failed to write progress blob: %w", err)
	}
	return nil
}
