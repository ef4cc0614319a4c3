package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/moestate/newsdesk/internal/digest"
)

// DigestsKey is the slot holding the saved digest list.
const DigestsKey = "moestate-news-digests"

// GetValue reads a slot. ok is false when the key has never been written.
func GetValue(ctx context.Context, db *sql.DB, key string) (value string, ok bool, err error) {
	err = db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// PutValue writes a slot, replacing any previous value.
func PutValue(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes a slot. Deleting a missing key is not an error.
func DeleteValue(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SlotStore keeps the whole digest list as one JSON array in a kv slot.
type SlotStore struct {
	db  *sql.DB
	key string
}

// NewSlotStore returns a store over the given key. Empty key means DigestsKey.
func NewSlotStore(db *sql.DB, key string) *SlotStore {
	if key == "" {
		key = DigestsKey
	}
	return &SlotStore{db: db, key: key}
}

// Load returns the stored list. A missing slot is an empty list.
func (s *SlotStore) Load(ctx context.Context) ([]digest.Digest, error) {
	raw, ok, err := GetValue(ctx, s.db, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []digest.Digest{}, nil
	}

	var list []digest.Digest
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	if list == nil {
		list = []digest.Digest{}
	}
	return list, nil
}

// Save replaces the stored list.
func (s *SlotStore) Save(ctx context.Context, list []digest.Digest) error {
	if list == nil {
		list = []digest.Digest{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	return PutValue(ctx, s.db, s.key, string(data))
}

// Name identifies the backend in logs and metrics.
func (s *SlotStore) Name() string { return "sqlite" }
