package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TimerSnapshotKey holds the Pomodoro engine snapshot.
const TimerSnapshotKey = "pomodoro.timer"

// GetBlob returns the value stored under key, or nil without error when
// the key is absent.
func (s *Store) GetBlob(ctx context.Context, key string) ([]byte, error) {
	var b []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b, nil
}

// PutBlob replaces the value stored under key.
func (s *Store) PutBlob(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, formatTS(time.Now()))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot and SaveSnapshot serve the Pomodoro engine.
func (s *Store) LoadSnapshot(ctx context.Context) ([]byte, error) {
	return s.GetBlob(ctx, TimerSnapshotKey)
}

func (s *Store) SaveSnapshot(ctx context.Context, blob []byte) error {
	return s.PutBlob(ctx, TimerSnapshotKey, blob)
}
