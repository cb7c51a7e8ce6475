package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramanasai/bloom/internal/domain"
)

// SeedIfEmpty inserts seeds only if the achievements table has no rows,
// so it is safe to call on every evaluation.
func (s *Store) SeedIfEmpty(ctx context.Context, seeds []domain.Achievement) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM achievements`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO achievements (type, unlocked, progress, target) VALUES (?, 0, ?, ?)`)
	if err != nil {
		return false, err
	}
	defer stmt.Close()
	for _, a := range seeds {
		if _, err := stmt.ExecContext(ctx, string(a.Type), a.Progress, a.Target); err != nil {
			return false, fmt.Errorf("seed %s: %w", a.Type, err)
		}
	}
	return true, tx.Commit()
}

// All returns every achievement in seed order.
func (s *Store) All(ctx context.Context) ([]domain.Achievement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, unlocked, unlocked_at, progress, target
		FROM achievements ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []domain.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns one achievement or ErrNotFound.
func (s *Store) Get(ctx context.Context, t domain.AchievementType) (domain.Achievement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT type, unlocked, unlocked_at, progress, target
		FROM achievements WHERE type = ?
	`, string(t))
	a, err := scanAchievement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("achievement %s: %w", t, ErrNotFound)
	}
	return a, err
}

// UpsertProgress sets the progress counter, creating the row if needed.
func (s *Store) UpsertProgress(ctx context.Context, t domain.AchievementType, progress int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO achievements (type, unlocked, progress, target) VALUES (?, 0, ?, ?)
		ON CONFLICT(type) DO UPDATE SET progress = excluded.progress
	`, string(t), progress, t.Target())
	if err != nil {
		return fmt.Errorf("update %s progress: %w", t, err)
	}
	return nil
}

// Unlock flips t to unlocked. An already unlocked row keeps its
// original time and Unlock reports false.
func (s *Store) Unlock(ctx context.Context, t domain.AchievementType, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE achievements SET unlocked = 1, unlocked_at = ?
		WHERE type = ? AND unlocked = 0
	`, formatTS(at), string(t))
	if err != nil {
		return false, fmt.Errorf("unlock %s: %w", t, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAchievement(r scanner) (domain.Achievement, error) {
	var a domain.Achievement
	var typ string
	var unlockedAt sql.NullString
	if err := r.Scan(&typ, &a.Unlocked, &unlockedAt, &a.Progress, &a.Target); err != nil {
		return a, err
	}
	a.Type = domain.AchievementType(typ)
	if unlockedAt.Valid {
		t, err := parseTS(unlockedAt.String)
		if err != nil {
			return a, fmt.Errorf("achievement %s: %w", typ, err)
		}
		a.UnlockedAt = t
	}
	return a, nil
}
