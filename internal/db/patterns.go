package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ramanasai/bloom/internal/domain"
)

// SavePattern inserts or replaces a custom breathing pattern.
func (s *Store) SavePattern(ctx context.Context, p domain.Pattern, created time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO custom_patterns (
			id, name, inhale_seconds, hold_after_inhale_seconds, exhale_seconds,
			hold_after_exhale_seconds, cycles, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			inhale_seconds = excluded.inhale_seconds,
			hold_after_inhale_seconds = excluded.hold_after_inhale_seconds,
			exhale_seconds = excluded.exhale_seconds,
			hold_after_exhale_seconds = excluded.hold_after_exhale_seconds,
			cycles = excluded.cycles,
			description = excluded.description
	`, p.ID, p.Name, p.InhaleSeconds, p.HoldAfterInhaleSeconds, p.ExhaleSeconds,
		p.HoldAfterExhaleSeconds, p.Cycles, p.Description, formatTS(created))
	if err != nil {
		return fmt.Errorf("save pattern %s: %w", p.ID, err)
	}
	return nil
}

// ListPatterns returns custom patterns oldest first.
func (s *Store) ListPatterns(ctx context.Context) ([]domain.Pattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, inhale_seconds, hold_after_inhale_seconds, exhale_seconds,
			hold_after_exhale_seconds, cycles, description
		FROM custom_patterns ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var out []domain.Pattern
	for rows.Next() {
		p := domain.Pattern{Custom: true}
		if err := rows.Scan(&p.ID, &p.Name, &p.InhaleSeconds, &p.HoldAfterInhaleSeconds, &p.ExhaleSeconds,
			&p.HoldAfterExhaleSeconds, &p.Cycles, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePattern removes a custom pattern. Past sessions keep their
// copied name and timings.
func (s *Store) DeletePattern(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM custom_patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pattern %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	return nil
}
