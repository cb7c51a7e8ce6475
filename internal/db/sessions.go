package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramanasai/bloom/internal/domain"
)

// Kind selects one of the session tables.
type Kind string

const (
	KindMeditation Kind = "meditation"
	KindBreathing  Kind = "breathing"
	KindFocus      Kind = "focus"
)

// Kinds lists every session kind.
var Kinds = []Kind{KindMeditation, KindBreathing, KindFocus}

// ParseKind accepts a kind name, or "" / "all" for every kind.
func ParseKind(s string) ([]Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", "all":
		return Kinds, nil
	case KindMeditation, KindBreathing, KindFocus:
		return []Kind{k}, nil
	}
	return nil, fmt.Errorf("unknown session type %q (meditation, breathing, focus)", s)
}

func (k Kind) table() string {
	switch k {
	case KindBreathing:
		return "breathing_sessions"
	case KindFocus:
		return "focus_sessions"
	default:
		return "meditation_sessions"
	}
}

// Filter narrows a session query. Zero values mean no bound.
type Filter struct {
	Since         time.Time
	Until         time.Time // exclusive
	CompletedOnly bool
	Limit         int
	Offset        int
}

func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	if !f.Since.IsZero() {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, formatTS(f.Since))
	}
	if !f.Until.IsZero() {
		clauses = append(clauses, "started_at < ?")
		args = append(args, formatTS(f.Until))
	}
	if f.CompletedOnly {
		clauses = append(clauses, "completed = 1")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (f Filter) page() (string, []any) {
	if f.Limit <= 0 {
		return "", nil
	}
	return " LIMIT ? OFFSET ?", []any{f.Limit, max(f.Offset, 0)}
}

// InsertMeditation stores a logged meditation.
func (s *Store) InsertMeditation(ctx context.Context, m domain.MeditationSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meditation_sessions (id, started_at, duration_seconds, kind, completed, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, formatTS(m.StartedAt), m.DurationSeconds, m.Kind, m.Completed, m.Notes)
	if err != nil {
		return fmt.Errorf("insert meditation session: %w", err)
	}
	return nil
}

// InsertBreathing stores a breathing exercise record.
func (s *Store) InsertBreathing(ctx context.Context, b domain.BreathingSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO breathing_sessions (
			id, started_at, exercise_id, exercise_name, duration_seconds,
			cycles_completed, target_cycles,
			inhale_seconds, hold_after_inhale_seconds, exhale_seconds, hold_after_exhale_seconds,
			completed, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, formatTS(b.StartedAt), b.ExerciseID, b.ExerciseName, b.DurationSeconds,
		b.CyclesCompleted, b.TargetCycles,
		b.InhaleSeconds, b.HoldAfterInhaleSeconds, b.ExhaleSeconds, b.HoldAfterExhaleSeconds,
		b.Completed, b.Notes)
	if err != nil {
		return fmt.Errorf("insert breathing session: %w", err)
	}
	return nil
}

// InsertFocus stores a focus run record.
func (s *Store) InsertFocus(ctx context.Context, f domain.FocusSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO focus_sessions (
			id, started_at, duration_seconds, focus_minutes, break_minutes,
			completed_cycles, target_cycles, task_name, completed, interrupted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, formatTS(f.StartedAt), f.DurationSeconds, f.FocusMinutes, f.BreakMinutes,
		f.CompletedCycles, f.TargetCycles, f.TaskName, f.Completed, f.Interrupted)
	if err != nil {
		return fmt.Errorf("insert focus session: %w", err)
	}
	return nil
}

// ListMeditations returns meditations newest first.
func (s *Store) ListMeditations(ctx context.Context, f Filter) ([]domain.MeditationSession, error) {
	where, args := f.where()
	page, pargs := f.page()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_seconds, kind, completed, notes
		FROM meditation_sessions`+where+`
		ORDER BY started_at DESC`+page, append(args, pargs...)...)
	if err != nil {
		return nil, fmt.Errorf("list meditation sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.MeditationSession
	for rows.Next() {
		var m domain.MeditationSession
		var ts string
		if err := rows.Scan(&m.ID, &ts, &m.DurationSeconds, &m.Kind, &m.Completed, &m.Notes); err != nil {
			return nil, err
		}
		if m.StartedAt, err = parseTS(ts); err != nil {
			return nil, fmt.Errorf("meditation %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListBreathing returns breathing records newest first.
func (s *Store) ListBreathing(ctx context.Context, f Filter) ([]domain.BreathingSession, error) {
	where, args := f.where()
	page, pargs := f.page()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, exercise_id, exercise_name, duration_seconds,
			cycles_completed, target_cycles,
			inhale_seconds, hold_after_inhale_seconds, exhale_seconds, hold_after_exhale_seconds,
			completed, notes
		FROM breathing_sessions`+where+`
		ORDER BY started_at DESC`+page, append(args, pargs...)...)
	if err != nil {
		return nil, fmt.Errorf("list breathing sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.BreathingSession
	for rows.Next() {
		var b domain.BreathingSession
		var ts string
		if err := rows.Scan(&b.ID, &ts, &b.ExerciseID, &b.ExerciseName, &b.DurationSeconds,
			&b.CyclesCompleted, &b.TargetCycles,
			&b.InhaleSeconds, &b.HoldAfterInhaleSeconds, &b.ExhaleSeconds, &b.HoldAfterExhaleSeconds,
			&b.Completed, &b.Notes); err != nil {
			return nil, err
		}
		if b.StartedAt, err = parseTS(ts); err != nil {
			return nil, fmt.Errorf("breathing %s: %w", b.ID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListFocus returns focus records newest first.
func (s *Store) ListFocus(ctx context.Context, f Filter) ([]domain.FocusSession, error) {
	where, args := f.where()
	page, pargs := f.page()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_seconds, focus_minutes, break_minutes,
			completed_cycles, target_cycles, task_name, completed, interrupted
		FROM focus_sessions`+where+`
		ORDER BY started_at DESC`+page, append(args, pargs...)...)
	if err != nil {
		return nil, fmt.Errorf("list focus sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.FocusSession
	for rows.Next() {
		var fs domain.FocusSession
		var ts string
		if err := rows.Scan(&fs.ID, &ts, &fs.DurationSeconds, &fs.FocusMinutes, &fs.BreakMinutes,
			&fs.CompletedCycles, &fs.TargetCycles, &fs.TaskName, &fs.Completed, &fs.Interrupted); err != nil {
			return nil, err
		}
		if fs.StartedAt, err = parseTS(ts); err != nil {
			return nil, fmt.Errorf("focus %s: %w", fs.ID, err)
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

// Count returns the number of sessions of kind k matching f.
func (s *Store) Count(ctx context.Context, k Kind, f Filter) (int, error) {
	where, args := f.where()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+k.table()+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s sessions: %w", k, err)
	}
	return n, nil
}

// SumSeconds totals duration_seconds of kind k matching f.
func (s *Store) SumSeconds(ctx context.Context, k Kind, f Filter) (int, error) {
	where, args := f.where()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(duration_seconds), 0) FROM `+k.table()+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sum %s sessions: %w", k, err)
	}
	return n, nil
}

// DeleteSession removes the session with id from whichever table holds
// it and reports the kind. It returns ErrNotFound if none does.
func (s *Store) DeleteSession(ctx context.Context, id string) (Kind, error) {
	for _, k := range Kinds {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+k.table()+` WHERE id = ?`, id)
		if err != nil {
			return "", fmt.Errorf("delete %s session: %w", k, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return k, nil
		}
	}
	return "", fmt.Errorf("session %s: %w", id, ErrNotFound)
}

// DeleteAll removes every session of the given kinds in one transaction.
func (s *Store) DeleteAll(ctx context.Context, kinds ...Kind) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, k := range kinds {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+k.table())
		if err != nil {
			return 0, fmt.Errorf("clear %s sessions: %w", k, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, tx.Commit()
}

// IsNotFound reports whether err is, or wraps, a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
