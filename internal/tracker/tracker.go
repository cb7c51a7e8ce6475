// Package tracker is the write path for session history. Every insert
// or delete recomputes the statistics from the full history and runs
// the achievement evaluator on the result.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ramanasai/bloom/internal/achievement"
	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/db"
	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/stats"
)

// Store is the persistence the tracker needs. *db.Store satisfies it.
type Store interface {
	achievement.Store

	InsertMeditation(ctx context.Context, m domain.MeditationSession) error
	InsertBreathing(ctx context.Context, b domain.BreathingSession) error
	InsertFocus(ctx context.Context, f domain.FocusSession) error
	ListMeditations(ctx context.Context, f db.Filter) ([]domain.MeditationSession, error)
	ListBreathing(ctx context.Context, f db.Filter) ([]domain.BreathingSession, error)
	ListFocus(ctx context.Context, f db.Filter) ([]domain.FocusSession, error)
	DeleteSession(ctx context.Context, id string) (db.Kind, error)
	DeleteAll(ctx context.Context, kinds ...db.Kind) (int64, error)
}

// Announcer is told about each newly unlocked achievement.
type Announcer interface {
	AchievementUnlocked(a domain.Achievement)
}

// Options carry the preferences that feed the statistics.
type Options struct {
	WeeklyGoalMinutes int
	Location          *time.Location
}

type Tracker struct {
	store     Store
	evaluator *achievement.Evaluator
	announcer Announcer
	clock     clock.Clock
	log       *slog.Logger

	mu   sync.Mutex // serializes recomputation
	opts Options
}

// New returns a Tracker. announcer may be nil.
func New(store Store, c clock.Clock, announcer Announcer, log *slog.Logger, opts Options) *Tracker {
	if c == nil {
		c = clock.Real()
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Tracker{
		store:     store,
		evaluator: achievement.NewEvaluator(store, c.Now, log),
		announcer: announcer,
		clock:     c,
		log:       log.With("component", "tracker"),
		opts:      opts,
	}
}

// SaveBreathingSession records a breathing run and refreshes.
func (t *Tracker) SaveBreathingSession(ctx context.Context, b domain.BreathingSession) error {
	if err := t.store.InsertBreathing(ctx, b); err != nil {
		return err
	}
	t.log.Info("breathing session saved", "id", b.ID, "exercise", b.ExerciseID, "completed", b.Completed)
	t.refreshQuietly(ctx)
	return nil
}

// SaveFocusSession records a focus run and refreshes.
func (t *Tracker) SaveFocusSession(ctx context.Context, f domain.FocusSession) error {
	if err := t.store.InsertFocus(ctx, f); err != nil {
		return err
	}
	t.log.Info("focus session saved", "id", f.ID, "seconds", f.DurationSeconds, "completed", f.Completed)
	t.refreshQuietly(ctx)
	return nil
}

// SaveMeditation records a logged meditation and refreshes.
func (t *Tracker) SaveMeditation(ctx context.Context, m domain.MeditationSession) error {
	if err := t.store.InsertMeditation(ctx, m); err != nil {
		return err
	}
	t.log.Info("meditation saved", "id", m.ID, "seconds", m.DurationSeconds)
	t.refreshQuietly(ctx)
	return nil
}

// Delete removes one session of any kind and refreshes.
func (t *Tracker) Delete(ctx context.Context, id string) (db.Kind, error) {
	kind, err := t.store.DeleteSession(ctx, id)
	if err != nil {
		return "", err
	}
	t.log.Info("session deleted", "id", id, "kind", kind)
	t.refreshQuietly(ctx)
	return kind, nil
}

// Clear removes every session of the given kinds and refreshes.
func (t *Tracker) Clear(ctx context.Context, kinds ...db.Kind) (int64, error) {
	n, err := t.store.DeleteAll(ctx, kinds...)
	if err != nil {
		return 0, err
	}
	t.log.Info("sessions cleared", "kinds", kinds, "count", n)
	t.refreshQuietly(ctx)
	return n, nil
}

// Stats computes the statistics over the full history.
func (t *Tracker) Stats(ctx context.Context) (stats.Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statsLocked(ctx)
}

func (t *Tracker) statsLocked(ctx context.Context) (stats.Stats, error) {
	meds, err := t.store.ListMeditations(ctx, db.Filter{})
	if err != nil {
		return stats.Stats{}, err
	}
	breaths, err := t.store.ListBreathing(ctx, db.Filter{})
	if err != nil {
		return stats.Stats{}, err
	}
	focus, err := t.store.ListFocus(ctx, db.Filter{})
	if err != nil {
		return stats.Stats{}, err
	}
	return stats.Compute(stats.Input{
		Meditations:       meds,
		Breathing:         breaths,
		Focus:             focus,
		WeeklyGoalMinutes: t.opts.WeeklyGoalMinutes,
		Now:               t.clock.Now(),
		Location:          t.opts.Location,
	}), nil
}

// Refresh recomputes the statistics, evaluates achievements and
// announces new unlocks.
func (t *Tracker) Refresh(ctx context.Context) (stats.Stats, []domain.Achievement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.statsLocked(ctx)
	if err != nil {
		return st, nil, fmt.Errorf("compute stats: %w", err)
	}
	unlocked, err := t.evaluator.Evaluate(ctx, achievement.MetricsFrom(st))
	if t.announcer != nil {
		for _, a := range unlocked {
			t.announcer.AchievementUnlocked(a)
		}
	}
	if err != nil {
		return st, unlocked, fmt.Errorf("evaluate achievements: %w", err)
	}
	return st, unlocked, nil
}

// Achievements returns the stored achievements, seeding them first.
func (t *Tracker) Achievements(ctx context.Context) ([]domain.Achievement, error) {
	if _, _, err := t.Refresh(ctx); err != nil {
		return nil, err
	}
	return t.store.All(ctx)
}

// refreshQuietly runs Refresh after a successful write. The write
// already stands, so a failure here is only logged.
func (t *Tracker) refreshQuietly(ctx context.Context) {
	if _, _, err := t.Refresh(ctx); err != nil {
		t.log.Error("refresh after write", "err", err)
	}
}
