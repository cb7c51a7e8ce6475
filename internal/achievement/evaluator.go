// Package achievement turns derived metrics into achievement progress
// and unlocks.
package achievement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/stats"
)

// Store is the achievement persistence port.
type Store interface {
	// SeedIfEmpty inserts seeds only when no achievement exists yet and
	// reports whether it did.
	SeedIfEmpty(ctx context.Context, seeds []domain.Achievement) (bool, error)
	All(ctx context.Context) ([]domain.Achievement, error)
	Get(ctx context.Context, t domain.AchievementType) (domain.Achievement, error)
	UpsertProgress(ctx context.Context, t domain.AchievementType, progress int) error
	// Unlock marks t unlocked at the given time. It reports false when
	// t was already unlocked and leaves the stored time alone.
	Unlock(ctx context.Context, t domain.AchievementType, at time.Time) (bool, error)
}

// Metrics are the current counter values keyed by metric.
type Metrics map[domain.Metric]int

// MetricsFrom reads the counters achievements are measured against.
func MetricsFrom(s stats.Stats) Metrics {
	return Metrics{
		domain.MetricTotalSessions:     s.TotalSessions,
		domain.MetricTotalMinutes:      s.TotalMinutes,
		domain.MetricCurrentStreak:     s.CurrentStreak,
		domain.MetricFocusSessions:     s.FocusSessions,
		domain.MetricBreathingSessions: s.BreathingSessions,
		domain.MetricEarlyBirdSessions: s.EarlyBirdSessions,
		domain.MetricNightOwlSessions:  s.NightOwlSessions,
		domain.MetricWeekendStreaks:    s.WeekendStreak,
		domain.MetricTreeLevel:         s.TreeLevel,
	}
}

// Seeds returns one locked achievement per type.
func Seeds() []domain.Achievement {
	out := make([]domain.Achievement, 0, len(domain.AchievementTypes))
	for _, t := range domain.AchievementTypes {
		out = append(out, domain.NewAchievement(t))
	}
	return out
}

// Evaluator applies metrics to the store.
type Evaluator struct {
	store Store
	now   func() time.Time
	log   *slog.Logger
}

// NewEvaluator returns an Evaluator. now defaults to time.Now.
func NewEvaluator(store Store, now func() time.Time, log *slog.Logger) *Evaluator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{store: store, now: now, log: log.With("component", "achievement")}
}

// Evaluate seeds the store on first use, then updates every locked
// achievement. It returns the achievements unlocked by this call.
// Unlocked achievements are never touched again, so a lower metric
// (a broken streak, a deleted session) cannot lock them.
func (e *Evaluator) Evaluate(ctx context.Context, m Metrics) ([]domain.Achievement, error) {
	seeded, err := e.store.SeedIfEmpty(ctx, Seeds())
	if err != nil {
		return nil, fmt.Errorf("seed achievements: %w", err)
	}
	if seeded {
		e.log.Info("achievements seeded", "count", len(domain.AchievementTypes))
	}

	all, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}

	var unlocked []domain.Achievement
	for _, a := range all {
		if a.Unlocked || !a.Type.Valid() {
			continue
		}
		got, ok, err := e.apply(ctx, a, m[a.Type.Metric()])
		if err != nil {
			return unlocked, err
		}
		if ok {
			unlocked = append(unlocked, got)
		}
	}
	return unlocked, nil
}

// CheckAndUnlock applies one metric value to a single achievement and
// reports whether it was unlocked by this call.
func (e *Evaluator) CheckAndUnlock(ctx context.Context, t domain.AchievementType, value int) (bool, error) {
	a, err := e.store.Get(ctx, t)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", t, err)
	}
	if a.Unlocked {
		return false, nil
	}
	_, ok, err := e.apply(ctx, a, value)
	return ok, err
}

func (e *Evaluator) apply(ctx context.Context, a domain.Achievement, value int) (domain.Achievement, bool, error) {
	target := a.Type.Target()
	progress := min(max(value, 0), target)
	if progress != a.Progress {
		if err := e.store.UpsertProgress(ctx, a.Type, progress); err != nil {
			return a, false, fmt.Errorf("update %s progress: %w", a.Type, err)
		}
		a.Progress = progress
	}
	if value < target {
		return a, false, nil
	}
	at := e.now()
	ok, err := e.store.Unlock(ctx, a.Type, at)
	if err != nil {
		return a, false, fmt.Errorf("unlock %s: %w", a.Type, err)
	}
	if ok {
		a.Unlocked, a.UnlockedAt = true, at
		e.log.Info("achievement unlocked", "type", a.Type, "value", value)
	}
	return a, ok, nil
}
