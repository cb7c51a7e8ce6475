package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ramanasai/bloom/internal/breathing"
	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/db"
	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/logger"
	"github.com/ramanasai/bloom/internal/notify"
	"github.com/ramanasai/bloom/internal/pomodoro"
	"github.com/ramanasai/bloom/internal/tracker"
)

const notifyFlushTimeout = 3 * time.Second

// app is the wiring shared by every command that touches history.
type app struct {
	store    *db.Store
	log      *slog.Logger
	clock    clock.Clock
	desktop  *notify.Desktop
	tracker  *tracker.Tracker
	recorder *signalRecorder
}

func openApp() (*app, error) {
	store, err := db.Open()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log := logger.Get()
	c := clock.Real()
	desktop := notify.NewDesktop(log)
	t := tracker.New(store, c, desktop, log, tracker.Options{
		WeeklyGoalMinutes: cfg.Practice.WeeklyGoalMinutes,
		Location:          cfg.Location(),
	})
	return &app{
		store:    store,
		log:      log,
		clock:    c,
		desktop:  desktop,
		tracker:  t,
		recorder: &signalRecorder{tracker: t, saved: make(chan struct{}, 1)},
	}, nil
}

func (a *app) Close() {
	if !a.desktop.Wait(notifyFlushTimeout) {
		a.log.Warn("desktop notifications still pending at exit")
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("close database", "err", err)
	}
}

func breathingOptions() breathing.Options {
	return breathing.Options{
		Sound:   cfg.Feedback.Sound,
		Haptics: cfg.Feedback.Haptics,
		Ambient: cfg.Feedback.Ambient,
		Volume:  cfg.Feedback.Volume,
	}
}

func (a *app) breathingEngine(feedback breathing.Feedback) *breathing.Engine {
	return breathing.New(a.clock, a.recorder, feedback, a.log, breathingOptions())
}

// pomodoroEngine builds the engine from config and restores any
// persisted timer over it.
func (a *app) pomodoroEngine(ctx context.Context) (*pomodoro.Engine, error) {
	mode, ok := domain.ParseFocusMode(cfg.Focus.Mode)
	if !ok {
		a.log.Warn("unknown focus mode in config", "mode", cfg.Focus.Mode)
	}
	e := pomodoro.New(a.clock, a.recorder, a.desktop, a.store, a.log, pomodoro.Settings{
		Mode:               mode,
		CustomFocusMinutes: cfg.Focus.FocusMinutes,
		CustomBreakMinutes: cfg.Focus.BreakMinutes,
		LongBreakMinutes:   cfg.Focus.LongBreakMinutes,
		Cycles:             cfg.Focus.Cycles,
	})
	if err := e.Restore(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// patterns returns the built-in patterns followed by the saved ones.
func (a *app) patterns(ctx context.Context) ([]domain.Pattern, error) {
	custom, err := a.store.ListPatterns(ctx)
	if err != nil {
		return nil, err
	}
	return append(domain.BuiltinPatterns(), custom...), nil
}

// signalRecorder forwards engine records to the tracker and signals
// each completed save, so a command can wait for a record written from
// an engine goroutine before the process exits.
type signalRecorder struct {
	tracker *tracker.Tracker
	saved   chan struct{}
	mu      sync.Mutex
	count   int
}

func (r *signalRecorder) SaveBreathingSession(ctx context.Context, s domain.BreathingSession) error {
	defer r.signal()
	return r.tracker.SaveBreathingSession(ctx, s)
}

func (r *signalRecorder) SaveFocusSession(ctx context.Context, s domain.FocusSession) error {
	defer r.signal()
	return r.tracker.SaveFocusSession(ctx, s)
}

func (r *signalRecorder) signal() {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	select {
	case r.saved <- struct{}{}:
	default:
	}
}

func (r *signalRecorder) saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// waitForSave blocks until more than before saves have happened or d
// elapses.
func (r *signalRecorder) waitForSave(before int, d time.Duration) bool {
	deadline := time.After(d)
	for r.saves() <= before {
		select {
		case <-r.saved:
		case <-deadline:
			return false
		}
	}
	return true
}

func kindList(kinds []db.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}
