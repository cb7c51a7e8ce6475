// Package breathing runs a timed breathing exercise: four phases per
// cycle, repeated for the pattern's cycle count, with pause and resume
// that keep the exact position inside the current phase.
package breathing

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/domain"
)

// TickInterval is the progress update rate, about 60 per second.
const TickInterval = 16 * time.Millisecond

// Recorder persists finished or stopped runs.
type Recorder interface {
	SaveBreathingSession(ctx context.Context, s domain.BreathingSession) error
}

// Feedback is the haptic and audio side-effect port. Calls must not block.
type Feedback interface {
	Pulse(phase domain.Phase)
	SessionStartCue()
	SessionCompleteCue()
	PlayAmbient(kind string, volume float64)
	StopAmbient()
}

// Options are the user's feedback preferences.
type Options struct {
	Sound   bool
	Haptics bool
	Ambient string
	Volume  float64
}

// State is a snapshot of the engine published to observers.
type State struct {
	Pattern       *domain.Pattern
	Active        bool
	Paused        bool
	Cycle         int // 1-based, 0 before start
	Phase         domain.Phase
	PhaseProgress float64
	TotalProgress float64
	StartedAt     time.Time
}

// Engine owns at most one tick loop at a time. All state lives behind mu;
// a loop that is no longer e.run exits without touching anything.
type Engine struct {
	clock    clock.Clock
	recorder Recorder
	feedback Feedback
	log      *slog.Logger

	mu      sync.Mutex
	opts    Options
	pattern domain.Pattern
	state   State
	elapsed time.Duration // inside the current phase
	last    time.Time     // time of the last step
	run     *run
	subs    []chan State
}

type run struct {
	stop chan struct{}
}

// New returns an idle engine with no pattern selected.
func New(c clock.Clock, recorder Recorder, feedback Feedback, log *slog.Logger, opts Options) *Engine {
	if c == nil {
		c = clock.Real()
	}
	if feedback == nil {
		feedback = nopFeedback{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		clock:    c,
		recorder: recorder,
		feedback: feedback,
		log:      log.With("component", "breathing"),
		opts:     opts,
	}
}

// SetOptions replaces the feedback preferences for subsequent events.
func (e *Engine) SetOptions(opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe returns a channel that always holds the latest state. Slow
// readers miss intermediate states. Call cancel to stop receiving.
func (e *Engine) Subscribe() (updates <-chan State, cancel func()) {
	ch := make(chan State, 1)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	ch <- e.snapshotLocked()
	e.mu.Unlock()
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, c := range e.subs {
			if c == ch {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				break
			}
		}
	}
}

// SelectPattern installs p and resets to the pre-run baseline. An
// active run is stopped first and recorded as incomplete.
func (e *Engine) SelectPattern(p domain.Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	rec := e.stopLocked()
	e.pattern = p
	e.state = State{Pattern: &p}
	e.publishLocked()
	e.mu.Unlock()

	e.save(rec)
	return nil
}

// Start begins the selected pattern. It does nothing without a pattern
// or while a run is active.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Pattern == nil || e.state.Active {
		return
	}
	cycle, phase, ok := following(e.pattern, 0, domain.PhaseRest)
	if !ok {
		return
	}

	now := e.clock.Now()
	e.state = State{
		Pattern:   e.state.Pattern,
		Active:    true,
		Cycle:     cycle,
		Phase:     phase,
		StartedAt: now,
	}
	e.elapsed = 0
	e.last = now

	if e.opts.Haptics {
		e.feedback.SessionStartCue()
		e.feedback.Pulse(phase)
	}
	if e.opts.Sound {
		e.feedback.PlayAmbient(e.opts.Ambient, e.opts.Volume)
	}
	e.log.Info("exercise started", "pattern", e.pattern.ID, "cycles", e.pattern.Cycles)
	e.startLoopLocked()
	e.publishLocked()
}

// Pause freezes the run in place. Time since the last tick is banked
// first so nothing is lost.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.state.Active || e.state.Paused {
		e.mu.Unlock()
		return
	}
	var rec *domain.BreathingSession
	if done := e.stepLocked(e.clock.Now()); done {
		rec = e.finishLocked()
	} else {
		e.stopLoopLocked()
		e.state.Paused = true
		if e.opts.Sound {
			e.feedback.StopAmbient()
		}
		e.log.Debug("exercise paused", "cycle", e.state.Cycle, "phase", e.state.Phase.String(), "phase_progress", e.state.PhaseProgress)
	}
	e.publishLocked()
	e.mu.Unlock()

	e.save(rec)
}

// Resume continues a paused run from the stored phase position. The
// remaining time of the current phase is duration × (1 − phaseProgress).
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Active || !e.state.Paused {
		return
	}
	e.state.Paused = false
	e.last = e.clock.Now()
	if e.opts.Sound {
		e.feedback.PlayAmbient(e.opts.Ambient, e.opts.Volume)
	}
	e.startLoopLocked()
	e.publishLocked()
}

// Stop ends the run. A run that had started is recorded as incomplete.
func (e *Engine) Stop() {
	e.mu.Lock()
	rec := e.stopLocked()
	e.publishLocked()
	e.mu.Unlock()

	e.save(rec)
}

func (e *Engine) stopLocked() *domain.BreathingSession {
	wasActive := e.state.Active
	e.stopLoopLocked()

	var rec *domain.BreathingSession
	if wasActive && e.state.Cycle >= 1 {
		now := e.clock.Now()
		// Cycle is the one in progress, so one fewer has been finished.
		rec = e.recordLocked(now, e.state.Cycle-1, false)
		if e.opts.Sound {
			e.feedback.StopAmbient()
		}
		e.log.Info("exercise stopped", "pattern", e.pattern.ID, "cycles_completed", rec.CyclesCompleted)
	}

	e.state = State{Pattern: e.state.Pattern, Phase: domain.PhaseRest}
	e.elapsed = 0
	return rec
}

// finishLocked is the natural end of the last cycle.
func (e *Engine) finishLocked() *domain.BreathingSession {
	e.stopLoopLocked()
	if e.opts.Haptics {
		e.feedback.SessionCompleteCue()
	}
	if e.opts.Sound {
		e.feedback.StopAmbient()
	}
	rec := e.recordLocked(e.clock.Now(), e.pattern.Cycles, true)

	e.state.Active = false
	e.state.Paused = false
	e.state.Cycle = e.pattern.Cycles
	e.state.Phase = domain.PhaseRest
	e.state.PhaseProgress = 0
	e.state.TotalProgress = 1
	e.elapsed = 0
	e.log.Info("exercise completed", "pattern", e.pattern.ID, "duration_seconds", rec.DurationSeconds)
	return rec
}

// stepLocked moves the cursor to now. Finished phases hand their
// overflow to the next timed phase, which gets a fresh pulse. It reports
// whether the last phase of the last cycle has ended.
func (e *Engine) stepLocked(now time.Time) bool {
	dt := now.Sub(e.last)
	e.last = now
	if dt < 0 {
		dt = 0
	}
	e.elapsed += dt

	dur := e.pattern.PhaseDuration(e.state.Phase)
	for e.elapsed >= dur {
		cycle, phase, ok := following(e.pattern, e.state.Cycle, e.state.Phase)
		if !ok {
			return true
		}
		e.elapsed -= dur
		e.state.Cycle, e.state.Phase = cycle, phase
		dur = e.pattern.PhaseDuration(phase)
		if e.opts.Haptics {
			e.feedback.Pulse(phase)
		}
	}

	e.state.PhaseProgress = clamp01(float64(e.elapsed) / float64(dur))
	total := totalProgress(e.pattern, e.state.Cycle, e.state.Phase, e.state.PhaseProgress)
	// 1.0 is reserved for natural completion.
	total = math.Min(total, math.Nextafter(1, 0))
	if total > e.state.TotalProgress {
		e.state.TotalProgress = total
	}
	return false
}

func (e *Engine) startLoopLocked() {
	r := &run{stop: make(chan struct{})}
	e.run = r
	ticker := e.clock.NewTicker(TickInterval)
	go e.loop(r, ticker)
}

func (e *Engine) stopLoopLocked() {
	if e.run != nil {
		close(e.run.stop)
		e.run = nil
	}
}

func (e *Engine) loop(r *run, ticker *clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if !e.tick(r) {
				return
			}
		}
	}
}

// tick advances the run r. It returns false when r is no longer current.
func (e *Engine) tick(r *run) bool {
	e.mu.Lock()
	if e.run != r {
		e.mu.Unlock()
		return false
	}
	var rec *domain.BreathingSession
	done := e.stepLocked(e.clock.Now())
	if done {
		rec = e.finishLocked()
	}
	e.publishLocked()
	e.mu.Unlock()

	e.save(rec)
	return !done
}

func (e *Engine) recordLocked(now time.Time, cycles int, completed bool) *domain.BreathingSession {
	p := e.pattern
	return &domain.BreathingSession{
		ID:                     uuid.NewString(),
		StartedAt:              e.state.StartedAt,
		ExerciseID:             p.ID,
		ExerciseName:           p.Name,
		DurationSeconds:        int(now.Sub(e.state.StartedAt) / time.Second),
		CyclesCompleted:        cycles,
		TargetCycles:           p.Cycles,
		InhaleSeconds:          p.InhaleSeconds,
		HoldAfterInhaleSeconds: p.HoldAfterInhaleSeconds,
		ExhaleSeconds:          p.ExhaleSeconds,
		HoldAfterExhaleSeconds: p.HoldAfterExhaleSeconds,
		Completed:              completed,
	}
}

// save persists rec outside the lock. Failures are logged; the engine
// state is already consistent.
func (e *Engine) save(rec *domain.BreathingSession) {
	if rec == nil || e.recorder == nil {
		return
	}
	if err := e.recorder.SaveBreathingSession(context.Background(), *rec); err != nil {
		e.log.Error("save breathing session", "id", rec.ID, "err", err)
	}
}

func (e *Engine) snapshotLocked() State {
	s := e.state
	if s.Pattern != nil {
		p := *s.Pattern
		s.Pattern = &p
	}
	return s
}

func (e *Engine) publishLocked() {
	s := e.snapshotLocked()
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

type nopFeedback struct{}

func (nopFeedback) Pulse(domain.Phase)          {}
func (nopFeedback) SessionStartCue()            {}
func (nopFeedback) SessionCompleteCue()         {}
func (nopFeedback) PlayAmbient(string, float64) {}
func (nopFeedback) StopAmbient()                {}
