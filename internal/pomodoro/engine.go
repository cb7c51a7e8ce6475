// Package pomodoro is the work / short break / long break timer. The
// countdown ticks once a second; every state change is written to a
// durable snapshot so a killed process resumes from the stored
// remaining time.
package pomodoro

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/domain"
)

const (
	TickInterval = time.Second
	// GraceDelay is the window between sessions in which the user can
	// cancel auto-continuation.
	GraceDelay = 2 * time.Second
	// FullRunMultiplier × cycles-before-long-break work sessions end a run.
	FullRunMultiplier = 4

	DefaultLongBreakMinutes = 15
	DefaultCycles           = 4

	progressRefreshSeconds = 10
)

// Recorder persists finished and interrupted runs.
type Recorder interface {
	SaveFocusSession(ctx context.Context, s domain.FocusSession) error
}

// Notifier is the notification port.
type Notifier interface {
	ShowProgress(t domain.SessionType, remaining string, progress float64, paused bool)
	ShowCompletion(finished, next domain.SessionType)
	CancelProgress()
}

// SnapshotStore holds the durable timer blob. Load returns nil, nil
// when nothing has been saved yet.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) ([]byte, error)
	SaveSnapshot(ctx context.Context, blob []byte) error
}

// Settings seed the engine before any snapshot is restored.
type Settings struct {
	Mode               domain.FocusMode
	CustomFocusMinutes int
	CustomBreakMinutes int
	LongBreakMinutes   int
	Cycles             int
	TaskName           string
}

// State is the timer state. It is also the persisted snapshot.
type State struct {
	Mode               domain.FocusMode
	CustomFocusMinutes int
	CustomBreakMinutes int
	LongBreakMinutes   int

	SessionType      domain.SessionType
	Status           domain.TimerStatus
	RemainingSeconds int
	TotalSeconds     int

	CurrentCycle          int // 0-based position before the next long break
	TotalCycles           int
	CompletedWorkSessions int
	WorkSeconds           int // accrued during work sessions only
	GraceSeconds          int // left before an IDLE session inside a run auto-starts

	TaskName  string
	SessionID string // one per continuous run
	StartedAt time.Time
}

// Progress is 1 − remaining/total, clamped to [0, 1].
func (s State) Progress() float64 {
	if s.TotalSeconds <= 0 {
		return 0
	}
	p := 1 - float64(s.RemainingSeconds)/float64(s.TotalSeconds)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// RemainingLabel formats the remaining time as mm:ss.
func (s State) RemainingLabel() string {
	r := s.RemainingSeconds
	if r < 0 {
		r = 0
	}
	return fmt.Sprintf("%02d:%02d", r/60, r%60)
}

// InRun reports whether a run has started and not yet been stopped or
// fully completed, including the idle gap between sessions.
func (s State) InRun() bool {
	return s.SessionID != "" || s.Status == domain.StatusRunning || s.Status == domain.StatusPaused
}

// FocusMinutes resolves the work length for the selected mode.
func (s State) FocusMinutes() int {
	if s.Mode == domain.ModeCustom {
		return s.CustomFocusMinutes
	}
	f, _ := s.Mode.Minutes()
	return f
}

// BreakMinutes resolves the short break length for the selected mode.
func (s State) BreakMinutes() int {
	if s.Mode == domain.ModeCustom {
		return s.CustomBreakMinutes
	}
	_, b := s.Mode.Minutes()
	return b
}

// DurationSeconds is the configured length of a session of type t.
func (s State) DurationSeconds(t domain.SessionType) int {
	var minutes int
	switch t {
	case domain.SessionShortBreak:
		minutes = s.BreakMinutes()
	case domain.SessionLongBreak:
		minutes = s.LongBreakMinutes
	default:
		minutes = s.FocusMinutes()
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes * 60
}

// Engine runs one countdown at a time behind mu.
type Engine struct {
	clock     clock.Clock
	recorder  Recorder
	notifier  Notifier
	snapshots SnapshotStore
	log       *slog.Logger

	mu    sync.Mutex
	state State
	run   *run
	grace *clock.Timer
	subs  []chan State
}

type run struct {
	stop   chan struct{}
	ticker *clock.Ticker
}

// New returns an idle engine configured from settings.
func New(c clock.Clock, recorder Recorder, notifier Notifier, snapshots SnapshotStore, log *slog.Logger, settings Settings) *Engine {
	if c == nil {
		c = clock.Real()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		clock:     c,
		recorder:  recorder,
		notifier:  notifier,
		snapshots: snapshots,
		log:       log.With("component", "pomodoro"),
	}
	e.state = State{
		Mode:               settings.Mode,
		CustomFocusMinutes: settings.CustomFocusMinutes,
		CustomBreakMinutes: settings.CustomBreakMinutes,
		LongBreakMinutes:   settings.LongBreakMinutes,
		TotalCycles:        settings.Cycles,
		TaskName:           settings.TaskName,
	}
	e.normalizeLocked()
	e.baselineLocked()
	return e
}

// Restore replaces the state with the persisted snapshot. A running
// timer resumes counting from the stored remaining seconds; a run that
// was between sessions re-arms its auto-start for the grace time still
// left. A missing or unreadable snapshot keeps the current state.
func (e *Engine) Restore(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}
	blob, err := e.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load timer snapshot: %w", err)
	}
	if len(blob) == 0 {
		return nil
	}
	s, err := decodeSnapshot(blob)
	if err != nil {
		e.log.Warn("discarding unreadable timer snapshot", "err", err)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLoopLocked()
	e.cancelGraceLocked()
	e.state = s
	e.normalizeLocked()
	switch {
	case e.state.Status == domain.StatusRunning:
		e.startLoopLocked()
	case e.betweenSessionsLocked():
		e.armGraceLocked()
	}
	e.log.Info("timer restored", "status", e.state.Status, "session_type", e.state.SessionType, "remaining", e.state.RemainingSeconds)
	e.publishLocked()
	return nil
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe returns a channel that always holds the latest state.
func (e *Engine) Subscribe() (updates <-chan State, cancel func()) {
	ch := make(chan State, 1)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	ch <- e.state
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

// SelectMode switches presets. A run in progress is stopped first.
func (e *Engine) SelectMode(mode domain.FocusMode) {
	e.mu.Lock()
	rec := e.interruptLocked()
	e.state.Mode = mode
	e.baselineLocked()
	e.commitLocked()
	e.mu.Unlock()

	e.save(rec)
}

// SetDurations changes the custom and long break lengths. Values
// below 1 keep the current setting. An idle timer picks them up at once.
func (e *Engine) SetDurations(focus, brk, longBreak int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if focus > 0 {
		e.state.CustomFocusMinutes = focus
	}
	if brk > 0 {
		e.state.CustomBreakMinutes = brk
	}
	if longBreak > 0 {
		e.state.LongBreakMinutes = longBreak
	}
	if !e.state.InRun() {
		e.baselineLocked()
	}
	e.commitLocked()
}

// SetCycles sets the number of work sessions before a long break.
func (e *Engine) SetCycles(n int) {
	if n < 1 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.TotalCycles = n
	e.commitLocked()
}

// SetTask names what the user is working on.
func (e *Engine) SetTask(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.TaskName = name
	e.commitLocked()
}

// Start begins the countdown from IDLE. The first start of a run
// assigns its session id and start time.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLocked()
}

func (e *Engine) startLocked() {
	if e.state.Status != domain.StatusIdle && e.state.Status != domain.StatusCompleted {
		return
	}
	e.cancelGraceLocked()
	e.state.GraceSeconds = 0
	if e.state.SessionID == "" {
		e.state.SessionID = uuid.NewString()
		e.state.StartedAt = e.clock.Now()
	}
	if e.state.RemainingSeconds <= 0 {
		e.state.TotalSeconds = e.state.DurationSeconds(e.state.SessionType)
		e.state.RemainingSeconds = e.state.TotalSeconds
	}
	e.state.Status = domain.StatusRunning
	e.startLoopLocked()
	e.notifier.ShowProgress(e.state.SessionType, e.state.RemainingLabel(), e.state.Progress(), false)
	e.log.Info("session started", "session_id", e.state.SessionID, "session_type", e.state.SessionType, "seconds", e.state.RemainingSeconds)
	e.commitLocked()
}

// Pause holds the remaining time.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status != domain.StatusRunning {
		return
	}
	e.stopLoopLocked()
	e.state.Status = domain.StatusPaused
	e.notifier.ShowProgress(e.state.SessionType, e.state.RemainingLabel(), e.state.Progress(), true)
	e.commitLocked()
}

// Resume restarts the countdown from the stored remaining time.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status != domain.StatusPaused {
		return
	}
	e.state.Status = domain.StatusRunning
	e.startLoopLocked()
	e.notifier.ShowProgress(e.state.SessionType, e.state.RemainingLabel(), e.state.Progress(), false)
	e.commitLocked()
}

// Stop ends the run. Accrued work time is recorded as interrupted.
// Stopping during the between-session grace window cancels the
// auto-start.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.state.InRun() {
		e.mu.Unlock()
		return
	}
	rec := e.interruptLocked()
	e.commitLocked()
	e.mu.Unlock()

	e.save(rec)
}

// Tick advances the timer by one second. The internal loop calls it
// every TickInterval; an external scheduler may call it on a restored
// engine instead. Between sessions of a run a tick consumes a second of
// the grace window, and the next session starts once it is used up.
func (e *Engine) Tick() {
	e.mu.Lock()
	rec := e.tickLocked()
	e.mu.Unlock()

	e.save(rec)
}

func (e *Engine) tickLocked() *domain.FocusSession {
	if e.betweenSessionsLocked() {
		e.state.GraceSeconds--
		if e.state.GraceSeconds <= 0 {
			e.startLocked()
		} else {
			e.commitLocked()
		}
		return nil
	}
	if e.state.Status != domain.StatusRunning {
		return nil
	}
	s := &e.state
	s.RemainingSeconds--
	if s.SessionType == domain.SessionWork {
		s.WorkSeconds++
	}
	var rec *domain.FocusSession
	switch {
	case s.RemainingSeconds <= 0:
		s.RemainingSeconds = 0
		rec = e.sessionCompletedLocked()
	case s.RemainingSeconds%progressRefreshSeconds == 0:
		e.notifier.ShowProgress(s.SessionType, s.RemainingLabel(), s.Progress(), false)
	}
	e.commitLocked()
	return rec
}

// sessionCompletedLocked moves to the next session, or ends the run
// after the last break of a full run.
func (e *Engine) sessionCompletedLocked() *domain.FocusSession {
	e.stopLoopLocked()
	s := &e.state
	finished := s.SessionType

	if finished == domain.SessionWork {
		s.CompletedWorkSessions++
		next := domain.SessionShortBreak
		if s.CompletedWorkSessions%s.TotalCycles == 0 {
			next = domain.SessionLongBreak
		}
		e.notifier.ShowCompletion(finished, next)
		e.log.Info("work session completed", "session_id", s.SessionID, "completed", s.CompletedWorkSessions, "next", next)
		e.enterLocked(next)
		return nil
	}

	e.notifier.ShowCompletion(finished, domain.SessionWork)
	if s.CompletedWorkSessions >= s.TotalCycles*FullRunMultiplier {
		rec := e.recordLocked(true)
		e.notifier.CancelProgress()
		e.log.Info("focus run completed", "session_id", s.SessionID, "work_seconds", s.WorkSeconds)
		e.baselineLocked()
		return rec
	}
	e.enterLocked(domain.SessionWork)
	return nil
}

// enterLocked installs the next session as IDLE and arms the grace
// auto-start.
func (e *Engine) enterLocked(next domain.SessionType) {
	s := &e.state
	s.SessionType = next
	s.TotalSeconds = s.DurationSeconds(next)
	s.RemainingSeconds = s.TotalSeconds
	s.CurrentCycle = s.CompletedWorkSessions % s.TotalCycles
	s.Status = domain.StatusIdle
	s.GraceSeconds = graceSeconds
	e.armGraceLocked()
}

const graceSeconds = int(GraceDelay / time.Second)

func (e *Engine) betweenSessionsLocked() bool {
	return e.state.Status == domain.StatusIdle && e.state.SessionID != ""
}

// armGraceLocked schedules the auto-start after the grace seconds left.
func (e *Engine) armGraceLocked() {
	e.cancelGraceLocked()
	id := e.state.SessionID
	d := time.Duration(e.state.GraceSeconds) * time.Second
	e.grace = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.state.Status == domain.StatusIdle && e.state.SessionID == id {
			e.startLocked()
		}
	})
}

func (e *Engine) cancelGraceLocked() {
	if e.grace != nil {
		e.grace.Stop()
		e.grace = nil
	}
}

// interruptLocked stops any run in progress and returns the record to
// persist, if work time had accrued.
func (e *Engine) interruptLocked() *domain.FocusSession {
	if !e.state.InRun() {
		return nil
	}
	e.stopLoopLocked()
	e.cancelGraceLocked()
	var rec *domain.FocusSession
	if e.state.WorkSeconds > 0 {
		rec = e.recordLocked(false)
	}
	e.notifier.CancelProgress()
	e.log.Info("focus run stopped", "session_id", e.state.SessionID, "work_seconds", e.state.WorkSeconds)
	e.baselineLocked()
	return rec
}

func (e *Engine) recordLocked(completed bool) *domain.FocusSession {
	s := e.state
	return &domain.FocusSession{
		ID:              s.SessionID,
		StartedAt:       s.StartedAt,
		DurationSeconds: s.WorkSeconds,
		FocusMinutes:    s.FocusMinutes(),
		BreakMinutes:    s.BreakMinutes(),
		CompletedCycles: s.CompletedWorkSessions,
		TargetCycles:    s.TotalCycles * FullRunMultiplier,
		TaskName:        s.TaskName,
		Completed:       completed,
		Interrupted:     !completed,
	}
}

// baselineLocked resets to an idle WORK session of the selected mode,
// keeping settings and the task name.
func (e *Engine) baselineLocked() {
	s := &e.state
	s.SessionType = domain.SessionWork
	s.Status = domain.StatusIdle
	s.TotalSeconds = s.DurationSeconds(domain.SessionWork)
	s.RemainingSeconds = s.TotalSeconds
	s.CurrentCycle = 0
	s.CompletedWorkSessions = 0
	s.WorkSeconds = 0
	s.GraceSeconds = 0
	s.SessionID = ""
	s.StartedAt = time.Time{}
}

// normalizeLocked enforces the invariants on settings and counters.
func (e *Engine) normalizeLocked() {
	s := &e.state
	s.Mode, _ = domain.ParseFocusMode(string(s.Mode))
	s.SessionType = domain.ParseSessionType(string(s.SessionType))
	s.Status = domain.ParseTimerStatus(string(s.Status))
	if s.CustomFocusMinutes < 1 {
		s.CustomFocusMinutes = 25
	}
	if s.CustomBreakMinutes < 1 {
		s.CustomBreakMinutes = 5
	}
	if s.LongBreakMinutes < 1 {
		s.LongBreakMinutes = DefaultLongBreakMinutes
	}
	if s.TotalCycles < 1 {
		s.TotalCycles = DefaultCycles
	}
	if s.TotalSeconds <= 0 {
		s.TotalSeconds = s.DurationSeconds(s.SessionType)
	}
	if s.RemainingSeconds < 0 || s.RemainingSeconds > s.TotalSeconds {
		s.RemainingSeconds = s.TotalSeconds
	}
	if s.CompletedWorkSessions < 0 {
		s.CompletedWorkSessions = 0
	}
	if s.WorkSeconds < 0 {
		s.WorkSeconds = 0
	}
	switch {
	case !e.betweenSessionsLocked():
		s.GraceSeconds = 0
	case s.GraceSeconds <= 0 || s.GraceSeconds > graceSeconds:
		s.GraceSeconds = graceSeconds
	}
}

func (e *Engine) startLoopLocked() {
	e.stopLoopLocked()
	r := &run{stop: make(chan struct{}), ticker: e.clock.NewTicker(TickInterval)}
	e.run = r
	go e.loop(r)
}

func (e *Engine) stopLoopLocked() {
	if e.run != nil {
		e.run.ticker.Stop()
		close(e.run.stop)
		e.run = nil
	}
}

func (e *Engine) loop(r *run) {
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			e.mu.Lock()
			if e.run != r {
				e.mu.Unlock()
				return
			}
			rec := e.tickLocked()
			e.mu.Unlock()
			e.save(rec)
		}
	}
}

// commitLocked persists the snapshot and publishes the state. A failed
// write is logged; the in-memory timer carries on.
func (e *Engine) commitLocked() {
	if e.snapshots != nil {
		blob, err := encodeSnapshot(e.state)
		if err == nil {
			err = e.snapshots.SaveSnapshot(context.Background(), blob)
		}
		if err != nil {
			e.log.Error("save timer snapshot", "err", err)
		}
	}
	e.publishLocked()
}

func (e *Engine) publishLocked() {
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		ch <- e.state
	}
}

func (e *Engine) save(rec *domain.FocusSession) {
	if rec == nil || e.recorder == nil {
		return
	}
	if err := e.recorder.SaveFocusSession(context.Background(), *rec); err != nil {
		e.log.Error("save focus session", "id", rec.ID, "err", err)
	}
}

type nopNotifier struct{}

func (nopNotifier) ShowProgress(domain.SessionType, string, float64, bool) {}
func (nopNotifier) ShowCompletion(domain.SessionType, domain.SessionType)  {}
func (nopNotifier) CancelProgress()                                        {}
