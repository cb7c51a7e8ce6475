package breathing

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/domain"
)

var epoch = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

type fakeRecorder struct {
	saved chan domain.BreathingSession
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{saved: make(chan domain.BreathingSession, 8)}
}

func (r *fakeRecorder) SaveBreathingSession(_ context.Context, s domain.BreathingSession) error {
	r.saved <- s
	return nil
}

func (r *fakeRecorder) next(t *testing.T) domain.BreathingSession {
	t.Helper()
	select {
	case s := <-r.saved:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no session recorded")
		return domain.BreathingSession{}
	}
}

func (r *fakeRecorder) none(t *testing.T) {
	t.Helper()
	select {
	case s := <-r.saved:
		t.Fatalf("unexpected session recorded: %+v", s)
	default:
	}
}

type fakeFeedback struct {
	mu        sync.Mutex
	pulses    []domain.Phase
	starts    int
	completes int
	ambient   bool
}

func (f *fakeFeedback) Pulse(p domain.Phase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulses = append(f.pulses, p)
}

func (f *fakeFeedback) SessionStartCue() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

func (f *fakeFeedback) SessionCompleteCue() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
}

func (f *fakeFeedback) PlayAmbient(string, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ambient = true
}

func (f *fakeFeedback) StopAmbient() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ambient = false
}

func (f *fakeFeedback) pulseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pulses)
}

// syncTick brings the engine up to the fake clock's current time
// regardless of whether the loop goroutine has seen the last tick.
func syncTick(e *Engine) {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r != nil {
		e.tick(r)
	}
}

func advance(e *Engine, c *clock.FakeClock, d time.Duration) State {
	c.Advance(d)
	syncTick(e)
	return e.State()
}

func newTestEngine(t *testing.T, p domain.Pattern) (*Engine, *clock.FakeClock, *fakeRecorder, *fakeFeedback) {
	t.Helper()
	c := clock.Fake(epoch)
	rec := newFakeRecorder()
	fb := &fakeFeedback{}
	e := New(c, rec, fb, nil, Options{Sound: true, Haptics: true, Ambient: "rain", Volume: 0.5})
	if err := e.SelectPattern(p); err != nil {
		t.Fatalf("SelectPattern: %v", err)
	}
	t.Cleanup(e.Stop)
	return e, c, rec, fb
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

var twoStep = domain.Pattern{ID: "two", Name: "Two Step", InhaleSeconds: 1, ExhaleSeconds: 1, Cycles: 2}

func TestFollowingSkipsZeroPhases(t *testing.T) {
	p := domain.Pattern{ID: "p", InhaleSeconds: 4, HoldAfterInhaleSeconds: 7, ExhaleSeconds: 8, Cycles: 2}
	type step struct {
		cycle int
		phase domain.Phase
	}
	want := []step{
		{1, domain.PhaseInhale}, {1, domain.PhaseHoldAfterInhale}, {1, domain.PhaseExhale},
		{2, domain.PhaseInhale}, {2, domain.PhaseHoldAfterInhale}, {2, domain.PhaseExhale},
	}
	cycle, phase := 0, domain.PhaseRest
	for i, w := range want {
		var ok bool
		cycle, phase, ok = following(p, cycle, phase)
		if !ok || cycle != w.cycle || phase != w.phase {
			t.Fatalf("step %d: got (%d, %v, %v), want (%d, %v)", i, cycle, phase, ok, w.cycle, w.phase)
		}
	}
	if _, _, ok := following(p, cycle, phase); ok {
		t.Fatal("sequence did not end after the last cycle")
	}
}

func TestFollowingFromMidCycle(t *testing.T) {
	p := domain.Pattern{ID: "p", HoldAfterInhaleSeconds: 2, ExhaleSeconds: 3, Cycles: 3}
	cycle, phase, ok := following(p, 2, domain.PhaseExhale)
	if !ok || cycle != 3 || phase != domain.PhaseHoldAfterInhale {
		t.Fatalf("got (%d, %v, %v), want (3, hold_after_inhale)", cycle, phase, ok)
	}
	cycle, phase, ok = following(p, 0, domain.PhaseRest)
	if !ok || cycle != 1 || phase != domain.PhaseHoldAfterInhale {
		t.Fatalf("first phase = (%d, %v, %v), want (1, hold_after_inhale)", cycle, phase, ok)
	}
}

func TestTotalProgressFormula(t *testing.T) {
	box := domain.Pattern{ID: "box", InhaleSeconds: 4, HoldAfterInhaleSeconds: 4, ExhaleSeconds: 4, HoldAfterExhaleSeconds: 4, Cycles: 4}
	tests := []struct {
		cycle    int
		phase    domain.Phase
		progress float64
		want     float64
	}{
		{1, domain.PhaseInhale, 0, 0},
		{1, domain.PhaseHoldAfterInhale, 0.5, 6.0 / 64},
		{2, domain.PhaseInhale, 0, 0.25},
		{4, domain.PhaseHoldAfterExhale, 1, 1},
		{3, domain.PhaseExhale, 0.25, 41.0 / 64},
	}
	for _, tt := range tests {
		if got := totalProgress(box, tt.cycle, tt.phase, tt.progress); !near(got, tt.want) {
			t.Errorf("totalProgress(%d, %v, %v) = %v, want %v", tt.cycle, tt.phase, tt.progress, got, tt.want)
		}
	}
}

func TestStartWithoutPatternIsNoop(t *testing.T) {
	e := New(clock.Fake(epoch), newFakeRecorder(), nil, nil, Options{})
	e.Start()
	e.Resume()
	e.Pause()
	if s := e.State(); s.Active || s.Phase != domain.PhaseRest {
		t.Fatalf("state changed: %+v", s)
	}
}

func TestFullRun(t *testing.T) {
	e, c, rec, fb := newTestEngine(t, twoStep)
	e.Start()

	s := e.State()
	if !s.Active || s.Cycle != 1 || s.Phase != domain.PhaseInhale || s.PhaseProgress != 0 {
		t.Fatalf("after Start: %+v", s)
	}
	if fb.starts != 1 || !fb.ambient {
		t.Fatalf("start cue/ambient missing: %+v", fb)
	}

	s = advance(e, c, 500*time.Millisecond)
	if s.Phase != domain.PhaseInhale || !near(s.PhaseProgress, 0.5) || !near(s.TotalProgress, 0.125) {
		t.Fatalf("at 0.5s: %+v", s)
	}
	s = advance(e, c, time.Second)
	if s.Phase != domain.PhaseExhale || !near(s.PhaseProgress, 0.5) || !near(s.TotalProgress, 0.375) {
		t.Fatalf("at 1.5s: %+v", s)
	}
	s = advance(e, c, time.Second)
	if s.Cycle != 2 || s.Phase != domain.PhaseInhale || !near(s.TotalProgress, 0.625) {
		t.Fatalf("at 2.5s: %+v", s)
	}
	if s.TotalProgress >= 1 {
		t.Fatal("total progress reached 1 before completion")
	}

	s = advance(e, c, 1500*time.Millisecond)
	if s.Active || s.TotalProgress != 1 || s.PhaseProgress != 0 || s.Phase != domain.PhaseRest {
		t.Fatalf("after completion: %+v", s)
	}

	got := rec.next(t)
	if !got.Completed || got.CyclesCompleted != 2 || got.TargetCycles != 2 || got.DurationSeconds != 4 {
		t.Fatalf("record = %+v", got)
	}
	if got.ExerciseName != "Two Step" || got.InhaleSeconds != 1 || !got.StartedAt.Equal(epoch) {
		t.Fatalf("denormalized fields = %+v", got)
	}
	// inhale at start, then exhale, inhale, exhale
	if n := fb.pulseCount(); n != 4 {
		t.Fatalf("pulses = %d, want 4", n)
	}
	if fb.completes != 1 || fb.ambient {
		t.Fatalf("completion feedback = %+v", fb)
	}
}

func TestPauseResumeKeepsPosition(t *testing.T) {
	box := domain.Pattern{ID: "box", Name: "Box", InhaleSeconds: 4, HoldAfterInhaleSeconds: 4, ExhaleSeconds: 4, HoldAfterExhaleSeconds: 4, Cycles: 2}
	e, c, _, fb := newTestEngine(t, box)
	e.Start()

	advance(e, c, 6*time.Second)
	e.Pause()
	s := e.State()
	if !s.Paused || !s.Active || s.Phase != domain.PhaseHoldAfterInhale || !near(s.PhaseProgress, 0.5) {
		t.Fatalf("after Pause: %+v", s)
	}
	e.Pause()

	c.Advance(100 * time.Second)
	syncTick(e)
	if got := e.State(); got.PhaseProgress != s.PhaseProgress || got.TotalProgress != s.TotalProgress {
		t.Fatalf("progress moved while paused: %+v", got)
	}

	pulses := fb.pulseCount()
	e.Resume()
	if fb.pulseCount() != pulses {
		t.Fatal("resume mid-phase emitted a pulse")
	}
	s = advance(e, c, time.Second)
	if s.Phase != domain.PhaseHoldAfterInhale || !near(s.PhaseProgress, 0.75) {
		t.Fatalf("resume restarted the phase: %+v", s)
	}
	s = advance(e, c, 2*time.Second)
	if s.Phase != domain.PhaseExhale || s.Cycle != 1 || !near(s.PhaseProgress, 0.25) {
		t.Fatalf("did not continue with the rest of the cycle: %+v", s)
	}
}

func TestPausedTrajectoryMatchesUninterrupted(t *testing.T) {
	p := domain.Pattern{ID: "p", Name: "P", InhaleSeconds: 3, HoldAfterInhaleSeconds: 2, ExhaleSeconds: 5, Cycles: 3}
	plain, plainClock, _, _ := newTestEngine(t, p)
	paused, pausedClock, _, _ := newTestEngine(t, p)
	plain.Start()
	paused.Start()

	advance(plain, plainClock, 4*time.Second)
	advance(paused, pausedClock, 4*time.Second)
	paused.Pause()
	pausedClock.Advance(37 * time.Second)
	paused.Resume()

	for _, d := range []time.Duration{700 * time.Millisecond, 3 * time.Second, 5300 * time.Millisecond, 9 * time.Second} {
		a := advance(plain, plainClock, d)
		b := advance(paused, pausedClock, d)
		if a.Cycle != b.Cycle || a.Phase != b.Phase || !near(a.TotalProgress, b.TotalProgress) || !near(a.PhaseProgress, b.PhaseProgress) {
			t.Fatalf("trajectories diverged:\nplain  %+v\npaused %+v", a, b)
		}
	}
}

func TestTotalProgressMonotonic(t *testing.T) {
	p := domain.Pattern{ID: "p", Name: "P", InhaleSeconds: 2, ExhaleSeconds: 3, HoldAfterExhaleSeconds: 1, Cycles: 2}
	e, c, rec, _ := newTestEngine(t, p)
	e.Start()

	prev := 0.0
	for i := 0; i < 12*60; i++ {
		s := advance(e, c, 17*time.Millisecond)
		if s.TotalProgress < prev {
			t.Fatalf("tick %d: total progress went from %v to %v", i, prev, s.TotalProgress)
		}
		if s.Active && s.TotalProgress >= 1 {
			t.Fatalf("tick %d: total progress hit 1 while still running", i)
		}
		prev = s.TotalProgress
		if !s.Active {
			break
		}
	}
	if prev != 1 {
		t.Fatalf("final total progress = %v, want 1", prev)
	}
	rec.next(t)
}

// A stop in cycle 3 records the two finished cycles, so a stopped run
// never reports as many cycles as the completed run of the same pattern.
func TestStopRecordsOnlyFinishedCycles(t *testing.T) {
	p := domain.Pattern{ID: "p", Name: "P", InhaleSeconds: 1, ExhaleSeconds: 1, Cycles: 4}
	e, c, rec, fb := newTestEngine(t, p)
	e.Start()

	s := advance(e, c, 4500*time.Millisecond)
	if s.Cycle != 3 {
		t.Fatalf("cycle = %d, want 3", s.Cycle)
	}
	e.Stop()

	got := rec.next(t)
	if got.Completed || got.CyclesCompleted != 2 || got.TargetCycles != 4 || got.DurationSeconds != 4 {
		t.Fatalf("record = %+v", got)
	}
	s = e.State()
	if s.Active || s.Paused || s.Phase != domain.PhaseRest || s.PhaseProgress != 0 {
		t.Fatalf("after Stop: %+v", s)
	}
	if fb.ambient {
		t.Fatal("ambient still playing after Stop")
	}

	e.Stop()
	rec.none(t)
}

func TestSelectPatternStopsActiveRun(t *testing.T) {
	e, c, rec, _ := newTestEngine(t, twoStep)
	e.Start()
	advance(e, c, 1200*time.Millisecond)

	other := domain.Pattern{ID: "other", Name: "Other", InhaleSeconds: 2, ExhaleSeconds: 2, Cycles: 1}
	if err := e.SelectPattern(other); err != nil {
		t.Fatalf("SelectPattern: %v", err)
	}
	got := rec.next(t)
	if got.Completed || got.ExerciseID != "two" || got.CyclesCompleted != 0 {
		t.Fatalf("record = %+v", got)
	}
	s := e.State()
	if s.Active || s.Pattern == nil || s.Pattern.ID != "other" || s.Cycle != 0 || s.TotalProgress != 0 {
		t.Fatalf("after reselect: %+v", s)
	}

	if err := e.SelectPattern(domain.Pattern{ID: "bad", Cycles: 1}); err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func TestSubscribeDeliversLatest(t *testing.T) {
	e, c, rec, _ := newTestEngine(t, twoStep)
	updates, cancel := e.Subscribe()
	defer cancel()

	e.Start()
	advance(e, c, 4*time.Second)
	rec.next(t)

	var last State
	for {
		select {
		case s := <-updates:
			last = s
			continue
		default:
		}
		break
	}
	if last.Active || last.TotalProgress != 1 {
		t.Fatalf("latest update = %+v", last)
	}
}
