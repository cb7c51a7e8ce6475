package pomodoro

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/domain"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type memRecorder struct {
	mu    sync.Mutex
	saved []domain.FocusSession
}

func (r *memRecorder) SaveFocusSession(_ context.Context, s domain.FocusSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, s)
	return nil
}

func (r *memRecorder) all() []domain.FocusSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FocusSession(nil), r.saved...)
}

type memSnapshots struct {
	mu   sync.Mutex
	blob []byte
}

func (m *memSnapshots) LoadSnapshot(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blob, nil
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = append([]byte(nil), b...)
	return nil
}

type progressCall struct {
	typ    domain.SessionType
	paused bool
}

type fakeNotifier struct {
	mu          sync.Mutex
	progress    []progressCall
	completions [][2]domain.SessionType
	cancels     int
}

func (n *fakeNotifier) ShowProgress(t domain.SessionType, _ string, _ float64, paused bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, progressCall{t, paused})
}

func (n *fakeNotifier) ShowCompletion(finished, next domain.SessionType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, [2]domain.SessionType{finished, next})
}

func (n *fakeNotifier) CancelProgress() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancels++
}

func (n *fakeNotifier) progressCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.progress)
}

func (n *fakeNotifier) lastProgress() progressCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.progress[len(n.progress)-1]
}

type fixture struct {
	clock *clock.FakeClock
	rec   *memRecorder
	note  *fakeNotifier
	snaps *memSnapshots
	e     *Engine
}

// oneMinute uses one-minute sessions so a full session is 60 ticks.
func oneMinute(cycles int) Settings {
	return Settings{
		Mode:               domain.ModeCustom,
		CustomFocusMinutes: 1,
		CustomBreakMinutes: 1,
		LongBreakMinutes:   1,
		Cycles:             cycles,
	}
}

func newFixture(t *testing.T, settings Settings) *fixture {
	t.Helper()
	f := &fixture{
		clock: clock.Fake(epoch),
		rec:   &memRecorder{},
		note:  &fakeNotifier{},
		snaps: &memSnapshots{},
	}
	f.e = New(f.clock, f.rec, f.note, f.snaps, nil, settings)
	t.Cleanup(f.e.Stop)
	return f
}

// finishSession ticks a running session down to zero.
func finishSession(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; e.State().Status == domain.StatusRunning; i++ {
		if i > 24*3600 {
			t.Fatal("session never finished")
		}
		e.Tick()
	}
}

func TestNewIsIdleBaseline(t *testing.T) {
	f := newFixture(t, Settings{})
	s := f.e.State()

	if s.Status != domain.StatusIdle || s.SessionType != domain.SessionWork {
		t.Fatalf("status/type = %s/%s, want idle/work", s.Status, s.SessionType)
	}
	if s.Mode != domain.ModePomodoro {
		t.Errorf("mode = %s, want pomodoro", s.Mode)
	}
	if s.RemainingSeconds != 1500 || s.TotalSeconds != 1500 {
		t.Errorf("remaining/total = %d/%d, want 1500/1500", s.RemainingSeconds, s.TotalSeconds)
	}
	if s.TotalCycles != DefaultCycles || s.LongBreakMinutes != DefaultLongBreakMinutes {
		t.Errorf("cycles/long break = %d/%d", s.TotalCycles, s.LongBreakMinutes)
	}
	if s.SessionID != "" {
		t.Errorf("session id = %q before start", s.SessionID)
	}
}

func TestCountdownRefreshesProgressEveryTenSeconds(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	if got := f.note.progressCount(); got != 1 {
		t.Fatalf("progress notices after start = %d, want 1", got)
	}

	for i := 0; i < 10; i++ {
		f.e.Tick()
	}
	s := f.e.State()
	if s.RemainingSeconds != 50 || s.WorkSeconds != 10 {
		t.Fatalf("remaining/work = %d/%d, want 50/10", s.RemainingSeconds, s.WorkSeconds)
	}
	if got := f.note.progressCount(); got != 2 {
		t.Errorf("progress notices = %d, want 2", got)
	}
	if got, want := s.Progress(), 10.0/60.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("progress = %v, want %v", got, want)
	}
	if s.RemainingLabel() != "00:50" {
		t.Errorf("label = %q", s.RemainingLabel())
	}
}

func TestWorkCompletionAutoStartsBreakAfterGrace(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	id := f.e.State().SessionID
	finishSession(t, f.e)

	s := f.e.State()
	if s.SessionType != domain.SessionShortBreak || s.Status != domain.StatusIdle {
		t.Fatalf("after work: %s/%s, want short_break/idle", s.SessionType, s.Status)
	}
	if s.CompletedWorkSessions != 1 || s.CurrentCycle != 1 || s.RemainingSeconds != 60 {
		t.Errorf("completed/cycle/remaining = %d/%d/%d", s.CompletedWorkSessions, s.CurrentCycle, s.RemainingSeconds)
	}
	if got := f.note.completions; len(got) != 1 || got[0] != [2]domain.SessionType{domain.SessionWork, domain.SessionShortBreak} {
		t.Errorf("completions = %v", got)
	}

	f.clock.Advance(GraceDelay - time.Second)
	if got := f.e.State().Status; got != domain.StatusIdle {
		t.Fatalf("status before grace elapsed = %s", got)
	}
	f.clock.Advance(time.Second)
	s = f.e.State()
	if s.Status != domain.StatusRunning {
		t.Fatalf("status after grace = %s, want running", s.Status)
	}
	if s.SessionID != id {
		t.Errorf("session id changed across sessions: %q -> %q", id, s.SessionID)
	}

	// Breaks do not accrue work time.
	f.e.Tick()
	if got := f.e.State().WorkSeconds; got != 60 {
		t.Errorf("work seconds during break = %d, want 60", got)
	}
}

func TestLongBreakFollowsConfiguredCycles(t *testing.T) {
	f := newFixture(t, oneMinute(2))

	f.e.Start()
	finishSession(t, f.e) // work 1
	f.e.Start()
	finishSession(t, f.e) // short break
	if got := f.e.State().SessionType; got != domain.SessionWork {
		t.Fatalf("after short break: %s, want work", got)
	}
	f.e.Start()
	finishSession(t, f.e) // work 2

	s := f.e.State()
	if s.SessionType != domain.SessionLongBreak {
		t.Fatalf("after second work: %s, want long_break", s.SessionType)
	}
	if s.CurrentCycle != 0 {
		t.Errorf("cycle = %d, want 0", s.CurrentCycle)
	}
}

func TestFullRunRecordsCompletedSession(t *testing.T) {
	f := newFixture(t, oneMinute(1))
	f.e.SetTask("thesis")
	f.e.Start()
	id := f.e.State().SessionID

	// With one cycle per long break, a full run is four work and
	// long break pairs.
	for i := 0; i < FullRunMultiplier*2; i++ {
		if i > 0 && f.e.State().SessionID != id {
			t.Fatalf("run ended early after %d sessions", i)
		}
		f.e.Start()
		finishSession(t, f.e)
	}

	saved := f.rec.all()
	if len(saved) != 1 {
		t.Fatalf("recorded %d sessions, want 1", len(saved))
	}
	got := saved[0]
	if got.ID != id || got.TaskName != "thesis" {
		t.Errorf("record id/task = %q/%q", got.ID, got.TaskName)
	}
	if !got.Completed || got.Interrupted {
		t.Errorf("completed/interrupted = %v/%v", got.Completed, got.Interrupted)
	}
	if got.DurationSeconds != 4*60 || got.CompletedCycles != 4 || got.TargetCycles != 4 {
		t.Errorf("duration/cycles/target = %d/%d/%d", got.DurationSeconds, got.CompletedCycles, got.TargetCycles)
	}
	if !got.StartedAt.Equal(epoch) {
		t.Errorf("started at = %v", got.StartedAt)
	}

	s := f.e.State()
	if s.Status != domain.StatusIdle || s.SessionID != "" || s.CompletedWorkSessions != 0 {
		t.Errorf("state after full run = %+v", s)
	}
	if s.TaskName != "thesis" {
		t.Errorf("task name cleared")
	}
}

func TestStopRecordsInterruptedWork(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	for i := 0; i < 30; i++ {
		f.e.Tick()
	}
	f.e.Stop()

	saved := f.rec.all()
	if len(saved) != 1 {
		t.Fatalf("recorded %d sessions, want 1", len(saved))
	}
	if got := saved[0]; got.DurationSeconds != 30 || got.Completed || !got.Interrupted || got.CompletedCycles != 0 {
		t.Errorf("record = %+v", got)
	}
	s := f.e.State()
	if s.Status != domain.StatusIdle || s.RemainingSeconds != 60 || s.SessionID != "" {
		t.Errorf("state after stop = %+v", s)
	}

	f.e.Stop()
	if got := len(f.rec.all()); got != 1 {
		t.Errorf("second stop recorded again: %d", got)
	}
}

func TestStopWithoutWorkRecordsNothing(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	f.e.Stop()
	if got := len(f.rec.all()); got != 0 {
		t.Fatalf("recorded %d sessions, want 0", got)
	}
	if f.note.cancels != 1 {
		t.Errorf("cancels = %d, want 1", f.note.cancels)
	}
}

func TestStopDuringGraceCancelsAutoStart(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	finishSession(t, f.e)
	f.e.Stop()

	saved := f.rec.all()
	if len(saved) != 1 || saved[0].DurationSeconds != 60 || saved[0].CompletedCycles != 1 {
		t.Fatalf("records = %+v", saved)
	}

	f.clock.Advance(2 * GraceDelay)
	s := f.e.State()
	if s.Status != domain.StatusIdle || s.SessionType != domain.SessionWork {
		t.Errorf("state after cancelled grace = %s/%s", s.Status, s.SessionType)
	}
}

func TestPauseHoldsRemaining(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	for i := 0; i < 5; i++ {
		f.e.Tick()
	}
	f.e.Pause()
	f.e.Tick()
	f.e.Tick()

	s := f.e.State()
	if s.Status != domain.StatusPaused || s.RemainingSeconds != 55 {
		t.Fatalf("paused state = %s/%d, want paused/55", s.Status, s.RemainingSeconds)
	}
	if last := f.note.lastProgress(); !last.paused {
		t.Errorf("last progress notice not paused")
	}

	f.e.Resume()
	f.e.Tick()
	if got := f.e.State().RemainingSeconds; got != 54 {
		t.Errorf("remaining after resume = %d, want 54", got)
	}
}

func TestInvalidTransitionsAreNoops(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	before := f.e.State()
	f.e.Pause()
	f.e.Resume()
	f.e.Tick()
	if got := f.e.State(); got != before {
		t.Fatalf("idle state changed: %+v", got)
	}

	f.e.Start()
	id := f.e.State().SessionID
	f.e.Start()
	if got := f.e.State().SessionID; got != id {
		t.Errorf("second start replaced session id")
	}
	f.e.Resume()
	if got := f.e.State().Status; got != domain.StatusRunning {
		t.Errorf("resume while running changed status to %s", got)
	}
}

func TestSelectModeStopsRun(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	f.e.Tick()
	f.e.Tick()
	f.e.Tick()
	f.e.SelectMode(domain.ModeLongFocus)

	saved := f.rec.all()
	if len(saved) != 1 || saved[0].DurationSeconds != 3 || !saved[0].Interrupted {
		t.Fatalf("records = %+v", saved)
	}
	s := f.e.State()
	if s.Mode != domain.ModeLongFocus || s.RemainingSeconds != 3000 || s.Status != domain.StatusIdle {
		t.Errorf("state = %s/%d/%s", s.Mode, s.RemainingSeconds, s.Status)
	}
}

func TestSetDurationsAppliesWhenIdle(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.SetDurations(2, 0, 0)
	s := f.e.State()
	if s.RemainingSeconds != 120 || s.CustomBreakMinutes != 1 {
		t.Fatalf("remaining/break = %d/%d, want 120/1", s.RemainingSeconds, s.CustomBreakMinutes)
	}

	f.e.Start()
	f.e.SetDurations(10, 0, 0)
	if got := f.e.State().RemainingSeconds; got != 120 {
		t.Errorf("running session length changed to %d", got)
	}
}

func TestRestoreResumesRunningCountdown(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.SetTask("review")
	f.e.Start()
	for i := 0; i < 7; i++ {
		f.e.Tick()
	}
	want := f.e.State()

	restored := New(clock.Fake(epoch.Add(time.Hour)), f.rec, nil, f.snaps, nil, Settings{})
	t.Cleanup(restored.Stop)
	if err := restored.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got := restored.State()
	if got.Status != domain.StatusRunning || got.RemainingSeconds != 53 {
		t.Fatalf("restored status/remaining = %s/%d", got.Status, got.RemainingSeconds)
	}
	if got.SessionID != want.SessionID || got.TaskName != "review" || got.Mode != domain.ModeCustom {
		t.Errorf("restored = %+v, want %+v", got, want)
	}
	if !got.StartedAt.Equal(want.StartedAt) || got.WorkSeconds != 7 {
		t.Errorf("started/work = %v/%d", got.StartedAt, got.WorkSeconds)
	}

	restored.Tick()
	if got := restored.State().RemainingSeconds; got != 52 {
		t.Errorf("remaining after tick = %d, want 52", got)
	}
}

func TestRestoreBetweenSessionsRearmsGrace(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	finishSession(t, f.e)

	c := clock.Fake(epoch)
	restored := New(c, f.rec, nil, f.snaps, nil, Settings{})
	t.Cleanup(restored.Stop)
	if err := restored.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := restored.State().Status; got != domain.StatusIdle {
		t.Fatalf("restored status = %s, want idle", got)
	}
	c.Advance(GraceDelay)
	s := restored.State()
	if s.Status != domain.StatusRunning || s.SessionType != domain.SessionShortBreak {
		t.Errorf("after grace = %s/%s", s.Status, s.SessionType)
	}
}

// restoreAndTick plays one invocation of an external scheduler: a fresh
// engine whose own clock never moves, restored from snaps, ticked n times.
func restoreAndTick(t *testing.T, snaps *memSnapshots, rec *memRecorder, n int) State {
	t.Helper()
	e := New(clock.Fake(epoch), rec, nil, snaps, nil, Settings{})
	if err := e.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for i := 0; i < n; i++ {
		e.Tick()
	}
	s := e.State()
	e.mu.Lock()
	e.stopLoopLocked()
	e.cancelGraceLocked()
	e.mu.Unlock()
	return s
}

func TestExternalTicksCrossSessionBoundaries(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	finishSession(t, f.e)
	if got := f.e.State().GraceSeconds; got != graceSeconds {
		t.Fatalf("grace after work = %d, want %d", got, graceSeconds)
	}

	// Two ticks of grace, then 58 seconds of the short break.
	s := restoreAndTick(t, f.snaps, f.rec, 60)
	if s.SessionType != domain.SessionShortBreak || s.Status != domain.StatusRunning || s.RemainingSeconds != 2 {
		t.Fatalf("first invocation = %s/%s/%d, want short_break/running/2", s.SessionType, s.Status, s.RemainingSeconds)
	}

	// The break ends, two ticks of grace, then 56 seconds of work.
	s = restoreAndTick(t, f.snaps, f.rec, 60)
	if s.SessionType != domain.SessionWork || s.Status != domain.StatusRunning || s.RemainingSeconds != 4 {
		t.Fatalf("second invocation = %s/%s/%d, want work/running/4", s.SessionType, s.Status, s.RemainingSeconds)
	}
	if s.CompletedWorkSessions != 1 || s.WorkSeconds != 60+56 || s.CurrentCycle != 1 {
		t.Errorf("completed/work/cycle = %d/%d/%d", s.CompletedWorkSessions, s.WorkSeconds, s.CurrentCycle)
	}
}

func TestRestoreKeepsPartialGrace(t *testing.T) {
	f := newFixture(t, oneMinute(4))
	f.e.Start()
	finishSession(t, f.e)
	s := restoreAndTick(t, f.snaps, f.rec, 1)
	if s.Status != domain.StatusIdle || s.GraceSeconds != graceSeconds-1 {
		t.Fatalf("after one grace tick = %s, grace %d", s.Status, s.GraceSeconds)
	}

	c := clock.Fake(epoch)
	restored := New(c, f.rec, nil, f.snaps, nil, Settings{})
	t.Cleanup(restored.Stop)
	if err := restored.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	c.Advance(time.Duration(graceSeconds-1) * time.Second)
	if got := restored.State(); got.Status != domain.StatusRunning || got.GraceSeconds != 0 {
		t.Errorf("after remaining grace = %s, grace %d", got.Status, got.GraceSeconds)
	}
}

func TestRestoreMalformedSnapshot(t *testing.T) {
	tests := []struct {
		name string
		blob func(t *testing.T) []byte
		want func(t *testing.T, s State)
	}{
		{
			name: "garbage bytes keep baseline",
			blob: func(*testing.T) []byte { return []byte{0xff, 0x00, 0x13} },
			want: func(t *testing.T, s State) {
				if s.Mode != domain.ModePomodoro || s.RemainingSeconds != 1500 {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name: "unknown enums and bad ranges",
			blob: func(t *testing.T) []byte {
				b, err := encMode.Marshal(snapshot{
					Version:          snapshotVersion,
					Mode:             "zen",
					SessionType:      "nap",
					Status:           "exploded",
					RemainingSeconds: 9999,
					TotalSeconds:     600,
				})
				if err != nil {
					t.Fatal(err)
				}
				return b
			},
			want: func(t *testing.T, s State) {
				if s.Mode != domain.ModePomodoro || s.SessionType != domain.SessionWork || s.Status != domain.StatusIdle {
					t.Errorf("enums = %s/%s/%s", s.Mode, s.SessionType, s.Status)
				}
				if s.RemainingSeconds != 600 || s.TotalCycles != DefaultCycles || s.LongBreakMinutes != DefaultLongBreakMinutes {
					t.Errorf("remaining/cycles/long = %d/%d/%d", s.RemainingSeconds, s.TotalCycles, s.LongBreakMinutes)
				}
			},
		},
		{
			name: "future version keeps baseline",
			blob: func(t *testing.T) []byte {
				b, err := encMode.Marshal(snapshot{Version: snapshotVersion + 1, Mode: "long_focus"})
				if err != nil {
					t.Fatal(err)
				}
				return b
			},
			want: func(t *testing.T, s State) {
				if s.Mode != domain.ModePomodoro {
					t.Errorf("mode = %s", s.Mode)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps := &memSnapshots{blob: tt.blob(t)}
			e := New(clock.Fake(epoch), nil, nil, snaps, nil, Settings{})
			t.Cleanup(e.Stop)
			if err := e.Restore(context.Background()); err != nil {
				t.Fatalf("Restore: %v", err)
			}
			tt.want(t, e.State())
		})
	}
}

func TestProgressIsClamped(t *testing.T) {
	tests := []struct {
		remaining, total int
		want             float64
	}{
		{60, 60, 0},
		{30, 60, 0.5},
		{0, 60, 1},
		{-5, 60, 1},
		{90, 60, 0},
		{10, 0, 0},
	}
	for _, tt := range tests {
		s := State{RemainingSeconds: tt.remaining, TotalSeconds: tt.total}
		if got := s.Progress(); got != tt.want {
			t.Errorf("Progress(%d/%d) = %v, want %v", tt.remaining, tt.total, got, tt.want)
		}
	}
}
