package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramanasai/bloom/internal/breathing"
	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/pomodoro"
	"github.com/ramanasai/bloom/internal/stats"
)

type fakeBreathing struct {
	state breathing.State
	ch    chan breathing.State
	calls []string
}

func newFakeBreathing(st breathing.State) *fakeBreathing {
	return &fakeBreathing{state: st, ch: make(chan breathing.State, 1)}
}

func (f *fakeBreathing) State() breathing.State { return f.state }
func (f *fakeBreathing) Subscribe() (<-chan breathing.State, func()) {
	return f.ch, func() { f.calls = append(f.calls, "cancel") }
}
func (f *fakeBreathing) Pause()  { f.calls = append(f.calls, "pause") }
func (f *fakeBreathing) Resume() { f.calls = append(f.calls, "resume") }
func (f *fakeBreathing) Stop()   { f.calls = append(f.calls, "stop") }

func press(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// isQuit runs cmd and reports whether it quits the program. A cmd that
// waits on an engine subscription blocks, so it is given a moment and
// then treated as not quitting.
func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	msgs := make(chan tea.Msg, 1)
	go func() { msgs <- cmd() }()
	select {
	case msg := <-msgs:
		_, ok := msg.(tea.QuitMsg)
		return ok
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

func boxPattern() *domain.Pattern {
	p, _ := domain.FindPattern(domain.BuiltinPatterns(), "box")
	return &p
}

func TestBreathingModelKeys(t *testing.T) {
	eng := newFakeBreathing(breathing.State{Pattern: boxPattern(), Active: true, Cycle: 1, Phase: domain.PhaseInhale})
	m := NewBreathingModel(eng, MonoTheme)

	m.Update(press(" "))
	m.Update(breathingStateMsg{Pattern: boxPattern(), Active: true, Paused: true, Cycle: 1, Phase: domain.PhaseInhale})
	if !strings.Contains(m.View(), "(paused)") {
		t.Errorf("paused view:\n%s", m.View())
	}
	m.Update(press(" "))
	_, cmd := m.Update(press("q"))
	if !isQuit(cmd) {
		t.Error("q did not quit")
	}
	if got := strings.Join(eng.calls, ","); got != "pause,resume,stop" {
		t.Errorf("calls = %s", got)
	}
	if m.Finished() {
		t.Error("stopped run reported finished")
	}
}

func TestBreathingModelQuitsWhenFinished(t *testing.T) {
	eng := newFakeBreathing(breathing.State{Pattern: boxPattern(), Active: true, Cycle: 1, Phase: domain.PhaseInhale})
	m := NewBreathingModel(eng, MonoTheme)

	_, cmd := m.Update(breathingStateMsg{Pattern: boxPattern(), Active: true, Cycle: 2, Phase: domain.PhaseExhale, TotalProgress: 0.4})
	if isQuit(cmd) {
		t.Fatal("quit mid-run")
	}
	if v := m.View(); !strings.Contains(v, "Breathe out") || !strings.Contains(v, "Cycle 2 / 4") {
		t.Errorf("running view:\n%s", v)
	}

	_, cmd = m.Update(breathingStateMsg{Pattern: boxPattern(), Cycle: 4, Phase: domain.PhaseRest, TotalProgress: 1})
	if !isQuit(cmd) {
		t.Fatal("did not quit after the run ended")
	}
	if !m.Finished() || !strings.Contains(m.View(), "Session complete") {
		t.Errorf("finished view:\n%s", m.View())
	}
}

func TestBreathingModelWaitsForNextState(t *testing.T) {
	eng := newFakeBreathing(breathing.State{Pattern: boxPattern(), Active: true, Cycle: 1, Phase: domain.PhaseInhale})
	m := NewBreathingModel(eng, MonoTheme)

	_, cmd := m.Update(breathingStateMsg{Pattern: boxPattern(), Active: true, Cycle: 1, Phase: domain.PhaseHoldAfterInhale})
	if cmd == nil {
		t.Fatal("no wait cmd mid-run")
	}
	eng.ch <- breathing.State{Pattern: boxPattern(), Active: true, Cycle: 1, Phase: domain.PhaseExhale}
	msg, ok := cmd().(breathingStateMsg)
	if !ok || msg.Phase != domain.PhaseExhale {
		t.Errorf("wait cmd delivered %#v", msg)
	}
}

type fakeFocus struct {
	state pomodoro.State
	ch    chan pomodoro.State
	calls []string
}

func (f *fakeFocus) State() pomodoro.State { return f.state }
func (f *fakeFocus) Subscribe() (<-chan pomodoro.State, func()) {
	return f.ch, func() {}
}
func (f *fakeFocus) Pause()  { f.calls = append(f.calls, "pause") }
func (f *fakeFocus) Resume() { f.calls = append(f.calls, "resume") }
func (f *fakeFocus) Stop()   { f.calls = append(f.calls, "stop") }

func running() pomodoro.State {
	return pomodoro.State{
		Mode:             domain.ModePomodoro,
		SessionType:      domain.SessionWork,
		Status:           domain.StatusRunning,
		RemainingSeconds: 754,
		TotalSeconds:     1500,
		TotalCycles:      4,
		TaskName:         "write report",
		SessionID:        "run-1",
	}
}

func TestFocusModelView(t *testing.T) {
	eng := &fakeFocus{state: running(), ch: make(chan pomodoro.State, 1)}
	m := NewFocusModel(eng, MonoTheme)
	v := m.View()
	for _, want := range []string{"Pomodoro · write report", "Focus", "12:34", "Cycle 1 / 4"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}

func TestFocusModelKeys(t *testing.T) {
	tests := []struct {
		key       string
		wantCalls string
		wantQuit  bool
		detached  bool
	}{
		{"p", "pause", false, false},
		{"r", "resume", false, false},
		{"s", "stop", true, false},
		{"q", "", true, true},
	}
	for _, tt := range tests {
		eng := &fakeFocus{state: running(), ch: make(chan pomodoro.State, 1)}
		m := NewFocusModel(eng, MonoTheme)
		_, cmd := m.Update(press(tt.key))
		if got := strings.Join(eng.calls, ","); got != tt.wantCalls {
			t.Errorf("%s: calls = %q, want %q", tt.key, got, tt.wantCalls)
		}
		if isQuit(cmd) != tt.wantQuit {
			t.Errorf("%s: quit = %v", tt.key, !tt.wantQuit)
		}
		if m.Detached() != tt.detached {
			t.Errorf("%s: detached = %v", tt.key, m.Detached())
		}
	}
}

func TestFocusModelQuitsWhenRunCompletes(t *testing.T) {
	eng := &fakeFocus{state: running(), ch: make(chan pomodoro.State, 1)}
	m := NewFocusModel(eng, MonoTheme)
	done := pomodoro.State{Mode: domain.ModePomodoro, SessionType: domain.SessionWork, Status: domain.StatusIdle, CompletedWorkSessions: 16}
	_, cmd := m.Update(focusStateMsg(done))
	if !isQuit(cmd) {
		t.Fatal("did not quit after the run completed")
	}
	if !strings.Contains(m.View(), "Run complete: 16 work sessions.") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestSparkAndTreeStage(t *testing.T) {
	if got := Spark([]int{0, 5, 10}); got != "▁▄█" {
		t.Errorf("Spark = %q", got)
	}
	if got := Spark([]int{0, 0}); got != "▁▁" {
		t.Errorf("Spark of zeros = %q", got)
	}
	if TreeStage(-1) != "seed" || TreeStage(5) != "full bloom" || TreeStage(99) != "full bloom" {
		t.Error("TreeStage out of range not clamped")
	}
}

func TestRenderStatsAndAchievements(t *testing.T) {
	s := stats.Stats{
		TotalSessions:     3,
		TotalMinutes:      42,
		CurrentStreak:     1,
		WeeklyGoalMinutes: 150,
		FavoriteExercise:  "Box Breathing",
		TreeLevel:         1,
		LastSevenDays:     make([]stats.DayTotal, 7),
	}
	out := RenderStats(s, MonoTheme, time.UTC)
	for _, want := range []string{"Practice", "1 day", "Box Breathing", "sprout", "never"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}

	first := domain.NewAchievement(domain.FirstSession)
	first.Unlocked, first.Progress = true, 1
	first.UnlockedAt = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	ten := domain.NewAchievement(domain.Sessions10)
	ten.Progress = 3
	out = RenderAchievements([]domain.Achievement{ten, first}, MonoTheme, time.UTC)
	for _, want := range []string{"Achievements  1 / 2", "First Steps", "2026-03-04", "3/10"} {
		if !strings.Contains(out, want) {
			t.Errorf("achievements missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "First Steps") > strings.Index(out, "Getting Started") {
		t.Error("unlocked achievement not listed first")
	}
}
