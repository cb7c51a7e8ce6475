package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramanasai/bloom/internal/domain"
	"github.com/ramanasai/bloom/internal/pomodoro"
)

// FocusEngine is the part of pomodoro.Engine the view drives.
type FocusEngine interface {
	State() pomodoro.State
	Subscribe() (<-chan pomodoro.State, func())
	Pause()
	Resume()
	Stop()
}

type focusStateMsg pomodoro.State

func waitFocus(ch <-chan pomodoro.State) tea.Cmd {
	return func() tea.Msg { return focusStateMsg(<-ch) }
}

// FocusModel shows the Pomodoro countdown. Quitting with q leaves the
// timer state persisted so a later run or `focus tick` picks it up.
type FocusModel struct {
	engine  FocusEngine
	updates <-chan pomodoro.State
	cancel  func()
	theme   Theme
	help    help.Model
	bar     progress.Model

	state    pomodoro.State
	started  bool
	done     bool
	stopped  bool
	detached bool
}

func NewFocusModel(engine FocusEngine, theme Theme) *FocusModel {
	updates, cancel := engine.Subscribe()
	st := engine.State()
	return &FocusModel{
		engine:  engine,
		updates: updates,
		cancel:  cancel,
		theme:   theme,
		help:    help.New(),
		bar:     progress.New(progress.WithGradient(theme.BarStart, theme.BarEnd), progress.WithWidth(40)),
		state:   st,
		started: st.InRun(),
	}
}

func (m *FocusModel) Close() { m.cancel() }

// Detached reports whether the user quit with the timer still live.
func (m *FocusModel) Detached() bool { return m.detached }

// Completed reports whether the run finished all its work sessions.
func (m *FocusModel) Completed() bool { return m.done }

func (m *FocusModel) Init() tea.Cmd { return waitFocus(m.updates) }

func (m *FocusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(min(msg.Width-10, 60), 10)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, focusKeys.Pause):
			m.engine.Pause()
		case key.Matches(msg, focusKeys.Resume):
			m.engine.Resume()
		case key.Matches(msg, focusKeys.Stop):
			m.stopped = true
			m.engine.Stop()
			return m, tea.Quit
		case key.Matches(msg, focusKeys.Quit):
			m.detached = m.state.InRun()
			return m, tea.Quit
		}
		return m, nil

	case focusStateMsg:
		st := pomodoro.State(msg)
		m.state = st
		if st.InRun() {
			m.started = true
		} else if m.started && !m.stopped {
			m.done = true
			return m, tea.Quit
		}
		return m, waitFocus(m.updates)
	}
	return m, nil
}

func (m *FocusModel) View() string {
	st := m.state
	var b strings.Builder

	title := st.Mode.DisplayName()
	if st.TaskName != "" {
		title += " · " + st.TaskName
	}
	b.WriteString(m.theme.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case m.done:
		b.WriteString(m.theme.Success.Render(fmt.Sprintf("Run complete: %d work sessions.", st.CompletedWorkSessions)))
		return m.theme.Border.Render(b.String()) + "\n"
	case m.stopped:
		b.WriteString(m.theme.Hint.Render("Timer stopped."))
		return m.theme.Border.Render(b.String()) + "\n"
	}

	style := m.theme.Work
	if st.SessionType.IsBreak() {
		style = m.theme.Break
	}
	label := st.SessionType.Label()
	switch {
	case st.Status == domain.StatusPaused:
		label += " (paused)"
	case st.Status == domain.StatusIdle && st.SessionID != "":
		label += " (starting…)"
	}
	b.WriteString(style.Render(label))
	b.WriteString("  ")
	b.WriteString(m.theme.Value.Render(st.RemainingLabel()))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(st.Progress()))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Label.Render("Cycle "))
	b.WriteString(m.theme.Value.Render(fmt.Sprintf("%d / %d", st.CurrentCycle+1, st.TotalCycles)))
	b.WriteString(m.theme.Label.Render("   Completed "))
	b.WriteString(m.theme.Value.Render(fmt.Sprintf("%d", st.CompletedWorkSessions)))
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(focusKeys.ShortHelp()))
	return m.theme.Border.Render(b.String()) + "\n"
}
