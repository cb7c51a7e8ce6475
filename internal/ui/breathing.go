package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ramanasai/bloom/internal/breathing"
	"github.com/ramanasai/bloom/internal/domain"
)

// BreathingEngine is the part of breathing.Engine the view drives.
type BreathingEngine interface {
	State() breathing.State
	Subscribe() (<-chan breathing.State, func())
	Pause()
	Resume()
	Stop()
}

type breathingStateMsg breathing.State

func waitBreathing(ch <-chan breathing.State) tea.Cmd {
	return func() tea.Msg { return breathingStateMsg(<-ch) }
}

// BreathingModel shows a running exercise. It quits when the run ends,
// either by finishing or by the user stopping it.
type BreathingModel struct {
	engine  BreathingEngine
	updates <-chan breathing.State
	cancel  func()
	theme   Theme
	help    help.Model

	phaseBar progress.Model
	totalBar progress.Model

	state    breathing.State
	started  bool
	finished bool
	stopped  bool
}

// NewBreathingModel subscribes to engine. Close releases the subscription.
func NewBreathingModel(engine BreathingEngine, theme Theme) *BreathingModel {
	updates, cancel := engine.Subscribe()
	st := engine.State()
	return &BreathingModel{
		engine:   engine,
		updates:  updates,
		cancel:   cancel,
		theme:    theme,
		help:     help.New(),
		phaseBar: progress.New(progress.WithGradient(theme.BarStart, theme.BarEnd), progress.WithWidth(40), progress.WithoutPercentage()),
		totalBar: progress.New(progress.WithSolidFill(theme.BarEnd), progress.WithWidth(40)),
		state:    st,
		started:  st.Active,
	}
}

func (m *BreathingModel) Close() { m.cancel() }

// Finished reports whether the exercise ran to the end.
func (m *BreathingModel) Finished() bool { return m.finished }

func (m *BreathingModel) Init() tea.Cmd { return waitBreathing(m.updates) }

func (m *BreathingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := max(min(msg.Width-10, 60), 10)
		m.phaseBar.Width, m.totalBar.Width = w, w
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, breatheKeys.Toggle):
			if m.state.Paused {
				m.engine.Resume()
			} else {
				m.engine.Pause()
			}
		case key.Matches(msg, breatheKeys.Stop):
			m.stopped = true
			m.engine.Stop()
			return m, tea.Quit
		}
		return m, nil

	case breathingStateMsg:
		st := breathing.State(msg)
		if st.Active {
			m.started = true
		} else if m.started && !m.stopped {
			m.finished = st.TotalProgress >= 1
			m.state = st
			return m, tea.Quit
		}
		m.state = st
		return m, waitBreathing(m.updates)
	}
	return m, nil
}

func (m *BreathingModel) phaseStyle() lipgloss.Style {
	switch m.state.Phase {
	case domain.PhaseInhale:
		return m.theme.Inhale
	case domain.PhaseExhale:
		return m.theme.Exhale
	default:
		return m.theme.Hold
	}
}

func (m *BreathingModel) View() string {
	st := m.state
	name := "Breathing"
	cycles := 0
	if st.Pattern != nil {
		name, cycles = st.Pattern.Name, st.Pattern.Cycles
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(name))
	b.WriteString("\n\n")

	switch {
	case m.finished:
		b.WriteString(m.theme.Success.Render("Well done. Session complete."))
	case m.stopped || (!st.Active && m.started):
		b.WriteString(m.theme.Hint.Render("Session stopped."))
	default:
		label := st.Phase.Label()
		if st.Paused {
			label += " (paused)"
		}
		b.WriteString(m.phaseStyle().Render(label))
		b.WriteString("\n")
		b.WriteString(m.phaseBar.ViewAs(st.PhaseProgress))
		b.WriteString("\n\n")
		b.WriteString(m.theme.Label.Render("Cycle "))
		b.WriteString(m.theme.Value.Render(fmt.Sprintf("%d / %d", st.Cycle, cycles)))
		b.WriteString("\n")
		b.WriteString(m.totalBar.ViewAs(st.TotalProgress))
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(breatheKeys.ShortHelp()))
	}
	return m.theme.Border.Render(b.String()) + "\n"
}
