package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Border  lipgloss.Style
	Hint    lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style

	Inhale lipgloss.Style
	Hold   lipgloss.Style
	Exhale lipgloss.Style
	Work   lipgloss.Style
	Break  lipgloss.Style

	BarStart, BarEnd string
}

var DefaultTheme = Theme{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
	Label:   lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#89B4FA")),
	Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F2CDCD")),
	Border:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2),
	Hint:    lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#CBA6F7")),
	Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
	Success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),

	Inhale: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89DCEB")),
	Hold:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")),
	Exhale: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B4BEFE")),
	Work:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAB387")),
	Break:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),

	BarStart: "#89DCEB",
	BarEnd:   "#A6E3A1",
}

// MonoTheme keeps emphasis but drops colour.
var MonoTheme = Theme{
	Title:   lipgloss.NewStyle().Bold(true),
	Label:   lipgloss.NewStyle().Faint(true),
	Value:   lipgloss.NewStyle(),
	Border:  lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1, 2),
	Hint:    lipgloss.NewStyle().Faint(true),
	Error:   lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Bold(true),

	Inhale: lipgloss.NewStyle().Bold(true),
	Hold:   lipgloss.NewStyle(),
	Exhale: lipgloss.NewStyle().Bold(true),
	Work:   lipgloss.NewStyle().Bold(true),
	Break:  lipgloss.NewStyle(),

	BarStart: "#FFFFFF",
	BarEnd:   "#FFFFFF",
}

// ThemeFor maps the config theme name; unknown names get the default.
func ThemeFor(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mono", "plain", "none":
		return MonoTheme
	default:
		return DefaultTheme
	}
}
