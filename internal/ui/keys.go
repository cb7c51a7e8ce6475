package ui

import "github.com/charmbracelet/bubbles/key"

type breathingKeys struct {
	Toggle key.Binding
	Stop   key.Binding
}

func (k breathingKeys) ShortHelp() []key.Binding { return []key.Binding{k.Toggle, k.Stop} }

var breatheKeys = breathingKeys{
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	Stop:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "stop")),
}

type focusKeyMap struct {
	Pause  key.Binding
	Resume key.Binding
	Stop   key.Binding
	Quit   key.Binding
}

func (k focusKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Resume, k.Stop, k.Quit}
}

var focusKeys = focusKeyMap{
	Pause:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Resume: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
	Stop:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit, keep timer")),
}
