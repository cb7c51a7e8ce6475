package domain

import "strings"

// FocusMode is a preset pair of work and break lengths.
type FocusMode string

const (
	ModePomodoro   FocusMode = "pomodoro"
	ModeShortFocus FocusMode = "short_focus"
	ModeLongFocus  FocusMode = "long_focus"
	ModeCustom     FocusMode = "custom"
)

var FocusModes = []FocusMode{ModePomodoro, ModeShortFocus, ModeLongFocus, ModeCustom}

func (m FocusMode) DisplayName() string {
	switch m {
	case ModeShortFocus:
		return "Short Focus"
	case ModeLongFocus:
		return "Long Focus"
	case ModeCustom:
		return "Custom"
	default:
		return "Pomodoro"
	}
}

// Minutes returns the preset focus and break minutes. Custom has no
// preset and returns zeros; callers read the custom settings instead.
func (m FocusMode) Minutes() (focus, brk int) {
	switch m {
	case ModePomodoro:
		return 25, 5
	case ModeShortFocus:
		return 15, 3
	case ModeLongFocus:
		return 50, 10
	default:
		return 0, 0
	}
}

// ParseFocusMode accepts the canonical names plus short aliases.
func ParseFocusMode(s string) (FocusMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pomodoro", "":
		return ModePomodoro, true
	case "short_focus", "short":
		return ModeShortFocus, true
	case "long_focus", "long":
		return ModeLongFocus, true
	case "custom":
		return ModeCustom, true
	}
	return ModePomodoro, false
}

// SessionType is the kind of the current Pomodoro phase.
type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "short_break"
	SessionLongBreak  SessionType = "long_break"
)

func (s SessionType) IsBreak() bool { return s == SessionShortBreak || s == SessionLongBreak }

func (s SessionType) Label() string {
	switch s {
	case SessionShortBreak:
		return "Short break"
	case SessionLongBreak:
		return "Long break"
	default:
		return "Focus"
	}
}

// ParseSessionType falls back to SessionWork for unknown input.
func ParseSessionType(s string) SessionType {
	switch t := SessionType(strings.ToLower(s)); t {
	case SessionWork, SessionShortBreak, SessionLongBreak:
		return t
	}
	return SessionWork
}

// TimerStatus is the Pomodoro engine state.
type TimerStatus string

const (
	StatusIdle      TimerStatus = "idle"
	StatusRunning   TimerStatus = "running"
	StatusPaused    TimerStatus = "paused"
	StatusCompleted TimerStatus = "completed"
)

// ParseTimerStatus falls back to StatusIdle for unknown input.
func ParseTimerStatus(s string) TimerStatus {
	switch t := TimerStatus(strings.ToLower(s)); t {
	case StatusIdle, StatusRunning, StatusPaused, StatusCompleted:
		return t
	}
	return StatusIdle
}
