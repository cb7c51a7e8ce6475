package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPattern is returned by Pattern.Validate.
var ErrInvalidPattern = errors.New("invalid breathing pattern")

// Phase is one timed segment of a breathing cycle.
type Phase int

const (
	// PhaseRest is the idle sentinel before start and after stop. It is never timed.
	PhaseRest Phase = iota
	PhaseInhale
	PhaseHoldAfterInhale
	PhaseExhale
	PhaseHoldAfterExhale
)

// CyclePhases lists the timed phases of one cycle in order.
var CyclePhases = [...]Phase{PhaseInhale, PhaseHoldAfterInhale, PhaseExhale, PhaseHoldAfterExhale}

func (p Phase) String() string {
	switch p {
	case PhaseInhale:
		return "inhale"
	case PhaseHoldAfterInhale:
		return "hold_after_inhale"
	case PhaseExhale:
		return "exhale"
	case PhaseHoldAfterExhale:
		return "hold_after_exhale"
	default:
		return "rest"
	}
}

// Label is the instruction shown to the user.
func (p Phase) Label() string {
	switch p {
	case PhaseInhale:
		return "Breathe in"
	case PhaseHoldAfterInhale, PhaseHoldAfterExhale:
		return "Hold"
	case PhaseExhale:
		return "Breathe out"
	default:
		return "Rest"
	}
}

// Pattern is a named four-phase breathing exercise. Durations are whole
// seconds; zero means the phase is skipped.
type Pattern struct {
	ID                     string
	Name                   string
	InhaleSeconds          int
	HoldAfterInhaleSeconds int
	ExhaleSeconds          int
	HoldAfterExhaleSeconds int
	Cycles                 int
	Description            string
	Custom                 bool
}

func (p Pattern) CycleSeconds() int {
	return p.InhaleSeconds + p.HoldAfterInhaleSeconds + p.ExhaleSeconds + p.HoldAfterExhaleSeconds
}

func (p Pattern) TotalSeconds() int { return p.CycleSeconds() * p.Cycles }

// PhaseSeconds returns the configured length of phase, 0 for PhaseRest.
func (p Pattern) PhaseSeconds(phase Phase) int {
	switch phase {
	case PhaseInhale:
		return p.InhaleSeconds
	case PhaseHoldAfterInhale:
		return p.HoldAfterInhaleSeconds
	case PhaseExhale:
		return p.ExhaleSeconds
	case PhaseHoldAfterExhale:
		return p.HoldAfterExhaleSeconds
	default:
		return 0
	}
}

// PhaseDuration is PhaseSeconds as a time.Duration.
func (p Pattern) PhaseDuration(phase Phase) time.Duration {
	return time.Duration(p.PhaseSeconds(phase)) * time.Second
}

func (p Pattern) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidPattern)
	case p.InhaleSeconds < 0 || p.HoldAfterInhaleSeconds < 0 || p.ExhaleSeconds < 0 || p.HoldAfterExhaleSeconds < 0:
		return fmt.Errorf("%w: negative phase duration", ErrInvalidPattern)
	case p.Cycles < 1:
		return fmt.Errorf("%w: cycles must be at least 1", ErrInvalidPattern)
	case p.CycleSeconds() == 0:
		return fmt.Errorf("%w: all phases are zero", ErrInvalidPattern)
	}
	return nil
}

// NewCustomPattern builds a user pattern whose id is derived from the
// creation time.
func NewCustomPattern(name string, inhale, holdIn, exhale, holdOut, cycles int, now time.Time) (Pattern, error) {
	p := Pattern{
		ID:                     fmt.Sprintf("custom_%d", now.UnixMilli()),
		Name:                   strings.TrimSpace(name),
		InhaleSeconds:          inhale,
		HoldAfterInhaleSeconds: holdIn,
		ExhaleSeconds:          exhale,
		HoldAfterExhaleSeconds: holdOut,
		Cycles:                 cycles,
		Description:            fmt.Sprintf("%d-%d-%d-%d custom rhythm", inhale, holdIn, exhale, holdOut),
		Custom:                 true,
	}
	if p.Name == "" {
		p.Name = "Custom"
	}
	return p, p.Validate()
}

var builtinPatterns = []Pattern{
	{
		ID:                     "box",
		Name:                   "Box Breathing",
		InhaleSeconds:          4,
		HoldAfterInhaleSeconds: 4,
		ExhaleSeconds:          4,
		HoldAfterExhaleSeconds: 4,
		Cycles:                 4,
		Description:            "Equal four-second sides. Steadies the mind under stress.",
	},
	{
		ID:                     "relax_478",
		Name:                   "4-7-8 Relaxing",
		InhaleSeconds:          4,
		HoldAfterInhaleSeconds: 7,
		ExhaleSeconds:          8,
		Cycles:                 4,
		Description:            "Long hold and slow exhale. Good before sleep.",
	},
	{
		ID:            "calm",
		Name:          "Calm Breath",
		InhaleSeconds: 4,
		ExhaleSeconds: 6,
		Cycles:        6,
		Description:   "Exhale longer than you inhale to slow the heart rate.",
	},
	{
		ID:            "coherent",
		Name:          "Coherent Breathing",
		InhaleSeconds: 5,
		ExhaleSeconds: 5,
		Cycles:        10,
		Description:   "Five seconds in, five out. Around six breaths a minute.",
	},
	{
		ID:                     "energize",
		Name:                   "Energizing Breath",
		InhaleSeconds:          4,
		HoldAfterInhaleSeconds: 2,
		ExhaleSeconds:          2,
		Cycles:                 8,
		Description:            "Quick exhales for an alert, awake feeling.",
	},
}

// BuiltinPatterns returns a copy of the shipped patterns.
func BuiltinPatterns() []Pattern {
	out := make([]Pattern, len(builtinPatterns))
	copy(out, builtinPatterns)
	return out
}

// FindPattern looks id up among patterns.
func FindPattern(patterns []Pattern, id string) (Pattern, bool) {
	for _, p := range patterns {
		if p.ID == id {
			return p, true
		}
	}
	return Pattern{}, false
}
