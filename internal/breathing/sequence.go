package breathing

import "github.com/ramanasai/bloom/internal/domain"

// nextPhase is the phase order within a cycle. Leaving HoldAfterExhale
// wraps to the next cycle.
var nextPhase = map[domain.Phase]domain.Phase{
	domain.PhaseRest:            domain.PhaseInhale,
	domain.PhaseInhale:          domain.PhaseHoldAfterInhale,
	domain.PhaseHoldAfterInhale: domain.PhaseExhale,
	domain.PhaseExhale:          domain.PhaseHoldAfterExhale,
	domain.PhaseHoldAfterExhale: domain.PhaseInhale,
}

// following returns the first timed phase after (cycle, phase), skipping
// zero-length phases. ok is false once the last cycle is finished.
// Starting from PhaseRest yields the first phase of cycle 1.
func following(p domain.Pattern, cycle int, phase domain.Phase) (int, domain.Phase, bool) {
	if phase == domain.PhaseRest {
		cycle = 1
	}
	for i := 0; i < len(domain.CyclePhases); i++ {
		if phase == domain.PhaseHoldAfterExhale {
			cycle++
		}
		phase = nextPhase[phase]
		if cycle > p.Cycles {
			return 0, domain.PhaseRest, false
		}
		if p.PhaseSeconds(phase) > 0 {
			return cycle, phase, true
		}
	}
	// Every phase is zero; Validate rejects such patterns.
	return 0, domain.PhaseRest, false
}

// totalProgress is the fraction of the whole exercise behind the cursor:
// completed cycles plus the position inside the current cycle.
func totalProgress(p domain.Pattern, cycle int, phase domain.Phase, phaseProgress float64) float64 {
	cycleSeconds := float64(p.CycleSeconds())
	if cycleSeconds == 0 || p.Cycles == 0 || cycle < 1 {
		return 0
	}
	var position float64
	for _, ph := range domain.CyclePhases {
		if ph == phase {
			position += float64(p.PhaseSeconds(ph)) * phaseProgress
			break
		}
		position += float64(p.PhaseSeconds(ph))
	}
	return float64(cycle-1)/float64(p.Cycles) + position/cycleSeconds/float64(p.Cycles)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
