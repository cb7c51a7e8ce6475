package notify

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/ramanasai/bloom/internal/domain"
)

// Tones in Hz and lengths in milliseconds.
const (
	pulseMillis    = 120
	cueMillis      = 250
	startCueHz     = 659.25 // E5
	completeCueHz  = 880.00 // A5
	inhaleHz       = 523.25 // C5
	holdHz         = 392.00 // G4
	exhaleHz       = 329.63 // E4
	defaultPulseHz = 440.00
)

// Beeper is the terminal stand-in for haptics: a short tone per phase
// change. Beeps run on their own goroutine so callers never block on
// the audio device. Ambient playback has no backend and is tracked as
// state only.
type Beeper struct {
	log  *slog.Logger
	beep func(freq float64, millis int) error

	mu      sync.Mutex
	ambient string
	volume  float64
	playing bool
}

func NewBeeper(log *slog.Logger) *Beeper {
	if log == nil {
		log = slog.Default()
	}
	return &Beeper{
		log:  log.With("component", "feedback"),
		beep: func(freq float64, millis int) error { return beeep.Beep(freq, millis) },
	}
}

func phaseTone(p domain.Phase) float64 {
	switch p {
	case domain.PhaseInhale:
		return inhaleHz
	case domain.PhaseHoldAfterInhale, domain.PhaseHoldAfterExhale:
		return holdHz
	case domain.PhaseExhale:
		return exhaleHz
	default:
		return defaultPulseHz
	}
}

func (b *Beeper) Pulse(phase domain.Phase) { b.play(phaseTone(phase), pulseMillis) }
func (b *Beeper) SessionStartCue()         { b.play(startCueHz, cueMillis) }
func (b *Beeper) SessionCompleteCue()      { b.play(completeCueHz, cueMillis*2) }

func (b *Beeper) PlayAmbient(kind string, volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if kind == "" || kind == "none" {
		return
	}
	b.ambient, b.volume, b.playing = kind, volume, true
	b.log.Debug("ambient started", "kind", kind, "volume", volume)
}

func (b *Beeper) StopAmbient() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.playing {
		b.log.Debug("ambient stopped", "kind", b.ambient)
	}
	b.playing = false
}

// Ambient reports the ambient track that would be playing.
func (b *Beeper) Ambient() (kind string, volume float64, playing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ambient, b.volume, b.playing
}

func (b *Beeper) play(freq float64, millis int) {
	go func() {
		if err := b.beep(freq, millis); err != nil {
			b.log.Debug("beep failed", "err", err)
		}
	}()
}
