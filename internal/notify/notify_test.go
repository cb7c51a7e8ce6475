package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ramanasai/bloom/internal/domain"
)

type sent struct{ title, message string }

type recorder struct {
	d   *Desktop
	mu  sync.Mutex
	out []sent
}

func capture(d *Desktop) *recorder {
	r := &recorder{d: d}
	rec := func(title, message string) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.out = append(r.out, sent{title, message})
		return nil
	}
	d.notify, d.alert = rec, rec
	return r
}

// delivered waits for in-flight sends and returns everything delivered.
func (r *recorder) delivered(t *testing.T) []sent {
	t.Helper()
	if !r.d.Wait(2 * time.Second) {
		t.Fatal("notifications not delivered")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.out...)
}

func TestDesktopProgressOnlyToastsWhenPaused(t *testing.T) {
	d := NewDesktop(nil)
	r := capture(d)

	d.ShowProgress(domain.SessionWork, "12:00", 0.5, false)
	if got := r.delivered(t); len(got) != 0 {
		t.Fatalf("running progress sent %v", got)
	}
	d.ShowProgress(domain.SessionWork, "12:00", 0.5, true)
	if got := r.delivered(t); len(got) != 1 || got[0].message != "12:00 remaining" {
		t.Fatalf("paused progress sent %v", got)
	}
	d.CancelProgress()
	if got := r.delivered(t); len(got) != 1 {
		t.Errorf("cancel sent a notification")
	}
}

func TestDesktopSendDoesNotBlockCaller(t *testing.T) {
	d := NewDesktop(nil)
	release := make(chan struct{})
	d.alert = func(string, string) error {
		<-release
		return nil
	}

	returned := make(chan struct{})
	go func() {
		d.ShowCompletion(domain.SessionWork, domain.SessionShortBreak)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("ShowCompletion waited for the notification daemon")
	}
	if d.Wait(10 * time.Millisecond) {
		t.Error("Wait reported delivery while the send was blocked")
	}
	close(release)
	if !d.Wait(2 * time.Second) {
		t.Error("send not finished after release")
	}
}

func TestDesktopCompletionMessages(t *testing.T) {
	tests := []struct {
		finished, next domain.SessionType
		want           string
	}{
		{domain.SessionWork, domain.SessionShortBreak, "Focus session complete. Time for a short break."},
		{domain.SessionWork, domain.SessionLongBreak, "Focus session complete. Time for a long break."},
		{domain.SessionShortBreak, domain.SessionWork, "Short break complete. Up next: Focus."},
	}
	for _, tt := range tests {
		d := NewDesktop(nil)
		r := capture(d)
		d.ShowCompletion(tt.finished, tt.next)
		if got := r.delivered(t); len(got) != 1 || got[0].message != tt.want {
			t.Errorf("ShowCompletion(%s, %s) sent %v, want %q", tt.finished, tt.next, got, tt.want)
		}
	}
}

func TestDesktopSwallowsErrors(t *testing.T) {
	d := NewDesktop(nil)
	d.notify = func(string, string) error { return errors.New("no dbus") }
	d.AchievementUnlocked(domain.NewAchievement(domain.FirstSession))
	if !d.Wait(2 * time.Second) {
		t.Error("failed send never finished")
	}
}

func TestBeeperPulsesAsync(t *testing.T) {
	b := NewBeeper(nil)
	var mu sync.Mutex
	var freqs []float64
	done := make(chan struct{}, 3)
	b.beep = func(freq float64, _ int) error {
		mu.Lock()
		freqs = append(freqs, freq)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	b.Pulse(domain.PhaseInhale)
	b.Pulse(domain.PhaseExhale)
	b.SessionCompleteCue()
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("beep not played")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	seen := map[float64]bool{}
	for _, f := range freqs {
		seen[f] = true
	}
	for _, want := range []float64{inhaleHz, exhaleHz, completeCueHz} {
		if !seen[want] {
			t.Errorf("tone %.2f not played; got %v", want, freqs)
		}
	}
}

func TestBeeperAmbientState(t *testing.T) {
	b := NewBeeper(nil)
	b.PlayAmbient("none", 1)
	if _, _, playing := b.Ambient(); playing {
		t.Fatal("\"none\" started ambient")
	}
	b.PlayAmbient("rain", 0.4)
	if kind, vol, playing := b.Ambient(); kind != "rain" || vol != 0.4 || !playing {
		t.Fatalf("Ambient = %q %v %v", kind, vol, playing)
	}
	b.StopAmbient()
	if _, _, playing := b.Ambient(); playing {
		t.Error("still playing after stop")
	}
}

func TestFormatPracticePrompt(t *testing.T) {
	if _, msg := FormatPracticePrompt(0); msg != "A few mindful minutes today?" {
		t.Errorf("no streak prompt = %q", msg)
	}
	if _, msg := FormatPracticePrompt(4); msg != "You're on a 4-day streak. A few minutes keeps it alive." {
		t.Errorf("streak prompt = %q", msg)
	}
}
