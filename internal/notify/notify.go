package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/ramanasai/bloom/internal/domain"
)

const appName = "Bloom"

func Info(title, message string) error {
	return beeep.Notify(title, message, "")
}

func Done(message string) error {
	return beeep.Alert(appName, message, "")
}

// FormatPracticePrompt is the daily reminder text.
func FormatPracticePrompt(streak int) (string, string) {
	title := "Time to breathe"
	if streak > 0 {
		return title, fmt.Sprintf("You're on a %d-day streak. A few minutes keeps it alive.", streak)
	}
	return title, "A few mindful minutes today?"
}

// Desktop sends timer and achievement notices as desktop notifications.
// Toasts cannot be updated in place, so running progress refreshes are
// only logged; a paused timer gets a toast. Every send runs on its own
// goroutine since beeep talks to the notification daemon synchronously
// and callers may hold locks.
type Desktop struct {
	log    *slog.Logger
	notify func(title, message string) error
	alert  func(title, message string) error
	wg     sync.WaitGroup
}

func NewDesktop(log *slog.Logger) *Desktop {
	if log == nil {
		log = slog.Default()
	}
	return &Desktop{
		log:    log.With("component", "notify"),
		notify: Info,
		alert:  func(title, message string) error { return beeep.Alert(title, message, "") },
	}
}

func (d *Desktop) ShowProgress(t domain.SessionType, remaining string, progress float64, paused bool) {
	if !paused {
		d.log.Debug("timer progress", "session_type", t, "remaining", remaining, "progress", progress)
		return
	}
	d.send(d.notify, appName+" · "+t.Label()+" paused", remaining+" remaining")
}

func (d *Desktop) ShowCompletion(finished, next domain.SessionType) {
	msg := fmt.Sprintf("%s complete. Up next: %s.", finished.Label(), next.Label())
	if !finished.IsBreak() {
		msg = fmt.Sprintf("Focus session complete. Time for a %s.", strings.ToLower(next.Label()))
	}
	d.send(d.alert, appName, msg)
}

func (d *Desktop) CancelProgress() {
	d.log.Debug("timer notification cleared")
}

// AchievementUnlocked announces a new achievement.
func (d *Desktop) AchievementUnlocked(a domain.Achievement) {
	d.send(d.notify, "Achievement unlocked: "+a.Type.Title(), a.Type.Description())
}

// Wait blocks until sends in flight are done or timeout elapses. It reports
// whether everything was delivered in time.
func (d *Desktop) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (d *Desktop) send(fn func(string, string) error, title, message string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := fn(title, message); err != nil {
			d.log.Warn("desktop notification failed", "title", title, "err", err)
		}
	}()
}
