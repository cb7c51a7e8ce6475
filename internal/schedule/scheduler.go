package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/ramanasai/bloom/internal/clock"
	"github.com/ramanasai/bloom/internal/config"
)

const defaultHour = 8

// NextAt returns the first reminder time strictly after now that falls on
// a configured workday and is not a holiday. No workdays means every day.
func NextAt(now time.Time, cfg config.Config) time.Time {
	loc := cfg.ReminderLocation()
	now = now.In(loc)

	hour, min := defaultHour, 0
	if t, err := time.Parse("15:04", strings.TrimSpace(cfg.Reminder.Time)); err == nil {
		hour, min = t.Hour(), t.Minute()
	}

	workdays := map[string]bool{}
	for _, d := range cfg.Reminder.Workdays {
		d = strings.ToLower(strings.TrimSpace(d))
		if len(d) >= 3 {
			workdays[d[:3]] = true
		}
	}
	holidays := map[string]bool{}
	for _, h := range cfg.Reminder.Holidays {
		holidays[strings.TrimSpace(h)] = true
	}
	due := func(t time.Time) bool {
		day := strings.ToLower(t.Weekday().String()[:3])
		if len(workdays) > 0 && !workdays[day] {
			return false
		}
		return !holidays[t.Format("2006-01-02")]
	}

	// Step by calendar day so DST changes keep the wall-clock time.
	cand := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, loc)
	if !now.Before(cand) {
		cand = time.Date(now.Year(), now.Month(), now.Day()+1, hour, min, 0, 0, loc)
	}
	for i := 0; i < 366*2 && !due(cand); i++ {
		cand = time.Date(cand.Year(), cand.Month(), cand.Day()+1, hour, min, 0, 0, loc)
	}
	return cand
}

// Run calls f at each reminder time until ctx is canceled.
func Run(ctx context.Context, c clock.Clock, cfg config.Config, f func()) {
	fire := make(chan struct{}, 1)
	arm := func() *clock.Timer {
		now := c.Now()
		return c.AfterFunc(NextAt(now, cfg).Sub(now), func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	t := arm()
	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-fire:
			f()
			t = arm()
		}
	}
}
