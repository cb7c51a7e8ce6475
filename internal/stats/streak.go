package stats

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

// civil drops the clock time and zone of t, keeping its calendar date
// as midnight UTC so day arithmetic ignores DST shifts.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b for civil dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}

// distinctDays returns the sorted calendar dates, in loc, with at least
// one session.
func distinctDays(sessions []practice, loc *time.Location) []time.Time {
	seen := map[time.Time]bool{}
	var days []time.Time
	for _, s := range sessions {
		d := civil(s.start.In(loc))
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// currentStreak counts back from today. The most recent day may be
// today or yesterday; each earlier day must directly precede the one
// after it.
func currentStreak(days []time.Time, today time.Time) int {
	n := 0
	var cursor time.Time
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		if d.After(today) {
			continue
		}
		if n == 0 {
			if daysBetween(d, today) > 1 {
				return 0
			}
		} else if daysBetween(d, cursor) != 1 {
			break
		}
		n++
		cursor = d
	}
	return n
}

func longestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}

// weekendStreak is the longest run of consecutive weekends on which
// both Saturday and Sunday had a session.
func weekendStreak(days []time.Time) int {
	has := make(map[time.Time]bool, len(days))
	for _, d := range days {
		has[d] = true
	}
	var saturdays []time.Time
	for _, d := range days {
		if d.Weekday() == time.Saturday && has[d.AddDate(0, 0, 1)] {
			saturdays = append(saturdays, d)
		}
	}
	best, run := 0, 0
	for i, s := range saturdays {
		if i > 0 && daysBetween(saturdays[i-1], s) == 7 {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}
