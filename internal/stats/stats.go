// Package stats derives the dashboard metrics from raw session history.
// Compute is pure: the same history and clock always give the same
// Stats, so callers recompute from scratch on every change.
package stats

import (
	"sort"
	"time"

	"github.com/ramanasai/bloom/internal/domain"
)

// DefaultWeeklyGoalMinutes applies when no goal is configured.
const DefaultWeeklyGoalMinutes = 150

// TreeThresholds are the cumulative minutes at which each tree level
// starts.
var TreeThresholds = [...]int{0, 30, 120, 360, 900, 1800}

// MaxTreeLevel is the fully grown tree.
const MaxTreeLevel = len(TreeThresholds) - 1

const (
	streakBonusPerDay = 0.02
	streakBonusCap    = 0.50

	earlyBirdBefore = 8  // hour
	nightOwlFrom    = 22 // hour
)

// TimeOfDay buckets a session start hour.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"   // 05:00-11:59
	Afternoon TimeOfDay = "afternoon" // 12:00-16:59
	Evening   TimeOfDay = "evening"   // 17:00-20:59
	Night     TimeOfDay = "night"
)

var timeOfDayOrder = []TimeOfDay{Morning, Afternoon, Evening, Night}

func bucket(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// Input is everything Compute looks at.
type Input struct {
	Meditations       []domain.MeditationSession
	Breathing         []domain.BreathingSession
	Focus             []domain.FocusSession
	WeeklyGoalMinutes int
	Now               time.Time
	Location          *time.Location
}

// DayTotal is the practice minutes of one calendar day.
type DayTotal struct {
	Date    time.Time
	Minutes int
}

// Stats is an immutable snapshot of the derived metrics. Practice
// figures count completed meditation and breathing sessions; focus
// figures are kept separately.
type Stats struct {
	TotalSessions int
	TotalMinutes  int
	CurrentStreak int
	LongestStreak int

	WeeklyGoalMinutes  int
	WeeklyMinutes      int
	WeeklySessions     int
	WeeklyGoalProgress float64
	MonthlyMinutes     int
	MonthlySessions    int
	AverageMinutes     int
	LastSevenDays      []DayTotal

	FavoriteExercise   string
	MostProductiveTime TimeOfDay
	LastSession        time.Time

	TreeLevel    int
	TreeProgress float64

	BreathingSessions int
	FocusSessions     int // completed work sessions across all runs
	FocusMinutes      int
	EarlyBirdSessions int
	NightOwlSessions  int
	WeekendStreak     int
}

// practice is one qualifying meditation-type session.
type practice struct {
	start   time.Time
	seconds int
}

// Compute derives Stats from in.
func Compute(in Input) Stats {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	now := in.Now.In(loc)
	goal := in.WeeklyGoalMinutes
	if goal <= 0 {
		goal = DefaultWeeklyGoalMinutes
	}

	sessions := qualifying(in)
	st := Stats{WeeklyGoalMinutes: goal}

	var totalSeconds int
	for _, s := range sessions {
		totalSeconds += s.seconds
	}
	st.TotalSessions = len(sessions)
	st.TotalMinutes = totalSeconds / 60
	if st.TotalSessions > 0 {
		st.AverageMinutes = st.TotalMinutes / st.TotalSessions
	}

	days := distinctDays(sessions, loc)
	st.CurrentStreak = currentStreak(days, civil(now))
	st.LongestStreak = longestStreak(days)

	weekStart := startOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)
	var weekSeconds, monthSeconds int
	for _, s := range sessions {
		t := s.start.In(loc)
		if within(t, weekStart, weekEnd) {
			st.WeeklySessions++
			weekSeconds += s.seconds
		}
		if within(t, monthStart, monthEnd) {
			st.MonthlySessions++
			monthSeconds += s.seconds
		}
		switch h := t.Hour(); {
		case h < earlyBirdBefore:
			st.EarlyBirdSessions++
		case h >= nightOwlFrom:
			st.NightOwlSessions++
		}
	}
	st.WeeklyMinutes = weekSeconds / 60
	st.MonthlyMinutes = monthSeconds / 60
	st.WeeklyGoalProgress = clamp01(float64(st.WeeklyMinutes) / float64(goal))
	st.LastSevenDays = lastSevenDays(sessions, now, loc)

	for _, b := range in.Breathing {
		if b.Completed {
			st.BreathingSessions++
		}
	}
	st.FavoriteExercise = favoriteExercise(in.Breathing)

	var focusSeconds int
	for _, f := range in.Focus {
		st.FocusSessions += f.CompletedCycles
		focusSeconds += f.DurationSeconds
	}
	st.FocusMinutes = focusSeconds / 60
	st.MostProductiveTime = mostProductive(in.Focus, loc)

	st.LastSession = lastSession(sessions, in.Focus)
	st.TreeLevel, st.TreeProgress = Tree(st.TotalMinutes, st.CurrentStreak)
	st.WeekendStreak = weekendStreak(days)
	return st
}

// qualifying collects completed meditations and completed breathing
// exercises in start order.
func qualifying(in Input) []practice {
	out := make([]practice, 0, len(in.Meditations)+len(in.Breathing))
	for _, m := range in.Meditations {
		if m.Completed {
			out = append(out, practice{start: m.StartedAt, seconds: max(m.DurationSeconds, 0)})
		}
	}
	for _, b := range in.Breathing {
		if b.Completed {
			out = append(out, practice{start: b.StartedAt, seconds: max(b.DurationSeconds, 0)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start.Before(out[j].start) })
	return out
}

// Tree maps cumulative minutes and the current streak to a level and
// the progress towards the next one.
func Tree(totalMinutes, streak int) (level int, progress float64) {
	for i, th := range TreeThresholds {
		if totalMinutes >= th {
			level = i
		}
	}
	if level == MaxTreeLevel {
		return level, 1
	}
	lo, hi := TreeThresholds[level], TreeThresholds[level+1]
	progress = float64(totalMinutes-lo) / float64(hi-lo)
	bonus := float64(streak) * streakBonusPerDay
	if bonus > streakBonusCap {
		bonus = streakBonusCap
	}
	return level, clamp01(progress + bonus)
}

func favoriteExercise(sessions []domain.BreathingSession) string {
	counts := map[string]int{}
	var order []string
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		name := s.ExerciseName
		if name == "" {
			name = s.ExerciseID
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}
	return modeOf(order, counts)
}

func mostProductive(sessions []domain.FocusSession, loc *time.Location) TimeOfDay {
	counts := map[TimeOfDay]int{}
	for _, s := range sessions {
		if s.DurationSeconds > 0 {
			counts[bucket(s.StartedAt.In(loc).Hour())]++
		}
	}
	return modeOf(timeOfDayOrder, counts)
}

// modeOf returns the most frequent key, the earliest in order on ties.
func modeOf[K comparable](order []K, counts map[K]int) K {
	var best K
	bestN := 0
	for _, k := range order {
		if n := counts[k]; n > bestN {
			best, bestN = k, n
		}
	}
	return best
}

func lastSession(sessions []practice, focus []domain.FocusSession) time.Time {
	var last time.Time
	for _, s := range sessions {
		if s.start.After(last) {
			last = s.start
		}
	}
	for _, f := range focus {
		if f.DurationSeconds > 0 && f.StartedAt.After(last) {
			last = f.StartedAt
		}
	}
	return last
}

func lastSevenDays(sessions []practice, now time.Time, loc *time.Location) []DayTotal {
	today := civil(now)
	out := make([]DayTotal, 7)
	seconds := make([]int, 7)
	for i := range out {
		d := today.AddDate(0, 0, i-6)
		out[i].Date = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	}
	for _, s := range sessions {
		if i := 6 - daysBetween(civil(s.start.In(loc)), today); i >= 0 && i < 7 {
			seconds[i] += s.seconds
		}
	}
	for i := range out {
		out[i].Minutes = seconds[i] / 60
	}
	return out
}

func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
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
