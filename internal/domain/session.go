package domain

import "time"

// BreathingSession is one finished or stopped exercise run. The exercise
// name and phase lengths are copied so history stays stable when a
// custom pattern is edited or deleted.
type BreathingSession struct {
	ID                     string    `json:"id"`
	StartedAt              time.Time `json:"started_at"`
	ExerciseID             string    `json:"exercise_id"`
	ExerciseName           string    `json:"exercise_name"`
	DurationSeconds        int       `json:"duration_seconds"`
	CyclesCompleted        int       `json:"cycles_completed"`
	TargetCycles           int       `json:"target_cycles"`
	InhaleSeconds          int       `json:"inhale_seconds"`
	HoldAfterInhaleSeconds int       `json:"hold_after_inhale_seconds"`
	ExhaleSeconds          int       `json:"exhale_seconds"`
	HoldAfterExhaleSeconds int       `json:"hold_after_exhale_seconds"`
	Completed              bool      `json:"completed"`
	Notes                  string    `json:"notes,omitempty"`
}

// FocusSession is one Pomodoro run. DurationSeconds counts work time only.
type FocusSession struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
	FocusMinutes    int       `json:"focus_minutes"`
	BreakMinutes    int       `json:"break_minutes"`
	CompletedCycles int       `json:"completed_cycles"`
	TargetCycles    int       `json:"target_cycles"`
	TaskName        string    `json:"task_name,omitempty"`
	Completed       bool      `json:"completed"`
	Interrupted     bool      `json:"interrupted"`
}

// MeditationSession is a manually logged sit.
type MeditationSession struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
	Kind            string    `json:"kind"`
	Completed       bool      `json:"completed"`
	Notes           string    `json:"notes,omitempty"`
}
