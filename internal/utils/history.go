package utils

import (
	"fmt"
	"sort"
	"time"

	"github.com/ramanasai/bloom/internal/domain"
)

// Row is one history line, flattened from any session kind.
type Row struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
	Title           string    `json:"title"`
	Detail          string    `json:"detail,omitempty"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
}

const (
	StatusCompleted   = "completed"
	StatusStopped     = "stopped"
	StatusInterrupted = "interrupted"
)

// RowsFrom merges the three histories, newest first.
func RowsFrom(meditations []domain.MeditationSession, breathing []domain.BreathingSession, focus []domain.FocusSession) []Row {
	rows := make([]Row, 0, len(meditations)+len(breathing)+len(focus))
	for _, m := range meditations {
		title := m.Kind
		if title == "" {
			title = "Meditation"
		}
		rows = append(rows, Row{
			ID:              m.ID,
			Kind:            "meditation",
			StartedAt:       m.StartedAt,
			DurationSeconds: m.DurationSeconds,
			Title:           title,
			Status:          status(m.Completed, false),
			Notes:           m.Notes,
		})
	}
	for _, b := range breathing {
		rows = append(rows, Row{
			ID:              b.ID,
			Kind:            "breathing",
			StartedAt:       b.StartedAt,
			DurationSeconds: b.DurationSeconds,
			Title:           b.ExerciseName,
			Detail:          fmt.Sprintf("%d/%d cycles", b.CyclesCompleted, b.TargetCycles),
			Status:          status(b.Completed, false),
			Notes:           b.Notes,
		})
	}
	for _, f := range focus {
		title := f.TaskName
		if title == "" {
			title = "Focus"
		}
		rows = append(rows, Row{
			ID:              f.ID,
			Kind:            "focus",
			StartedAt:       f.StartedAt,
			DurationSeconds: f.DurationSeconds,
			Title:           title,
			Detail:          fmt.Sprintf("%d/%d work sessions, %d+%dm", f.CompletedCycles, f.TargetCycles, f.FocusMinutes, f.BreakMinutes),
			Status:          status(f.Completed, f.Interrupted),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].StartedAt.Equal(rows[j].StartedAt) {
			return rows[i].StartedAt.After(rows[j].StartedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func status(completed, interrupted bool) string {
	switch {
	case completed:
		return StatusCompleted
	case interrupted:
		return StatusInterrupted
	default:
		return StatusStopped
	}
}

// FormatDuration renders seconds as "45s", "12m" or "12m30s".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", max(seconds, 0))
	}
	if seconds%60 == 0 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}
