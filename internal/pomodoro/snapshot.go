package pomodoro

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/ramanasai/bloom/internal/domain"
)

// snapshotVersion is bumped when a field changes meaning. Unknown
// fields are ignored on decode, so adding one does not need a bump.
const snapshotVersion = 1

var errSnapshotVersion = errors.New("unsupported timer snapshot version")

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("pomodoro: CBOR encoder initialization failed: " + err.Error())
	}
}

// snapshot is the wire form of State. Enums travel as their string
// names so a reordered constant never corrupts stored data.
type snapshot struct {
	Version            int    `cbor:"1,keyasint"`
	Mode               string `cbor:"2,keyasint"`
	CustomFocusMinutes int    `cbor:"3,keyasint"`
	CustomBreakMinutes int    `cbor:"4,keyasint"`
	LongBreakMinutes   int    `cbor:"5,keyasint"`
	SessionType        string `cbor:"6,keyasint"`
	Status             string `cbor:"7,keyasint"`
	RemainingSeconds   int    `cbor:"8,keyasint"`
	TotalSeconds       int    `cbor:"9,keyasint"`
	CurrentCycle       int    `cbor:"10,keyasint"`
	TotalCycles        int    `cbor:"11,keyasint"`
	Completed          int    `cbor:"12,keyasint"`
	WorkSeconds        int    `cbor:"13,keyasint"`
	TaskName           string `cbor:"14,keyasint,omitempty"`
	SessionID          string `cbor:"15,keyasint,omitempty"`
	StartedAtMillis    int64  `cbor:"16,keyasint,omitempty"`
	GraceSeconds       int    `cbor:"17,keyasint,omitempty"`
}

func encodeSnapshot(s State) ([]byte, error) {
	w := snapshot{
		Version:            snapshotVersion,
		Mode:               string(s.Mode),
		CustomFocusMinutes: s.CustomFocusMinutes,
		CustomBreakMinutes: s.CustomBreakMinutes,
		LongBreakMinutes:   s.LongBreakMinutes,
		SessionType:        string(s.SessionType),
		Status:             string(s.Status),
		RemainingSeconds:   s.RemainingSeconds,
		TotalSeconds:       s.TotalSeconds,
		CurrentCycle:       s.CurrentCycle,
		TotalCycles:        s.TotalCycles,
		Completed:          s.CompletedWorkSessions,
		WorkSeconds:        s.WorkSeconds,
		TaskName:           s.TaskName,
		SessionID:          s.SessionID,
		GraceSeconds:       s.GraceSeconds,
	}
	if !s.StartedAt.IsZero() {
		w.StartedAtMillis = s.StartedAt.UnixMilli()
	}
	b, err := encMode.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode timer snapshot: %w", err)
	}
	return b, nil
}

// decodeSnapshot maps unknown enum strings to their defaults (IDLE,
// WORK, pomodoro). Range checks are left to the engine.
func decodeSnapshot(b []byte) (State, error) {
	var w snapshot
	if err := cbor.Unmarshal(b, &w); err != nil {
		return State{}, fmt.Errorf("decode timer snapshot: %w", err)
	}
	if w.Version > snapshotVersion {
		return State{}, fmt.Errorf("%w: %d", errSnapshotVersion, w.Version)
	}
	mode, _ := domain.ParseFocusMode(w.Mode)
	s := State{
		Mode:                  mode,
		CustomFocusMinutes:    w.CustomFocusMinutes,
		CustomBreakMinutes:    w.CustomBreakMinutes,
		LongBreakMinutes:      w.LongBreakMinutes,
		SessionType:           domain.ParseSessionType(w.SessionType),
		Status:                domain.ParseTimerStatus(w.Status),
		RemainingSeconds:      w.RemainingSeconds,
		TotalSeconds:          w.TotalSeconds,
		CurrentCycle:          w.CurrentCycle,
		TotalCycles:           w.TotalCycles,
		CompletedWorkSessions: w.Completed,
		WorkSeconds:           w.WorkSeconds,
		TaskName:              w.TaskName,
		SessionID:             w.SessionID,
		GraceSeconds:          w.GraceSeconds,
	}
	if w.StartedAtMillis != 0 {
		s.StartedAt = time.UnixMilli(w.StartedAtMillis)
	}
	return s, nil
}
