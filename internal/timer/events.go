package timer

import (
	"context"
	"errors"
	"time"

	"github.com/syedzayyan/pomonotes/internal/model"
)

// State is the observable phase of the machine.
type State string

const (
	StateIdle          State = "idle"
	StateWorkRunning   State = "work_running"
	StateWorkPaused    State = "work_paused"
	StateWorkOvertime  State = "work_overtime"
	StateBreakRunning  State = "break_running"
	StateBreakPaused   State = "break_paused"
	StateBreakOvertime State = "break_overtime"
)

var (
	ErrAlreadyRunning = errors.New("timer already running")
	ErrNotRunning     = errors.New("timer not running")
	ErrNoSession      = errors.New("no active session")
	ErrEmptyNote      = errors.New("note text is required")
	ErrInvalidTag     = errors.New("tag name must be non-empty and contain no commas")
	ErrClosed         = errors.New("timer closed")
)

// Confirmer asks the user to accept a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

var (
	// Confirmed accepts without asking, for callers that already asked.
	Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })
	Declined  Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
)

// Snapshot is a point-in-time view of the machine for display.
type Snapshot struct {
	State               State
	SessionID           model.ID
	PomodoroID          model.ID
	BreakID             model.ID
	SessionStatus       string
	Ordinal             int
	IntervalsPerSession int
	BreakType           string
	Remaining           int
	PhaseLength         int
	Overtime            bool
	Display             string
	Completed           int
	Skipped             int
	TotalTime           int
	Tags                []string
	At                  time.Time
}

func (s Snapshot) Active() bool {
	return s.State != StateIdle
}

func (s Snapshot) InBreak() bool {
	switch s.State {
	case StateBreakRunning, StateBreakPaused, StateBreakOvertime:
		return true
	}
	return false
}

func (s Snapshot) Paused() bool {
	return s.State == StateWorkPaused || s.State == StateBreakPaused
}

// RestoreResult describes what Restore found.
type RestoreResult struct {
	Found   bool
	Resumed bool
	Session *model.Session
	// Source is "api" or "cache".
	Source string
}
