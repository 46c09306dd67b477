package model

import (
	"strings"
	"time"
)

const (
	StatusRunning    = "running"
	StatusInProgress = "in-progress"
	StatusPaused     = "paused"
	StatusStopped    = "stopped"
	StatusCancelled  = "cancelled"
	StatusCompleted  = "completed"
	StatusSkipped    = "skipped"
)

const (
	BreakShort = "short"
	BreakLong  = "long"
)

const (
	DefaultWorkSeconds         = 25 * 60
	DefaultShortBreakSeconds   = 5 * 60
	DefaultLongBreakSeconds    = 15 * 60
	DefaultLongBreakEvery      = 4
	DefaultIntervalsPerSession = 4
)

// Session is one continuous work-tracking period.
type Session struct {
	ID                 ID         `json:"id"`
	UserID             string     `json:"user_id,omitempty"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	Status             string     `json:"status"`
	TotalTime          int        `json:"total_time"`
	CompletedPomodoros int        `json:"completed_pomodoros"`
	SkippedPomodoros   int        `json:"skipped_pomodoros"`
	Tags               string     `json:"tags"`
}

// SessionUpdate is a partial session update; nil fields are left untouched.
type SessionUpdate struct {
	EndTime            *time.Time `json:"end_time,omitempty"`
	Status             *string    `json:"status,omitempty"`
	TotalTime          *int       `json:"total_time,omitempty"`
	CompletedPomodoros *int       `json:"completed_pomodoros,omitempty"`
	SkippedPomodoros   *int       `json:"skipped_pomodoros,omitempty"`
	Tags               *string    `json:"tags,omitempty"`
}

// Pomodoro is one work interval within a session.
type Pomodoro struct {
	ID        ID         `json:"id"`
	SessionID ID         `json:"session_id"`
	Number    int        `json:"number"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Duration  int        `json:"duration"`
	Status    string     `json:"status"`
}

// Break is the rest interval following a pomodoro.
type Break struct {
	ID         ID         `json:"id"`
	SessionID  ID         `json:"session_id"`
	PomodoroID ID         `json:"pomodoro_id"`
	Type       string     `json:"type"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	Duration   int        `json:"duration"`
	Status     string     `json:"status"`
}

// IntervalUpdate finishes or pauses a pomodoro or break.
type IntervalUpdate struct {
	EndTime  *time.Time `json:"end_time,omitempty"`
	Duration *int       `json:"duration,omitempty"`
	Status   *string    `json:"status,omitempty"`
}

// IsActiveStatus reports whether a session with this status is still open.
func IsActiveStatus(status string) bool {
	switch status {
	case StatusRunning, StatusInProgress, StatusPaused:
		return true
	}
	return false
}

func IsTerminalStatus(status string) bool {
	switch status {
	case StatusStopped, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func IsIntervalStatus(status string) bool {
	switch status {
	case StatusRunning, StatusPaused, StatusCompleted, StatusStopped, StatusSkipped:
		return true
	}
	return false
}

// BreakTypeAfter returns the break kind that follows pomodoro number n.
func BreakTypeAfter(n, longEvery int) string {
	if longEvery > 0 && n > 0 && n%longEvery == 0 {
		return BreakLong
	}
	return BreakShort
}

// JoinTags serializes a tag set for the wire.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// SplitTags parses a comma-joined tag string, dropping blanks and duplicates.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func StringPtr(s string) *string { return &s }

func IntPtr(n int) *int { return &n }

func TimePtr(t time.Time) *time.Time { return &t }
