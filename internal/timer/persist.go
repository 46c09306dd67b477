package timer

import (
	"context"
	"time"

	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/notify"
)

// persist queues a write. Failures are logged and never reach the caller:
// local state stays authoritative and the request layer queues what it can.
func (m *Machine) persist(op string, fn func(ctx context.Context) error) {
	m.jobs.submit(func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			m.log.Warn("persist failed", "op", op, "error", err)
		}
	})
}

func (m *Machine) alertLocked(alert notify.Alert) {
	if m.presenter == nil {
		return
	}
	m.jobs.submit(func(ctx context.Context) {
		m.presenter.Present(ctx, alert)
	})
}

func (m *Machine) phaseName() string {
	if m.inBreak {
		return "break"
	}
	return "work"
}

func (m *Machine) runningAlertLocked(now time.Time) notify.Alert {
	return notify.Alert{
		Kind:      notify.KindRunning,
		Phase:     m.phaseName(),
		Ordinal:   m.ordinal,
		Remaining: m.remaining,
		Title:     "Timer running",
		At:        now,
	}
}

func (m *Machine) beginSessionLocked(now time.Time) {
	m.sessionID = m.newID()
	m.sessionStart = now
	m.sessionEnd = nil
	m.status = model.StatusRunning
	m.skipped = 0
	m.extraWork = 0
	m.completed = false
	m.ordinal = 0

	session := m.sessionLocked()
	m.persist("create session", func(ctx context.Context) error {
		_, err := m.api.CreateSession(ctx, session)
		return err
	})
	m.setMarkerLocked(session.ID)
	m.cacheLocked(session)
	m.log.Info("session started", "session_id", session.ID, "tags", session.Tags)

	m.enterWorkLocked(now, 1)
}

func (m *Machine) enterWorkLocked(now time.Time, ordinal int) {
	m.inBreak = false
	m.breakID = ""
	m.breakType = ""
	m.ordinal = ordinal
	m.length = m.cfg.WorkSeconds
	m.remaining = m.cfg.WorkSeconds
	m.boundaryFired = false
	m.createPomodoroLocked(now)
}

func (m *Machine) createPomodoroLocked(now time.Time) {
	m.pomodoroID = m.newID()
	pomodoro := model.Pomodoro{
		ID:        m.pomodoroID,
		SessionID: m.sessionID,
		Number:    m.ordinal,
		StartTime: now,
		Status:    model.StatusRunning,
	}
	m.persist("create pomodoro", func(ctx context.Context) error {
		_, err := m.api.CreatePomodoro(ctx, pomodoro)
		return err
	})
}

func (m *Machine) enterBreakLocked(now time.Time) {
	m.inBreak = true
	m.breakType, m.length = m.cfg.breakAfter(m.ordinal)
	m.remaining = m.length
	m.boundaryFired = false
	m.breakID = m.newID()

	brk := model.Break{
		ID:         m.breakID,
		SessionID:  m.sessionID,
		PomodoroID: m.pomodoroID,
		Type:       m.breakType,
		StartTime:  now,
		Status:     model.StatusRunning,
	}
	m.persist("create break", func(ctx context.Context) error {
		_, err := m.api.CreateBreak(ctx, brk)
		return err
	})
}

// updateIntervalLocked writes the current pomodoro or break with its actual
// elapsed seconds, overtime included.
func (m *Machine) updateIntervalLocked(status string, now time.Time) {
	m.writeIntervalLocked(status, m.length-m.remaining, now)
}

func (m *Machine) writeIntervalLocked(status string, duration int, now time.Time) {
	if duration < 0 {
		duration = 0
	}
	update := model.IntervalUpdate{
		Duration: model.IntPtr(duration),
		Status:   model.StringPtr(status),
	}
	if status != model.StatusRunning && status != model.StatusPaused {
		update.EndTime = model.TimePtr(now)
	}

	if m.inBreak {
		id := m.breakID
		if id.IsZero() {
			return
		}
		m.persist("update break", func(ctx context.Context) error {
			_, err := m.api.UpdateBreak(ctx, id, update)
			return err
		})
		return
	}

	id := m.pomodoroID
	if id.IsZero() {
		return
	}
	m.persist("update pomodoro", func(ctx context.Context) error {
		_, err := m.api.UpdatePomodoro(ctx, id, update)
		return err
	})
}

// writeSessionLocked sends phase fields only. Tags travel separately so a
// phase write can't clobber a tag edit.
func (m *Machine) writeSessionLocked(status string, end *time.Time) {
	m.status = status
	if end != nil {
		m.sessionEnd = end
	}
	session := m.sessionLocked()
	update := model.SessionUpdate{
		Status:             model.StringPtr(session.Status),
		TotalTime:          model.IntPtr(session.TotalTime),
		CompletedPomodoros: model.IntPtr(session.CompletedPomodoros),
		SkippedPomodoros:   model.IntPtr(session.SkippedPomodoros),
		EndTime:            end,
	}
	m.persist("update session", func(ctx context.Context) error {
		_, err := m.api.UpdateSession(ctx, session.ID, update)
		return err
	})
	m.cacheLocked(session)
}

func (m *Machine) writeTagsLocked() {
	session := m.sessionLocked()
	update := model.SessionUpdate{Tags: model.StringPtr(session.Tags)}
	m.persist("update session tags", func(ctx context.Context) error {
		_, err := m.api.UpdateSession(ctx, session.ID, update)
		return err
	})
	m.cacheLocked(session)
}

func (m *Machine) cacheLocked(session model.Session) {
	if m.cache == nil {
		return
	}
	m.persist("cache session", func(ctx context.Context) error {
		return m.cache.Put(ctx, session)
	})
}

func (m *Machine) setMarkerLocked(id model.ID) {
	if m.marker == nil {
		return
	}
	m.persist("set active session", func(ctx context.Context) error {
		return m.marker.SetActiveSessionID(ctx, id)
	})
}

// finishLocked returns the machine to idle and drops every local link to the
// session.
func (m *Machine) finishLocked(now time.Time) {
	m.stopLoopLocked()
	m.log.Info("session ended", "session_id", m.sessionID, "status", m.status)

	m.setMarkerLocked("")
	m.sessionID = ""
	m.sessionEnd = nil
	m.status = ""
	m.pomodoroID = ""
	m.breakID = ""
	m.breakType = ""
	m.ordinal = 0
	m.inBreak = false
	m.running = false
	m.paused = false
	m.remaining = m.cfg.WorkSeconds
	m.length = m.cfg.WorkSeconds
	m.boundaryFired = false
	m.skipped = 0
	m.extraWork = 0
	m.completed = false

	m.emitLocked(now)
}
