package timer

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/notify"
)

// Start begins a new session from idle or resumes a paused phase.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.running {
		return ErrAlreadyRunning
	}

	now := m.clock.Now()
	if m.sessionID.IsZero() {
		m.beginSessionLocked(now)
	} else {
		switch {
		case !m.inBreak && m.pomodoroID.IsZero():
			// Restored sessions resume at a pomodoro that doesn't exist yet.
			m.createPomodoroLocked(now)
		case !m.boundaryFired:
			m.updateIntervalLocked(model.StatusRunning, now)
		}
		if !m.completed {
			m.writeSessionLocked(model.StatusInProgress, nil)
		}
	}

	m.startLoopLocked(now)
	m.alertLocked(m.runningAlertLocked(now))
	m.emitLocked(now)
	return nil
}

// Pause freezes the countdown.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return ErrNotRunning
	}

	now := m.clock.Now()
	m.advanceLocked(now)
	if m.sessionID.IsZero() {
		return ErrNoSession
	}
	m.stopLoopLocked()
	m.running = false
	m.paused = true

	if !m.boundaryFired {
		m.updateIntervalLocked(model.StatusPaused, now)
	}
	if !m.completed {
		m.writeSessionLocked(model.StatusPaused, nil)
	}
	m.alertLocked(notify.Alert{
		Kind:      notify.KindPaused,
		Phase:     m.phaseName(),
		Ordinal:   m.ordinal,
		Remaining: m.remaining,
		Title:     "Timer paused",
		At:        now,
	})
	m.emitLocked(now)
	return nil
}

// Skip ends the current phase once confirmed and starts the next one. It
// reports whether anything happened; declining is not an error.
func (m *Machine) Skip(ctx context.Context, confirm Confirmer) (bool, error) {
	m.mu.Lock()
	if !m.running && !m.paused {
		m.mu.Unlock()
		return false, ErrNotRunning
	}
	prompt := fmt.Sprintf("Skip the current %s?", m.phaseName())
	m.mu.Unlock()

	if !confirm.Confirm(ctx, prompt) {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running && !m.paused {
		return false, ErrNotRunning
	}
	now := m.clock.Now()
	m.advanceLocked(now)
	if m.sessionID.IsZero() {
		return false, ErrNoSession
	}

	if !m.inBreak && m.pomodoroID.IsZero() {
		// A restored pomodoro is created before it can be recorded as skipped.
		m.createPomodoroLocked(now)
	}

	reachedZero := m.boundaryFired
	status := model.StatusSkipped
	if reachedZero {
		status = model.StatusCompleted
	}
	m.updateIntervalLocked(status, now)

	if m.inBreak {
		if m.completed || m.ordinal >= m.cfg.IntervalsPerSession {
			m.finishLocked(now)
			return true, nil
		}
		m.enterWorkLocked(now, m.ordinal+1)
		m.log.Info("break ended", "session_id", m.sessionID, "status", status, "next_ordinal", m.ordinal)
	} else {
		if reachedZero {
			m.extraWork += -m.remaining
		} else {
			m.skipped++
		}
		m.log.Info("pomodoro ended", "session_id", m.sessionID, "status", status, "ordinal", m.ordinal)
		m.enterBreakLocked(now)
		if m.ordinal >= m.cfg.IntervalsPerSession {
			m.completed = true
			m.writeSessionLocked(model.StatusCompleted, model.TimePtr(now))
		} else {
			m.writeSessionLocked(model.StatusInProgress, nil)
		}
	}

	m.startLoopLocked(now)
	m.alertLocked(m.runningAlertLocked(now))
	m.emitLocked(now)
	return true, nil
}

// Stop ends the session as stopped once confirmed.
func (m *Machine) Stop(ctx context.Context, confirm Confirmer) (bool, error) {
	m.mu.Lock()
	if !m.running && !m.paused {
		m.mu.Unlock()
		return false, ErrNotRunning
	}
	m.mu.Unlock()

	if !confirm.Confirm(ctx, "Stop the current timer? This ends the current session.") {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running && !m.paused {
		return false, ErrNotRunning
	}
	now := m.clock.Now()
	m.advanceLocked(now)
	if m.sessionID.IsZero() {
		return false, ErrNoSession
	}

	if m.boundaryFired {
		m.updateIntervalLocked(model.StatusCompleted, now)
	} else {
		m.updateIntervalLocked(model.StatusStopped, now)
	}
	if !m.completed {
		m.writeSessionLocked(model.StatusStopped, model.TimePtr(now))
	}
	m.finishLocked(now)
	return true, nil
}

// Reset abandons the session as cancelled and clears the tag selection.
// Confirmation is only asked when a session exists.
func (m *Machine) Reset(ctx context.Context, confirm Confirmer) (bool, error) {
	m.mu.Lock()
	if m.sessionID.IsZero() {
		defer m.mu.Unlock()
		m.clearLocked(m.clock.Now())
		return true, nil
	}
	m.mu.Unlock()

	if !confirm.Confirm(ctx, "Reset the timer? This cancels the current session.") {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	if m.sessionID.IsZero() {
		m.clearLocked(now)
		return true, nil
	}
	m.advanceLocked(now)
	if !m.sessionID.IsZero() {
		if !m.boundaryFired {
			m.updateIntervalLocked(model.StatusStopped, now)
		}
		if !m.completed {
			m.writeSessionLocked(model.StatusCancelled, model.TimePtr(now))
		}
		m.finishLocked(now)
	}
	m.clearLocked(now)
	return true, nil
}

func (m *Machine) clearLocked(now time.Time) {
	m.tags = nil
	m.alertLocked(notify.Alert{Kind: notify.KindCleared, At: now})
	m.emitLocked(now)
}

// ClearNotifications withdraws alerts and resets the badge count.
func (m *Machine) ClearNotifications() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertLocked(notify.Alert{Kind: notify.KindCleared, At: m.clock.Now()})
}

func (m *Machine) Tags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tags...)
}

// AddTag adds a tag to the selection and, with a session open, to the session.
func (m *Machine) AddTag(name string) error {
	tag := strings.TrimSpace(name)
	if tag == "" || strings.Contains(tag, ",") {
		return ErrInvalidTag
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.tags, tag) {
		return nil
	}
	m.tags = append(m.tags, tag)
	m.tagsChangedLocked()
	return nil
}

func (m *Machine) RemoveTag(name string) error {
	tag := strings.TrimSpace(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.tags, tag)
	if i < 0 {
		return nil
	}
	m.tags = slices.Delete(m.tags, i, i+1)
	m.tagsChangedLocked()
	return nil
}

func (m *Machine) tagsChangedLocked() {
	if !m.sessionID.IsZero() && !m.completed {
		m.writeTagsLocked()
	}
	m.emitLocked(m.clock.Now())
}

// AddNote attaches a markdown note to the active session and current
// pomodoro. It waits for the write so the caller can report failures.
func (m *Machine) AddNote(ctx context.Context, text string) (model.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Note{}, ErrEmptyNote
	}

	m.mu.Lock()
	if m.sessionID.IsZero() {
		m.mu.Unlock()
		return model.Note{}, ErrNoSession
	}
	note := model.Note{
		SessionID:  m.sessionID,
		PomodoroID: m.pomodoroID,
		Text:       text,
		CreatedAt:  m.clock.Now(),
	}

	type result struct {
		note model.Note
		err  error
	}
	done := make(chan result, 1)
	submitted := m.jobs.submit(func(ctx context.Context) {
		created, err := m.api.CreateNote(ctx, note)
		done <- result{note: created, err: err}
	})
	m.mu.Unlock()

	if !submitted {
		return model.Note{}, ErrClosed
	}
	select {
	case res := <-done:
		return res.note, res.err
	case <-ctx.Done():
		return model.Note{}, ctx.Err()
	}
}
