package timer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/syedzayyan/pomonotes/internal/apiclient"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/offline"
)

const (
	SourceAPI    = "api"
	SourceCache  = "cache"
	SourceMemory = "memory"
)

// Restore looks for a session left open by an earlier run. If the user agrees
// it is adopted, paused at its next pomodoro; otherwise it is stopped. The
// API is asked first; the local snapshot is used when the API can't answer.
// Calling Restore with a session already loaded changes nothing.
func (m *Machine) Restore(ctx context.Context, confirm Confirmer) (RestoreResult, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return RestoreResult{}, ErrClosed
	}
	if !m.sessionID.IsZero() {
		session := m.sessionLocked()
		m.mu.Unlock()
		return RestoreResult{Found: true, Resumed: true, Session: &session, Source: SourceMemory}, nil
	}
	m.mu.Unlock()

	candidate, source := m.findOpenSession(ctx)
	if candidate == nil {
		return RestoreResult{}, nil
	}
	result := RestoreResult{Found: true, Session: candidate, Source: source}

	prompt := fmt.Sprintf("You have an active session (#%s) with %d completed pomodoros. Continue?",
		candidate.ID, candidate.CompletedPomodoros)
	if !confirm.Confirm(ctx, prompt) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.abandonLocked(*candidate, m.clock.Now())
		return result, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sessionID.IsZero() {
		result.Resumed = m.sessionID == candidate.ID
		return result, nil
	}
	m.adoptLocked(*candidate, m.clock.Now())
	result.Resumed = true
	return result, nil
}

func (m *Machine) findOpenSession(ctx context.Context) (*model.Session, string) {
	var marked model.ID
	if m.marker != nil {
		id, err := m.marker.ActiveSessionID(ctx)
		if err != nil {
			m.log.Warn("read active session marker failed", "error", err)
		}
		marked = id
	}

	sessions, listErr := m.api.ListSessions(ctx, apiclient.ListOptions{})
	if listErr == nil {
		for i := range sessions {
			if model.IsActiveStatus(sessions[i].Status) {
				return &sessions[i], SourceAPI
			}
		}
	} else {
		m.log.Warn("list sessions failed, falling back to cache", "error", listErr)
	}

	if marked.IsZero() {
		return nil, ""
	}

	if listErr == nil && !marked.IsTemp() {
		session, err := m.api.GetSession(ctx, marked)
		var statusErr *offline.StatusError
		switch {
		case err == nil && model.IsActiveStatus(session.Status):
			return &session, SourceAPI
		case err == nil:
			m.discardMarker(marked, "session already finished")
			return nil, ""
		case errors.As(err, &statusErr) && (statusErr.Status == http.StatusNotFound || statusErr.Status == http.StatusForbidden):
			m.discardMarker(marked, "session no longer exists")
			return nil, ""
		}
		m.log.Warn("get marked session failed, falling back to cache", "session_id", marked, "error", err)
	}

	if m.cache == nil {
		return nil, ""
	}
	cached, ok, err := m.cache.Get(ctx, marked)
	if err != nil {
		m.log.Warn("read session cache failed", "session_id", marked, "error", err)
		return nil, ""
	}
	if !ok || !model.IsActiveStatus(cached.Status) {
		m.discardMarker(marked, "no open snapshot")
		return nil, ""
	}
	return cached, SourceCache
}

func (m *Machine) discardMarker(id model.ID, reason string) {
	m.log.Info("discarding active session marker", "session_id", id, "reason", reason)
	if m.marker == nil {
		return
	}
	m.persist("clear active session", func(ctx context.Context) error {
		return m.marker.SetActiveSessionID(ctx, "")
	})
}

func (m *Machine) adoptLocked(s model.Session, now time.Time) {
	m.sessionID = s.ID
	m.sessionStart = s.StartTime
	m.sessionEnd = nil
	m.status = s.Status
	m.skipped = s.SkippedPomodoros
	m.extraWork = max(0, s.TotalTime-s.CompletedPomodoros*m.cfg.WorkSeconds)
	m.completed = false
	m.ordinal = min(s.CompletedPomodoros+s.SkippedPomodoros+1, m.cfg.IntervalsPerSession)
	m.inBreak = false
	m.pomodoroID = ""
	m.breakID = ""
	m.breakType = ""
	m.length = m.cfg.WorkSeconds
	m.remaining = m.cfg.WorkSeconds
	m.boundaryFired = false
	m.running = false
	m.paused = true
	m.tags = model.SplitTags(s.Tags)

	m.setMarkerLocked(s.ID)
	m.cacheLocked(m.sessionLocked())
	m.log.Info("session restored", "session_id", s.ID, "ordinal", m.ordinal)
	m.emitLocked(now)
}

// abandonLocked closes a session the user chose not to continue. Totals are
// left as the server has them.
func (m *Machine) abandonLocked(s model.Session, now time.Time) {
	update := model.SessionUpdate{
		Status:  model.StringPtr(model.StatusStopped),
		EndTime: model.TimePtr(now),
	}
	m.persist("stop abandoned session", func(ctx context.Context) error {
		_, err := m.api.UpdateSession(ctx, s.ID, update)
		return err
	})
	s.Status = model.StatusStopped
	s.EndTime = model.TimePtr(now)
	m.cacheLocked(s)
	m.setMarkerLocked("")
	m.log.Info("open session stopped on restore", "session_id", s.ID)
}
