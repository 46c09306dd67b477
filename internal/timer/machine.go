// Package timer is the pomodoro session state machine. It owns the active
// session's phase, counters and tags, applies user controls synchronously,
// and hands every server write to an ordered background worker so the
// countdown never waits on the network.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/syedzayyan/pomonotes/internal/apiclient"
	"github.com/syedzayyan/pomonotes/internal/clock"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/notify"
)

// API is the subset of the REST client the machine writes through.
type API interface {
	ListSessions(ctx context.Context, opts apiclient.ListOptions) ([]model.Session, error)
	GetSession(ctx context.Context, id model.ID) (model.Session, error)
	CreateSession(ctx context.Context, s model.Session) (model.Session, error)
	UpdateSession(ctx context.Context, id model.ID, update model.SessionUpdate) (model.Session, error)
	CreatePomodoro(ctx context.Context, p model.Pomodoro) (model.Pomodoro, error)
	UpdatePomodoro(ctx context.Context, id model.ID, update model.IntervalUpdate) (model.Pomodoro, error)
	CreateBreak(ctx context.Context, b model.Break) (model.Break, error)
	UpdateBreak(ctx context.Context, id model.ID, update model.IntervalUpdate) (model.Break, error)
	CreateNote(ctx context.Context, n model.Note) (model.Note, error)
}

// Marker remembers which session was active across restarts.
type Marker interface {
	ActiveSessionID(ctx context.Context) (model.ID, error)
	SetActiveSessionID(ctx context.Context, id model.ID) error
}

// SessionCache holds last-known session snapshots.
type SessionCache interface {
	Put(ctx context.Context, session model.Session) error
	Get(ctx context.Context, id model.ID) (*model.Session, bool, error)
	Rekey(ctx context.Context, temp, serverID model.ID) error
}

type Deps struct {
	API       API
	Marker    Marker
	Cache     SessionCache
	Presenter notify.Presenter
	Clock     clock.Clock
	Log       *slog.Logger
	// NewID generates placeholder ids; defaults to model.NewTempID.
	NewID func() model.ID
}

type Machine struct {
	cfg       Config
	api       API
	marker    Marker
	cache     SessionCache
	presenter notify.Presenter
	clock     clock.Clock
	log       *slog.Logger
	newID     func() model.ID
	jobs      *worker

	mu sync.Mutex

	sessionID     model.ID
	sessionStart  time.Time
	sessionEnd    *time.Time
	status        string
	pomodoroID    model.ID
	breakID       model.ID
	breakType     string
	ordinal       int
	inBreak       bool
	running       bool
	paused        bool
	remaining     int
	length        int
	boundaryFired bool
	skipped       int
	extraWork     int
	completed     bool
	tags          []string

	lastUpdate time.Time
	wake       clock.Timer
	generation uint64

	events []chan Snapshot
	closed bool
}

func New(cfg Config, deps Deps) *Machine {
	cfg = cfg.withDefaults()
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.NewID == nil {
		deps.NewID = model.NewTempID
	}
	return &Machine{
		cfg:       cfg,
		api:       deps.API,
		marker:    deps.Marker,
		cache:     deps.Cache,
		presenter: deps.Presenter,
		clock:     deps.Clock,
		log:       deps.Log,
		newID:     deps.NewID,
		jobs:      newWorker(),
		remaining: cfg.WorkSeconds,
		length:    cfg.WorkSeconds,
	}
}

func (m *Machine) Config() Config {
	return m.cfg
}

// Subscribe registers an observer. Snapshots are dropped for observers whose
// buffer is full.
func (m *Machine) Subscribe(buffer int) <-chan Snapshot {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch
	}
	m.events = append(m.events, ch)
	return ch
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(m.clock.Now())
}

// TotalTime returns the tracked work seconds of the active session.
func (m *Machine) TotalTime() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLocked()
}

// Flush waits until all persistence queued so far has been attempted.
func (m *Machine) Flush(ctx context.Context) error {
	return m.jobs.flush(ctx)
}

// Close stops the countdown, closes observers and finishes queued writes.
func (m *Machine) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.stopLoopLocked()
	events := m.events
	m.events = nil
	m.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
	return m.jobs.close(ctx)
}

// ResolveID swaps a placeholder id for the server-assigned one wherever the
// machine still holds it.
func (m *Machine) ResolveID(temp, serverID model.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	if m.pomodoroID == temp {
		m.pomodoroID = serverID
		changed = true
	}
	if m.breakID == temp {
		m.breakID = serverID
		changed = true
	}
	if m.sessionID == temp {
		m.sessionID = serverID
		changed = true
		m.persist("rekey session", func(ctx context.Context) error {
			if m.marker != nil {
				current, err := m.marker.ActiveSessionID(ctx)
				if err != nil {
					return err
				}
				if current == temp {
					if err := m.marker.SetActiveSessionID(ctx, serverID); err != nil {
						return err
					}
				}
			}
			if m.cache != nil {
				return m.cache.Rekey(ctx, temp, serverID)
			}
			return nil
		})
	}
	if changed {
		m.log.Debug("placeholder id resolved", "temp_id", temp, "server_id", serverID)
		m.emitLocked(m.clock.Now())
	}
}

func (m *Machine) stateLocked() State {
	if m.sessionID.IsZero() {
		return StateIdle
	}
	switch {
	case m.inBreak && m.paused:
		return StateBreakPaused
	case m.inBreak && m.remaining <= 0:
		return StateBreakOvertime
	case m.inBreak:
		return StateBreakRunning
	case m.paused || !m.running:
		return StateWorkPaused
	case m.remaining <= 0:
		return StateWorkOvertime
	}
	return StateWorkRunning
}

func (m *Machine) snapshotLocked(now time.Time) Snapshot {
	snap := Snapshot{
		State:               m.stateLocked(),
		SessionID:           m.sessionID,
		PomodoroID:          m.pomodoroID,
		BreakID:             m.breakID,
		SessionStatus:       m.status,
		Ordinal:             m.ordinal,
		IntervalsPerSession: m.cfg.IntervalsPerSession,
		Remaining:           m.remaining,
		PhaseLength:         m.length,
		Overtime:            m.remaining <= 0,
		Display:             clock.FormatSeconds(m.remaining),
		Completed:           m.completedCountLocked(),
		Skipped:             m.skipped,
		TotalTime:           m.totalLocked(),
		Tags:                append([]string(nil), m.tags...),
		At:                  now,
	}
	if m.inBreak {
		snap.BreakType = m.breakType
	}
	return snap
}

func (m *Machine) emitLocked(now time.Time) {
	snap := m.snapshotLocked(now)
	for _, ch := range m.events {
		select {
		case ch <- snap:
		default:
		}
	}
}

// totalLocked is (finished ordinals - skipped) * work length, plus overtime
// banked from completed intervals, plus the elapsed part of the current work
// interval.
func (m *Machine) totalLocked() int {
	if m.sessionID.IsZero() {
		return 0
	}
	total := m.finishedLocked()*m.cfg.WorkSeconds - m.skipped*m.cfg.WorkSeconds + m.extraWork
	if !m.inBreak {
		total += m.cfg.WorkSeconds - m.remaining
	}
	if total < 0 {
		return 0
	}
	return total
}

func (m *Machine) finishedLocked() int {
	if m.inBreak {
		return m.ordinal
	}
	if m.ordinal > 0 {
		return m.ordinal - 1
	}
	return 0
}

func (m *Machine) completedCountLocked() int {
	n := m.finishedLocked() - m.skipped
	if n < 0 {
		return 0
	}
	return n
}

func (m *Machine) sessionLocked() model.Session {
	return model.Session{
		ID:                 m.sessionID,
		StartTime:          m.sessionStart,
		EndTime:            m.sessionEnd,
		Status:             m.status,
		TotalTime:          m.totalLocked(),
		CompletedPomodoros: m.completedCountLocked(),
		SkippedPomodoros:   m.skipped,
		Tags:               model.JoinTags(m.tags),
	}
}
