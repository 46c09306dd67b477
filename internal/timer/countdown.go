package timer

import (
	"time"

	"github.com/syedzayyan/pomonotes/internal/clock"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/notify"
)

func (m *Machine) startLoopLocked(now time.Time) {
	m.stopLoopLocked()
	m.running = true
	m.paused = false
	m.lastUpdate = now
	m.scheduleLocked(now)
}

func (m *Machine) scheduleLocked(now time.Time) {
	gen := m.generation
	m.wake = m.clock.AfterFunc(clock.NextWakeDelay(now), func() {
		m.onWake(gen)
	})
}

// stopLoopLocked cancels the pending wake-up. A callback that already fired
// sees a stale generation and does nothing.
func (m *Machine) stopLoopLocked() {
	m.generation++
	if m.wake != nil {
		m.wake.Stop()
		m.wake = nil
	}
}

func (m *Machine) onWake(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || !m.running || m.closed {
		return
	}

	now := m.clock.Now()
	if m.advanceLocked(now) {
		m.emitLocked(now)
	}
	if m.running {
		m.scheduleLocked(now)
	}
}

// advanceLocked applies the whole seconds elapsed since the last update.
// Sub-second remainders carry over to the next wake-up.
func (m *Machine) advanceLocked(now time.Time) bool {
	if !m.running {
		return false
	}
	elapsed := clock.WholeSeconds(m.lastUpdate, now)
	if elapsed < 1 {
		return false
	}
	m.lastUpdate = m.lastUpdate.Add(time.Duration(elapsed) * time.Second)
	m.remaining -= elapsed

	if m.remaining <= 0 && !m.boundaryFired {
		m.boundaryFired = true
		m.onBoundaryLocked(now)
	}
	return true
}

// onBoundaryLocked runs once per phase when the countdown first reaches zero.
// The countdown keeps going as overtime.
func (m *Machine) onBoundaryLocked(now time.Time) {
	m.log.Info("phase reached its length",
		"session_id", m.sessionID,
		"phase", m.phaseName(),
		"ordinal", m.ordinal,
	)
	m.alertLocked(notify.BoundaryAlert(m.phaseName(), m.ordinal, now))

	m.writeIntervalLocked(model.StatusCompleted, m.length, now)

	if m.inBreak && m.completed {
		m.finishLocked(now)
		return
	}
	if !m.inBreak {
		m.writeSessionLocked(model.StatusInProgress, nil)
	}
}
