package session

import (
	"github.com/sweeney/breathwork/internal/logic"
	"github.com/sweeney/breathwork/internal/phase"
)

// StartChromotherapy starts a standalone colour rotation. It only runs while
// no breathing session is active; starting a session ends it. The rotation
// stops itself after cfg.Cycles traversals, and a one-shot safety timer stops
// it at cfg.SafetyCeiling regardless of how many ticks were counted.
func (m *Manager) StartChromotherapy(cfg ManualConfig) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state.Active || m.state.ChromaMode == ChromaManual {
		return false
	}
	cfg = cfg.withDefaults()

	m.releaseLocked()
	gen := m.gen

	m.rotation = logic.NewRotation(cfg.Colors, cfg.Cycles)
	m.state.ChromotherapyActive = true
	m.state.ChromaMode = ChromaManual
	m.state.Color = m.rotation.Color()

	m.handles[ScheduleChroma] = m.sched.Schedule(ScheduleChroma, cfg.Interval, m.guard(gen, m.rotateLocked))
	m.handles[ScheduleChromaSafety] = m.sched.After(ScheduleChromaSafety, cfg.SafetyCeiling, m.guard(gen, m.safetyStopLocked))

	m.logger.Info("chromotherapy started", "interval", cfg.Interval, "colors", len(cfg.Colors),
		"cycles", cfg.Cycles, "safety", cfg.SafetyCeiling)
	m.notifyLocked()
	return true
}

// StopChromotherapy ends a standalone rotation. Integrated chromotherapy is
// part of the session and ends with Stop.
func (m *Manager) StopChromotherapy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopChromaLocked("manual")
}

func (m *Manager) rotateLocked() *logic.Summary {
	c, done := m.rotation.Advance()
	if done {
		m.stopChromaLocked("completed")
		return nil
	}
	m.state.Color = c
	m.notifyLocked()
	return nil
}

func (m *Manager) safetyStopLocked() *logic.Summary {
	m.logger.Warn("chromotherapy safety stop", "steps", m.rotation.Steps(), "expected", m.rotation.TotalSteps())
	m.stopChromaLocked("safety")
	return nil
}

func (m *Manager) stopChromaLocked(reason string) {
	if m.closed || m.state.ChromaMode != ChromaManual {
		return
	}
	m.releaseLocked()
	m.state.ChromotherapyActive = false
	m.state.ChromaMode = ChromaOff
	m.state.Color = phase.Idle
	m.logger.Info("chromotherapy stopped", "reason", reason)
	m.notifyLocked()
}
