// Package status provides a thread-safe status tracker for the breathwork daemon.
// It is fed by the session listener and read by HTTP handlers and the
// heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/breathwork/internal/logic"
	"github.com/sweeney/breathwork/internal/session"
)

// Config contains daemon configuration for display.
type Config struct {
	Technique   string
	Premium     bool
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Counts tallies session outcomes since startup.
type Counts struct {
	Sessions      int // sessions started
	Summaries     int // summaries emitted (elapsed over the threshold)
	PublishErrors int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Session       session.State
	LastSummary   *logic.Summary
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the latest session state. It is registered as a session
// listener, so it must not call back into the manager.
func (t *Tracker) Update(s session.State) {
	t.mu.Lock()
	if s.Active && !t.snap.Session.Active {
		t.snap.Counts.Sessions++
	}
	t.snap.Session = s
	if s.Technique != "" {
		t.snap.Config.Technique = s.Technique
	}
	t.mu.Unlock()
}

// RecordSummary stores an emitted summary and whether publishing it failed.
func (t *Tracker) RecordSummary(s logic.Summary, publishErr error) {
	t.mu.Lock()
	t.snap.LastSummary = &s
	t.snap.Counts.Summaries++
	if publishErr != nil {
		t.snap.Counts.PublishErrors++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastSummary != nil {
		last := *s.LastSummary
		s.LastSummary = &last
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
