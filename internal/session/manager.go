package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/breathwork/internal/audio"
	"github.com/sweeney/breathwork/internal/logic"
	"github.com/sweeney/breathwork/internal/phase"
	"github.com/sweeney/breathwork/internal/scheduler"
)

// Schedule names, one per timer category.
const (
	SchedulePhase        = "phase"
	ScheduleElapsed      = "elapsed"
	ScheduleChroma       = "chromotherapy"
	ScheduleChromaSafety = "chromotherapy-safety"
)

// Scheduler creates the handles a manager owns.
type Scheduler interface {
	Schedule(name string, interval time.Duration, onTick func()) *scheduler.Handle
	After(name string, d time.Duration, fn func()) *scheduler.Handle
	Clock() scheduler.Clock
}

// SummarySink receives the summary of every significant session.
type SummarySink interface {
	Publish(summary logic.Summary) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithAudio gives the manager an audio output to own.
func WithAudio(out *audio.Output) Option {
	return func(m *Manager) { m.audio = out }
}

// WithSink sets where summaries are sent.
func WithSink(sink SummarySink) Option {
	return func(m *Manager) { m.sink = sink }
}

// WithListener registers fn to receive a snapshot after every change. It is
// called with the manager's lock held and must not call back into the manager.
func WithListener(fn func(State)) Option {
	return func(m *Manager) { m.listeners = append(m.listeners, fn) }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithIDGenerator overrides how summary session IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// Manager is the sole owner and mutator of one session's state and timers.
// All public methods and all tick callbacks are serialized by one mutex.
type Manager struct {
	sched     Scheduler
	audio     *audio.Output
	sink      SummarySink
	listeners []func(State)
	logger    *slog.Logger
	newID     func() string

	mu        sync.Mutex
	table     phase.Table
	ctrl      *logic.Controller
	state     State
	opts      Options
	usedTrack audio.TrackID
	soundUsed bool
	rotation  *logic.Rotation
	handles   map[string]*scheduler.Handle
	gen       uint64
	closed    bool
	closeOnce sync.Once
}

// NewManager creates an idle manager for the given, already validated,
// technique.
func NewManager(table phase.Table, sched Scheduler, opts ...Option) *Manager {
	m := &Manager{
		sched:   sched,
		logger:  slog.Default(),
		newID:   uuid.NewString,
		table:   table,
		ctrl:    logic.NewController(table),
		handles: make(map[string]*scheduler.Handle),
	}
	for _, o := range opts {
		o(m)
	}
	if m.audio == nil {
		m.audio = audio.NewOutput(nil, nil, m.logger)
	}
	m.state = m.idleStateLocked()
	return m
}

// Start begins a session lasting targetSeconds (0 runs until stopped). It
// returns false without changing anything if a session is already active or
// the manager is closed.
func (m *Manager) Start(targetSeconds int, opts Options) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state.Active {
		return false
	}

	// A previous stop may have been skipped; never provision on top of
	// leftover handles or a running manual rotation.
	m.releaseLocked()
	gen := m.gen

	if targetSeconds < 0 {
		targetSeconds = 0
	}
	m.ctrl.Reset()
	m.opts = opts
	m.usedTrack = ""
	m.soundUsed = false

	st := m.idleStateLocked()
	st.Active = true
	st.TargetSeconds = targetSeconds
	st.Color = m.ctrl.Color()
	if opts.Chromotherapy {
		st.ChromotherapyActive = true
		st.ChromaMode = ChromaIntegrated
	}
	if opts.TrackID != "" {
		st.SelectedTrack = opts.TrackID
	}
	m.state = st

	m.handles[SchedulePhase] = m.sched.Schedule(SchedulePhase, time.Second, m.guard(gen, m.phaseTickLocked))
	m.handles[ScheduleElapsed] = m.sched.Schedule(ScheduleElapsed, time.Second, m.guard(gen, m.elapsedTickLocked))

	if opts.Audio {
		m.playLocked(m.state.SelectedTrack)
	}

	sessionsStarted.Inc()
	m.logger.Info("session started", "technique", m.table.ID, "target_seconds", targetSeconds,
		"chromotherapy", opts.Chromotherapy, "audio", opts.Audio, "track", m.state.SelectedTrack)
	m.notifyLocked()
	return true
}

// Stop ends the active session, releasing every timer and the audio output.
// A summary is sent to the sink when the session ran long enough. Safe to
// call when no session is active.
func (m *Manager) Stop() {
	m.mu.Lock()
	summary := m.stopLocked(true, "stop")
	m.mu.Unlock()
	m.emit(summary)
}

// Reset stops without emitting a summary and restores the idle state.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.stopLocked(false, "reset")
	m.releaseLocked()
	m.ctrl.Reset()
	m.state = m.idleStateLocked()
	m.notifyLocked()
}

// Close tears the manager down. Every timer and the audio output are released
// exactly once; later calls to any method are no-ops.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state.Active {
			sessionsEnded.WithLabelValues("close").Inc()
		}
		m.releaseLocked()
		m.closed = true
		m.state.Active = false
		m.state.ChromotherapyActive = false
		m.state.ChromaMode = ChromaOff
		m.state.AudioPlaying = false
		m.state.AudioFallback = false
		m.state.Color = phase.Idle
		m.notifyLocked()
	})
}

// SelectAudioTrack chooses the soundtrack. If audio is playing, playback
// switches to the new track.
func (m *Manager) SelectAudioTrack(id audio.TrackID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.state.SelectedTrack = id
	if m.state.Active && m.audio.Playing() {
		m.playLocked(id)
	}
	m.notifyLocked()
}

// SetVolume sets the playback volume, clamped to [0, 1].
func (m *Manager) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.audio.SetVolume(level)
	m.state.Volume = m.audio.Volume()
	m.notifyLocked()
}

// SetTechnique switches the phase table. It fails while a session is active.
func (m *Manager) SetTechnique(table phase.Table) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state.Active {
		return false
	}
	m.table = table
	m.ctrl = logic.NewController(table)
	chroma := m.state.ChromaMode
	m.state = m.idleStateLocked()
	if chroma == ChromaManual {
		// a manual rotation keeps running across a technique change
		m.state.ChromotherapyActive = true
		m.state.ChromaMode = ChromaManual
		m.state.Color = m.rotation.Color()
	}
	m.notifyLocked()
	return true
}

// Technique returns the current phase table.
func (m *Manager) Technique() phase.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// guard wraps a tick so it does nothing once the schedules it belongs to have
// been released, even if it was already in flight when that happened.
func (m *Manager) guard(gen uint64, fn func() *logic.Summary) func() {
	return func() {
		m.mu.Lock()
		if m.closed || m.gen != gen {
			m.mu.Unlock()
			return
		}
		summary := fn()
		m.mu.Unlock()
		m.emit(summary)
	}
}

func (m *Manager) phaseTickLocked() *logic.Summary {
	p := m.ctrl.Tick()
	m.state.Phase = p.Name
	m.state.PhaseIndex = m.ctrl.Index()
	m.state.SecondsRemaining = m.ctrl.Remaining()
	m.state.Color = p.Color
	m.notifyLocked()
	return nil
}

func (m *Manager) elapsedTickLocked() *logic.Summary {
	m.state.TotalElapsed++
	if m.state.TargetSeconds > 0 && m.state.TotalElapsed >= m.state.TargetSeconds {
		m.logger.Info("session reached target duration", "seconds", m.state.TotalElapsed)
		return m.stopLocked(true, "target")
	}
	m.notifyLocked()
	return nil
}

// stopLocked ends an active session and returns the summary to emit, if any.
func (m *Manager) stopLocked(withSummary bool, reason string) *logic.Summary {
	if !m.state.Active {
		return nil
	}
	m.releaseLocked()

	m.state.Active = false
	m.state.ChromotherapyActive = false
	m.state.ChromaMode = ChromaOff
	m.state.Color = phase.Idle
	m.state.AudioPlaying = false
	m.state.AudioFallback = false
	sessionsEnded.WithLabelValues(reason).Inc()
	m.logger.Info("session stopped", "reason", reason, "elapsed_seconds", m.state.TotalElapsed)
	m.notifyLocked()

	if !withSummary {
		return nil
	}
	if !logic.Significant(m.state.TotalElapsed) {
		summariesTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	s := logic.Summary{
		SessionID:           m.newID(),
		SessionType:         logic.SessionType,
		TechniqueID:         m.table.ID,
		TotalElapsedSeconds: m.state.TotalElapsed,
		ChromotherapyUsed:   m.opts.Chromotherapy,
		AudioTrack:          string(m.usedTrack),
		SoundUsed:           m.soundUsed,
		CompletedCycles:     logic.CompletedCycles(m.state.TotalElapsed, m.table.CycleLength()),
		CompletedAt:         m.sched.Clock().Now().UTC(),
	}
	return &s
}

// releaseLocked cancels every handle and silences audio. Cancellation order
// does not matter: each tick re-checks the generation under the lock.
func (m *Manager) releaseLocked() {
	for name, h := range m.handles {
		h.Cancel()
		delete(m.handles, name)
	}
	m.audio.Stop()
	m.rotation = nil
	m.gen++
}

func (m *Manager) playLocked(track audio.TrackID) {
	m.audio.Play(track)
	if m.audio.Playing() {
		m.soundUsed = true
		m.usedTrack = track
	}
	m.state.AudioPlaying = m.audio.Playing()
	m.state.AudioFallback = m.audio.Fallback()
}

func (m *Manager) idleStateLocked() State {
	first := m.table.First()
	return State{
		Technique:        m.table.ID,
		Pattern:          m.table.Pattern(),
		CycleSeconds:     m.table.CycleLength(),
		Phase:            first.Name,
		PhaseIndex:       0,
		SecondsRemaining: first.Duration,
		Color:            phase.Idle,
		ChromaMode:       ChromaOff,
		SelectedTrack:    m.state.SelectedTrack,
		Volume:           m.audio.Volume(),
	}
}

func (m *Manager) notifyLocked() {
	s := m.state
	for _, fn := range m.listeners {
		fn(s)
	}
}

func (m *Manager) emit(s *logic.Summary) {
	if s == nil {
		return
	}
	if m.sink == nil {
		summariesTotal.WithLabelValues("skipped").Inc()
		return
	}
	if err := m.sink.Publish(*s); err != nil {
		summariesTotal.WithLabelValues("failed").Inc()
		m.logger.Error("publish summary", "session_id", s.SessionID, "error", err)
		return
	}
	summariesTotal.WithLabelValues("published").Inc()
	m.logger.Info("published summary", "session_id", s.SessionID, "seconds", s.TotalElapsedSeconds,
		"cycles", s.CompletedCycles)
}
