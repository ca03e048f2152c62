// Package scheduler provides drift-corrected periodic timers.
//
// Each periodic handle re-arms a one-shot timer after every tick. The delay of
// the next timer is shortened by however late the current tick fired, while
// the nominal schedule advances by exactly one interval per tick, so jitter
// is absorbed without accumulating into long-run error.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Scheduler creates handles against a clock.
type Scheduler struct {
	clock  Clock
	logger *slog.Logger
}

// New creates a Scheduler. A nil logger uses slog.Default().
func New(clock Clock, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{clock: clock, logger: logger}
}

// Clock returns the clock the scheduler arms timers on.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Schedule calls onTick once per interval, first after one interval has
// elapsed, until the returned handle is cancelled.
func (s *Scheduler) Schedule(name string, interval time.Duration, onTick func()) *Handle {
	return s.arm(name, interval, onTick, true)
}

// After calls fn once after d unless the returned handle is cancelled first.
func (s *Scheduler) After(name string, d time.Duration, fn func()) *Handle {
	return s.arm(name, d, fn, false)
}

func (s *Scheduler) arm(name string, interval time.Duration, fn func(), periodic bool) *Handle {
	h := &Handle{
		name:     name,
		interval: interval,
		periodic: periodic,
		clock:    s.clock,
		logger:   s.logger,
		onTick:   fn,
	}
	h.mu.Lock()
	h.expected = s.clock.Now().Add(interval)
	h.timer = s.clock.AfterFunc(interval, h.fire)
	h.mu.Unlock()
	return h
}

// Handle is one active schedule. It is owned by whoever created it.
type Handle struct {
	name     string
	interval time.Duration
	periodic bool
	clock    Clock
	logger   *slog.Logger
	onTick   func()

	mu        sync.Mutex
	expected  time.Time
	timer     Timer
	ticks     int
	cancelled bool
	finished  bool
}

// Cancel stops the schedule. It is safe to call any number of times, and
// after a one-shot has fired. No callback starts after Cancel returns; a
// callback already running completes but does not re-arm.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return
	}
	h.cancelled = true
	if h.timer != nil {
		h.timer.Stop()
	}
}

// Active reports whether the handle can still fire.
func (h *Handle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.cancelled && !h.finished
}

// Name returns the schedule name.
func (h *Handle) Name() string {
	return h.name
}

// Interval returns the nominal interval.
func (h *Handle) Interval() time.Duration {
	return h.interval
}

// Expected returns the nominal time of the next tick.
func (h *Handle) Expected() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.expected
}

// Ticks returns how many times the callback has been invoked.
func (h *Handle) Ticks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ticks
}

func (h *Handle) fire() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	drift := h.clock.Now().Sub(h.expected)
	h.ticks++
	h.mu.Unlock()

	ticksTotal.WithLabelValues(h.name).Inc()
	driftSeconds.WithLabelValues(h.name).Observe(drift.Seconds())

	h.run()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return
	}
	if !h.periodic {
		h.finished = true
		return
	}
	next := h.interval - drift
	if next < 0 {
		next = 0
	}
	h.expected = h.expected.Add(h.interval)
	h.timer = h.clock.AfterFunc(next, h.fire)
}

// run invokes the callback, recovering a panic so the schedule keeps its
// cancel path.
func (h *Handle) run() {
	defer func() {
		if r := recover(); r != nil {
			panicsTotal.WithLabelValues(h.name).Inc()
			h.logger.Error("scheduler callback panicked", "schedule", h.name, "panic", fmt.Sprint(r))
		}
	}()
	h.onTick()
}
