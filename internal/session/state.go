// Package session owns the lifecycle of a guided breathing session: the phase
// and elapsed schedules, chromotherapy, audio, and the summary emitted when a
// session ends.
package session

import (
	"time"

	"github.com/sweeney/breathwork/internal/audio"
	"github.com/sweeney/breathwork/internal/phase"
)

// ChromaMode describes what is driving the displayed colour.
type ChromaMode string

const (
	ChromaOff        ChromaMode = "off"
	ChromaIntegrated ChromaMode = "integrated"
	ChromaManual     ChromaMode = "manual"
)

// Options configures a session at Start.
type Options struct {
	Chromotherapy bool
	Audio         bool
	TrackID       audio.TrackID // empty keeps the previously selected track
}

// State is a point-in-time view of a session.
// It is a value type, safe to use after the manager's lock is released.
type State struct {
	Active           bool
	Technique        string
	Pattern          string
	CycleSeconds     int
	Phase            phase.Name
	PhaseIndex       int
	SecondsRemaining int
	TotalElapsed     int
	TargetSeconds    int // 0 runs until stopped
	Color            phase.RGB

	ChromotherapyActive bool
	ChromaMode          ChromaMode

	SelectedTrack audio.TrackID
	AudioPlaying  bool
	AudioFallback bool
	Volume        float64
}

// CompletedCycles returns the whole cycles completed so far.
func (s State) CompletedCycles() int {
	if s.CycleSeconds <= 0 {
		return 0
	}
	return s.TotalElapsed / s.CycleSeconds
}

// ManualConfig configures standalone chromotherapy.
type ManualConfig struct {
	Interval      time.Duration
	Colors        []phase.RGB
	Cycles        int
	SafetyCeiling time.Duration // at or below the rotation length derives Interval*len(Colors)*Cycles + SafetyMargin
}

// SafetyMargin is added to the expected rotation length to derive the
// wall-clock safety stop.
const SafetyMargin = 5 * time.Second

// DefaultManualConfig rotates blue, green and purple every 20s once: 60s of
// rotation with a 65s safety stop.
func DefaultManualConfig() ManualConfig {
	return ManualConfig{
		Interval:      20 * time.Second,
		Colors:        []phase.RGB{phase.Blue, phase.Green, phase.Purple},
		Cycles:        1,
		SafetyCeiling: 65 * time.Second,
	}
}

func (c ManualConfig) withDefaults() ManualConfig {
	d := DefaultManualConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if len(c.Colors) == 0 {
		c.Colors = d.Colors
	}
	if c.Cycles < 1 {
		c.Cycles = 1
	}
	// The cycle count is the primary stop; the ceiling only backs it up.
	if rotation := c.Interval * time.Duration(len(c.Colors)*c.Cycles); c.SafetyCeiling <= rotation {
		c.SafetyCeiling = rotation + SafetyMargin
	}
	return c
}
