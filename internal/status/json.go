package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Session       SessionJSON  `json:"session"`
	LastSummary   *SummaryJSON `json:"last_summary,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Config        ConfigJSON   `json:"config"`
}

// SessionJSON is the JSON representation of the live session.
type SessionJSON struct {
	Active           bool              `json:"active"`
	Technique        string            `json:"technique"`
	Pattern          string            `json:"pattern"`
	Phase            string            `json:"phase"`
	PhaseIndex       int               `json:"phase_index"`
	SecondsRemaining int               `json:"seconds_remaining"`
	TotalElapsed     int               `json:"total_elapsed"`
	TargetSeconds    int               `json:"target_seconds,omitempty"`
	CompletedCycles  int               `json:"completed_cycles"`
	Color            string            `json:"color"`
	Chromotherapy    ChromotherapyJSON `json:"chromotherapy"`
	Audio            AudioJSON         `json:"audio"`
}

// ChromotherapyJSON reports colour therapy state.
type ChromotherapyJSON struct {
	Active bool   `json:"active"`
	Mode   string `json:"mode"`
}

// AudioJSON reports soundtrack state.
type AudioJSON struct {
	Track    string  `json:"track,omitempty"`
	Playing  bool    `json:"playing"`
	Fallback bool    `json:"fallback"`
	Volume   float64 `json:"volume"`
}

// SummaryJSON is the last emitted session summary.
type SummaryJSON struct {
	SessionID       string `json:"session_id"`
	Technique       string `json:"technique"`
	DurationSeconds int    `json:"duration_seconds"`
	CompletedCycles int    `json:"completed_cycles"`
	CompletedAt     string `json:"completed_at"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of session counts.
type CountsJSON struct {
	Sessions      int `json:"sessions"`
	Summaries     int `json:"summaries"`
	PublishErrors int `json:"publish_errors"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Technique   string `json:"technique"`
	Premium     bool   `json:"premium"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	s := snap.Session
	ph := string(s.Phase)
	if !s.Active {
		ph = "idle"
	}
	mode := string(s.ChromaMode)
	if mode == "" {
		mode = "off"
	}

	inner := StatusInner{
		Session: SessionJSON{
			Active:           s.Active,
			Technique:        s.Technique,
			Pattern:          s.Pattern,
			Phase:            ph,
			PhaseIndex:       s.PhaseIndex,
			SecondsRemaining: s.SecondsRemaining,
			TotalElapsed:     s.TotalElapsed,
			TargetSeconds:    s.TargetSeconds,
			CompletedCycles:  s.CompletedCycles(),
			Color:            s.Color.Hex(),
			Chromotherapy:    ChromotherapyJSON{Active: s.ChromotherapyActive, Mode: mode},
			Audio: AudioJSON{
				Track:    string(s.SelectedTrack),
				Playing:  s.AudioPlaying,
				Fallback: s.AudioFallback,
				Volume:   s.Volume,
			},
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Sessions:      snap.Counts.Sessions,
			Summaries:     snap.Counts.Summaries,
			PublishErrors: snap.Counts.PublishErrors,
		},
		Config: ConfigJSON{
			Technique:   snap.Config.Technique,
			Premium:     snap.Config.Premium,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if sum := snap.LastSummary; sum != nil {
		inner.LastSummary = &SummaryJSON{
			SessionID:       sum.SessionID,
			Technique:       sum.TechniqueID,
			DurationSeconds: sum.TotalElapsedSeconds,
			CompletedCycles: sum.CompletedCycles,
			CompletedAt:     sum.CompletedAt.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
