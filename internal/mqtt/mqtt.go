// Package mqtt publishes session summaries and daemon lifecycle events, with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/breathwork/internal/logic"
)

// Topic is the MQTT topic for session summaries.
const Topic = "wellness/breathwork/sessions"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "wellness/breathwork/system"

// Publisher publishes to MQTT.
type Publisher interface {
	// Publish sends a session summary to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(summary logic.Summary) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the summary message consumed by the persistence service.
type Payload struct {
	SessionID           string      `json:"sessionId"`
	SessionType         string      `json:"sessionType"`
	DurationSeconds     int         `json:"durationSeconds"`
	EffectivenessRating *int        `json:"effectivenessRating,omitempty"`
	SessionData         SessionData `json:"sessionData"`
	CompletedAt         string      `json:"completedAt"`
}

// SessionData contains what the session used and achieved.
type SessionData struct {
	Technique         string `json:"technique"`
	ChromotherapyUsed bool   `json:"chromotherapyUsed"`
	SoundUsed         bool   `json:"soundUsed"`
	Track             string `json:"track,omitempty"`
	CompletedCycles   int    `json:"completedCycles"`
}

// FormatPayload creates the JSON payload for a session summary.
func FormatPayload(summary logic.Summary) ([]byte, error) {
	sessionType := summary.SessionType
	if sessionType == "" {
		sessionType = logic.SessionType
	}
	payload := Payload{
		SessionID:           summary.SessionID,
		SessionType:         sessionType,
		DurationSeconds:     summary.TotalElapsedSeconds,
		EffectivenessRating: summary.EffectivenessRating,
		SessionData: SessionData{
			Technique:         summary.TechniqueID,
			ChromotherapyUsed: summary.ChromotherapyUsed,
			SoundUsed:         summary.SoundUsed,
			Track:             summary.AudioTrack,
			CompletedCycles:   summary.CompletedCycles,
		},
		CompletedAt: summary.CompletedAt.UTC().Format(time.RFC3339),
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
