package status

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/breathwork/internal/logic"
	"github.com/sweeney/breathwork/internal/phase"
	"github.com/sweeney/breathwork/internal/session"
)

func activeState() session.State {
	return session.State{
		Active:              true,
		Technique:           "4-7-8",
		Pattern:             "4-7-8",
		CycleSeconds:        19,
		Phase:               phase.Hold,
		PhaseIndex:          1,
		SecondsRemaining:    5,
		TotalElapsed:        40,
		Color:               phase.Green,
		ChromotherapyActive: true,
		ChromaMode:          session.ChromaIntegrated,
		SelectedTrack:       "ocean",
		AudioPlaying:        true,
		Volume:              0.5,
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Technique: "box", HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Session.Active {
		t.Error("expected no active session initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.LastSummary != nil {
		t.Error("expected no summary initially")
	}
}

func TestUpdateCountsSessionStarts(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	s := activeState()
	tr.Update(s)
	s.TotalElapsed++
	tr.Update(s) // same session, not a new start
	tr.Update(session.State{})
	tr.Update(activeState())

	snap := tr.Snapshot()
	if snap.Counts.Sessions != 2 {
		t.Errorf("Counts.Sessions: got %d, want 2", snap.Counts.Sessions)
	}
	if !snap.Session.Active || snap.Session.TotalElapsed != 40 {
		t.Errorf("unexpected session state: %+v", snap.Session)
	}
}

func TestUpdateTracksTechnique(t *testing.T) {
	tr := NewTracker(time.Now(), Config{Technique: "4-7-8"})
	tr.Update(session.State{Technique: "box"})

	if got := tr.Snapshot().Config.Technique; got != "box" {
		t.Errorf("Config.Technique: got %q, want box", got)
	}
}

func TestRecordSummary(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.RecordSummary(logic.Summary{SessionID: "a", TotalElapsedSeconds: 45}, nil)
	tr.RecordSummary(logic.Summary{SessionID: "b", TotalElapsedSeconds: 60}, errors.New("broker down"))

	snap := tr.Snapshot()
	if snap.Counts.Summaries != 2 {
		t.Errorf("Counts.Summaries: got %d, want 2", snap.Counts.Summaries)
	}
	if snap.Counts.PublishErrors != 1 {
		t.Errorf("Counts.PublishErrors: got %d, want 1", snap.Counts.PublishErrors)
	}
	if snap.LastSummary == nil || snap.LastSummary.SessionID != "b" {
		t.Errorf("LastSummary: got %+v, want session b", snap.LastSummary)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Minute)}
	if snap.Uptime() != 90*time.Minute {
		t.Errorf("Uptime: got %v, want 90m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(activeState())
	tr.RecordSummary(logic.Summary{SessionID: "first"}, nil)

	snap1 := tr.Snapshot()
	snap1.LastSummary.SessionID = "mutated"

	tr.Update(session.State{})

	if !snap1.Session.Active {
		t.Error("snapshot should be a copy; session was modified")
	}
	if tr.Snapshot().LastSummary.SessionID != "first" {
		t.Error("mutating a snapshot's summary leaked into the tracker")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Session:       activeState(),
		StartTime:     start,
		Now:           start.Add(2 * time.Hour),
		MQTTConnected: true,
		Counts:        Counts{Sessions: 3, Summaries: 2},
		Config:        Config{Technique: "4-7-8", Broker: "tcp://localhost:1883", HTTPAddr: ":8080"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	st := parsed.Status
	if st.Event != "" || st.Reason != "" {
		t.Error("web JSON should not carry event/reason")
	}
	if st.Session.Phase != "hold" {
		t.Errorf("Session.Phase: got %q, want hold", st.Session.Phase)
	}
	if st.Session.Color != "#10b981" {
		t.Errorf("Session.Color: got %q", st.Session.Color)
	}
	if st.Session.CompletedCycles != 2 {
		t.Errorf("Session.CompletedCycles: got %d, want 2", st.Session.CompletedCycles)
	}
	if st.Session.Chromotherapy.Mode != "integrated" || !st.Session.Chromotherapy.Active {
		t.Errorf("unexpected chromotherapy: %+v", st.Session.Chromotherapy)
	}
	if st.Session.Audio.Track != "ocean" || !st.Session.Audio.Playing {
		t.Errorf("unexpected audio: %+v", st.Session.Audio)
	}
	if st.UptimeSeconds != 7200 {
		t.Errorf("UptimeSeconds: got %d, want 7200", st.UptimeSeconds)
	}
	if !st.MQTT.Connected || st.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("unexpected mqtt: %+v", st.MQTT)
	}
	if st.Counts.Sessions != 3 {
		t.Errorf("Counts.Sessions: got %d, want 3", st.Counts.Sessions)
	}
	if st.LastSummary != nil {
		t.Error("last_summary should be omitted when nil")
	}
}

func TestFormatJSONIdle(t *testing.T) {
	snap := Snapshot{Session: session.State{Color: phase.Idle}}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Session.Phase != "idle" {
		t.Errorf("Session.Phase: got %q, want idle", parsed.Status.Session.Phase)
	}
	if parsed.Status.Session.Chromotherapy.Mode != "off" {
		t.Errorf("Chromotherapy.Mode: got %q, want off", parsed.Status.Session.Chromotherapy.Mode)
	}
}

func TestFormatJSONLastSummary(t *testing.T) {
	sum := logic.Summary{
		SessionID:           "abc",
		TechniqueID:         "box",
		TotalElapsedSeconds: 64,
		CompletedCycles:     4,
		CompletedAt:         time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC),
	}
	snap := Snapshot{LastSummary: &sum}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	ls := parsed.Status.LastSummary
	if ls == nil {
		t.Fatal("expected last_summary")
	}
	if ls.SessionID != "abc" || ls.DurationSeconds != 64 || ls.CompletedCycles != 4 {
		t.Errorf("unexpected last summary: %+v", ls)
	}
	if ls.CompletedAt != "2026-01-01T07:00:00Z" {
		t.Errorf("CompletedAt: got %q", ls.CompletedAt)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{Session: activeState(), Now: time.Now(), StartTime: time.Now()}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")
	if strings.Contains(string(data), "\n") {
		t.Error("event payload should be compact")
	}

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("unexpected event/reason: %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(Snapshot{}, "STARTUP", "")

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["status"]["reason"]; ok {
		t.Error("reason should be omitted when empty")
	}
	if raw["status"]["event"] != "STARTUP" {
		t.Errorf("event: got %v", raw["status"]["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s := activeState()
			s.TotalElapsed = i
			tr.Update(s)
			tr.SetMQTTConnected(i%2 == 0)
			tr.RecordSummary(logic.Summary{SessionID: "x"}, nil)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
