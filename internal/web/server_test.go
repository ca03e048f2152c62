package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/breathwork/internal/phase"
	"github.com/sweeney/breathwork/internal/scheduler"
	"github.com/sweeney/breathwork/internal/session"
	"github.com/sweeney/breathwork/internal/status"
)

type testEnv struct {
	ts      *httptest.Server
	tracker *status.Tracker
	manager *session.Manager
	clock   *scheduler.FakeClock
}

func newTestEnv(t *testing.T, premium bool) *testEnv {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Technique:   "4-7-8",
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":8080",
	}

	all, err := phase.NewCatalog(phase.Builtin())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	catalog := all.Available(premium)
	table, err := catalog.Lookup("4-7-8")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	clock := scheduler.NewFakeClock(start)
	tr := status.NewTracker(start, cfg)
	m := session.NewManager(table, scheduler.New(clock, nil), session.WithListener(tr.Update))
	t.Cleanup(m.Close)

	srv := New(":0", tr, m, WithTechniques(catalog))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, tracker: tr, manager: m, clock: clock}
}

func (e *testEnv) post(t *testing.T, path, body string) (*http.Response, status.StatusJSON) {
	t.Helper()
	resp, err := http.Post(e.ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
			t.Fatalf("POST %s: invalid JSON: %v", path, err)
		}
	}
	return resp, sj
}

func (e *testEnv) getJSON(t *testing.T) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(e.ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.tracker.SetMQTTConnected(true)

	sj := env.getJSON(t)
	if sj.Status.Session.Active {
		t.Error("expected idle session")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected")
	}
	if sj.Status.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("Config.Broker: got %q", sj.Status.Config.Broker)
	}
}

func TestStartAndStopSession(t *testing.T) {
	env := newTestEnv(t, false)

	resp, sj := env.post(t, "/session/start", `{"chromotherapy": true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got %d, want 200", resp.StatusCode)
	}
	if !sj.Status.Session.Active {
		t.Error("expected active session after start")
	}
	if sj.Status.Session.Phase != "inhale" || sj.Status.Session.SecondsRemaining != 4 {
		t.Errorf("unexpected first phase: %s %d", sj.Status.Session.Phase, sj.Status.Session.SecondsRemaining)
	}
	if sj.Status.Session.Color != phase.Blue.Hex() {
		t.Errorf("Color: got %q, want %q", sj.Status.Session.Color, phase.Blue.Hex())
	}

	env.clock.Advance(5 * time.Second)
	sj = env.getJSON(t)
	if sj.Status.Session.Phase != "hold" || sj.Status.Session.TotalElapsed != 5 {
		t.Errorf("after 5s: phase %s elapsed %d", sj.Status.Session.Phase, sj.Status.Session.TotalElapsed)
	}

	resp, sj = env.post(t, "/session/stop", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop: got %d, want 200", resp.StatusCode)
	}
	if sj.Status.Session.Active {
		t.Error("expected idle after stop")
	}
	if env.clock.Pending() != 0 {
		t.Errorf("expected no pending timers after stop, got %d", env.clock.Pending())
	}
}

func TestStartWhileActiveConflicts(t *testing.T) {
	env := newTestEnv(t, false)

	env.post(t, "/session/start", "")
	resp, _ := env.post(t, "/session/start", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second start: got %d, want 409", resp.StatusCode)
	}
}

func TestStartWithTarget(t *testing.T) {
	env := newTestEnv(t, false)

	resp, sj := env.post(t, "/session/start", `{"target_seconds": 10}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got %d", resp.StatusCode)
	}
	if sj.Status.Session.TargetSeconds != 10 {
		t.Errorf("TargetSeconds: got %d, want 10", sj.Status.Session.TargetSeconds)
	}

	env.clock.Advance(10 * time.Second)
	if env.getJSON(t).Status.Session.Active {
		t.Error("session should stop at its target")
	}
}

func TestStartRejectsBadBody(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"target_seconds":`},
		{"unknown field", `{"duration": 5}`},
		{"negative target", `{"target_seconds": -5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := env.post(t, "/session/start", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("got %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestStartWithTechnique(t *testing.T) {
	env := newTestEnv(t, false)

	resp, sj := env.post(t, "/session/start", `{"technique": "box"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: got %d", resp.StatusCode)
	}
	if sj.Status.Session.Technique != "box" {
		t.Errorf("Technique: got %q, want box", sj.Status.Session.Technique)
	}
}

func TestPremiumTechniqueHiddenFromFreeUsers(t *testing.T) {
	env := newTestEnv(t, false)

	resp, _ := env.post(t, "/session/technique", `{"id": "coherent"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("premium technique for free user: got %d, want 404", resp.StatusCode)
	}

	premium := newTestEnv(t, true)
	resp, sj := premium.post(t, "/session/technique", `{"id": "coherent"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("premium technique: got %d, want 200", resp.StatusCode)
	}
	if sj.Status.Session.Pattern != "5-5" {
		t.Errorf("Pattern: got %q, want 5-5", sj.Status.Session.Pattern)
	}
}

func TestTechniqueChangeDuringSessionConflicts(t *testing.T) {
	env := newTestEnv(t, false)
	env.post(t, "/session/start", "")

	resp, _ := env.post(t, "/session/technique", `{"id": "box"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("got %d, want 409", resp.StatusCode)
	}
}

func TestResetEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.post(t, "/session/start", "")
	env.clock.Advance(7 * time.Second)

	resp, sj := env.post(t, "/session/reset", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: got %d", resp.StatusCode)
	}
	if sj.Status.Session.Active || sj.Status.Session.TotalElapsed != 0 {
		t.Errorf("expected pristine idle state, got active=%v elapsed=%d",
			sj.Status.Session.Active, sj.Status.Session.TotalElapsed)
	}
}

func TestAudioEndpoints(t *testing.T) {
	env := newTestEnv(t, false)

	resp, sj := env.post(t, "/audio/track", `{"track": "rain"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("track: got %d", resp.StatusCode)
	}
	if sj.Status.Session.Audio.Track != "rain" {
		t.Errorf("Audio.Track: got %q, want rain", sj.Status.Session.Audio.Track)
	}

	resp, sj = env.post(t, "/audio/volume", `{"volume": 1.7}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("volume: got %d", resp.StatusCode)
	}
	if sj.Status.Session.Audio.Volume != 1 {
		t.Errorf("Audio.Volume: got %v, want clamped 1", sj.Status.Session.Audio.Volume)
	}

	if resp, _ := env.post(t, "/audio/track", `{}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty track: got %d, want 400", resp.StatusCode)
	}
	if resp, _ := env.post(t, "/audio/volume", `{}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing volume: got %d, want 400", resp.StatusCode)
	}
}

func TestChromotherapyEndpoints(t *testing.T) {
	env := newTestEnv(t, false)

	resp, sj := env.post(t, "/chromotherapy/start", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chromotherapy start: got %d", resp.StatusCode)
	}
	if !sj.Status.Session.Chromotherapy.Active || sj.Status.Session.Chromotherapy.Mode != "manual" {
		t.Errorf("unexpected chromotherapy: %+v", sj.Status.Session.Chromotherapy)
	}

	env.clock.Advance(20 * time.Second)
	if got := env.getJSON(t).Status.Session.Color; got != phase.Green.Hex() {
		t.Errorf("after one interval: colour %q, want %q", got, phase.Green.Hex())
	}

	if resp, _ := env.post(t, "/chromotherapy/start", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("second rotation: got %d, want 409", resp.StatusCode)
	}

	resp, sj = env.post(t, "/chromotherapy/stop", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chromotherapy stop: got %d", resp.StatusCode)
	}
	if sj.Status.Session.Chromotherapy.Active {
		t.Error("expected chromotherapy off after stop")
	}
}

func TestChromotherapyCustomRotation(t *testing.T) {
	env := newTestEnv(t, false)

	resp, _ := env.post(t, "/chromotherapy/start", `{"interval_seconds": 5, "colors": ["#ff0000", "#00ff00"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got %d", resp.StatusCode)
	}
	env.clock.Advance(5 * time.Second)
	if got := env.getJSON(t).Status.Session.Color; got != "#00ff00" {
		t.Errorf("colour: got %q, want #00ff00", got)
	}

	// 2 colours x 5s = 10s of rotation
	env.clock.Advance(5 * time.Second)
	if env.getJSON(t).Status.Session.Chromotherapy.Active {
		t.Error("rotation should end after one traversal")
	}

	if resp, _ := env.post(t, "/chromotherapy/start", `{"colors": ["teal"]}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad colour: got %d, want 400", resp.StatusCode)
	}
}

func TestTechniquesEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := http.Get(env.ts.URL + "/techniques")
	if err != nil {
		t.Fatalf("GET /techniques: %v", err)
	}
	defer resp.Body.Close()

	var list []TechniqueJSON
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(list) != len(phase.Builtin()) {
		t.Fatalf("expected %d techniques, got %d", len(phase.Builtin()), len(list))
	}
	for _, tj := range list {
		if tj.ID == "4-7-8" {
			if tj.CycleSeconds != 19 || len(tj.Phases) != 3 {
				t.Errorf("4-7-8: cycle %d phases %d", tj.CycleSeconds, len(tj.Phases))
			}
			return
		}
	}
	t.Error("4-7-8 not listed")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.post(t, "/session/start", "")
	env.clock.Advance(2 * time.Second)

	resp, err := http.Get(env.ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "breathwork_scheduler_ticks_total") {
		t.Error("expected scheduler metrics to be exposed")
	}
}

func TestControlUnavailableWithoutController(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	ts := httptest.NewServer(New(":0", tr, nil).Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/session/start", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("got %d, want 503", resp.StatusCode)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	env := newTestEnv(t, false)
	env.post(t, "/session/start", `{"chromotherapy": true}`)

	resp, err := http.Get(env.ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), phase.Blue.Hex()) {
		t.Error("page should render the current colour")
	}
	if !strings.Contains(string(body), "Ocean Waves") {
		t.Error("page should list the soundtracks")
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	env := newTestEnv(t, false)

	resp, err := http.Get(env.ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	env := newTestEnv(t, false)

	resp, err := http.Get(env.ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}
