// Package web provides an HTTP status and control server for the breathwork daemon.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/breathwork/internal/audio"
	"github.com/sweeney/breathwork/internal/phase"
	"github.com/sweeney/breathwork/internal/session"
	"github.com/sweeney/breathwork/internal/status"
)

const maxBodyBytes = 64 << 10

// Controller is the session surface driven by the control endpoints.
// *session.Manager implements it.
type Controller interface {
	Start(targetSeconds int, opts session.Options) bool
	Stop()
	Reset()
	StartChromotherapy(cfg session.ManualConfig) bool
	StopChromotherapy()
	SelectAudioTrack(id audio.TrackID)
	SetVolume(level float64)
	SetTechnique(table phase.Table) bool
}

// Option configures a Server.
type Option func(*Server)

// WithTechniques sets the catalog served at /techniques and used to resolve
// technique switches.
func WithTechniques(c *phase.Catalog) Option {
	return func(s *Server) { s.techniques = c }
}

// WithChroma sets the rotation used when /chromotherapy/start has no body.
func WithChroma(cfg session.ManualConfig) Option {
	return func(s *Server) { s.chroma = cfg }
}

// WithSessionDefaults sets the options applied to /session/start when the
// request leaves them out.
func WithSessionDefaults(target int, opts session.Options) Option {
	return func(s *Server) {
		s.defaultTarget = target
		s.defaultOpts = opts
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server serves the status page and the session control endpoints over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	control    Controller
	techniques *phase.Catalog
	chroma     session.ManualConfig
	logger     *slog.Logger

	defaultTarget int
	defaultOpts   session.Options
}

// New creates a Server that reads state from the given tracker and drives
// ctrl. A nil ctrl serves status only.
func New(addr string, tracker *status.Tracker, ctrl Controller, opts ...Option) *Server {
	s := &Server{
		tracker: tracker,
		control: ctrl,
		chroma:  session.DefaultManualConfig(),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("GET /index.json", s.handleJSON)
	mux.HandleFunc("GET /techniques", s.handleTechniques)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /session/start", s.handleStart)
	mux.HandleFunc("POST /session/stop", s.handleStop)
	mux.HandleFunc("POST /session/reset", s.handleReset)
	mux.HandleFunc("POST /session/technique", s.handleTechnique)
	mux.HandleFunc("POST /audio/track", s.handleTrack)
	mux.HandleFunc("POST /audio/volume", s.handleVolume)
	mux.HandleFunc("POST /chromotherapy/start", s.handleChromaStart)
	mux.HandleFunc("POST /chromotherapy/stop", s.handleChromaStop)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the server's request router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap, s.trackList())
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) requireControl(w http.ResponseWriter) bool {
	if s.control == nil {
		s.writeError(w, http.StatusServiceUnavailable, "control not available")
		return false
	}
	return true
}

type startRequest struct {
	TargetSeconds *int   `json:"target_seconds"`
	Technique     string `json:"technique"`
	Chromotherapy *bool  `json:"chromotherapy"`
	Audio         *bool  `json:"audio"`
	Track         string `json:"track"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w) {
		return
	}
	var req startRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	target := s.defaultTarget
	if req.TargetSeconds != nil {
		if *req.TargetSeconds < 0 {
			s.writeError(w, http.StatusBadRequest, "target_seconds must not be negative")
			return
		}
		target = *req.TargetSeconds
	}
	opts := s.defaultOpts
	if req.Chromotherapy != nil {
		opts.Chromotherapy = *req.Chromotherapy
	}
	if req.Audio != nil {
		opts.Audio = *req.Audio
	}
	if req.Track != "" {
		opts.TrackID = audio.TrackID(req.Track)
	}

	if req.Technique != "" && !s.switchTechnique(w, req.Technique) {
		return
	}

	if !s.control.Start(target, opts) {
		s.writeError(w, http.StatusConflict, "session already active")
		return
	}
	s.logger.Info("session started via http", "target", target, "chromotherapy", opts.Chromotherapy, "audio", opts.Audio)
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w) {
		return
	}
	s.control.Stop()
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w) {
		return
	}
	s.control.Reset()
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) handleTechnique(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w) {
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := decode(r, &req); err != nil || req.ID == "" {
		s.writeError(w, http.StatusBadRequest, "technique id required")
		return
	}
	if !s.switchTechnique(w, req.ID) {
		return
	}
	s.writeStatus(w, http.StatusOK)
}

// switchTechnique resolves id and applies it, writing the error response on
// failure.
func (s *Server) switchTechnique(w http.ResponseWriter, id string) bool {
	if s.techniques == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no technique catalog")
		return false
	}
	table, err := s.techniques.Lookup(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return false
	}
	if !s.control.SetTechnique(table) {
		s.writeError(w, http.StatusConflict, "cannot change technique during a session")
		return false
	}
	return true
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w) {
		return
	}
	var req struct {
		Track string `json:"track"`
	}
	if err := decode(r, &req); err != nil || req.Track == "" {
		s.writeError(w, http.StatusBadRequest, "track required")
		return
	}
	s.control.SelectAudioTrack(audio.TrackID(req.Track))
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w) {
		return
	}
	var req struct {
		Volume *float64 `json:"volume"`
	}
	if err := decode(r, &req); err != nil || req.Volume == nil {
		s.writeError(w, http.StatusBadRequest, "volume required")
		return
	}
	s.control.SetVolume(*req.Volume)
	s.writeStatus(w, http.StatusOK)
}

type chromaRequest struct {
	IntervalSeconds int      `json:"interval_seconds"`
	Colors          []string `json:"colors"`
	Cycles          int      `json:"cycles"`
	SafetySeconds   int      `json:"safety_seconds"`
}

func (s *Server) handleChromaStart(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w) {
		return
	}
	var req chromaRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cfg := s.chroma
	if req.IntervalSeconds > 0 {
		cfg.Interval = time.Duration(req.IntervalSeconds) * time.Second
	}
	if req.Cycles > 0 {
		cfg.Cycles = req.Cycles
	}
	if req.SafetySeconds > 0 {
		cfg.SafetyCeiling = time.Duration(req.SafetySeconds) * time.Second
	} else if req.IntervalSeconds > 0 || req.Cycles > 0 || len(req.Colors) > 0 {
		cfg.SafetyCeiling = 0 // derive from the overridden rotation
	}
	if len(req.Colors) > 0 {
		cfg.Colors = nil
		for _, c := range req.Colors {
			rgb, err := phase.ParseRGB(c)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			cfg.Colors = append(cfg.Colors, rgb)
		}
	}

	if !s.control.StartChromotherapy(cfg) {
		s.writeError(w, http.StatusConflict, "chromotherapy unavailable while a session or rotation is active")
		return
	}
	s.writeStatus(w, http.StatusOK)
}

func (s *Server) handleChromaStop(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w) {
		return
	}
	s.control.StopChromotherapy()
	s.writeStatus(w, http.StatusOK)
}

// TechniqueJSON describes a technique for /techniques.
type TechniqueJSON struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Pattern      string      `json:"pattern"`
	Premium      bool        `json:"premium"`
	CycleSeconds int         `json:"cycle_seconds"`
	Phases       []PhaseJSON `json:"phases"`
}

// PhaseJSON describes one phase of a technique.
type PhaseJSON struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	Color    string `json:"color"`
}

func (s *Server) handleTechniques(w http.ResponseWriter, r *http.Request) {
	out := []TechniqueJSON{}
	if s.techniques != nil {
		for _, t := range s.techniques.List() {
			tj := TechniqueJSON{
				ID:           t.ID,
				Title:        t.Title,
				Pattern:      t.Pattern(),
				Premium:      t.Premium,
				CycleSeconds: t.CycleLength(),
			}
			for _, p := range t.Phases {
				tj.Phases = append(tj.Phases, PhaseJSON{Name: string(p.Name), Duration: p.Duration, Color: p.Color.Hex()})
			}
			out = append(out, tj)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) trackList() []audio.Track {
	return audio.Tracks()
}
