package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/breathwork/internal/audio"
	"github.com/sweeney/breathwork/internal/config"
	"github.com/sweeney/breathwork/internal/gpio"
	"github.com/sweeney/breathwork/internal/logic"
	"github.com/sweeney/breathwork/internal/mqtt"
	"github.com/sweeney/breathwork/internal/phase"
	"github.com/sweeney/breathwork/internal/scheduler"
	"github.com/sweeney/breathwork/internal/session"
	"github.com/sweeney/breathwork/internal/status"
)

// engine is the wired session manager plus the adapters it drives.
type engine struct {
	cfg        *config.Config
	catalog    *phase.Catalog
	manager    *session.Manager
	tracker    *status.Tracker
	chroma     session.ManualConfig
	publisher  mqtt.Publisher        // nil when MQTT is disabled
	mqttStatus mqtt.ConnectionStatus // nil when MQTT is disabled
	logger     *slog.Logger

	closers []func() error
}

// engineDeps lets tests substitute the clock and publisher.
type engineDeps struct {
	clock     scheduler.Clock
	publisher mqtt.Publisher
}

func newEngine(cfg *config.Config, deps engineDeps, logger *slog.Logger) (*engine, error) {
	all, err := phase.NewCatalog(phase.Builtin())
	if err != nil {
		return nil, fmt.Errorf("load techniques: %w", err)
	}
	catalog := all.Available(cfg.Premium)
	table, err := catalog.Lookup(cfg.Technique)
	if err != nil {
		return nil, err
	}
	chroma, err := cfg.ManualChroma()
	if err != nil {
		return nil, err
	}
	if deps.clock == nil {
		deps.clock = scheduler.SystemClock{}
	}

	e := &engine{
		cfg:     cfg,
		catalog: catalog,
		chroma:  chroma,
		logger:  logger,
		tracker: status.NewTracker(deps.clock.Now(), status.Config{
			Technique:   cfg.Technique,
			Premium:     cfg.Premium,
			HeartbeatMs: cfg.Heartbeat().Milliseconds(),
			Broker:      cfg.MQTT.Broker,
			HTTPAddr:    cfg.HTTP.Addr,
		}),
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithListener(e.tracker.Update),
	}

	var tone audio.Tone
	if cfg.GPIO.Enabled {
		pins := gpio.Pins{Red: cfg.GPIO.Red, Green: cfg.GPIO.Green, Blue: cfg.GPIO.Blue, Buzzer: cfg.GPIO.Buzzer}
		light, err := gpio.NewRealLight(cfg.GPIO.Chip, pins)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("init led: %w", err)
		}
		e.closers = append(e.closers, light.Close)
		opts = append(opts, session.WithListener(gpio.Follow(light, logger)))

		buzzer, err := gpio.NewRealBuzzer(cfg.GPIO.Chip, pins.Buzzer)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("init buzzer: %w", err)
		}
		e.closers = append(e.closers, buzzer.Close)
		tone = buzzer
	}

	var player audio.Player
	if cfg.Audio.Enabled {
		player = audio.NewExecPlayer(cfg.Audio.Dir, cfg.Audio.Command)
	}
	out := audio.NewOutput(player, tone, logger)
	out.SetVolume(cfg.Audio.Volume)
	opts = append(opts, session.WithAudio(out))

	switch {
	case deps.publisher != nil:
		e.publisher = deps.publisher
	case cfg.MQTT.Enabled:
		pub, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, logger)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("init mqtt: %w", err)
		}
		e.publisher = pub
		e.closers = append(e.closers, pub.Close)
	}
	if cs, ok := e.publisher.(mqtt.ConnectionStatus); ok {
		e.mqttStatus = cs
	}
	opts = append(opts, session.WithSink(&trackingSink{publisher: e.publisher, tracker: e.tracker, logger: logger}))

	e.manager = session.NewManager(table, scheduler.New(deps.clock, logger), opts...)
	if cfg.Audio.Track != "" {
		e.manager.SelectAudioTrack(audio.TrackID(cfg.Audio.Track))
	}
	return e, nil
}

// startOptions are the session options configured for Start.
func (e *engine) startOptions() session.Options {
	return session.Options{
		Chromotherapy: e.cfg.Chromotherapy.Enabled,
		Audio:         e.cfg.Audio.Enabled,
		TrackID:       audio.TrackID(e.cfg.Audio.Track),
	}
}

// Close stops the manager without a summary and releases hardware and the
// broker connection.
func (e *engine) Close() {
	if e.manager != nil {
		e.manager.Close()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("close error", "error", err)
		}
	}
	e.closers = nil
}

// trackingSink publishes summaries and records them in the status tracker.
type trackingSink struct {
	publisher mqtt.Publisher
	tracker   *status.Tracker
	logger    *slog.Logger
}

func (s *trackingSink) Publish(summary logic.Summary) error {
	var err error
	if s.publisher != nil {
		err = s.publisher.Publish(summary)
	} else {
		s.logger.Info("session summary (mqtt disabled)", "session_id", summary.SessionID,
			"seconds", summary.TotalElapsedSeconds, "cycles", summary.CompletedCycles)
	}
	s.tracker.RecordSummary(summary, err)
	return err
}

// heartbeatTicker returns a channel ticking every d, or nil (never fires)
// when d is zero.
func heartbeatTicker(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(d)
	return t.C, t.Stop
}
