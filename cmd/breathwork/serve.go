package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/breathwork/internal/config"
	"github.com/sweeney/breathwork/internal/mqtt"
	"github.com/sweeney/breathwork/internal/scheduler"
	"github.com/sweeney/breathwork/internal/status"
	"github.com/sweeney/breathwork/internal/web"
)

// statusInterval is how often the MQTT connection flag is refreshed.
const statusInterval = 5 * time.Second

func newServeCmd(opts *globalOpts) *cobra.Command {
	var (
		httpAddr  string
		broker    string
		heartbeat time.Duration
		useMQTT   bool
		useGPIO   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session daemon with HTTP control and MQTT summaries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("http") {
				cfg.HTTP.Addr = httpAddr
			}
			if cmd.Flags().Changed("broker") {
				cfg.MQTT.Broker = broker
				cfg.MQTT.Enabled = true
			}
			if cmd.Flags().Changed("mqtt") {
				cfg.MQTT.Enabled = useMQTT
			}
			if cmd.Flags().Changed("heartbeat") {
				cfg.MQTT.HeartbeatSeconds = int(heartbeat.Seconds())
			}
			if cmd.Flags().Changed("gpio") {
				cfg.GPIO.Enabled = useGPIO
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			return run(cmd.Context(), cfg, engineDeps{}, sigCh, logger)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", ":8080", "HTTP status/control address (empty to disable)")
	cmd.Flags().StringVar(&broker, "broker", "tcp://localhost:1883", "MQTT broker address (enables MQTT)")
	cmd.Flags().BoolVar(&useMQTT, "mqtt", false, "publish summaries and system events to MQTT")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	cmd.Flags().BoolVar(&useGPIO, "gpio", false, "drive the RGB LED and buzzer")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, deps engineDeps, sig <-chan os.Signal, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := newEngine(cfg, deps, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	// Publish startup event with full status snapshot
	snap := e.tracker.Snapshot()
	publishSystem(e.publisher, mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, e.tracker, e.manager,
			web.WithTechniques(e.catalog),
			web.WithChroma(e.chroma),
			web.WithSessionDefaults(cfg.TargetSeconds, e.startOptions()),
			web.WithLogger(logger),
		)
		g.Go(func() error {
			logger.Info("http server listening", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("started", "technique", cfg.Technique, "premium", cfg.Premium,
		"mqtt", e.publisher != nil, "broker", cfg.MQTT.Broker, "heartbeat", cfg.Heartbeat())

	hb, stopHB := heartbeatTicker(cfg.Heartbeat())
	defer stopHB()
	statusTick := time.NewTicker(statusInterval)
	defer statusTick.Stop()

	g.Go(func() error {
		defer cancel()
		return runLoop(gctx, e.publisher, e.mqttStatus, e.tracker, deps.clockNow(), hb, statusTick.C, sig, logger)
	})
	return g.Wait()
}

func (d engineDeps) clockNow() func() time.Time {
	if d.clock == nil {
		return scheduler.SystemClock{}.Now
	}
	return d.clock.Now
}

// runLoop publishes heartbeats until a signal arrives or ctx is cancelled,
// then publishes the shutdown event.
func runLoop(ctx context.Context, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, heartbeat, statusTick <-chan time.Time, sig <-chan os.Signal, logger *slog.Logger) error {
	refresh := func() status.Snapshot {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		return tracker.Snapshot()
	}

	shutdown := func(reason string) {
		snap := refresh()
		publishSystem(publisher, mqtt.SystemEvent{
			Timestamp:  now(),
			Event:      "SHUTDOWN",
			Reason:     reason,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
		}, logger)
	}

	for {
		select {
		case s := <-sig:
			logger.Info("shutting down", "signal", s.String())
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			shutdown(signalName)
			return nil

		case <-ctx.Done():
			logger.Info("shutting down", "reason", ctx.Err())
			shutdown("CANCELLED")
			return nil

		case <-heartbeat:
			snap := refresh()
			logger.Info("heartbeat", "uptime", snap.Uptime().Truncate(time.Second),
				"active", snap.Session.Active, "sessions", snap.Counts.Sessions, "summaries", snap.Counts.Summaries)
			publishSystem(publisher, mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}, logger)

		case <-statusTick:
			refresh()
		}
	}
}

func publishSystem(publisher mqtt.Publisher, event mqtt.SystemEvent, logger *slog.Logger) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishSystem(event); err != nil {
		// Don't crash on publish failure
		logger.Error("system event publish error", "event", event.Event, "error", err)
		return
	}
	logger.Info("published system event", "event", event.Event)
}
