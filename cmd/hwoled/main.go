package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/hwoled/internal/config"
	"codeberg.org/mutker/hwoled/internal/console"
	"codeberg.org/mutker/hwoled/internal/discovery"
	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/gamesense"
	"codeberg.org/mutker/hwoled/internal/gpu"
	"codeberg.org/mutker/hwoled/internal/history"
	"codeberg.org/mutker/hwoled/internal/logger"
	"codeberg.org/mutker/hwoled/internal/observability"
	"codeberg.org/mutker/hwoled/internal/pid"
	"codeberg.org/mutker/hwoled/internal/scheduler"
	"codeberg.org/mutker/hwoled/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

const teardownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	isService := logger.IsService()
	interactive := !isService && console.IsTerminal(os.Stdin)

	var out io.Writer = os.Stdout
	if interactive {
		out = console.RawWriter{W: os.Stdout}
	}
	logger.InitWithWriter(out, cfg.Debug, cfg.Verbose, isService)
	if level, ok := logger.ParseLevel(cfg.LogLevel); ok && cfg.LogLevel != "" {
		logger.SetLogLevel(level)
	}
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(cfg.PIDFile); err != nil {
		logger.Fatal().Err(err).Msg("another instance is running")
	}

	code := 0
	if err := run(cfg, interactive); err != nil {
		logger.Error().Str("error_code", string(errors.CodeOf(err))).Err(err).Msg("exiting with error")
		code = 1
	}

	if err := pid.Remove(cfg.PIDFile); err != nil {
		logger.Warn().Err(err).Msg("failed to remove PID file")
	}
	os.Exit(code)
}

func run(cfg *config.Config, interactive bool) error {
	errFactory := errors.New()
	log := logger.Default()

	address, err := resolveAddress(cfg)
	if err != nil {
		return errFactory.Wrap(errors.ErrDiscovery, err)
	}
	logger.Info().Str("address", address).Msg("Display service found")

	registry := prometheus.NewRegistry()
	metrics := observability.New(registry)

	client, err := gamesense.NewClient(address, log.With("gamesense"),
		gamesense.WithTimeout(cfg.Timeout()),
		gamesense.WithObserver(metrics))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	manager := gamesense.NewManager(client, cfg.Game, log.With("events"))

	source, err := newSource(cfg, log)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitTelemetry, err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close telemetry source")
		}
	}()

	recorder, err := history.NewService(history.Config{
		Enabled:      cfg.History.Enabled,
		DBPath:       cfg.History.Database,
		BatchSize:    cfg.History.BatchSize,
		BatchTimeout: time.Duration(cfg.History.BatchTimeout) * time.Second,
	}, log.With("history"))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitHistory, err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close frame history")
		}
	}()

	sched, err := scheduler.New(scheduler.Config{
		Interval:      cfg.TickInterval(),
		Hold:          cfg.Hold,
		FrameDuration: cfg.FrameLength(),
		Group:         cfg.Sensors.Group,
		Temperatures: scheduler.RowReadings{
			First:  cfg.Sensors.MemoryTemperature,
			Second: cfg.Sensors.HotSpotTemperature,
		},
		Clocks: scheduler.RowReadings{
			First:  cfg.Sensors.CoreClock,
			Second: cfg.Sensors.MemoryClock,
		},
		Metadata: gamesense.Metadata{
			DisplayName:       cfg.GameDisplayName,
			Developer:         cfg.Developer,
			DeinitializeTimer: cfg.DeinitializeTimer,
		},
	}, source, manager, log.With("scheduler"),
		scheduler.WithRecorder(recorder),
		scheduler.WithObserver(metrics))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if interactive {
		restore, err := console.WatchKeys(ctx, os.Stdin, cancel)
		if err != nil {
			logger.Warn().Err(err).Msg("Keypress stop unavailable")
		} else {
			defer restore()
			logger.Info().Msg("Press Esc or q to stop")
		}
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Listen, registry, log.With("metrics")); err != nil {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	if err := sched.Setup(ctx); err != nil {
		return err
	}

	go manager.RunHeartbeat(ctx, cfg.HeartbeatPeriod())

	if err := sched.Run(ctx); err != nil {
		logger.ErrorWithCode(errFactory.Wrap(errors.ErrMainLoop, err)).Msg("")
	}
	manager.Wait()

	if cfg.Teardown {
		teardownCtx, cancelTeardown := context.WithTimeout(context.Background(), teardownTimeout)
		sched.Teardown(teardownCtx)
		cancelTeardown()
	}

	logger.Info().Msg("Exiting...")

	return nil
}

func resolveAddress(cfg *config.Config) (string, error) {
	if cfg.Address != "" {
		if err := discovery.ValidateAddress(cfg.Address); err != nil {
			return "", err
		}
		return cfg.Address, nil
	}

	endpoint, err := discovery.Locate(cfg.CoreProps)
	if err != nil {
		return "", err
	}

	return endpoint.Address, nil
}

func newSource(cfg *config.Config, log logger.Logger) (telemetry.Source, error) {
	switch cfg.Telemetry.Source {
	case config.SourceNVML:
		device, err := gpu.New(cfg.Telemetry.Device, log.With("gpu"))
		if err != nil {
			return nil, err
		}
		return telemetry.NewNVMLSource(device, cfg.Telemetry.AverageWindow, log.With("telemetry")), nil
	default:
		source, err := telemetry.NewHTTPSource(cfg.Telemetry.URL, cfg.Timeout(), log.With("telemetry"))
		if err != nil {
			return nil, err
		}
		return source, nil
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
