package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/fanmgr/internal/actuator"
	"codeberg.org/mutker/fanmgr/internal/config"
	"codeberg.org/mutker/fanmgr/internal/control"
	"codeberg.org/mutker/fanmgr/internal/errors"
	"codeberg.org/mutker/fanmgr/internal/firmware"
	"codeberg.org/mutker/fanmgr/internal/logger"
	"codeberg.org/mutker/fanmgr/internal/metrics"
	"codeberg.org/mutker/fanmgr/internal/pid"
	"codeberg.org/mutker/fanmgr/internal/sensor"
	"codeberg.org/mutker/fanmgr/internal/smoothing"
	"codeberg.org/mutker/fanmgr/internal/supervisor"
)

const (
	exitFailure = 1
	exitConfig  = 2
	exitSerial  = 3
)

var (
	configCodes = []errors.ErrorCode{
		errors.ErrInvalidConfig,
		errors.ErrReadConfig,
		errors.ErrBindFlags,
		errors.ErrInvalidStep,
		errors.ErrInvalidInterval,
		errors.ErrInvalidLogLevel,
	}
	serialCodes = []errors.ErrorCode{
		actuator.ErrNoSerialPorts,
		actuator.ErrPortNotFound,
		actuator.ErrOpenFailed,
		actuator.ErrOpenTimeout,
		actuator.ErrActuationFailed,
	}
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitCode(err)
	}

	logger.Init(cfg.Level, logger.IsService())
	logger.Debug().Msg("Config loaded")
	for _, warning := range cfg.Warnings {
		logger.Warn().Msg(warning)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Install {
		err = install(ctx, cfg)
	} else {
		logCurve(cfg)
		err = serve(ctx, cfg)
	}

	if err != nil {
		logFailure(err)
		return exitCode(err)
	}

	logger.Info().Msg("Exiting...")
	return 0
}

func install(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := firmware.New(firmware.DefaultConfig(cfg.Firmware), logger.Default()).Install(ctx)
	if err != nil {
		return err
	}

	logger.Info().Str("path", path).Msg("Firmware installed")
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Default()

	pidFile := pid.Default()
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	port, err := actuator.Open(ctx, actuator.PortConfig{
		Name:        cfg.Port,
		BaudRate:    cfg.Baud,
		OpenTimeout: cfg.Timeout,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := actuator.Close(port); err != nil {
			var appErr errors.Error
			if errors.As(err, &appErr) {
				logger.ErrorWithCode(appErr).Str("port", cfg.Port).Msg("Failed to close serial port")
			}
		}
	}()

	sampler := sensor.NewSampler(log, sensor.Detect(log)...)
	defer sampler.Close()

	store := metrics.NewStore()

	loop, err := control.New(control.Config{
		Curve:       cfg.Curve,
		RefreshRate: cfg.RefreshRate,
		WindowSize:  smoothing.DefaultSize,
	}, sampler, actuator.New(port), store, log)
	if err != nil {
		return err
	}

	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Port = cfg.MetricsPort

	server, err := metrics.NewServer(metricsCfg, store, log)
	if err != nil {
		return err
	}

	logger.Info().
		Str("port", cfg.Port).
		Int("baud", cfg.Baud).
		Dur("refresh_rate", cfg.RefreshRate).
		Str("metrics", metricsCfg.Addr()).
		Msg("Starting fan manager")

	return supervisor.New(log,
		supervisor.Task{Name: "control", Run: loop.Run},
		supervisor.Task{Name: "metrics", Run: server.Run},
	).Run(ctx)
}

func logCurve(cfg *config.Config) {
	source := "configured"
	if cfg.UsingDefaultCurve() {
		source = "default"
	}

	for _, p := range cfg.Curve.Points() {
		logger.Info().
			Str("curve", source).
			Float64("temperature", p.Threshold).
			Float64("fan_speed", p.Speed).
			Msg("Fan curve step")
	}
}

func logFailure(err error) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.ErrorWithCode(appErr).Msg("fanmgr stopped")
		return
	}
	logger.Error().Err(err).Msg("fanmgr stopped")
}

func exitCode(err error) int {
	for _, code := range configCodes {
		if errors.HasCode(err, code) {
			return exitConfig
		}
	}
	for _, code := range serialCodes {
		if errors.HasCode(err, code) {
			return exitSerial
		}
	}
	return exitFailure
}
