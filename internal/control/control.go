// Package control runs the sample, smooth, decide and actuate cycle.
package control

import (
	"context"
	"time"

	"codeberg.org/mutker/fanmgr/internal/curve"
	"codeberg.org/mutker/fanmgr/internal/errors"
	"codeberg.org/mutker/fanmgr/internal/logger"
	"codeberg.org/mutker/fanmgr/internal/metrics"
	"codeberg.org/mutker/fanmgr/internal/sensor"
	"codeberg.org/mutker/fanmgr/internal/smoothing"
)

const (
	DefaultRefreshRate = time.Second

	ErrInvalidRefreshRate = errors.ErrInvalidInterval
)

// Sampler returns the hottest current sensor reading.
type Sampler interface {
	Sample(ctx context.Context) sensor.Reading
}

// Actuator sends a fan speed command.
type Actuator interface {
	Actuate(speed float64) error
}

type Config struct {
	Curve       curve.Curve
	RefreshRate time.Duration
	WindowSize  int
}

// State is the loop's view of the fan.
type State struct {
	Reading         sensor.Reading
	AverageTemp     float64
	TargetFanSpeed  float64
	CurrentFanSpeed float64
	Actuated        bool
}

// Loop owns the smoothing window, the curve and the commanded fan speed.
type Loop struct {
	cfg      Config
	sampler  Sampler
	window   *smoothing.Window
	actuator Actuator
	recorder metrics.Recorder
	logger   logger.Logger

	currentFanSpeed float64
}

func New(cfg Config, sampler Sampler, act Actuator, recorder metrics.Recorder, log logger.Logger) (*Loop, error) {
	if cfg.RefreshRate <= 0 {
		return nil, errors.New().WithData(ErrInvalidRefreshRate, cfg.RefreshRate.String())
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = smoothing.DefaultSize
	}
	if cfg.Curve.Len() == 0 {
		cfg.Curve = curve.Default()
	}

	return &Loop{
		cfg:      cfg,
		sampler:  sampler,
		window:   smoothing.New(cfg.WindowSize),
		actuator: act,
		recorder: recorder,
		logger:   log,
	}, nil
}

// CurrentFanSpeed returns the last speed successfully sent to the fan.
func (l *Loop) CurrentFanSpeed() float64 {
	return l.currentFanSpeed
}

// Run cycles until ctx is cancelled or an actuation fails. It never returns
// nil: cancellation yields ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().
		Dur("refresh_rate", l.cfg.RefreshRate).
		Int("window", l.cfg.WindowSize).
		Msg("Starting fan control")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			state, err := l.Step(ctx)
			if err != nil {
				return err
			}

			logState(l.logger, state)
			timer.Reset(l.cfg.RefreshRate)
		}
	}
}

// Step performs one cycle. The fan is only commanded when the decided speed
// differs from the current one; the store is updated every cycle.
func (l *Loop) Step(ctx context.Context) (State, error) {
	reading := l.sampler.Sample(ctx)
	avg := l.window.Push(reading.Temperature)
	target := curve.Decide(avg, l.cfg.Curve)

	state := State{
		Reading:         reading,
		AverageTemp:     avg,
		TargetFanSpeed:  target,
		CurrentFanSpeed: l.currentFanSpeed,
	}

	if target != l.currentFanSpeed {
		source := reading.Source
		if !reading.HasSource() {
			source = "Unknown component"
		}

		l.logger.Info().
			Float64("fan_speed", target).
			Float64("previous_fan_speed", l.currentFanSpeed).
			Float64("temperature", reading.Temperature).
			Float64("average_temperature", avg).
			Str("source", source).
			Msg("Setting fan speed")

		if err := l.actuator.Actuate(target); err != nil {
			return state, err
		}

		l.currentFanSpeed = target
		state.CurrentFanSpeed = target
		state.Actuated = true
	}

	l.recorder.Record(avg, l.currentFanSpeed)

	return state, nil
}

func logState(log logger.Logger, state State) {
	log.Debug().
		Float64("temperature", state.Reading.Temperature).
		Str("source", state.Reading.Source).
		Float64("average_temperature", state.AverageTemp).
		Float64("target_fan_speed", state.TargetFanSpeed).
		Float64("fan_speed", state.CurrentFanSpeed).
		Bool("actuated", state.Actuated).
		Msg("")
}
