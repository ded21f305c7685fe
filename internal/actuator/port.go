package actuator

import (
	"context"
	"slices"
	"time"

	"codeberg.org/mutker/fanmgr/internal/errors"
	"codeberg.org/mutker/fanmgr/internal/logger"
	"go.bug.st/serial"
)

// PortConfig describes the serial link to the fan controller.
type PortConfig struct {
	Name        string
	BaudRate    int
	OpenTimeout time.Duration
}

// Port is an open serial link.
type Port interface {
	Write(p []byte) (int, error)
	Close() error
}

var (
	listPorts = serial.GetPortsList
	openPort  = func(name string, mode *serial.Mode) (Port, error) {
		return serial.Open(name, mode)
	}
)

type openResult struct {
	port Port
	err  error
}

// Open verifies the configured port exists and opens it as 8N1 at the
// configured baud rate. Only the open itself is bounded by OpenTimeout.
func Open(ctx context.Context, cfg PortConfig, log logger.Logger) (Port, error) {
	errFactory := errors.New()

	ports, err := listPorts()
	if err != nil {
		return nil, errFactory.Wrap(ErrNoSerialPorts, err)
	}
	if len(ports) == 0 {
		return nil, errFactory.New(ErrNoSerialPorts)
	}

	for _, p := range ports {
		log.Debug().Str("port", p).Msg("Available serial port")
	}

	if !slices.Contains(ports, cfg.Name) {
		return nil, errFactory.WithData(ErrPortNotFound, cfg.Name)
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	if cfg.OpenTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.OpenTimeout)
		defer cancel()
	}

	done := make(chan openResult, 1)
	go func() {
		port, err := openPort(cfg.Name, mode)
		done <- openResult{port: port, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, errFactory.Wrap(ErrOpenFailed, res.err)
		}

		log.Info().
			Str("port", cfg.Name).
			Int("baud", cfg.BaudRate).
			Msg("Serial port opened successfully")

		return res.port, nil
	case <-ctx.Done():
		// The open may still complete; release the handle if it does.
		go func() {
			if res := <-done; res.err == nil {
				res.port.Close()
			}
		}()

		return nil, errFactory.Wrap(ErrOpenTimeout, ctx.Err())
	}
}

// Close closes p, reporting a failure as ErrCloseFailed.
func Close(p Port) error {
	if err := p.Close(); err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}
	return nil
}
