package metrics

import (
	"fmt"
	"time"

	"codeberg.org/mutker/fanmgr/internal/errors"
)

const (
	DefaultPort = 8080

	defaultShutdownTimeout = 5 * time.Second
	defaultReadTimeout     = 10 * time.Second
)

type Config struct {
	Port            int
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Port:            DefaultPort,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// 0 asks the kernel for a free port
	if c.Port < 0 || c.Port > 65535 {
		return errFactory.WithData(ErrInvalidPort, c.Port)
	}
	return nil
}

// Addr is the listen address on all interfaces.
func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
