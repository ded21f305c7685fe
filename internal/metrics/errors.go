package metrics

import "codeberg.org/mutker/fanmgr/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidPort   = errors.ErrorCode("metrics_invalid_port")

	// Server Errors
	ErrListenFailed    = errors.ErrorCode("metrics_listen_failed")
	ErrServeFailed     = errors.ErrorCode("metrics_serve_failed")
	ErrServiceShutdown = errors.ErrShutdownFailed
	ErrRegisterFailed  = errors.ErrorCode("metrics_register_failed")
)

func init() {
	errors.RegisterMessage(ErrInvalidPort, "Invalid metrics port")
	errors.RegisterMessage(ErrListenFailed, "Failed to listen for metrics requests")
	errors.RegisterMessage(ErrServeFailed, "Metrics server stopped")
	errors.RegisterMessage(ErrRegisterFailed, "Failed to register metrics collector")
}
