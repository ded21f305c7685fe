package actuator

import "codeberg.org/mutker/fanmgr/internal/errors"

const (
	// Port discovery errors
	ErrNoSerialPorts = errors.ErrorCode("serial_no_ports")
	ErrPortNotFound  = errors.ErrorCode("serial_port_not_found")

	// Port lifecycle errors
	ErrOpenFailed  = errors.ErrorCode("serial_open_failed")
	ErrOpenTimeout = errors.ErrorCode("serial_open_timeout")
	ErrCloseFailed = errors.ErrorCode("serial_close_failed")

	// Command errors
	ErrActuationFailed = errors.ErrorCode("actuation_failed")
)

func init() {
	errors.RegisterMessage(ErrNoSerialPorts, "No serial ports found")
	errors.RegisterMessage(ErrPortNotFound, "Serial port not found")
	errors.RegisterMessage(ErrOpenFailed, "Failed to open serial port")
	errors.RegisterMessage(ErrOpenTimeout, "Timed out opening serial port")
	errors.RegisterMessage(ErrCloseFailed, "Failed to close serial port")
	errors.RegisterMessage(ErrActuationFailed, "Failed to send fan speed command")
}
