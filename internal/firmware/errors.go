package firmware

import "codeberg.org/mutker/fanmgr/internal/errors"

const (
	ErrGPIOFailed    errors.ErrorCode = "firmware_gpio_failed"
	ErrDiskNotFound  errors.ErrorCode = "firmware_disk_not_found"
	ErrMountFailed   errors.ErrorCode = "firmware_mount_failed"
	ErrWriteFailed   errors.ErrorCode = "firmware_write_failed"
	ErrImageNotFound errors.ErrorCode = "firmware_image_not_found"
)

func init() {
	errors.RegisterMessage(ErrGPIOFailed, "Failed to toggle controller boot lines")
	errors.RegisterMessage(ErrDiskNotFound, "RP2 disk not found")
	errors.RegisterMessage(ErrMountFailed, "Failed to mount RP2 disk")
	errors.RegisterMessage(ErrWriteFailed, "Failed to write firmware image")
	errors.RegisterMessage(ErrImageNotFound, "Firmware image not readable")
}
