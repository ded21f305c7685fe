package sensor

import (
	"context"
	"fmt"
	"sync"

	"codeberg.org/mutker/fanmgr/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const (
	ErrNVMLInitFailed     = errors.ErrorCode("sensor_nvml_init_failed")
	ErrNVMLShutdownFailed = errors.ErrorCode("sensor_nvml_shutdown_failed")
	ErrDeviceCountFailed  = errors.ErrorCode("sensor_device_count_failed")
)

func init() {
	errors.RegisterMessage(ErrNVMLInitFailed, "Failed to initialize NVML")
	errors.RegisterMessage(ErrNVMLShutdownFailed, "Failed to shut down NVML")
	errors.RegisterMessage(ErrDeviceCountFailed, "Failed to count NVIDIA devices")
}

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

// NVMLSource reads NVIDIA GPU core temperatures. The proprietary driver does
// not publish these through hwmon.
type NVMLSource struct {
	mu sync.Mutex
}

// NewNVMLSource loads NVML. It fails on hosts without the NVIDIA driver, in
// which case the caller simply leaves the source out.
func NewNVMLSource() (*NVMLSource, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, errors.New().Wrap(ErrNVMLInitFailed, newNVMLError(ret))
	}

	return &NVMLSource{}, nil
}

func (*NVMLSource) Name() string { return "nvml" }

func (s *NVMLSource) Read(_ context.Context) ([]Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, errors.New().Wrap(ErrDeviceCountFailed, newNVMLError(ret))
	}

	readings := make([]Reading, 0, count)
	for i := 0; i < count; i++ {
		device, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue
		}

		temp, ret := device.GetTemperature(nvml.TEMPERATURE_GPU)
		if ret != nvml.SUCCESS {
			continue
		}

		label := fmt.Sprintf("nvidia-gpu-%d", i)
		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			label = fmt.Sprintf("%s (%s)", label, name)
		}

		readings = append(readings, Reading{
			Temperature: float64(temp),
			Source:      label,
		})
	}

	return readings, nil
}

// Close releases NVML.
func (s *NVMLSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return errors.New().Wrap(ErrNVMLShutdownFailed, newNVMLError(ret))
	}

	return nil
}
