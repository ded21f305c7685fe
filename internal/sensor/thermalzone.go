package sensor

import (
	"context"
	"fmt"

	"github.com/prometheus/procfs/sysfs"
)

const (
	defaultSysPath     = "/sys"
	milliDegreesPerDeg = 1000.0
)

// ThermalZoneSource reads kernel thermal zones from sysfs.
type ThermalZoneSource struct {
	sysPath string
}

// NewThermalZoneSource reads zones below sysPath, or /sys when empty.
func NewThermalZoneSource(sysPath string) *ThermalZoneSource {
	if sysPath == "" {
		sysPath = defaultSysPath
	}

	return &ThermalZoneSource{sysPath: sysPath}
}

func (*ThermalZoneSource) Name() string { return "thermal_zone" }

func (s *ThermalZoneSource) Read(_ context.Context) ([]Reading, error) {
	fs, err := sysfs.NewFS(s.sysPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sysfs: %w", err)
	}

	zones, err := fs.ClassThermalZoneStats()
	if err != nil {
		return nil, err
	}

	readings := make([]Reading, 0, len(zones))
	for _, zone := range zones {
		readings = append(readings, Reading{
			Temperature: float64(zone.Temp) / milliDegreesPerDeg,
			Source:      fmt.Sprintf("thermal_zone%s (%s)", zone.Name, zone.Type),
		})
	}

	return readings, nil
}
