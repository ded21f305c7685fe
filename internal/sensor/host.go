package sensor

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
)

// HostSource reads hwmon sensors through gopsutil.
type HostSource struct{}

func NewHostSource() *HostSource {
	return &HostSource{}
}

func (*HostSource) Name() string { return "hwmon" }

// Read returns every sensor gopsutil can see. gopsutil reports partial
// results together with a warnings error, so readings are kept even when err
// is set.
func (*HostSource) Read(ctx context.Context) ([]Reading, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)

	readings := make([]Reading, 0, len(temps))
	for _, t := range temps {
		readings = append(readings, Reading{
			Temperature: t.Temperature,
			Source:      t.SensorKey,
		})
	}

	return readings, err
}
