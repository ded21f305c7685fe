// Package sensor enumerates host thermal sensors and picks the hottest one.
package sensor

import (
	"context"
	"io"
	"math"

	"codeberg.org/mutker/fanmgr/internal/logger"
)

// Reading is one temperature observation in °C. Source is empty when no
// sensor reported a temperature.
type Reading struct {
	Temperature float64
	Source      string
}

// HasSource reports whether the reading came from an actual sensor.
func (r Reading) HasSource() bool {
	return r.Source != ""
}

// Source enumerates a family of sensors. Read is called on every sample and
// must not cache the sensor list.
type Source interface {
	Name() string
	Read(ctx context.Context) ([]Reading, error)
}

// Sampler returns the hottest reading across all of its sources.
type Sampler struct {
	sources []Source
	logger  logger.Logger
}

func NewSampler(log logger.Logger, sources ...Source) *Sampler {
	return &Sampler{
		sources: sources,
		logger:  log,
	}
}

// Sample re-enumerates every source and returns the maximum reading. The
// first reading seen wins a tie, in source order and then enumeration order.
// When nothing reports a temperature the zero Reading is returned.
func (s *Sampler) Sample(ctx context.Context) Reading {
	var (
		hottest Reading
		found   bool
	)

	for _, source := range s.sources {
		readings, err := source.Read(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Str("source", source.Name()).Msg("Sensor source unavailable")
		}

		for _, r := range readings {
			if math.IsNaN(r.Temperature) {
				continue
			}
			if !found || r.Temperature > hottest.Temperature {
				hottest = r
				found = true
			}
		}
	}

	if !found {
		return Reading{}
	}

	return hottest
}

// Detect returns the sources usable on this host. NVML is included only when
// the NVIDIA driver library loads.
func Detect(log logger.Logger) []Source {
	sources := []Source{
		NewHostSource(),
		NewThermalZoneSource(""),
	}

	nv, err := NewNVMLSource()
	if err != nil {
		log.Debug().Err(err).Msg("NVIDIA sensors unavailable")
	} else {
		sources = append(sources, nv)
	}

	return sources
}

// Close releases any source holding resources.
func (s *Sampler) Close() error {
	var firstErr error
	for _, source := range s.sources {
		closer, ok := source.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
