package sensor_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/fanmgr/internal/logger"
	"codeberg.org/mutker/fanmgr/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name     string
	readings []sensor.Reading
	err      error
	calls    int
	closed   bool
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Read(_ context.Context) ([]sensor.Reading, error) {
	s.calls++
	return s.readings, s.err
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

func TestSampleReturnsHottest(t *testing.T) {
	cpu := &stubSource{name: "cpu", readings: []sensor.Reading{
		{Temperature: 45, Source: "coretemp_core0"},
		{Temperature: 61.5, Source: "coretemp_package"},
	}}
	gpu := &stubSource{name: "gpu", readings: []sensor.Reading{
		{Temperature: 58, Source: "nvidia-gpu-0"},
	}}

	s := sensor.NewSampler(logger.Default(), cpu, gpu)
	r := s.Sample(context.Background())

	assert.Equal(t, 61.5, r.Temperature)
	assert.Equal(t, "coretemp_package", r.Source)
	assert.True(t, r.HasSource())
}

func TestSampleReenumeratesEachCall(t *testing.T) {
	src := &stubSource{name: "cpu", readings: []sensor.Reading{{Temperature: 40, Source: "a"}}}
	s := sensor.NewSampler(logger.Default(), src)

	s.Sample(context.Background())
	src.readings = append(src.readings, sensor.Reading{Temperature: 70, Source: "b"})
	r := s.Sample(context.Background())

	assert.Equal(t, 2, src.calls)
	assert.Equal(t, "b", r.Source)
}

func TestSampleTieKeepsFirstSeen(t *testing.T) {
	first := &stubSource{name: "first", readings: []sensor.Reading{{Temperature: 50, Source: "one"}}}
	second := &stubSource{name: "second", readings: []sensor.Reading{{Temperature: 50, Source: "two"}}}

	r := sensor.NewSampler(logger.Default(), first, second).Sample(context.Background())
	assert.Equal(t, "one", r.Source)
}

func TestSampleWithoutSensorsDegradesToZero(t *testing.T) {
	empty := &stubSource{name: "empty"}
	broken := &stubSource{name: "broken", err: fmt.Errorf("no hwmon")}
	nan := &stubSource{name: "nan", readings: []sensor.Reading{{Temperature: math.NaN(), Source: "bad"}}}

	r := sensor.NewSampler(logger.Default(), empty, broken, nan).Sample(context.Background())

	assert.Equal(t, sensor.Reading{}, r)
	assert.False(t, r.HasSource())
	assert.Equal(t, sensor.Reading{}, sensor.NewSampler(logger.Default()).Sample(context.Background()))
}

func TestSampleKeepsPartialResultsOnError(t *testing.T) {
	partial := &stubSource{
		name:     "partial",
		readings: []sensor.Reading{{Temperature: 33, Source: "acpitz"}},
		err:      fmt.Errorf("warnings"),
	}

	r := sensor.NewSampler(logger.Default(), partial).Sample(context.Background())
	assert.Equal(t, 33.0, r.Temperature)
}

func TestSamplerCloseClosesSources(t *testing.T) {
	src := &stubSource{name: "closable"}
	require.NoError(t, sensor.NewSampler(logger.Default(), src).Close())
	assert.True(t, src.closed)
}

func writeZone(t *testing.T, root string, index int, zoneType string, milliDegrees int) {
	t.Helper()

	dir := filepath.Join(root, "class", "thermal", fmt.Sprintf("thermal_zone%d", index))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	files := map[string]string{
		"type":   zoneType + "\n",
		"policy": "step_wise\n",
		"temp":   fmt.Sprintf("%d\n", milliDegrees),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestThermalZoneSource(t *testing.T) {
	root := t.TempDir()
	writeZone(t, root, 0, "acpitz", 27800)
	writeZone(t, root, 1, "x86_pkg_temp", 45000)

	readings, err := sensor.NewThermalZoneSource(root).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 2)

	assert.ElementsMatch(t, []sensor.Reading{
		{Temperature: 27.8, Source: "thermal_zone0 (acpitz)"},
		{Temperature: 45, Source: "thermal_zone1 (x86_pkg_temp)"},
	}, readings)
}

func TestThermalZoneSourceMissingSysfs(t *testing.T) {
	_, err := sensor.NewThermalZoneSource(filepath.Join(t.TempDir(), "missing")).Read(context.Background())
	require.Error(t, err)
}
