// Package curve holds the temperature to fan-speed breakpoint table and the
// last-threshold-met lookup used to pick a fan speed.
package curve

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"codeberg.org/mutker/fanmgr/internal/errors"
)

// Breakpoint maps a temperature threshold in °C to a fan speed percentage.
type Breakpoint struct {
	Threshold float64
	Speed     float64
}

// Curve is a breakpoint table sorted ascending by threshold. It is
// immutable once built by New.
type Curve struct {
	points []Breakpoint
}

// Default returns the built-in curve used when no steps are configured.
func Default() Curve {
	return Curve{points: []Breakpoint{
		{Threshold: 1, Speed: 10},
		{Threshold: 50, Speed: 20},
		{Threshold: 60, Speed: 50},
		{Threshold: 70, Speed: 80},
		{Threshold: 80, Speed: 100},
	}}
}

// New builds a curve from the given breakpoints, sorting them by threshold.
// An empty list yields the default curve.
func New(points []Breakpoint) Curve {
	if len(points) == 0 {
		return Default()
	}

	sorted := make([]Breakpoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})

	return Curve{points: sorted}
}

// Parse builds a curve from "temperature:speed" steps such as "50:100".
func Parse(steps []string) (Curve, error) {
	points := make([]Breakpoint, 0, len(steps))
	for _, step := range steps {
		point, err := ParseStep(step)
		if err != nil {
			return Curve{}, err
		}
		points = append(points, point)
	}

	return New(points), nil
}

// ParseStep parses a single "temperature:speed" pair.
func ParseStep(step string) (Breakpoint, error) {
	errFactory := errors.New()

	parts := strings.Split(step, ":")
	if len(parts) != 2 {
		return Breakpoint{}, errFactory.WithData(errors.ErrInvalidStep,
			fmt.Sprintf("invalid step format: %s", step))
	}

	threshold, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Breakpoint{}, errFactory.WithData(errors.ErrInvalidStep,
			fmt.Sprintf("invalid temperature value: %s", parts[0]))
	}

	speed, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Breakpoint{}, errFactory.WithData(errors.ErrInvalidStep,
			fmt.Sprintf("invalid fan speed value: %s", parts[1]))
	}

	if !finite(threshold) || !finite(speed) {
		return Breakpoint{}, errFactory.WithData(errors.ErrInvalidStep,
			fmt.Sprintf("non-finite value in step: %s", step))
	}

	return Breakpoint{Threshold: threshold, Speed: speed}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Points returns a copy of the breakpoints in ascending threshold order.
func (c Curve) Points() []Breakpoint {
	points := make([]Breakpoint, len(c.points))
	copy(points, c.points)

	return points
}

// Len returns the number of breakpoints.
func (c Curve) Len() int {
	return len(c.points)
}

// Decide returns the speed of the highest breakpoint whose threshold does not
// exceed temperature, or 0 when the temperature is below every threshold.
// Among equal thresholds the later breakpoint wins.
func Decide(temperature float64, c Curve) float64 {
	speed := 0.0
	for _, point := range c.points {
		if point.Threshold > temperature {
			break
		}
		speed = point.Speed
	}

	return speed
}
