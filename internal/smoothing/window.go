// Package smoothing provides a trailing moving average over raw samples.
package smoothing

import (
	"github.com/asecurityteam/rolling"
)

// DefaultSize is the number of samples averaged by the control loop.
const DefaultSize = 5

// Window keeps the last Size samples in arrival order and reports their mean.
type Window struct {
	size   int
	count  int
	values *rolling.PointPolicy
}

// New returns an empty window holding at most size samples. A size below one
// is treated as one.
func New(size int) *Window {
	if size < 1 {
		size = 1
	}

	return &Window{
		size:   size,
		values: rolling.NewPointPolicy(rolling.NewWindow(size)),
	}
}

// Push appends value, evicting the oldest sample once the window is full, and
// returns the mean of the samples now held.
func (w *Window) Push(value float64) float64 {
	w.values.Append(value)
	if w.count < w.size {
		w.count++
	}

	return w.Mean()
}

// Mean returns the arithmetic mean of the held samples, or 0 when empty.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return 0
	}

	return w.values.Reduce(rolling.Sum) / float64(w.count)
}

// Len returns the number of held samples.
func (w *Window) Len() int {
	return w.count
}

// Size returns the window capacity.
func (w *Window) Size() int {
	return w.size
}
