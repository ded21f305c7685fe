// Package actuator sends fan speed commands to the fan controller firmware
// over a serial link.
package actuator

import (
	"io"
	"strconv"

	"codeberg.org/mutker/fanmgr/internal/errors"
)

// Actuator writes fan speed commands. It is the only writer of its link.
type Actuator struct {
	w io.Writer
}

func New(w io.Writer) *Actuator {
	return &Actuator{w: w}
}

// Command encodes speed as the firmware expects it: the shortest decimal
// representation followed by a newline. The firmware parses it with atof.
func Command(speed float64) []byte {
	return append(strconv.AppendFloat(nil, speed, 'f', -1, 64), '\n')
}

// Actuate sends speed with exactly one write. No acknowledgement is read.
func (a *Actuator) Actuate(speed float64) error {
	cmd := Command(speed)

	n, err := a.w.Write(cmd)
	if err != nil {
		return errors.New().Wrap(ErrActuationFailed, err)
	}
	if n != len(cmd) {
		return errors.New().Wrap(ErrActuationFailed, io.ErrShortWrite)
	}

	return nil
}
