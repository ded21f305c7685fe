package actuator_test

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"codeberg.org/mutker/fanmgr/internal/actuator"
	"codeberg.org/mutker/fanmgr/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

type failingWriter struct {
	n   int
	err error
}

func (w failingWriter) Write(_ []byte) (int, error) {
	return w.n, w.err
}

func TestCommand(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{0, "0\n"},
		{10, "10\n"},
		{100, "100\n"},
		{12.5, "12.5\n"},
		{33.25, "33.25\n"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(actuator.Command(tt.speed)))
	}
}

func TestActuateWritesOnce(t *testing.T) {
	w := &countingWriter{}
	a := actuator.New(w)

	require.NoError(t, a.Actuate(50))
	assert.Equal(t, 1, w.writes)
	assert.Equal(t, "50\n", w.String())
}

func TestActuateWriteFailure(t *testing.T) {
	cause := fmt.Errorf("input/output error")
	err := actuator.New(failingWriter{err: cause}).Actuate(80)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, actuator.ErrActuationFailed))
	assert.True(t, errors.Is(err, cause))
}

func TestActuateShortWrite(t *testing.T) {
	err := actuator.New(failingWriter{n: 1}).Actuate(80)

	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrShortWrite))
}
