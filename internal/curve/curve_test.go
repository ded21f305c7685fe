package curve_test

import (
	"testing"

	"codeberg.org/mutker/fanmgr/internal/curve"
	"codeberg.org/mutker/fanmgr/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideDefaultCurve(t *testing.T) {
	c := curve.Default()

	tests := []struct {
		temperature float64
		want        float64
	}{
		{0.5, 0},
		{1, 10},
		{10, 10},
		{49.9, 10},
		{50, 20},
		{55, 20},
		{65, 50},
		{75, 80},
		{80, 100},
		{85, 100},
		{100, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, curve.Decide(tt.temperature, c), "temperature %v", tt.temperature)
	}
}

func TestDecideIsStateless(t *testing.T) {
	c := curve.Default()
	first := curve.Decide(65, c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, curve.Decide(65, c))
	}
}

func TestDecideDuplicateThresholdLaterWins(t *testing.T) {
	c := curve.New([]curve.Breakpoint{
		{Threshold: 40, Speed: 30},
		{Threshold: 40, Speed: 60},
	})

	assert.Equal(t, 60.0, curve.Decide(40, c))
	assert.Equal(t, 0.0, curve.Decide(39, c))
}

func TestNewSortsAndDefaults(t *testing.T) {
	c := curve.New([]curve.Breakpoint{
		{Threshold: 70, Speed: 100},
		{Threshold: 30, Speed: 20},
		{Threshold: 50, Speed: 40},
	})

	assert.Equal(t, []curve.Breakpoint{
		{Threshold: 30, Speed: 20},
		{Threshold: 50, Speed: 40},
		{Threshold: 70, Speed: 100},
	}, c.Points())
	assert.Equal(t, 40.0, curve.Decide(60, c))

	assert.Equal(t, curve.Default().Points(), curve.New(nil).Points())
}

func TestParse(t *testing.T) {
	c, err := curve.Parse([]string{"60:80", "40:25.5"})
	require.NoError(t, err)
	assert.Equal(t, []curve.Breakpoint{
		{Threshold: 40, Speed: 25.5},
		{Threshold: 60, Speed: 80},
	}, c.Points())

	c, err = curve.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())
}

func TestParseRejectsNaNBreakpoint(t *testing.T) {
	_, err := curve.Parse([]string{"50:20", "nan:100", "60:50"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidStep))

	c, err := curve.Parse([]string{"50:20", "60:50"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, curve.Decide(55, c))
}

func TestParseInvalid(t *testing.T) {
	for _, step := range []string{
		"50", "50:20:10", "hot:20", "50:fast", "",
		"nan:50", "50:nan", "50:inf", "inf:10", "-inf:10", "50:-Inf",
	} {
		_, err := curve.Parse([]string{step})
		require.Error(t, err, "step %q", step)
		assert.True(t, errors.HasCode(err, errors.ErrInvalidStep), "step %q", step)
	}
}
