package firmware

import (
	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
)

// BootLines are the controller's RUN and BOOTSEL lines.
var BootLines = []int{rpi.GPIO17, rpi.GPIO7}

// lineResetter drives a set of GPIO lines through gpiod.
type lineResetter struct {
	chip  string
	lines []int
	held  *gpiod.Lines
	c     *gpiod.Chip
}

func (r *lineResetter) Assert() error {
	chip, err := gpiod.NewChip(r.chip, gpiod.WithConsumer("fanmgr"))
	if err != nil {
		return err
	}

	high := make([]int, len(r.lines))
	for i := range high {
		high[i] = 1
	}

	lines, err := chip.RequestLines(r.lines, gpiod.AsOutput(high...))
	if err != nil {
		chip.Close()
		return err
	}

	r.c = chip
	r.held = lines
	return nil
}

func (r *lineResetter) Release() error {
	if r.held == nil {
		return nil
	}
	defer func() {
		r.held.Close()
		r.c.Close()
		r.held, r.c = nil, nil
	}()

	return r.held.SetValues(make([]int, len(r.lines)))
}
