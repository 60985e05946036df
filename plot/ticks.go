// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// tickSteps are the major and minor spacings, in seconds, ElapsedTicks
// chooses from.
var tickSteps = []struct{ major, minor float64 }{
	{1, 0.5},
	{2, 1},
	{5, 1},
	{10, 5},
	{15, 5},
	{20, 10},
	{30, 10},
	{60, 15},
	{120, 30},
	{300, 60},
	{600, 120},
	{900, 300},
	{1800, 600},
	{3600, 900},
}

// ElapsedTicks marks an elapsed time axis in seconds. Labeled ticks fall on
// whole clock steps and at most Max of them are placed.
type ElapsedTicks struct {
	Max int
}

func (t ElapsedTicks) Ticks(min, max float64) []plot.Tick {
	n := t.Max
	if n < 2 {
		n = 6
	}
	span := max - min
	switch {
	case math.IsInf(span, 0):
		return nil
	case !(span > 0):
		return []plot.Tick{{Value: min, Label: secondsLabel(min)}}
	case span < 1:
		return plot.DefaultTicks{}.Ticks(min, max)
	}

	step := tickSteps[len(tickSteps)-1]
	for _, s := range tickSteps {
		if span/s.major <= float64(n) {
			step = s
			break
		}
	}

	var ticks []plot.Tick
	for k := math.Ceil(min / step.minor); k*step.minor <= max; k++ {
		v := k * step.minor
		tick := plot.Tick{Value: v}
		if math.Mod(v, step.major) == 0 {
			tick.Label = secondsLabel(v)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

func secondsLabel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
