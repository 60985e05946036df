// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package event

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/rditech/tca/rawlog"
)

// Integrate cuts the curve of event n out of the log and sets its TC. The
// baseline of the event must be known. When the log ends before the data
// window closes the record is marked truncated and the partial curve is
// used.
func (a *Analyzer) Integrate(l *rawlog.Log, events []Record, n int) (*Curve, error) {
	n, err := pick(events, n)
	if err != nil {
		return nil, err
	}
	rec := &events[n]
	if math.IsNaN(rec.Baseline) {
		return nil, ErrEmptyBaseline
	}

	i0 := rec.Index
	i1 := i0 + 1
	for i1 < len(l.Samples) && l.Samples[i1].Runtime-rec.Runtime <= a.DataWindow {
		i1++
	}
	rec.Truncated = i1 == len(l.Samples)
	if rec.Truncated {
		a.logger().Warn("end of file reached", "file", l.Name, "daytime", rec.Daytime)
	}

	c := newCurve(i1 - i0)
	c.Source = l.Name
	c.Volume = rec.SampleVolume
	c.SampleCO2 = rec.SampleCO2
	for k, s := range l.Samples[i0:i1] {
		c.Daytime[k] = s.Daytime
		c.Elapsed[k] = s.Runtime - rec.Runtime
		c.Runtime[k] = s.Runtime
		c.OvenTemp[k] = s.OvenTemp
		c.CO2Pressure[k] = s.CO2Pressure
		c.CO2[k] = s.CO2
		c.Flow[k] = s.Flow
		c.ExtFlow[k] = s.ExtFlow
		c.Countdown[k] = s.Countdown
		c.Delta[k] = s.CO2 - rec.Baseline
		c.DTC[k] = c.Delta[k] * s.Flow * PPMToUG
	}

	rec.MaxOvenTemp = floats.Max(c.OvenTemp)
	rec.TC = a.windowIntegral(c, c.DTC)
	return c, nil
}

// windowIntegral integrates y over the rows of c within the integral window,
// in ug.
func (a *Analyzer) windowIntegral(c *Curve, y []float64) float64 {
	j := c.WindowLen(a.IntegralWindow)
	if j < 2 {
		return 0
	}
	return integrate.Trapezoidal(c.Elapsed[:j], y[:j]) / 60
}

// Restore rebuilds the record of an event from its saved curve, including
// the corrected TC when the curve was corrected.
func (a *Analyzer) Restore(c *Curve) Record {
	rec := Record{
		Baseline:      math.NaN(),
		MaxOvenTemp:   math.NaN(),
		TC:            math.NaN(),
		TCCorrected:   math.NaN(),
		SampleVolume:  c.Volume,
		SampleCO2:     c.SampleCO2,
		Concentration: math.NaN(),
	}
	if c.Len() == 0 {
		return rec
	}
	rec.Runtime = c.Runtime[0]
	rec.Daytime = c.Daytime[0]
	rec.Baseline = round3(stat.Mean(c.CO2, nil) - stat.Mean(c.Delta, nil))
	rec.MaxOvenTemp = floats.Max(c.OvenTemp)
	rec.TC = a.windowIntegral(c, c.DTC)
	if c.Corrected() {
		rec.TCCorrected = a.windowIntegral(c, c.DTCCorrected)
		if rec.SampleVolume > 0 {
			rec.Concentration = rec.TCCorrected / rec.SampleVolume
		}
	}
	return rec
}
