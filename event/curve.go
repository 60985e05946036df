// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package event

import "math"

// Curve is the sample sub-table of one event, indexed by elapsed time since
// the event start. Reference, DTCCorrected and Fitted stay nil until the
// corresponding stage has run.
type Curve struct {
	Name      string
	Source    string
	Volume    float64
	SampleCO2 float64

	Daytime     []string
	Elapsed     []float64
	Runtime     []float64
	OvenTemp    []float64
	CO2Pressure []float64
	CO2         []float64
	Flow        []float64
	ExtFlow     []float64
	Countdown   []float64
	Delta       []float64
	DTC         []float64

	Reference    []float64
	DTCCorrected []float64
	Fitted       []float64
}

func newCurve(n int) *Curve {
	return &Curve{
		Volume:      math.NaN(),
		SampleCO2:   math.NaN(),
		Daytime:     make([]string, n),
		Elapsed:     make([]float64, n),
		Runtime:     make([]float64, n),
		OvenTemp:    make([]float64, n),
		CO2Pressure: make([]float64, n),
		CO2:         make([]float64, n),
		Flow:        make([]float64, n),
		ExtFlow:     make([]float64, n),
		Countdown:   make([]float64, n),
		Delta:       make([]float64, n),
		DTC:         make([]float64, n),
	}
}

func (c *Curve) Len() int {
	return len(c.Elapsed)
}

func (c *Curve) Corrected() bool {
	return c.DTCCorrected != nil
}

// Signal is the flux used for fitting: the corrected flux when available.
func (c *Curve) Signal() []float64 {
	if c.Corrected() {
		return c.DTCCorrected
	}
	return c.DTC
}

// WindowLen returns the number of leading rows with elapsed time within
// window seconds. A non-positive window selects every row.
func (c *Curve) WindowLen(window float64) int {
	if window <= 0 {
		return c.Len()
	}
	n := 0
	for n < len(c.Elapsed) && c.Elapsed[n] <= window {
		n++
	}
	return n
}

// Step is the mean sampling interval of the curve.
func (c *Curve) Step() float64 {
	n := c.Len()
	if n < 2 {
		return 0
	}
	return (c.Elapsed[n-1] - c.Elapsed[0]) / float64(n-1)
}
