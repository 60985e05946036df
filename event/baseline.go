// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package event

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/rditech/tca/rawlog"
)

// Baseline sets the baseline of event n to the mean CO2 of the rows preceding
// its start by at most BaselineWindow seconds. The start row itself is not
// part of the window.
func (a *Analyzer) Baseline(l *rawlog.Log, events []Record, n int) error {
	n, err := pick(events, n)
	if err != nil {
		return err
	}
	rec := &events[n]

	if n > 0 && rec.Runtime-events[n-1].Runtime <= a.BaselineWindow {
		return fmt.Errorf("%w: %gs after previous event", ErrBaselineOverlap, rec.Runtime-events[n-1].Runtime)
	}

	lo := rec.Index
	for lo > 0 && rec.Runtime-l.Samples[lo-1].Runtime <= a.BaselineWindow {
		lo--
	}
	if lo == rec.Index {
		return ErrEmptyBaseline
	}

	co2 := make([]float64, 0, rec.Index-lo)
	for _, s := range l.Samples[lo:rec.Index] {
		co2 = append(co2, s.CO2)
	}
	rec.Baseline = round3(stat.Mean(co2, nil))
	return nil
}

// SampleVolume integrates the total flow through the closed diversion valve
// between the previous event start and the start of event n, in m³. When the
// sample pump ran during that interval the flow weighted mean CO2 of the
// sampled gas is recorded too. Logs without status leave both missing.
func (a *Analyzer) SampleVolume(l *rawlog.Log, events []Record, n int) error {
	n, err := pick(events, n)
	if err != nil {
		return err
	}
	if !l.HasStatus {
		return nil
	}
	rec := &events[n]

	lo := 0
	if n > 0 {
		lo = events[n-1].Index
	}

	var (
		litres  float64
		pumped  bool
		co2     []float64
		weights []float64
		runT    []float64
		runF    []float64
	)
	flush := func() {
		if len(runT) > 1 {
			litres += integrate.Trapezoidal(runT, runF)
		}
		runT, runF = runT[:0], runF[:0]
	}
	for _, s := range l.Samples[lo:rec.Index] {
		if s.Status.Valve() {
			flush()
			continue
		}
		runT = append(runT, s.Runtime)
		runF = append(runF, s.TotalFlow())
		co2 = append(co2, s.CO2)
		weights = append(weights, s.TotalFlow())
		pumped = pumped || s.Status.Pump()
	}
	flush()

	rec.SampleVolume = litres / 60 / 1000
	if pumped {
		rec.SampleCO2 = stat.Mean(co2, weights)
	}
	return nil
}
