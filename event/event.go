// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package event segments raw analyzer logs into combustion events and
// quantifies the total carbon released by each of them.
package event

import (
	"errors"
	"log/slog"
	"math"

	"github.com/rditech/tca/rawlog"
)

// PPMToUG converts CO2 in ppm to ug of carbon per litre at 0 degC and 1 atm.
const PPMToUG = 12.01 / 22.4

var (
	ErrOutOfRange       = errors.New("event out of range")
	ErrNoStatus         = errors.New("log carries no status byte")
	ErrEmptyBaseline    = errors.New("no samples in baseline window")
	ErrBaselineOverlap  = errors.New("baseline window reaches previous event")
	ErrSamplingMismatch = errors.New("reference curve sampling does not match event")
)

// Record holds the scalar results of one event. Optional quantities are NaN
// until the stage computing them has run.
type Record struct {
	Index         int
	Runtime       float64
	Daytime       string
	Baseline      float64
	MaxOvenTemp   float64
	TC            float64
	TCCorrected   float64
	SampleVolume  float64
	SampleCO2     float64
	Concentration float64
	Truncated     bool
}

func NewRecord(index int, s rawlog.Sample) Record {
	return Record{
		Index:         index,
		Runtime:       s.Runtime,
		Daytime:       s.Daytime,
		Baseline:      math.NaN(),
		MaxOvenTemp:   math.NaN(),
		TC:            math.NaN(),
		TCCorrected:   math.NaN(),
		SampleVolume:  math.NaN(),
		SampleCO2:     math.NaN(),
		Concentration: math.NaN(),
	}
}

func (r *Record) Corrected() bool {
	return !math.IsNaN(r.TCCorrected)
}

func (r *Record) HasVolume() bool {
	return !math.IsNaN(r.SampleVolume)
}

// Analyzer carries the window lengths, in seconds, shared by the per-event
// stages.
type Analyzer struct {
	DataWindow     float64
	IntegralWindow float64
	BaselineWindow float64
	Logger         *slog.Logger
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// pick resolves an event number; negative numbers select the last event.
func pick(events []Record, n int) (int, error) {
	if n < 0 {
		n = len(events) - 1
	}
	if n < 0 || n >= len(events) {
		return 0, ErrOutOfRange
	}
	return n, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
