// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package fit decomposes an event flux curve into a sum of Gaussian peaks.
package fit

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultMaxIterations bounds the solver when Options leave it unset.
const DefaultMaxIterations = 400

var (
	ErrFitFailed  = errors.New("fit failed")
	ErrPeakCount  = errors.New("no model for peak count")
	ErrTooFewData = errors.New("fewer samples than free parameters")
	ErrFlat       = errors.New("flat curve")
)

type Options struct {
	MaxIterations int
}

// Peak is one fitted component. Area and its error are in ug, converted
// from the ug/min by second units of the flux integral.
type Peak struct {
	Area      float64
	AreaErr   float64
	Center    float64
	CenterErr float64
	Width     float64
	WidthErr  float64
}

func missingPeak() Peak {
	nan := math.NaN()
	return Peak{nan, nan, nan, nan, nan, nan}
}

// Result of a fit. A failed fit keeps its peak count with every coefficient
// set to NaN.
type Result struct {
	Peaks      []Peak
	RSquared   float64
	Params     []float64
	Iterations int
}

func Failed(n int) *Result {
	r := &Result{RSquared: math.NaN()}
	if n < 0 {
		n = 0
	}
	r.Peaks = make([]Peak, n)
	for i := range r.Peaks {
		r.Peaks[i] = missingPeak()
	}
	return r
}

func (r *Result) Failed() bool {
	return r.Params == nil
}

// Curve evaluates the fitted model at x. A failed fit yields NaN.
func (r *Result) Curve(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if r.Failed() {
			out[i] = math.NaN()
			continue
		}
		out[i] = Eval(r.Params, x[i])
	}
	return out
}

// Fit fits n Gaussian peaks to (x, y). It always returns a result; when the
// returned error is non-nil the result is the failed result for n peaks and
// the error wraps ErrFitFailed.
func Fit(x, y []float64, n int, opts *Options) (*Result, error) {
	model, ok := Models[n]
	if !ok {
		return Failed(n), fmt.Errorf("%w: %w %d", ErrFitFailed, ErrPeakCount, n)
	}
	if len(x) != len(y) {
		return Failed(n), fmt.Errorf("%w: %d x values for %d y values", ErrFitFailed, len(x), len(y))
	}
	if len(x) <= len(model.Guess) {
		return Failed(n), fmt.Errorf("%w: %w: %d samples for %d parameters",
			ErrFitFailed, ErrTooFewData, len(x), len(model.Guess))
	}

	mean := stat.Mean(y, nil)
	ssTot := 0.0
	for _, v := range y {
		ssTot += (v - mean) * (v - mean)
	}
	if math.IsNaN(ssTot) || math.IsInf(ssTot, 0) {
		return Failed(n), fmt.Errorf("%w: non-finite samples", ErrFitFailed)
	}
	if ssTot == 0 {
		return Failed(n), fmt.Errorf("%w: %w", ErrFitFailed, ErrFlat)
	}
	model = model.within(floats.Min(x), floats.Max(x))

	maxIter := DefaultMaxIterations
	if opts != nil && opts.MaxIterations > 0 {
		maxIter = opts.MaxIterations
	}

	sol, err := solve(model, x, y, maxIter)
	if err != nil {
		return Failed(n), fmt.Errorf("%w: %w", ErrFitFailed, err)
	}

	r := &Result{
		Params:     sol.params,
		Iterations: sol.iterations,
		Peaks:      make([]Peak, n),
	}
	for k := range r.Peaks {
		i := k * ParamsPerPeak
		r.Peaks[k] = Peak{
			Area:      sol.params[i] / 60,
			AreaErr:   math.Sqrt(sol.cov.At(i, i)) / 60,
			Center:    sol.params[i+1],
			CenterErr: math.Sqrt(sol.cov.At(i+1, i+1)),
			Width:     sol.params[i+2],
			WidthErr:  math.Sqrt(sol.cov.At(i+2, i+2)),
		}
	}
	sort.SliceStable(r.Peaks, func(a, b int) bool {
		return r.Peaks[a].Center < r.Peaks[b].Center
	})

	r.RSquared = 1 - sol.ss/ssTot
	return r, nil
}
