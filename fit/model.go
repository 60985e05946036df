// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package fit

import "math"

// ParamsPerPeak is the number of free parameters of one peak: area,
// center and width, in that order.
const ParamsPerPeak = 3

// MaxPeaks is the largest peak count with a model.
const MaxPeaks = 6

// minWidth keeps widths away from zero, where the peak shape is undefined.
const minWidth = 1e-3

// Model holds the starting point and the box constraints of a fit with a
// given number of peaks. Vectors are laid out peak by peak.
type Model struct {
	Guess []float64
	Lower []float64
	Upper []float64
}

func (m Model) Peaks() int {
	return len(m.Guess) / ParamsPerPeak
}

var inf = math.Inf(1)

// Models are the peak configurations tuned for the combustion profile of
// the analyzer, keyed by peak count.
var Models = map[int]Model{
	1: {
		Guess: []float64{10, 18, 3},
		Lower: []float64{0, 0, 0},
		Upper: []float64{inf, inf, inf},
	},
	2: {
		Guess: []float64{10, 18, 3, 8, 28, 7},
		Lower: []float64{0, 0, 0, 0, 0, 0},
		Upper: []float64{inf, inf, 20, inf, inf, 20},
	},
	3: {
		Guess: []float64{10, 15, 3, 8, 33, 7, 6, 53, 8},
		Lower: []float64{0, 0, 1.5, 0, 28, 1.5, 0, 40, 1.5},
		Upper: []float64{inf, 20, 5, inf, 40, 10, inf, 60, 10},
	},
	4: {
		Guess: []float64{100, 15, 3, 22, 19, 5, 80, 33, 8, 30, 51, 8},
		Lower: []float64{0, 0, 1.5, 0, 17, 1.5, 0, 28, 1.5, 0, 40, 1.5},
		Upper: []float64{inf, 19, 6, inf, 25, 8, inf, 37, 20, inf, 60, 10},
	},
	5: {
		Guess: []float64{100, 15, 3, 22, 22, 5, 22, 35, 5, 80, 30, 5, 30, 51, 5},
		Lower: []float64{0, 0, 1.5, 0, 19, 1.5, 0, 28, 1.5, 0, 28, 1.5, 0, 48, 1.5},
		Upper: []float64{inf, 19, 8, inf, 25, 8, inf, 35, 8, inf, 37, 10, inf, 60, 10},
	},
	6: {
		Guess: []float64{100, 15, 3, 22, 22, 5, 10, 27, 5, 22, 34, 6, 80, 46, 8, 30, 54, 8},
		Lower: []float64{0, 0, 1.5, 0, 17, 1.5, 0, 22, 1.5, 0, 28, 1.5, 0, 37, 1.5, 0, 46, 1.5},
		Upper: []float64{inf, 19, 6, inf, 23, 7, inf, 32, 8, inf, 40, 10, inf, 50, 10, inf, 60, 10},
	},
}

// Gaussian is a normal peak of the given area, center and width.
func Gaussian(x, area, center, width float64) float64 {
	z := (x - center) / width
	return area / width * math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
}

// Eval sums the peaks described by params at x.
func Eval(params []float64, x float64) float64 {
	y := 0.0
	for k := 0; k+ParamsPerPeak <= len(params); k += ParamsPerPeak {
		y += Gaussian(x, params[k], params[k+1], params[k+2])
	}
	return y
}

// gradient writes the partial derivatives of Eval with respect to params
// into dst.
func gradient(dst, params []float64, x float64) {
	for k := 0; k+ParamsPerPeak <= len(params); k += ParamsPerPeak {
		a, c, w := params[k], params[k+1], params[k+2]
		z := (x - c) / w
		phi := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
		dst[k] = phi / w
		dst[k+1] = a * phi * z / (w * w)
		dst[k+2] = a * phi * (z*z - 1) / (w * w)
	}
}

// bounds returns the box of parameter i.
func (m Model) bounds(i int) (lo, hi float64) {
	lo, hi = m.Lower[i], m.Upper[i]
	if i%ParamsPerPeak == 2 && lo < minWidth {
		lo = minWidth
	}
	return lo, hi
}

// project clamps params into the box of m.
func (m Model) project(params []float64) {
	for i := range params {
		lo, hi := m.bounds(i)
		params[i] = math.Max(lo, math.Min(hi, params[i]))
	}
}

// within narrows the center bounds of m to [lo, hi], the span of the data.
func (m Model) within(lo, hi float64) Model {
	b := Model{
		Guess: append([]float64(nil), m.Guess...),
		Lower: append([]float64(nil), m.Lower...),
		Upper: append([]float64(nil), m.Upper...),
	}
	for i := 1; i < len(b.Guess); i += ParamsPerPeak {
		b.Lower[i] = math.Max(b.Lower[i], lo)
		b.Upper[i] = math.Min(b.Upper[i], hi)
	}
	return b
}
