// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package event

import (
	"fmt"
	"math"
)

// Correct subtracts the flux of a zero reference curve from c, row by row,
// and recomputes the TC of rec over the integral window. A nil reference
// leaves c and rec untouched.
func (a *Analyzer) Correct(rec *Record, c, ref *Curve) error {
	if ref == nil {
		return nil
	}

	j := c.WindowLen(a.IntegralWindow)
	if ref.Len() < j {
		return fmt.Errorf("%w: reference has %d rows, need %d", ErrSamplingMismatch, ref.Len(), j)
	}
	tol := c.Step() / 2
	if tol <= 0 {
		tol = 0.5
	}
	for k := 0; k < j; k++ {
		if math.Abs(c.Elapsed[k]-ref.Elapsed[k]) > tol {
			return fmt.Errorf("%w: row %d at %gs, reference at %gs",
				ErrSamplingMismatch, k, c.Elapsed[k], ref.Elapsed[k])
		}
	}

	c.Reference = make([]float64, c.Len())
	c.DTCCorrected = make([]float64, c.Len())
	for k := range c.Elapsed {
		if k >= ref.Len() {
			c.Reference[k] = math.NaN()
			c.DTCCorrected[k] = math.NaN()
			continue
		}
		c.Reference[k] = ref.DTC[k]
		c.DTCCorrected[k] = c.DTC[k] - ref.DTC[k]
	}

	rec.TCCorrected = a.windowIntegral(c, c.DTCCorrected)
	if rec.SampleVolume > 0 {
		rec.Concentration = rec.TCCorrected / rec.SampleVolume
	}
	return nil
}
