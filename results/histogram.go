// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package results

import (
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/floats"
)

// Histogram bins the reported TC of the run into nbins+1 bins centered on an
// even grid running from the smallest to the largest value.
func (s *ResultSet) Histogram(nbins int) (*hbook.H1D, error) {
	tc := finite(s.TC())
	if len(tc) == 0 {
		return nil, ErrEmpty
	}
	if nbins < 1 {
		nbins = 1
	}

	lo, hi := floats.Min(tc), floats.Max(tc)
	width := (hi - lo) / float64(nbins)
	if width == 0 {
		width = 1
	}
	h := hbook.NewH1D(nbins+1, lo-width/2, hi+width/2)
	for _, v := range tc {
		h.Fill(v, 1)
	}
	h.Annotation()["name"] = "tc"
	return h, nil
}
