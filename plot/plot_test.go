// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
)

func TestElapsedTicks(t *testing.T) {
	ticks := ElapsedTicks{}.Ticks(0, 120)
	var labels []string
	for _, tk := range ticks {
		if tk.Label != "" {
			labels = append(labels, tk.Label)
		}
		assert.True(t, tk.Value >= 0 && tk.Value <= 120)
	}
	assert.Equal(t, []string{"0", "20", "40", "60", "80", "100", "120"}, labels)
	assert.Len(t, ticks, 13)

	labels = labels[:0]
	for _, tk := range (ElapsedTicks{Max: 4}).Ticks(3, 65) {
		if tk.Label != "" {
			labels = append(labels, tk.Label)
		}
	}
	assert.Equal(t, []string{"20", "40", "60"}, labels)

	ticks = ElapsedTicks{}.Ticks(5, 5)
	require.Len(t, ticks, 1)
	assert.Equal(t, "5", ticks[0].Label)
	assert.NotPanics(t, func() { ElapsedTicks{}.Ticks(0, 0.5) })
	assert.Nil(t, ElapsedTicks{}.Ticks(0, math.Inf(1)))
}

func testCurve() *event.Curve {
	c := &event.Curve{Name: "2019-07-01-1000-eventdata.csv"}
	for i := 0; i < 121; i++ {
		x := float64(i)
		c.Elapsed = append(c.Elapsed, x)
		c.OvenTemp = append(c.OvenTemp, 600+2*x)
		c.DTC = append(c.DTC, fit.Gaussian(x, 600, 20, 4))
		c.Reference = append(c.Reference, 0.1)
		c.DTCCorrected = append(c.DTCCorrected, fit.Gaussian(x, 600, 20, 4)-0.1)
	}
	c.DTCCorrected[120] = math.NaN()
	return c
}

func TestRenderEvent(t *testing.T) {
	c := testCurve()
	r := &fit.Result{Params: []float64{600, 20, 4}, Peaks: []fit.Peak{{Area: 10, Center: 20, Width: 4}}}

	var buf bytes.Buffer
	require.NoError(t, RenderEvent(&buf, c, r))
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "dtc-baseline")

	buf.Reset()
	require.NoError(t, RenderEvent(&buf, c, fit.Failed(1)))
	assert.Contains(t, buf.String(), "<svg")

	assert.ErrorIs(t, RenderEvent(&buf, &event.Curve{}, nil), ErrNoData)
}

func TestRenderHistogram(t *testing.T) {
	h := hbook.NewH1D(10, 0, 10)
	for _, v := range []float64{1, 2, 2, 3, 7} {
		h.Fill(v, 1)
	}
	var buf bytes.Buffer
	require.NoError(t, RenderHistogram(&buf, h, "2019-07-01"))
	assert.Contains(t, buf.String(), "<svg")

	assert.ErrorIs(t, RenderHistogram(&buf, hbook.NewH1D(10, 0, 10), "empty"), ErrNoData)
}
