// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package plot renders event curves and TC distributions as SVG.
package plot

import (
	"errors"
	"image/color"
	"io"
	"math"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
)

var ErrNoData = errors.New("plot: nothing to draw")

var (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

var (
	colorDTC       = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorReference = color.RGBA{R: 127, G: 127, B: 127, A: 255}
	colorCorrected = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colorFit       = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorOven      = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// xys pairs x and y, leaving out points with a non finite coordinate.
func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if i >= len(y) {
			break
		}
		if isFinite(x[i]) && isFinite(y[i]) {
			pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
		}
	}
	return pts
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, c color.Color, dashed bool) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle = plotter.DefaultLineStyle
	line.LineStyle.Color = c
	if dashed {
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	p.Add(line)
	if name != "" {
		p.Legend.Add(name, line)
	}
	return nil
}

// RenderEvent draws the flux of an event, with its reference and corrected
// flux when present and the fitted peaks when r is a successful fit, above
// the oven temperature.
func RenderEvent(w io.Writer, c *event.Curve, r *fit.Result) error {
	if c == nil || c.Len() == 0 {
		return ErrNoData
	}

	flux := plot.New()
	flux.Title.Text = c.Name
	flux.Y.Label.Text = "flux (ug/min)"
	flux.X.Tick.Marker = ElapsedTicks{}
	flux.Legend.Top = true
	flux.Add(plotter.NewGrid())

	if err := addLine(flux, "dtc", xys(c.Elapsed, c.DTC), colorDTC, false); err != nil {
		return err
	}
	if c.Corrected() {
		if err := addLine(flux, "baseline", xys(c.Elapsed, c.Reference), colorReference, true); err != nil {
			return err
		}
		if err := addLine(flux, "dtc-baseline", xys(c.Elapsed, c.DTCCorrected), colorCorrected, false); err != nil {
			return err
		}
	}
	if r != nil && !r.Failed() {
		if err := addLine(flux, "fit", xys(c.Elapsed, r.Curve(c.Elapsed)), colorFit, false); err != nil {
			return err
		}
		for k := 0; k < len(r.Params)/fit.ParamsPerPeak; k++ {
			peak := r.Params[k*fit.ParamsPerPeak : (k+1)*fit.ParamsPerPeak]
			y := make([]float64, c.Len())
			for i, x := range c.Elapsed {
				y[i] = fit.Gaussian(x, peak[0], peak[1], peak[2])
			}
			if err := addLine(flux, "", xys(c.Elapsed, y), colorFit, true); err != nil {
				return err
			}
		}
	}

	oven := plot.New()
	oven.X.Label.Text = "elapsed time (s)"
	oven.Y.Label.Text = "oven (degC)"
	oven.X.Tick.Marker = ElapsedTicks{}
	oven.Add(plotter.NewGrid())
	if err := addLine(oven, "", xys(c.Elapsed, c.OvenTemp), colorOven, false); err != nil {
		return err
	}
	oven.X.Min, oven.X.Max = flux.X.Min, flux.X.Max

	svg := vgsvg.New(Width, Height)
	dc := draw.New(svg)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter, PadTop: vg.Millimeter, PadBottom: vg.Millimeter}
	plots := [][]*plot.Plot{{flux}, {oven}}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}
	_, err := svg.WriteTo(w)
	return err
}

// RenderHistogram draws a TC distribution.
func RenderHistogram(w io.Writer, h *hbook.H1D, title string) error {
	if h == nil || h.Entries() == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "tc (ug-C)"
	p.Y.Label.Text = "events"
	hp := &hplot.Plot{
		Plot:  p,
		Style: hplot.DefaultStyle,
	}
	hh := hplot.NewH1D(h)
	hh.Infos.Style = hplot.HInfoSummary
	hp.Add(hh)
	hp.Add(hplot.NewGrid())

	svg := vgsvg.New(Width, Height)
	p.Draw(draw.New(svg))
	_, err := svg.WriteTo(w)
	return err
}
