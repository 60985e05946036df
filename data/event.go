// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"bytes"
	"context"
	"strings"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
	"github.com/rditech/tca/logging"
	"github.com/rditech/tca/plot"
	"github.com/rditech/tca/publish"
)

type EventProcessor func(ctx context.Context, job *Job) error

type EventOp struct {
	Description    string
	EventProcessor EventProcessor
}

func (o EventOp) GetDescription() string {
	return o.Description
}

func (o EventOp) Run(ctx context.Context, job *Job) error {
	return o.EventProcessor(ctx, job)
}

func BaselineOp(a *event.Analyzer) EventOp {
	return EventOp{
		Description: "baseline CO2 before the event start",
		EventProcessor: func(_ context.Context, job *Job) error {
			return a.Baseline(job.Log, job.Events, job.N)
		},
	}
}

func VolumeOp(a *event.Analyzer) EventOp {
	return EventOp{
		Description: "sample volume and CO2 since the previous event",
		EventProcessor: func(_ context.Context, job *Job) error {
			return a.SampleVolume(job.Log, job.Events, job.N)
		},
	}
}

func IntegrateOp(a *event.Analyzer) EventOp {
	return EventOp{
		Description: "flux curve and TC integral",
		EventProcessor: func(_ context.Context, job *Job) error {
			c, err := a.Integrate(job.Log, job.Events, job.N)
			if err != nil {
				return err
			}
			c.Name = artifact.FileName(job.Log.Date, job.Record().Daytime)
			job.Curve = c
			return nil
		},
	}
}

// CorrectOp subtracts the zero reference. A nil reference makes it a no-op.
func CorrectOp(a *event.Analyzer, ref *event.Curve) EventOp {
	return EventOp{
		Description: "zero reference correction",
		EventProcessor: func(_ context.Context, job *Job) error {
			return a.Correct(job.Record(), job.Curve, ref)
		},
	}
}

// FitOp fits peaks Gaussians to the first window seconds of the signal. A
// failed fit is kept on the job and does not stop the chain.
func FitOp(peaks int, window float64, opts fit.Options) EventOp {
	return EventOp{
		Description: "multi-Gaussian peak fit",
		EventProcessor: func(_ context.Context, job *Job) error {
			c := job.Curve
			j := c.WindowLen(window)
			r, err := fit.Fit(c.Elapsed[:j], c.Signal()[:j], peaks, &opts)
			job.Fit = r
			if err != nil {
				job.FitErr = err
				job.logger().Warn("fit failed",
					logging.File(job.Log.Name),
					logging.Daytime(job.Record().Daytime),
					logging.Error(err),
				)
				return nil
			}
			c.Fitted = r.Curve(c.Elapsed)
			return nil
		},
	}
}

// SaveOp writes the event artifact into dir.
func SaveOp(dir, credentials string) EventOp {
	return EventOp{
		Description: "save event artifact",
		EventProcessor: func(ctx context.Context, job *Job) error {
			path := JoinURL(dir, job.Name())
			w, err := GetWriter(ctx, path, credentials)
			if err != nil {
				return err
			}
			if err := artifact.Write(w, job.Curve); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			job.Path = path
			return nil
		},
	}
}

// PlotName is the name of the plot of an artifact.
func PlotName(name string) string {
	return strings.TrimSuffix(name, ".csv") + ".svg"
}

// PlotOp renders the event into dir. Render failures are logged only.
func PlotOp(dir, credentials string) EventOp {
	return EventOp{
		Description: "render event plot",
		EventProcessor: func(ctx context.Context, job *Job) error {
			var buf bytes.Buffer
			err := plot.RenderEvent(&buf, job.Curve, job.Fit)
			if err == nil {
				err = writeAll(ctx, JoinURL(dir, PlotName(job.Name())), credentials, buf.Bytes())
			}
			if err != nil {
				job.logger().Warn("plot failed",
					logging.File(job.Log.Name),
					logging.Daytime(job.Record().Daytime),
					logging.Error(err),
				)
			}
			return nil
		},
	}
}

// PublishOp sends the event result with its artifact. Publish failures are
// logged only.
func PublishOp(p publish.Publisher) EventOp {
	return EventOp{
		Description: "publish event result",
		EventProcessor: func(ctx context.Context, job *Job) error {
			var buf bytes.Buffer
			err := artifact.Write(&buf, job.Curve)
			if err == nil {
				err = p.Publish(ctx, publish.EventMsg(job.Name(), job.Record(), job.Fit, buf.Bytes()))
			}
			if err != nil {
				job.logger().Warn("publish failed",
					logging.File(job.Log.Name),
					logging.Daytime(job.Record().Daytime),
					logging.Error(err),
				)
			}
			return nil
		},
	}
}

func writeAll(ctx context.Context, urlString, credentials string, b []byte) error {
	w, err := GetWriter(ctx, urlString, credentials)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Settings select the stages of the standard chain.
type Settings struct {
	EventsDir   string
	Credentials string
	// Reference enables the zero correction.
	Reference *event.Curve
	// Peaks enables the fit when positive.
	Peaks      int
	FitWindow  float64
	FitOptions fit.Options
	// PlotDir enables plots when not empty.
	PlotDir   string
	Publisher publish.Publisher
}

// StandardOps builds the chain baseline, volume, integrate, correct, fit,
// save, plot and publish. Stages not enabled by s are left out.
func StandardOps(a *event.Analyzer, s Settings) OpArray {
	ops := OpArray{
		BaselineOp(a),
		VolumeOp(a),
		IntegrateOp(a),
	}
	if s.Reference != nil {
		ops = append(ops, CorrectOp(a, s.Reference))
	}
	if s.Peaks > 0 {
		window := s.FitWindow
		if window <= 0 {
			window = a.IntegralWindow
		}
		ops = append(ops, FitOp(s.Peaks, window, s.FitOptions))
	}
	if s.EventsDir != "" {
		ops = append(ops, SaveOp(s.EventsDir, s.Credentials))
	}
	if s.PlotDir != "" {
		ops = append(ops, PlotOp(s.PlotDir, s.Credentials))
	}
	if s.Publisher != nil {
		ops = append(ops, PublishOp(s.Publisher))
	}
	return ops
}
