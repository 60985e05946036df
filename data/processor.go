// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rditech/tca/event"
	"github.com/rditech/tca/logging"
	"github.com/rditech/tca/rawlog"
	"github.com/rditech/tca/results"
)

// Processor runs Ops over every selected event of a log, one event after the
// other, and appends the events that made it through to Results.
type Processor struct {
	Analyzer    *event.Analyzer
	Segmenter   event.Segmenter
	Ops         OpArray
	Results     *results.ResultSet
	Credentials string
	Logger      *slog.Logger
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// ProcessLog processes the events numbered in only, or every event when only
// is empty. Negative numbers count from the last event.
func (p *Processor) ProcessLog(ctx context.Context, l *rawlog.Log, only ...int) *FileReport {
	report := &FileReport{Name: l.Name, Samples: len(l.Samples), Skipped: len(l.Skipped)}

	events, err := p.Analyzer.Segment(l, p.Segmenter)
	if err != nil {
		report.Err = err
		return report
	}
	report.Events = len(events)

	selected := only
	if len(selected) == 0 {
		selected = make([]int, len(events))
		for i := range selected {
			selected[i] = i
		}
	}

	for _, n := range selected {
		if ctx.Err() != nil {
			break
		}
		report.Outcomes = append(report.Outcomes, p.processEvent(ctx, l, events, n))
	}
	return report
}

func (p *Processor) processEvent(ctx context.Context, l *rawlog.Log, events []event.Record, n int) Outcome {
	if n < 0 {
		n += len(events)
	}
	if n < 0 || n >= len(events) {
		return Outcome{Event: n, Kind: OutOfRange, Err: event.ErrOutOfRange}
	}

	job := &Job{Log: l, Events: events, N: n, Logger: p.Logger}
	o := Outcome{Event: n, Daytime: events[n].Daytime, Name: job.Name()}
	if err := p.Ops.Run(ctx, job); err != nil {
		o.Kind, o.Err = classify(err), err
		return o
	}

	rec := job.Record()
	o.Truncated = rec.Truncated
	switch {
	case job.FitErr != nil:
		o.Kind, o.Err = FitFailed, job.FitErr
	case rec.Truncated:
		o.Kind = Truncated
	}

	if p.Results != nil {
		err := p.Results.Append(results.Entry{
			Name:   job.Name(),
			Date:   l.Date,
			Record: *rec,
			Curve:  job.Curve,
			Fit:    job.Fit,
		})
		if err != nil {
			o.Kind, o.Err = Failed, err
			return o
		}
	}

	p.logger().Info("event processed",
		logging.File(l.Name),
		logging.Event(n),
		logging.Daytime(rec.Daytime),
		logging.Outcome(o.Kind.String()),
		slog.Float64("tc", rec.TC),
	)
	return o
}

// ProcessFile reads the raw log at urlString and processes it.
func (p *Processor) ProcessFile(ctx context.Context, urlString string, only ...int) *FileReport {
	name := BaseName(urlString)
	r, err := GetReader(ctx, urlString, p.Credentials)
	if err != nil {
		return &FileReport{Name: name, Err: err}
	}
	defer r.Close()

	parser := &rawlog.Parser{Name: name, Logger: p.Logger}
	l, err := parser.Parse(r)
	if err != nil {
		return &FileReport{Name: name, Err: fmt.Errorf("%s: %w", name, err)}
	}
	return p.ProcessLog(ctx, l, only...)
}

// Process handles the files in the given order and reports on all of them.
func (p *Processor) Process(ctx context.Context, urls []string, only ...int) *BatchReport {
	report := NewBatchReport()
	p.logger().Info("batch started",
		logging.RunID(report.RunID.String()),
		slog.Int("files", len(urls)),
		slog.String("ops", p.Ops.Describe()),
	)
	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		report.Files = append(report.Files, p.ProcessFile(ctx, u, only...))
	}
	report.Elapsed = time.Since(report.Started)
	report.Log(p.logger())
	return report
}
