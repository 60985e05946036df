// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package data runs the per event processing chain over raw logs and
// resolves the locations logs and artifacts are read from and written to.
package data

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
	"github.com/rditech/tca/rawlog"
)

// Job is the state of one event as it moves through an OpArray.
type Job struct {
	Log    *rawlog.Log
	Events []event.Record
	N      int

	Curve *event.Curve
	Fit   *fit.Result
	// FitErr is set when the fit failed; the event is still reported.
	FitErr error
	// Path is where the artifact was written.
	Path   string
	Logger *slog.Logger
}

func (j *Job) Record() *event.Record {
	return &j.Events[j.N]
}

// Name is the artifact name of the event.
func (j *Job) Name() string {
	if j.Curve != nil && j.Curve.Name != "" {
		return j.Curve.Name
	}
	return artifact.FileName(j.Log.Date, j.Record().Daytime)
}

func (j *Job) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

type Op interface {
	GetDescription() string
	Run(ctx context.Context, job *Job) error
}

type OpArray []Op

// Run applies the ops in order and stops at the first error, which is
// wrapped with the description of the failing op.
func (ops OpArray) Run(ctx context.Context, job *Job) error {
	for _, o := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.Run(ctx, job); err != nil {
			return fmt.Errorf("%v: %w", o.GetDescription(), err)
		}
	}
	return nil
}

func (ops OpArray) Describe() string {
	var desc string
	for i, o := range ops {
		desc += strconv.Itoa(i) + ") "
		desc += o.GetDescription()
		if i < len(ops)-1 {
			desc += "\n"
		}
	}
	return desc
}
