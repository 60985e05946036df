// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rditech/tca/event"
	"github.com/rditech/tca/logging"
)

// Kind tags the outcome of one event.
type Kind int

const (
	Success Kind = iota
	Truncated
	FitFailed
	OutOfRange
	BaselineFailed
	SamplingMismatch
	Failed
)

var kindNames = [...]string{
	Success:          "success",
	Truncated:        "truncated",
	FitFailed:        "fit-failed",
	OutOfRange:       "out-of-range",
	BaselineFailed:   "baseline",
	SamplingMismatch: "sampling-mismatch",
	Failed:           "failed",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Recorded reports whether events of this kind enter the results.
func (k Kind) Recorded() bool {
	return k <= FitFailed
}

// classify maps the error that stopped an event to its kind.
func classify(err error) Kind {
	switch {
	case errors.Is(err, event.ErrOutOfRange):
		return OutOfRange
	case errors.Is(err, event.ErrEmptyBaseline), errors.Is(err, event.ErrBaselineOverlap):
		return BaselineFailed
	case errors.Is(err, event.ErrSamplingMismatch):
		return SamplingMismatch
	}
	return Failed
}

type Outcome struct {
	Event     int
	Daytime   string
	Name      string
	Kind      Kind
	Truncated bool
	Err       error
}

type FileReport struct {
	Name     string
	Samples  int
	Skipped  int
	Events   int
	Err      error
	Outcomes []Outcome
}

type BatchReport struct {
	RunID   uuid.UUID
	Started time.Time
	Elapsed time.Duration
	Files   []*FileReport
}

func NewBatchReport() *BatchReport {
	return &BatchReport{RunID: uuid.New(), Started: time.Now()}
}

// Counts tallies the event outcomes of every file.
func (b *BatchReport) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, f := range b.Files {
		for _, o := range f.Outcomes {
			counts[o.Kind]++
		}
	}
	return counts
}

// FailedFiles counts the files that could not be read or segmented.
func (b *BatchReport) FailedFiles() int {
	n := 0
	for _, f := range b.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

func (b *BatchReport) String() string {
	counts := b.Counts()
	var parts []string
	for k := Success; k <= Failed; k++ {
		if counts[k] > 0 {
			parts = append(parts, fmt.Sprintf("%v=%d", k, counts[k]))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "no events")
	}
	return fmt.Sprintf("run %v: %d files (%d failed), %s",
		b.RunID, len(b.Files), b.FailedFiles(), strings.Join(parts, " "))
}

// Log writes one line per failed file and event, then the totals.
func (b *BatchReport) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	id := logging.RunID(b.RunID.String())
	for _, f := range b.Files {
		if f.Err != nil {
			logger.Error("file failed", id, logging.File(f.Name), logging.Error(f.Err))
			continue
		}
		for _, o := range f.Outcomes {
			if o.Err == nil {
				continue
			}
			logger.Warn("event not processed cleanly",
				id,
				logging.File(f.Name),
				logging.Event(o.Event),
				logging.Daytime(o.Daytime),
				logging.Outcome(o.Kind.String()),
				logging.Error(o.Err),
			)
		}
	}
	logger.Info("batch done", id, slog.String("summary", b.String()), slog.Duration("elapsed", b.Elapsed))
}
