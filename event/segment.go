// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package event

import (
	"fmt"

	"github.com/rditech/tca/rawlog"
)

// Segmenter finds the sample indices at which events start. Implementations
// must be pure functions of the sample table and return strictly increasing
// indices.
type Segmenter interface {
	Starts(samples []rawlog.Sample) []int
	NeedsStatus() bool
}

// OvenState starts an event on a row with the oven flag set when no event is
// open, or when the open event is older than Window seconds.
type OvenState struct {
	Window float64
}

func (s OvenState) NeedsStatus() bool { return true }

func (s OvenState) Starts(samples []rawlog.Sample) []int {
	var starts []int
	open := false
	startRuntime := 0.0
	for i := range samples {
		if !samples[i].Status.Oven() {
			continue
		}
		if !open || samples[i].Runtime-startRuntime > s.Window {
			starts = append(starts, i)
			startRuntime = samples[i].Runtime
			open = true
		}
	}
	return starts
}

// CountdownEdge is the segmentation of early firmware, which did not report
// the oven state: an event starts on a row with a positive cycle countdown
// following a row with a zero countdown.
type CountdownEdge struct{}

func (CountdownEdge) NeedsStatus() bool { return false }

func (CountdownEdge) Starts(samples []rawlog.Sample) []int {
	var starts []int
	armed := false
	for i := range samples {
		switch {
		case samples[i].Countdown == 0:
			armed = true
		case samples[i].Countdown > 0 && armed:
			starts = append(starts, i)
			armed = false
		}
	}
	return starts
}

// NewSegmenter returns the segmenter registered under name.
func NewSegmenter(name string, dataWindow float64) (Segmenter, error) {
	switch name {
	case "", "oven":
		return OvenState{Window: dataWindow}, nil
	case "countdown":
		return CountdownEdge{}, nil
	}
	return nil, fmt.Errorf("unknown segmentation %q", name)
}

// Segment splits the log into events. The last event is dropped when the log
// ends less than two data windows after its start.
func (a *Analyzer) Segment(l *rawlog.Log, s Segmenter) ([]Record, error) {
	if s.NeedsStatus() && !l.HasStatus {
		return nil, ErrNoStatus
	}

	starts := s.Starts(l.Samples)
	if n := len(starts); n > 0 {
		last := l.Samples[len(l.Samples)-1].Runtime
		if last-l.Samples[starts[n-1]].Runtime < 2*a.DataWindow {
			a.logger().Info("dropping trailing event",
				"file", l.Name,
				"daytime", l.Samples[starts[n-1]].Daytime,
			)
			starts = starts[:n-1]
		}
	}

	events := make([]Record, len(starts))
	for i, idx := range starts {
		events[i] = NewRecord(idx, l.Samples[idx])
	}
	a.logger().Info("segmented log", "file", l.Name, "events", len(events))
	return events, nil
}
