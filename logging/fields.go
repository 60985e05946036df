// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package logging

import "log/slog"

// Common field names.
const (
	FieldFile    = "file"
	FieldEvent   = "event"
	FieldDaytime = "daytime"
	FieldOutcome = "outcome"
	FieldRunID   = "run_id"
	FieldError   = "error"
)

func File(name string) slog.Attr {
	return slog.String(FieldFile, name)
}

// Event returns a slog attribute for an event number within its log.
func Event(n int) slog.Attr {
	return slog.Int(FieldEvent, n)
}

func Daytime(daytime string) slog.Attr {
	return slog.String(FieldDaytime, daytime)
}

func Outcome(kind string) slog.Attr {
	return slog.String(FieldOutcome, kind)
}

func RunID(id string) slog.Attr {
	return slog.String(FieldRunID, id)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
