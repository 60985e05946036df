// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package rawlog reads the tab separated telemetry logs written by the
// analyzer logger.
package rawlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	UnknownDate = "unknown"
	DateLayout  = "2006-01-02"
)

var (
	ErrEmptyLog      = errors.New("rawlog: empty log")
	ErrMissingHeader = errors.New("rawlog: missing column or unit header")
	ErrMissingColumn = errors.New("rawlog: missing required column")
)

// Sample is one telemetry row.
type Sample struct {
	Daytime     string
	Runtime     float64
	OvenTemp    float64
	CO2Pressure float64
	CO2         float64
	Flow        float64
	ExtFlow     float64
	Countdown   float64
	Status      Status
}

// TotalFlow is the internal plus the external flow in lpm.
func (s *Sample) TotalFlow() float64 {
	return s.Flow + s.ExtFlow
}

// SkippedRow records a data row that did not make it into the sample table.
type SkippedRow struct {
	Line    int
	Daytime string
	Reason  string
}

type Log struct {
	Name      string
	Date      string
	Columns   []string
	Units     map[string]string
	HasStatus bool
	Samples   []Sample
	Skipped   []SkippedRow
}

// Unit returns the unit recorded in the log header for a canonical column.
func (l *Log) Unit(c Column) string {
	for _, name := range l.Columns {
		if col, ok := LookupColumn(name); ok && col == c {
			return l.Units[name]
		}
	}
	return ""
}

// Runtimes returns the runtime column of the sample table.
func (l *Log) Runtimes() []float64 {
	rt := make([]float64, len(l.Samples))
	for i := range l.Samples {
		rt[i] = l.Samples[i].Runtime
	}
	return rt
}

type Parser struct {
	Name   string
	Logger *slog.Logger
}

// Parse reads a raw log with the default parser settings.
func Parse(r io.Reader) (*Log, error) {
	return (&Parser{}).Parse(r)
}

func (p *Parser) Parse(r io.Reader) (*Log, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	nextLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNum++
		return strings.TrimRight(scanner.Text(), "\r\n"), true
	}

	first, ok := nextLine()
	if !ok {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, ErrEmptyLog
	}

	l := &Log{
		Name:  p.Name,
		Date:  UnknownDate,
		Units: make(map[string]string),
	}

	header := first
	if _, err := time.Parse(DateLayout, strings.TrimSpace(first)); err == nil {
		l.Date = strings.TrimSpace(first)
		header, ok = nextLine()
		if !ok {
			return nil, ErrMissingHeader
		}
	} else {
		logger.Warn("no date at the beginning of the log", slog.String("file", p.Name))
	}
	units, ok := nextLine()
	if !ok {
		return nil, ErrMissingHeader
	}

	l.Columns = splitFields(header)
	unitFields := splitFields(units)
	for i, name := range l.Columns {
		if i < len(unitFields) {
			l.Units[name] = unitFields[i]
		} else {
			l.Units[name] = ""
		}
	}

	index, err := resolveColumns(l.Columns)
	if err != nil {
		return nil, err
	}
	l.HasStatus = index[StatusByte] >= 0

	minFields := 0
	for _, i := range index {
		if i+1 > minFields {
			minFields = i + 1
		}
	}

	lastRuntime := 0.0
	for {
		line, ok := nextLine()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitFields(line)
		sample, reason := decodeRow(fields, index, minFields)
		if reason == "" && len(l.Samples) > 0 && sample.Runtime < lastRuntime {
			reason = fmt.Sprintf("runtime %g before %g", sample.Runtime, lastRuntime)
		}
		if reason != "" {
			skipped := SkippedRow{Line: lineNum, Reason: reason}
			if len(fields) > 0 && index[Daytime] < len(fields) {
				skipped.Daytime = fields[index[Daytime]]
			}
			l.Skipped = append(l.Skipped, skipped)
			logger.Warn("skipping bad row",
				slog.String("file", p.Name),
				slog.Int("line", lineNum),
				slog.String("daytime", skipped.Daytime),
				slog.String("reason", reason),
			)
			continue
		}

		lastRuntime = sample.Runtime
		l.Samples = append(l.Samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	logger.Info("loaded raw log",
		slog.String("file", p.Name),
		slog.String("date", l.Date),
		slog.Int("samples", len(l.Samples)),
		slog.Int("skipped", len(l.Skipped)),
	)

	return l, nil
}

func splitFields(line string) []string {
	fields := strings.Split(line, "\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// resolveColumns returns the field index of every canonical column, -1 when
// the log does not carry it.
func resolveColumns(names []string) ([numColumns]int, error) {
	var index [numColumns]int
	for i := range index {
		index[i] = -1
	}
	for i, name := range names {
		if c, ok := LookupColumn(name); ok && index[c] < 0 {
			index[c] = i
		}
	}
	if index[StatusByte] < 0 && len(names) > 0 {
		last := len(names) - 1
		if _, known := LookupColumn(names[last]); !known {
			index[StatusByte] = last
		}
	}
	for _, c := range requiredColumns {
		if index[c] < 0 {
			return index, fmt.Errorf("%w: %v", ErrMissingColumn, c)
		}
	}
	return index, nil
}

func decodeRow(fields []string, index [numColumns]int, minFields int) (Sample, string) {
	var s Sample
	if len(fields) < minFields {
		return s, fmt.Sprintf("short row: %d of %d fields", len(fields), minFields)
	}

	s.Daytime = fields[index[Daytime]]
	targets := []struct {
		col Column
		dst *float64
	}{
		{Runtime, &s.Runtime},
		{OvenTemp, &s.OvenTemp},
		{CO2Pressure, &s.CO2Pressure},
		{CO2, &s.CO2},
		{Flow, &s.Flow},
		{ExtFlow, &s.ExtFlow},
		{Countdown, &s.Countdown},
	}
	for _, t := range targets {
		i := index[t.col]
		if i < 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return s, fmt.Sprintf("bad %v value %q", t.col, fields[i])
		}
		*t.dst = v
	}
	if math.IsNaN(s.Runtime) || math.IsInf(s.Runtime, 0) {
		return s, "missing runtime"
	}

	if i := index[StatusByte]; i >= 0 {
		status, err := DecodeStatus(fields[i])
		if err != nil {
			return s, err.Error()
		}
		s.Status = status
	}

	return s, ""
}
