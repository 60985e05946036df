// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package results collects the per event results of a run and derives the
// summary, the average event and the fit coefficient tables from them.
package results

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
)

var (
	ErrSchemaMismatch = errors.New("results: entry does not match run schema")
	ErrEmpty          = errors.New("results: no entries")
)

// Entry is everything the run keeps about one event.
type Entry struct {
	Name   string
	Date   string
	Record event.Record
	Curve  *event.Curve
	Fit    *fit.Result
}

// Schema is fixed by the first entry of a run.
type Schema struct {
	Corrected bool
	Volume    bool
	Peaks     int
}

func schemaOf(e *Entry) Schema {
	s := Schema{
		Corrected: e.Record.Corrected(),
		Volume:    e.Record.HasVolume(),
	}
	if e.Fit != nil {
		s.Peaks = len(e.Fit.Peaks)
	}
	return s
}

type Column struct {
	Name string
	Unit string
}

// Columns of the result table for this schema.
func (s Schema) Columns() []Column {
	cols := []Column{
		{"date", "yyyy-mm-dd"},
		{"time", "hh:mm:ss"},
		{"runtime", "s"},
		{"co2-base", "ppm"},
		{"maxtemp", "degC"},
		{"tc", "ug-C"},
	}
	if s.Corrected {
		cols = append(cols, Column{"tc-baseline", "ug-C"})
	}
	if s.Volume {
		cols = append(cols,
			Column{"volume", "m3"},
			Column{"sample-co2", "ppm"},
			Column{"concentration", "ug-C/m3"},
		)
	}
	for k := 0; k < s.Peaks; k++ {
		cols = append(cols,
			Column{fmt.Sprintf("A%d", k), "ug-C"},
			Column{fmt.Sprintf("xc%d", k), "s"},
			Column{fmt.Sprintf("sigma%d", k), "s"},
		)
	}
	if s.Peaks > 0 {
		cols = append(cols, Column{"r2", "-"})
	}
	return cols
}

// labelColumns identify an entry and are left out of the statistics.
const labelColumns = 3

// values returns the numeric columns of an entry, matching Columns after
// the label columns.
func (s Schema) values(e *Entry) []float64 {
	r := &e.Record
	v := []float64{r.Baseline, r.MaxOvenTemp, r.TC}
	if s.Corrected {
		v = append(v, r.TCCorrected)
	}
	if s.Volume {
		v = append(v, r.SampleVolume, r.SampleCO2, r.Concentration)
	}
	if s.Peaks > 0 {
		for _, p := range e.Fit.Peaks {
			v = append(v, p.Area, p.Center, p.Width)
		}
		v = append(v, e.Fit.RSquared)
	}
	return v
}

func (s Schema) row(e *Entry) []string {
	row := []string{e.Date, e.Record.Daytime, artifact.FormatFloat(e.Record.Runtime, -1)}
	for _, v := range s.values(e) {
		row = append(row, artifact.FormatFloat(v, 3))
	}
	return row
}

// ResultSet accumulates entries in the order events are processed.
type ResultSet struct {
	sync.Mutex
	schema  *Schema
	entries []Entry
	sources []string
}

func New() *ResultSet {
	return &ResultSet{}
}

// Append adds an entry. The first entry fixes the schema; later entries
// must match it.
func (s *ResultSet) Append(e Entry) error {
	s.Lock()
	defer s.Unlock()

	schema := schemaOf(&e)
	if s.schema == nil {
		s.schema = &schema
	} else if *s.schema != schema {
		return fmt.Errorf("%w: %s has %+v, run has %+v", ErrSchemaMismatch, e.Name, schema, *s.schema)
	}
	s.entries = append(s.entries, e)
	s.sources = append(s.sources, e.Name)
	return nil
}

func (s *ResultSet) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.entries)
}

// Schema returns the run schema; the zero schema before the first entry.
func (s *ResultSet) Schema() Schema {
	s.Lock()
	defer s.Unlock()
	if s.schema == nil {
		return Schema{}
	}
	return *s.schema
}

func (s *ResultSet) Entries() []Entry {
	s.Lock()
	defer s.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Sources lists the artifact names of the entries.
func (s *ResultSet) Sources() []string {
	s.Lock()
	defer s.Unlock()
	return append([]string(nil), s.sources...)
}

// TC returns the reported TC of every entry: the corrected value when the
// run is corrected.
func (s *ResultSet) TC() []float64 {
	s.Lock()
	defer s.Unlock()
	if s.schema == nil {
		return nil
	}
	tc := make([]float64, 0, len(s.entries))
	for i := range s.entries {
		r := &s.entries[i].Record
		if s.schema.Corrected {
			tc = append(tc, r.TCCorrected)
		} else {
			tc = append(tc, r.TC)
		}
	}
	return tc
}

func finite(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}
