// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package artifact

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rditech/tca/event"
	"github.com/rditech/tca/rawlog"
)

const (
	Suffix = "-eventdata.csv"

	ColTime        = "time"
	ColElapsed     = "elapsed-time"
	ColRuntime     = "runtime"
	ColOvenTemp    = "toven"
	ColCO2Pressure = "pco2"
	ColCO2         = "co2"
	ColFlow        = "flow"
	ColExtFlow     = "extflow"
	ColCountdown   = "countdown"
	ColDelta       = "co2-event"
	ColDTC         = "dtc"
	ColReference   = "baseline"
	ColCorrected   = "dtc-baseline"
	ColFit         = "fit"

	// SDSuffix marks the standard deviation companion of an averaged column.
	SDSuffix = "-sd"

	metaSource    = "source"
	metaVolume    = "volume"
	metaSampleCO2 = "sample_co2"
	metaAverage   = "Average datafile"
)

var ErrNoTime = errors.New("artifact: neither elapsed-time nor runtime column")

// Units of the canonical columns.
var Units = map[string]string{
	ColTime:        "hh:mm:ss",
	ColElapsed:     "s",
	ColRuntime:     "s",
	ColOvenTemp:    "degC",
	ColCO2Pressure: "kPa",
	ColCO2:         "ppm",
	ColFlow:        "lpm",
	ColExtFlow:     "lpm",
	ColCountdown:   "s",
	ColDelta:       "ppm",
	ColDTC:         "ug/min",
	ColReference:   "ug/min",
	ColCorrected:   "ug/min",
	ColFit:         "ug/min",
}

// legacyNames maps column names found in files written by older tools,
// normalized by lowerCaseKey, to canonical names.
var legacyNames = map[string]string{
	"time":           ColTime,
	"daytime":        ColTime,
	"elapsedtime":    ColElapsed,
	"elapsed":        ColElapsed,
	"runtime":        ColRuntime,
	"toven":          ColOvenTemp,
	"pco2":           ColCO2Pressure,
	"co2cellp":       ColCO2Pressure,
	"co2":            ColCO2,
	"flow":           ColFlow,
	"flowrate":       ColFlow,
	"extflow":        ColExtFlow,
	"countdown":      ColCountdown,
	"cyclecountdown": ColCountdown,
	"co2event":       ColDelta,
	"dtc":            ColDTC,
	"baseline":       ColReference,
	"dtcbaseline":    ColCorrected,
	"fit":            ColFit,
}

func lowerCaseKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.':
			return -1
		}
		return r
	}, strings.ToLower(name))
}

// CanonicalName maps a column name of any artifact generation to its
// canonical form. Unknown names are returned trimmed.
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, SDSuffix) {
		return CanonicalName(name[:len(name)-len(SDSuffix)]) + SDSuffix
	}
	if c, ok := legacyNames[lowerCaseKey(name)]; ok {
		return c
	}
	return name
}

// FileName is the artifact name of an event starting at daytime on date.
func FileName(date, daytime string) string {
	hhmm := strings.ReplaceAll(daytime, ":", "")
	if len(hhmm) > 4 {
		hhmm = hhmm[:4]
	}
	return date + "-" + hhmm + Suffix
}

// Encode lays an event curve out as a table. Raw instrument values keep
// their full precision, derived values are written with three decimals.
func Encode(c *event.Curve) *Table {
	t := &Table{Name: c.Name}
	if c.Source != "" {
		t.Meta = append(t.Meta, Meta{metaSource, c.Source})
	}
	if !math.IsNaN(c.Volume) {
		t.Meta = append(t.Meta, Meta{metaVolume, FormatFloat(c.Volume, -1)})
	}
	if !math.IsNaN(c.SampleCO2) {
		t.Meta = append(t.Meta, Meta{metaSampleCO2, FormatFloat(c.SampleCO2, 3)})
	}

	type column struct {
		name     string
		values   []float64
		decimals int
	}
	columns := []column{
		{ColElapsed, c.Elapsed, -1},
		{ColRuntime, c.Runtime, -1},
		{ColOvenTemp, c.OvenTemp, -1},
		{ColCO2Pressure, c.CO2Pressure, -1},
		{ColCO2, c.CO2, -1},
		{ColFlow, c.Flow, -1},
		{ColExtFlow, c.ExtFlow, -1},
		{ColCountdown, c.Countdown, -1},
		{ColDelta, c.Delta, 3},
		{ColDTC, c.DTC, 3},
	}
	if c.Corrected() {
		columns = append(columns,
			column{ColReference, c.Reference, 3},
			column{ColCorrected, c.DTCCorrected, 3},
		)
	}
	if c.Fitted != nil {
		columns = append(columns, column{ColFit, c.Fitted, 3})
	}

	t.Columns = append(t.Columns, ColTime)
	t.Units = append(t.Units, Units[ColTime])
	for _, col := range columns {
		t.Columns = append(t.Columns, col.name)
		t.Units = append(t.Units, Units[col.name])
	}

	t.Rows = make([][]string, c.Len())
	for r := range t.Rows {
		row := make([]string, 0, len(t.Columns))
		row = append(row, c.Daytime[r])
		for _, col := range columns {
			v := math.NaN()
			if r < len(col.values) {
				v = col.values[r]
			}
			row = append(row, FormatFloat(v, col.decimals))
		}
		t.Rows[r] = row
	}
	return t
}

// Decode reads an event curve back from a table. Older files without an
// elapsed-time column have it derived from the runtime; absent signal
// columns read as zero. Averaged files decode to their mean columns.
func Decode(t *Table) (*event.Curve, error) {
	for i := range t.Columns {
		t.Columns[i] = CanonicalName(t.Columns[i])
	}

	c := &event.Curve{
		Name:      t.Name,
		Volume:    math.NaN(),
		SampleCO2: math.NaN(),
	}
	if v, ok := t.Get(metaSource); ok {
		c.Source = v
	} else if v, ok := t.Get(metaAverage); ok {
		c.Source = v
	}
	var err error
	if v, ok := t.Get(metaVolume); ok {
		if c.Volume, err = ParseFloat(v); err != nil {
			return nil, fmt.Errorf("artifact: bad volume %q: %w", v, err)
		}
	}
	if v, ok := t.Get(metaSampleCO2); ok {
		if c.SampleCO2, err = ParseFloat(v); err != nil {
			return nil, fmt.Errorf("artifact: bad sample_co2 %q: %w", v, err)
		}
	}

	n := len(t.Rows)
	floats := func(name string, required bool) ([]float64, error) {
		if !t.Has(name) {
			if required {
				return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
			}
			return make([]float64, n), nil
		}
		return t.Floats(name)
	}
	optional := func(name string) ([]float64, error) {
		if !t.Has(name) {
			return nil, nil
		}
		return t.Floats(name)
	}

	if c.Daytime, err = t.Strings(ColTime); err != nil {
		c.Daytime = make([]string, n)
	}

	fields := []struct {
		name     string
		dst      *[]float64
		required bool
	}{
		{ColRuntime, &c.Runtime, false},
		{ColOvenTemp, &c.OvenTemp, false},
		{ColCO2Pressure, &c.CO2Pressure, false},
		{ColCO2, &c.CO2, false},
		{ColFlow, &c.Flow, false},
		{ColExtFlow, &c.ExtFlow, false},
		{ColCountdown, &c.Countdown, false},
		{ColDelta, &c.Delta, false},
		{ColDTC, &c.DTC, true},
	}
	for _, f := range fields {
		if *f.dst, err = floats(f.name, f.required); err != nil {
			return nil, err
		}
	}

	switch {
	case t.Has(ColElapsed):
		if c.Elapsed, err = t.Floats(ColElapsed); err != nil {
			return nil, err
		}
	case t.Has(ColRuntime):
		c.Elapsed = make([]float64, n)
		for r := range c.Elapsed {
			c.Elapsed[r] = c.Runtime[r] - c.Runtime[0]
		}
	default:
		return nil, ErrNoTime
	}

	if c.Reference, err = optional(ColReference); err != nil {
		return nil, err
	}
	if c.DTCCorrected, err = optional(ColCorrected); err != nil {
		return nil, err
	}
	if c.Fitted, err = optional(ColFit); err != nil {
		return nil, err
	}
	return c, nil
}

func Write(w io.Writer, c *event.Curve) error {
	return Encode(c).Write(w)
}

func Read(r io.Reader) (*event.Curve, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	return Decode(t)
}

// Save writes the curve into dir under its name and returns the path.
func Save(dir string, c *event.Curve) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, c.Name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Write(f, c); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func Load(path string) (*event.Curve, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadReference loads the zero reference curve. An empty path or a missing
// file yields a nil curve without error.
func LoadReference(path string) (*event.Curve, error) {
	if path == "" {
		return nil, nil
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return c, err
}

// EventDate extracts the date prefix of an artifact name, or
// rawlog.UnknownDate.
func EventDate(name string) string {
	if len(name) >= len(rawlog.DateLayout) {
		date := name[:len(rawlog.DateLayout)]
		if _, err := time.Parse(rawlog.DateLayout, date); err == nil {
			return date
		}
	}
	return rawlog.UnknownDate
}
