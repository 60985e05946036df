// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package results

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/event"
)

// averaged lists the curve columns of an average event.
var averaged = []struct {
	name  string
	value func(c *event.Curve) []float64
}{
	{artifact.ColElapsed, func(c *event.Curve) []float64 { return c.Elapsed }},
	{artifact.ColOvenTemp, func(c *event.Curve) []float64 { return c.OvenTemp }},
	{artifact.ColCO2Pressure, func(c *event.Curve) []float64 { return c.CO2Pressure }},
	{artifact.ColCO2, func(c *event.Curve) []float64 { return c.CO2 }},
	{artifact.ColFlow, func(c *event.Curve) []float64 { return c.Flow }},
	{artifact.ColCountdown, func(c *event.Curve) []float64 { return c.Countdown }},
	{artifact.ColDelta, func(c *event.Curve) []float64 { return c.Delta }},
	{artifact.ColDTC, func(c *event.Curve) []float64 { return c.DTC }},
	{artifact.ColCorrected, func(c *event.Curve) []float64 { return c.DTCCorrected }},
}

// Average is the row by row mean and standard deviation of the event
// curves of a run.
type Average struct {
	Columns []string
	Mean    map[string][]float64
	Std     map[string][]float64
	Sources []string
}

func (a *Average) Len() int {
	return len(a.Mean[artifact.ColElapsed])
}

// Average aligns the curves of every entry by row index. Rows present in
// only some curves are averaged over those curves.
func (s *ResultSet) Average() (*Average, error) {
	s.Lock()
	defer s.Unlock()

	var curves []*event.Curve
	avg := &Average{
		Mean: make(map[string][]float64),
		Std:  make(map[string][]float64),
	}
	for i := range s.entries {
		if c := s.entries[i].Curve; c != nil {
			curves = append(curves, c)
			avg.Sources = append(avg.Sources, s.entries[i].Name)
		}
	}
	if len(curves) == 0 {
		return nil, ErrEmpty
	}

	rows := 0
	for _, c := range curves {
		if c.Len() > rows {
			rows = c.Len()
		}
	}

	for _, col := range averaged {
		if col.name == artifact.ColCorrected && !s.schema.Corrected {
			continue
		}
		mean := make([]float64, rows)
		std := make([]float64, rows)
		for r := 0; r < rows; r++ {
			var v []float64
			for _, c := range curves {
				if values := col.value(c); r < len(values) && !math.IsNaN(values[r]) {
					v = append(v, values[r])
				}
			}
			mean[r], std[r] = math.NaN(), math.NaN()
			if len(v) > 0 {
				mean[r] = stat.Mean(v, nil)
			}
			if len(v) > 1 {
				std[r] = stat.StdDev(v, nil)
			}
		}
		avg.Columns = append(avg.Columns, col.name)
		avg.Mean[col.name] = mean
		avg.Std[col.name] = std
	}
	return avg, nil
}

// Table lays the average out as an artifact: each column followed by its
// standard deviation.
func (a *Average) Table(name string) *artifact.Table {
	t := &artifact.Table{
		Name: name,
		Meta: []artifact.Meta{{
			Key:   "Average datafile",
			Value: fmt.Sprintf("%d entries:%s", len(a.Sources), strings.Join(a.Sources, " ")),
		}},
	}
	for _, col := range a.Columns {
		unit := artifact.Units[col]
		t.Columns = append(t.Columns, col, col+artifact.SDSuffix)
		t.Units = append(t.Units, unit, unit)
	}
	t.Rows = make([][]string, a.Len())
	for r := range t.Rows {
		row := make([]string, 0, len(t.Columns))
		for _, col := range a.Columns {
			row = append(row,
				artifact.FormatFloat(a.Mean[col][r], 3),
				artifact.FormatFloat(a.Std[col][r], 3),
			)
		}
		t.Rows[r] = row
	}
	return t
}

// WriteAverage writes the average event file, usable as zero reference.
func (s *ResultSet) WriteAverage(w io.Writer, name string) error {
	avg, err := s.Average()
	if err != nil {
		return err
	}
	return avg.Table(name).Write(w)
}
