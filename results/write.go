// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package results

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rditech/tca/artifact"
)

// WriteSummary writes the statistics block, one row per numeric column with
// its unit, followed by the result table.
// Preamble lines are written first.
func (s *ResultSet) WriteSummary(w io.Writer, preamble ...string) error {
	if s.Len() == 0 {
		return ErrEmpty
	}
	stats := s.Stats()
	schema := s.Schema()
	entries := s.Entries()

	bw := bufio.NewWriter(w)
	for _, line := range preamble {
		fmt.Fprintln(bw, line)
	}
	fmt.Fprintf(bw, "Source files: %s\n\n", strings.Join(s.Sources(), " "))

	cols := schema.Columns()
	units := make(map[string]string, len(cols))
	for _, c := range cols {
		units[c.Name] = c.Unit
	}

	cw := csv.NewWriter(bw)
	cw.Write([]string{"", "unit", "mean", "std", "3*std", "median", "max", "min"})
	for _, st := range stats {
		cw.Write([]string{
			st.Column,
			units[st.Column],
			artifact.FormatFloat(st.Mean, 2),
			artifact.FormatFloat(st.Std, 2),
			artifact.FormatFloat(st.ThreeStd(), 2),
			artifact.FormatFloat(st.Median, 2),
			artifact.FormatFloat(st.Max, 2),
			artifact.FormatFloat(st.Min, 2),
		})
	}
	cw.Flush()
	fmt.Fprintln(bw)

	names := make([]string, len(cols))
	header := make([]string, len(cols))
	for i, c := range cols {
		names[i], header[i] = c.Name, c.Unit
	}
	cw.Write(names)
	cw.Write(header)
	for i := range entries {
		cw.Write(schema.row(&entries[i]))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFitCoefficients writes one row per fitted event: date, time and
// sample volume, then area, center and width with their errors for every
// peak, then R².
func (s *ResultSet) WriteFitCoefficients(w io.Writer) error {
	schema := s.Schema()
	if schema.Peaks == 0 {
		return fmt.Errorf("results: run has no fit")
	}

	names := []string{"date", "time", "volume"}
	units := []string{"yyyy-mm-dd", "hh:mm:ss", "m3"}
	for k := 0; k < schema.Peaks; k++ {
		for _, p := range []struct{ name, unit string }{{"A", "ug-C"}, {"xc", "s"}, {"sigma", "s"}} {
			name := fmt.Sprintf("%s%d", p.name, k)
			names = append(names, name, name+"-err")
			units = append(units, p.unit, p.unit)
		}
	}
	names = append(names, "r2")
	units = append(units, "-")

	cw := csv.NewWriter(w)
	cw.Write(names)
	cw.Write(units)
	for _, e := range s.Entries() {
		row := []string{e.Date, e.Record.Daytime, artifact.FormatFloat(e.Record.SampleVolume, -1)}
		for _, p := range e.Fit.Peaks {
			for _, v := range []float64{p.Area, p.AreaErr, p.Center, p.CenterErr, p.Width, p.WidthErr} {
				row = append(row, artifact.FormatFloat(v, 4))
			}
		}
		row = append(row, artifact.FormatFloat(e.Fit.RSquared, 4))
		cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}
