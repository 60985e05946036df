// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package artifact reads and writes the comma separated files produced by
// the extraction: event curves, average curves and zero references.
package artifact

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Missing is how an absent value is written.
const Missing = "-"

var (
	ErrEmptyFile     = errors.New("artifact: empty file")
	ErrMissingHeader = errors.New("artifact: missing column or unit header")
	ErrNoColumn      = errors.New("artifact: no such column")
)

type Meta struct {
	Key   string
	Value string
}

// Table is a file name line, a preamble of "key: value" lines, a column name
// row, a units row and the data rows.
type Table struct {
	Name    string
	Meta    []Meta
	Columns []string
	Units   []string
	Rows    [][]string
}

func (t *Table) Get(key string) (string, bool) {
	for _, m := range t.Meta {
		if strings.EqualFold(m.Key, key) {
			return m.Value, true
		}
	}
	return "", false
}

func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Strings returns a column as text.
func (t *Table) Strings(column string) ([]string, error) {
	i := t.Index(column)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, column)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Floats returns a numeric column. Missing values read as NaN.
func (t *Table) Floats(column string) ([]float64, error) {
	text, err := t.Strings(column)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(text))
	for r, s := range text {
		v, err := ParseFloat(s)
		if err != nil {
			return nil, fmt.Errorf("artifact: row %d column %s: %w", r+1, column, err)
		}
		out[r] = v
	}
	return out, nil
}

// AddColumn appends a column, filling it with values.
func (t *Table) AddColumn(name, unit string, values []string) {
	t.Columns = append(t.Columns, name)
	t.Units = append(t.Units, unit)
	for r := range t.Rows {
		v := Missing
		if r < len(values) {
			v = values[r]
		}
		t.Rows[r] = append(t.Rows[r], v)
	}
}

func (t *Table) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, t.Name)
	for _, m := range t.Meta {
		fmt.Fprintf(bw, "%s: %s\n", m.Key, m.Value)
	}

	cw := csv.NewWriter(bw)
	cw.Write(t.Columns)
	cw.Write(t.Units)
	cw.WriteAll(t.Rows)
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadTable reads a table. Fields may be separated by ", " as written by
// older tools.
func ReadTable(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)

	name, err := readLine(br)
	if err == io.EOF && name == "" {
		return nil, ErrEmptyFile
	} else if err != nil && err != io.EOF {
		return nil, err
	}
	t := &Table{Name: name}

	var header string
	for {
		line, err := readLine(br)
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, ErrMissingHeader
			}
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m, ok := parseMeta(line); ok {
			t.Meta = append(t.Meta, m)
			continue
		}
		header = line
		break
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(header+"\n"), br))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	t.Columns, err = cr.Read()
	if err != nil {
		return nil, ErrMissingHeader
	}
	t.Units, err = cr.Read()
	if err != nil {
		return nil, ErrMissingHeader
	}
	for i := range t.Columns {
		t.Columns[i] = strings.TrimSpace(t.Columns[i])
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < len(t.Columns) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("artifact: line %d has %d of %d fields", line, len(row), len(t.Columns))
		}
		t.Rows = append(t.Rows, row[:len(t.Columns)])
	}
	return t, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

// parseMeta recognizes "key: value" preamble lines. Column headers always
// carry a comma before any colon.
func parseMeta(line string) (Meta, bool) {
	i := strings.Index(line, ":")
	if i <= 0 || strings.Contains(line[:i], ",") {
		return Meta{}, false
	}
	return Meta{
		Key:   strings.TrimSpace(line[:i]),
		Value: strings.TrimSpace(line[i+1:]),
	}, true
}

// FormatFloat writes v with the given number of decimals, or with the
// shortest exact representation when decimals is negative.
func FormatFloat(v float64, decimals int) string {
	if math.IsNaN(v) {
		return Missing
	}
	if decimals < 0 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case Missing, "", "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
