// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package rawlog

import "strings"

// Column identifies a canonical raw log column.
type Column int

const (
	Daytime Column = iota
	Runtime
	OvenTemp
	CO2Pressure
	CO2
	Flow
	ExtFlow
	Countdown
	StatusByte
	numColumns
)

var columnNames = [numColumns]string{
	"daytime",
	"runtime",
	"toven",
	"pco2",
	"co2",
	"flow",
	"extflow",
	"countdown",
	"status",
}

func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return "unknown"
	}
	return columnNames[c]
}

// headerAliases maps normalized header names written by the different
// logger firmware generations onto canonical columns.
var headerAliases = map[string]Column{
	"daytime":        Daytime,
	"time":           Runtime,
	"runtime":        Runtime,
	"toven":          OvenTemp,
	"pco2":           CO2Pressure,
	"co2cellp":       CO2Pressure,
	"co2":            CO2,
	"flow":           Flow,
	"flowrate":       Flow,
	"extflow":        ExtFlow,
	"countdown":      Countdown,
	"cyclecountdown": Countdown,
	"status":         StatusByte,
	"statusbyte":     StatusByte,
	"sb":             StatusByte,
}

var requiredColumns = []Column{Daytime, Runtime, CO2, Flow}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", ".", "", "_", "", "-", "").Replace(name)
}

// LookupColumn resolves a raw header name to its canonical column.
func LookupColumn(name string) (Column, bool) {
	c, ok := headerAliases[normalizeHeader(name)]
	return c, ok
}
