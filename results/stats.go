// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package results

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stat describes one result column over the run. Missing values are
// skipped; a column without values is all NaN.
type Stat struct {
	Column string
	Mean   float64
	Std    float64
	Median float64
	Max    float64
	Min    float64
	N      int
}

func (s Stat) ThreeStd() float64 {
	return 3 * s.Std
}

// Describe computes the statistics of v.
func Describe(name string, v []float64) Stat {
	v = finite(v)
	st := Stat{Column: name, N: len(v)}
	nan := math.NaN()
	switch len(v) {
	case 0:
		st.Mean, st.Std, st.Median, st.Max, st.Min = nan, nan, nan, nan, nan
		return st
	case 1:
		st.Std = nan
	default:
		st.Std = stat.StdDev(v, nil)
	}
	st.Mean = stat.Mean(v, nil)
	st.Max = floats.Max(v)
	st.Min = floats.Min(v)
	st.Median = median(v)
	return st
}

// median averages the two middle values of an even count.
func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Stats describes every numeric result column.
func (s *ResultSet) Stats() []Stat {
	s.Lock()
	defer s.Unlock()
	if s.schema == nil {
		return nil
	}

	cols := s.schema.Columns()[labelColumns:]
	values := make([][]float64, len(cols))
	for i := range s.entries {
		for c, v := range s.schema.values(&s.entries[i]) {
			values[c] = append(values[c], v)
		}
	}

	stats := make([]Stat, len(cols))
	for c, col := range cols {
		stats[c] = Describe(col.Name, values[c])
	}
	return stats
}
