// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package results

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
)

func record(daytime string, tc float64) event.Record {
	nan := math.NaN()
	return event.Record{
		Runtime:       1000,
		Daytime:       daytime,
		Baseline:      400,
		MaxOvenTemp:   850,
		TC:            tc,
		TCCorrected:   nan,
		SampleVolume:  nan,
		SampleCO2:     nan,
		Concentration: nan,
	}
}

func curve(dtc ...float64) *event.Curve {
	c := &event.Curve{Volume: math.NaN(), SampleCO2: math.NaN()}
	for i, v := range dtc {
		c.Elapsed = append(c.Elapsed, float64(i))
		c.OvenTemp = append(c.OvenTemp, 800)
		c.CO2Pressure = append(c.CO2Pressure, 98)
		c.CO2 = append(c.CO2, 400+v)
		c.Flow = append(c.Flow, 1)
		c.Countdown = append(c.Countdown, 0)
		c.Delta = append(c.Delta, v)
		c.DTC = append(c.DTC, v)
	}
	return c
}

func filled(t *testing.T) *ResultSet {
	s := New()
	for i, tc := range []float64{1, 2, 3, 10} {
		require.NoError(t, s.Append(Entry{
			Name:   artifact.FileName("2019-07-01", []string{"10:00", "11:00", "12:00", "13:00"}[i]),
			Date:   "2019-07-01",
			Record: record([]string{"10:00:00", "11:00:00", "12:00:00", "13:00:00"}[i], tc),
			Curve:  curve(0, tc, 2*tc),
		}))
	}
	return s
}

func TestDescribe(t *testing.T) {
	st := Describe("tc", []float64{1, 2, 3, 10, math.NaN()})
	assert.Equal(t, 4, st.N)
	assert.Equal(t, 4.0, st.Mean)
	assert.InDelta(t, math.Sqrt(50.0/3), st.Std, 1e-12)
	assert.InDelta(t, 3*math.Sqrt(50.0/3), st.ThreeStd(), 1e-12)
	assert.Equal(t, 2.5, st.Median)
	assert.Equal(t, 10.0, st.Max)
	assert.Equal(t, 1.0, st.Min)

	st = Describe("x", []float64{3, 1, 2})
	assert.Equal(t, 2.0, st.Median)

	st = Describe("one", []float64{5})
	assert.Equal(t, 5.0, st.Mean)
	assert.True(t, math.IsNaN(st.Std))

	st = Describe("none", []float64{math.NaN()})
	assert.Equal(t, 0, st.N)
	assert.True(t, math.IsNaN(st.Mean))
}

func TestAppendSchema(t *testing.T) {
	s := filled(t)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, Schema{}, s.Schema())
	assert.Equal(t, []float64{1, 2, 3, 10}, s.TC())

	corrected := record("14:00:00", 5)
	corrected.TCCorrected = 4
	err := s.Append(Entry{Name: "x", Record: corrected})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Equal(t, 4, s.Len())

	withFit := record("14:00:00", 5)
	err = s.Append(Entry{Name: "y", Record: withFit, Fit: fit.Failed(2)})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestSchemaColumns(t *testing.T) {
	names := func(s Schema) []string {
		var out []string
		for _, c := range s.Columns() {
			out = append(out, c.Name)
		}
		return out
	}
	assert.Equal(t, []string{"date", "time", "runtime", "co2-base", "maxtemp", "tc"}, names(Schema{}))
	assert.Equal(t, []string{
		"date", "time", "runtime", "co2-base", "maxtemp", "tc", "tc-baseline",
		"volume", "sample-co2", "concentration", "A0", "xc0", "sigma0", "r2",
	}, names(Schema{Corrected: true, Volume: true, Peaks: 1}))
}

func TestStats(t *testing.T) {
	stats := filled(t).Stats()
	require.Len(t, stats, 3)
	assert.Equal(t, "co2-base", stats[0].Column)
	assert.Equal(t, 400.0, stats[0].Mean)
	assert.Equal(t, 0.0, stats[0].Std)
	assert.Equal(t, "tc", stats[2].Column)
	assert.Equal(t, 4.0, stats[2].Mean)
	assert.Equal(t, 2.5, stats[2].Median)

	assert.Nil(t, New().Stats())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, filled(t).WriteSummary(&buf, "Points used for average file:zero.csv, tmax=65"))

	want := "Points used for average file:zero.csv, tmax=65\n" +
		"Source files: 2019-07-01-1000-eventdata.csv 2019-07-01-1100-eventdata.csv " +
		"2019-07-01-1200-eventdata.csv 2019-07-01-1300-eventdata.csv\n" +
		"\n" +
		",unit,mean,std,3*std,median,max,min\n" +
		"co2-base,ppm,400.00,0.00,0.00,400.00,400.00,400.00\n" +
		"maxtemp,degC,850.00,0.00,0.00,850.00,850.00,850.00\n" +
		"tc,ug-C,4.00,4.08,12.25,2.50,10.00,1.00\n" +
		"\n" +
		"date,time,runtime,co2-base,maxtemp,tc\n" +
		"yyyy-mm-dd,hh:mm:ss,s,ppm,degC,ug-C\n" +
		"2019-07-01,10:00:00,1000,400.000,850.000,1.000\n" +
		"2019-07-01,11:00:00,1000,400.000,850.000,2.000\n" +
		"2019-07-01,12:00:00,1000,400.000,850.000,3.000\n" +
		"2019-07-01,13:00:00,1000,400.000,850.000,10.000\n"
	assert.Equal(t, want, buf.String())

	assert.ErrorIs(t, New().WriteSummary(&buf), ErrEmpty)
}

func TestAverage(t *testing.T) {
	s := filled(t)
	longer := curve(0, 4, 8, 1)
	require.NoError(t, s.Append(Entry{Name: "e", Date: "2019-07-02", Record: record("09:00:00", 4), Curve: longer}))

	avg, err := s.Average()
	require.NoError(t, err)
	assert.Equal(t, 4, avg.Len())
	assert.NotContains(t, avg.Columns, artifact.ColCorrected)
	assert.InDeltaSlice(t, []float64{0, 4, 8, 1}, avg.Mean[artifact.ColDTC], 1e-12)
	assert.InDelta(t, math.Sqrt(12.5), avg.Std[artifact.ColDTC][1], 1e-12)
	assert.True(t, math.IsNaN(avg.Std[artifact.ColDTC][3]))
	assert.Equal(t, []float64{0, 1, 2, 3}, avg.Mean[artifact.ColElapsed])

	var buf bytes.Buffer
	require.NoError(t, s.WriteAverage(&buf, "zero.csv"))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "zero.csv", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Average datafile: 5 entries:"))
	assert.True(t, strings.HasPrefix(lines[2], "elapsed-time,elapsed-time-sd,toven,toven-sd"))

	ref, err := artifact.Read(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 4, 8, 1}, ref.DTC, 1e-3)

	_, err = New().Average()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestWriteFitCoefficients(t *testing.T) {
	s := New()
	rec := record("10:00:00", 5)
	rec.SampleVolume = 0.002
	rec.SampleCO2 = 410
	rec.Concentration = 2500
	result := &fit.Result{
		Params:   []float64{300, 20, 4},
		RSquared: 0.9995,
		Peaks:    []fit.Peak{{Area: 5, AreaErr: 0.01, Center: 20, CenterErr: 0.02, Width: 4, WidthErr: 0.03}},
	}
	require.NoError(t, s.Append(Entry{Name: "a", Date: "2019-07-01", Record: rec, Fit: result}))

	failed := record("11:00:00", 6)
	failed.SampleVolume = 0.001
	failed.SampleCO2 = 400
	failed.Concentration = 6000
	require.NoError(t, s.Append(Entry{Name: "b", Date: "2019-07-01", Record: failed, Fit: fit.Failed(1)}))

	var buf bytes.Buffer
	require.NoError(t, s.WriteFitCoefficients(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date,time,volume,A0,A0-err,xc0,xc0-err,sigma0,sigma0-err,r2", lines[0])
	assert.Equal(t, "2019-07-01,10:00:00,0.002,5.0000,0.0100,20.0000,0.0200,4.0000,0.0300,0.9995", lines[2])
	assert.Equal(t, "2019-07-01,11:00:00,0.001,-,-,-,-,-,-,-", lines[3])

	assert.Error(t, filled(t).WriteFitCoefficients(&buf))
}

func TestHistogram(t *testing.T) {
	h, err := filled(t).Histogram(9)
	require.NoError(t, err)
	assert.Equal(t, int64(4), h.Entries())
	assert.Len(t, h.Binning.Bins, 10)
	assert.Equal(t, 0.5, h.XMin())
	assert.Equal(t, 10.5, h.XMax())

	_, err = New().Histogram(10)
	assert.ErrorIs(t, err, ErrEmpty)
}
