// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/event"
	"github.com/rditech/tca/logging"
	"github.com/rditech/tca/publish"
	"github.com/rditech/tca/rawlog"
	"github.com/rditech/tca/results"
)

// rawLog writes a log of 600 one second rows with the oven switched on at
// 100 s and 300 s and a 10 ppm CO2 bump 5 s after each switch.
func rawLog(status bool) string {
	var b strings.Builder
	b.WriteString("2019-07-01\n")
	if status {
		b.WriteString("Daytime\tTime\tT Oven\tCO2\tFlowrate\tStatus\n")
		b.WriteString("hh:mm:ss\ts\tdegC\tppm\tlpm\thex\n")
	} else {
		b.WriteString("Daytime\tTime\tT Oven\tCO2\tFlowrate\n")
		b.WriteString("hh:mm:ss\ts\tdegC\tppm\tlpm\n")
	}
	for i := 0; i < 600; i++ {
		co2, oven, sb := 400.0, 25.0, "00"
		for _, start := range []int{100, 300} {
			if i >= start && i < start+30 {
				oven, sb = 800, "10"
			}
			if i >= start+5 && i < start+15 {
				co2 = 410
			}
		}
		fmt.Fprintf(&b, "10:%02d:%02d\t%d\t%g\t%g\t1", i/60, i%60, i, oven, co2)
		if status {
			b.WriteString("\t" + sb)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeLog(t *testing.T, status bool) string {
	path := filepath.Join(t.TempDir(), "2019-07-01.txt")
	require.NoError(t, os.WriteFile(path, []byte(rawLog(status)), 0644))
	return path
}

func testAnalyzer() *event.Analyzer {
	return &event.Analyzer{DataWindow: 120, IntegralWindow: 65, BaselineWindow: 5, Logger: logging.Discard()}
}

type recorder struct {
	sync.Mutex
	msgs []*publish.Msg
	err  error
}

func (r *recorder) Publish(_ context.Context, msg *publish.Msg) error {
	r.Lock()
	defer r.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func newProcessor(a *event.Analyzer, s Settings) *Processor {
	return &Processor{
		Analyzer:  a,
		Segmenter: event.OvenState{Window: a.DataWindow},
		Ops:       StandardOps(a, s),
		Results:   results.New(),
		Logger:    logging.Discard(),
	}
}

func TestProcess(t *testing.T) {
	path := writeLog(t, true)
	out := t.TempDir()
	pub := &recorder{}
	a := testAnalyzer()
	p := newProcessor(a, Settings{
		EventsDir: filepath.Join(out, "events"),
		PlotDir:   filepath.Join(out, "plots"),
		Publisher: pub,
	})

	report := p.Process(context.Background(), []string{path})
	require.Len(t, report.Files, 1)
	f := report.Files[0]
	require.NoError(t, f.Err)
	assert.Equal(t, 600, f.Samples)
	assert.Equal(t, 2, f.Events)
	require.Len(t, f.Outcomes, 2)
	for _, o := range f.Outcomes {
		assert.Equal(t, Success, o.Kind)
		assert.NoError(t, o.Err)
	}
	assert.Equal(t, map[Kind]int{Success: 2}, report.Counts())
	assert.Contains(t, report.String(), "success=2")

	require.Equal(t, 2, p.Results.Len())
	entries := p.Results.Entries()
	assert.Equal(t, "2019-07-01-1001-eventdata.csv", entries[0].Name)
	assert.Equal(t, "2019-07-01-1005-eventdata.csv", entries[1].Name)
	for _, e := range entries {
		assert.Equal(t, 400.0, e.Record.Baseline)
		assert.Equal(t, 800.0, e.Record.MaxOvenTemp)
		assert.InDelta(t, 100*event.PPMToUG/60, e.Record.TC, 1e-9)
		assert.True(t, e.Record.HasVolume())
	}

	saved, err := artifact.Load(filepath.Join(out, "events", entries[1].Name))
	require.NoError(t, err)
	assert.Equal(t, entries[1].Curve.Len(), saved.Len())

	_, err = os.Stat(filepath.Join(out, "plots", PlotName(entries[0].Name)))
	assert.NoError(t, err)

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, entries[0].Name, pub.msgs[0].Metadata["name"])
	assert.NotEmpty(t, pub.msgs[0].Payload)
}

func TestProcessPublishFailure(t *testing.T) {
	path := writeLog(t, true)
	p := newProcessor(testAnalyzer(), Settings{Publisher: &recorder{err: errors.New("down")}})

	report := p.Process(context.Background(), []string{path})
	assert.Equal(t, map[Kind]int{Success: 2}, report.Counts())
	assert.Equal(t, 2, p.Results.Len())
}

func TestProcessSelection(t *testing.T) {
	l, err := rawlog.Parse(strings.NewReader(rawLog(true)))
	require.NoError(t, err)
	p := newProcessor(testAnalyzer(), Settings{})

	report := p.ProcessLog(context.Background(), l, -1, 5)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, 1, report.Outcomes[0].Event)
	assert.Equal(t, Success, report.Outcomes[0].Kind)
	assert.Equal(t, OutOfRange, report.Outcomes[1].Kind)
	assert.ErrorIs(t, report.Outcomes[1].Err, event.ErrOutOfRange)
	assert.Equal(t, 1, p.Results.Len())
}

func TestProcessFitFailure(t *testing.T) {
	l, err := rawlog.Parse(strings.NewReader(rawLog(true)))
	require.NoError(t, err)
	p := newProcessor(testAnalyzer(), Settings{Peaks: 1, FitWindow: 2})

	report := p.ProcessLog(context.Background(), l)
	require.Len(t, report.Outcomes, 2)
	for _, o := range report.Outcomes {
		assert.Equal(t, FitFailed, o.Kind)
		assert.Error(t, o.Err)
	}
	require.Equal(t, 2, p.Results.Len())
	assert.Equal(t, 1, p.Results.Schema().Peaks)
	assert.True(t, p.Results.Entries()[0].Fit.Failed())
}

func TestProcessCorrection(t *testing.T) {
	l, err := rawlog.Parse(strings.NewReader(rawLog(true)))
	require.NoError(t, err)
	a := testAnalyzer()

	first := newProcessor(a, Settings{})
	first.ProcessLog(context.Background(), l)
	ref := first.Results.Entries()[0].Curve

	p := newProcessor(a, Settings{Reference: ref})
	report := p.ProcessLog(context.Background(), l)
	assert.Equal(t, Success, report.Outcomes[0].Kind)
	for _, e := range p.Results.Entries() {
		assert.InDelta(t, 0, e.Record.TCCorrected, 1e-9)
	}

	short := &event.Curve{Elapsed: []float64{0, 1}, DTC: []float64{0, 0}}
	p = newProcessor(a, Settings{Reference: short})
	report = p.ProcessLog(context.Background(), l)
	for _, o := range report.Outcomes {
		assert.Equal(t, SamplingMismatch, o.Kind)
		assert.ErrorIs(t, o.Err, event.ErrSamplingMismatch)
	}
	assert.Equal(t, 0, p.Results.Len())
}

func TestProcessFileErrors(t *testing.T) {
	p := newProcessor(testAnalyzer(), Settings{})

	report := p.Process(context.Background(), []string{
		filepath.Join(t.TempDir(), "missing.txt"),
		"ftp://host/log.txt",
		writeLog(t, false),
	})
	require.Len(t, report.Files, 3)
	assert.ErrorIs(t, report.Files[0].Err, os.ErrNotExist)
	assert.ErrorIs(t, report.Files[1].Err, ErrBadScheme)
	assert.ErrorIs(t, report.Files[2].Err, event.ErrNoStatus)
	assert.Equal(t, 3, report.FailedFiles())
	assert.Contains(t, report.String(), "no events")

	p.Segmenter = event.CountdownEdge{}
	f := p.ProcessFile(context.Background(), writeLog(t, false))
	assert.NoError(t, f.Err)
	assert.Equal(t, 0, f.Events)
}

func TestProcessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newProcessor(testAnalyzer(), Settings{})
	report := p.Process(ctx, []string{writeLog(t, true)})
	assert.Empty(t, report.Files)
}

func TestOpArray(t *testing.T) {
	var calls []string
	op := func(name string, err error) EventOp {
		return EventOp{Description: name, EventProcessor: func(context.Context, *Job) error {
			calls = append(calls, name)
			return err
		}}
	}
	ops := OpArray{op("first", nil), op("second", event.ErrEmptyBaseline), op("third", nil)}

	err := ops.Run(context.Background(), &Job{})
	assert.ErrorIs(t, err, event.ErrEmptyBaseline)
	assert.True(t, strings.HasPrefix(err.Error(), "second: "))
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, "0) first\n1) second\n2) third", ops.Describe())
}

func TestClassify(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("op: %w", err) }
	assert.Equal(t, OutOfRange, classify(wrap(event.ErrOutOfRange)))
	assert.Equal(t, BaselineFailed, classify(wrap(event.ErrEmptyBaseline)))
	assert.Equal(t, BaselineFailed, classify(wrap(event.ErrBaselineOverlap)))
	assert.Equal(t, SamplingMismatch, classify(wrap(event.ErrSamplingMismatch)))
	assert.Equal(t, Failed, classify(io.ErrUnexpectedEOF))

	assert.True(t, Truncated.Recorded())
	assert.True(t, FitFailed.Recorded())
	assert.False(t, BaselineFailed.Recorded())
	assert.Equal(t, "sampling-mismatch", SamplingMismatch.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestStandardOps(t *testing.T) {
	a := testAnalyzer()
	assert.Len(t, StandardOps(a, Settings{}), 3)
	ops := StandardOps(a, Settings{
		EventsDir: "events",
		Reference: &event.Curve{},
		Peaks:     2,
		PlotDir:   "plots",
		Publisher: &recorder{},
	})
	require.Len(t, ops, 8)
	assert.Equal(t, "multi-Gaussian peak fit", ops[4].GetDescription())
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	w, err := GetWriter(ctx, filepath.Join(dir, "sub", "a.txt"), "")
	require.NoError(t, err)
	_, err = io.WriteString(w, "hello")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, writeAll(ctx, "file://"+filepath.ToSlash(filepath.Join(dir, "sub", "b.txt")), "", []byte("b")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.csv"), nil, 0644))

	names, err := ListResources(ctx, filepath.Join(dir, "sub"), "*.txt", "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sub", "a.txt"), filepath.Join(dir, "sub", "b.txt")}, names)

	names, err = ListResources(ctx, "file://"+filepath.ToSlash(filepath.Join(dir, "sub")), "*.csv", "")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "file://"))

	r, err := GetReader(ctx, names[0], "")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = GetReader(ctx, "file://"+filepath.ToSlash(filepath.Join(dir, "sub", "a.txt")), "")
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	r.Close()

	_, err = ListResources(ctx, "s3://bucket/logs", "*", "")
	assert.ErrorIs(t, err, ErrBadScheme)
	_, err = GetWriter(ctx, "s3://bucket/x", "")
	assert.ErrorIs(t, err, ErrBadScheme)
}

func TestURLHelpers(t *testing.T) {
	assert.Equal(t, "gs://bucket/events/a.csv", JoinURL("gs://bucket/events/", "a.csv"))
	assert.Equal(t, filepath.Join("out", "a.csv"), JoinURL("out", "a.csv"))
	assert.Equal(t, "a.txt", BaseName("gs://bucket/logs/a.txt"))
	assert.Equal(t, "a.txt", BaseName(filepath.Join("logs", "a.txt")))
	assert.Equal(t, "2019-07-01-1000-eventdata.svg", PlotName("2019-07-01-1000-eventdata.csv"))
}

func TestSummarize(t *testing.T) {
	events := filepath.Join(t.TempDir(), "events")
	a := testAnalyzer()
	p := newProcessor(a, Settings{EventsDir: events})
	report := p.Process(context.Background(), []string{writeLog(t, true)})
	require.Equal(t, map[Kind]int{Success: 2}, report.Counts())
	require.NoError(t, os.WriteFile(filepath.Join(events, "2019-07-02-0900"+artifact.Suffix), []byte("broken\n"), 0644))

	ctx := context.Background()
	names, err := ListArtifacts(ctx, events, DateRange{}, "")
	require.NoError(t, err)
	require.Len(t, names, 3)

	set, errs := Summarize(ctx, a, names, "", logging.Discard())
	assert.Len(t, errs, 1)
	require.Equal(t, 2, set.Len())
	for i, e := range set.Entries() {
		want := p.Results.Entries()[i].Record
		assert.Equal(t, "2019-07-01", e.Date)
		assert.Equal(t, want.Daytime, e.Record.Daytime)
		assert.Equal(t, want.Baseline, e.Record.Baseline)
		assert.InDelta(t, want.TC, e.Record.TC, 1e-3)
		assert.InDelta(t, want.SampleVolume, e.Record.SampleVolume, 1e-12)
	}

	names, err = ListArtifacts(ctx, events, DateRange{From: "2019-07-02"}, "")
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestDateRange(t *testing.T) {
	name := "2019-07-01-1000" + artifact.Suffix
	assert.True(t, DateRange{}.Contains(name))
	assert.True(t, DateRange{From: "2019-07-01", To: "2019-07-01"}.Contains(name))
	assert.False(t, DateRange{From: "2019-07-02"}.Contains(name))
	assert.False(t, DateRange{To: "2019-06-30"}.Contains(name))
	assert.True(t, DateRange{}.Contains("zero.csv"))
	assert.False(t, DateRange{From: "2019-01-01"}.Contains("zero.csv"))
}
