// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/data"
	"github.com/rditech/tca/fit"
	"github.com/rditech/tca/plot"
	"github.com/rditech/tca/publish"
	"github.com/rditech/tca/results"
)

var extractCmd = &cobra.Command{
	Use:   "extract [raw-log ...]",
	Short: "Extract and quantify the events of raw logs",
	Long: `Segments each raw log into events and writes one event file per event,
then the summary of all events processed. Without arguments every log
matching data_pattern under data_path is processed.`,
	Example: `  tca extract logs/2019-07-01.txt
  tca extract --last gs://bucket/logs/2019-07-01.txt
  tca extract --event 0 --event 3 --peaks 2 logs/2019-07-01.txt`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntSlice("event", nil, "event numbers to process, negative numbers count from the last event")
	extractCmd.Flags().Bool("last", false, "process the last event of each log only")
	extractCmd.Flags().String("reference", "", "zero reference event file (default: baseline_path/baseline_file)")
	extractCmd.Flags().Int("peaks", -1, "number of Gaussian peaks to fit, 0 to disable (default: analysis.peak_count)")
	extractCmd.Flags().Bool("plot", false, "render event plots")
	extractCmd.Flags().Bool("no-summary", false, "do not write the summary")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	creds := credentials()

	urls := args
	if len(urls) == 0 {
		var err error
		urls, err = data.ListResources(ctx, cfg.DataPath, cfg.DataPattern, creds)
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("no raw logs matching %s in %s", cfg.DataPattern, cfg.DataPath)
		}
	}

	only, _ := cmd.Flags().GetIntSlice("event")
	if last, _ := cmd.Flags().GetBool("last"); last {
		only = []int{-1}
	}

	refPath, _ := cmd.Flags().GetString("reference")
	if refPath == "" {
		refPath = cfg.ReferencePath()
	}
	ref, err := artifact.LoadReference(refPath)
	if err != nil {
		return fmt.Errorf("loading zero reference: %w", err)
	}
	if ref == nil && refPath != "" {
		logger.Warn("zero reference not found, results are not corrected", "path", refPath)
	}

	peaks, _ := cmd.Flags().GetInt("peaks")
	if peaks < 0 {
		peaks = cfg.Analysis.PeakCount
	}
	if peaks > fit.MaxPeaks {
		return fmt.Errorf("at most %d peaks can be fitted", fit.MaxPeaks)
	}
	plotDir := cfg.PlotPath()
	if doPlot, _ := cmd.Flags().GetBool("plot"); doPlot && plotDir == "" {
		plotDir = data.JoinURL(cfg.EventsPath, "graph")
	}

	settings := data.Settings{
		EventsDir:   cfg.EventsPath,
		Credentials: creds,
		Reference:   ref,
		Peaks:       peaks,
		FitWindow:   cfg.Analysis.FitWindow,
		FitOptions:  fit.Options{MaxIterations: cfg.Analysis.FitMaxIterations},
		PlotDir:     plotDir,
	}
	if cfg.Publish.RedisAddr != "" {
		pub := publish.NewRedisPublisher(cfg.Publish.RedisAddr, cfg.Publish.Channel)
		defer pub.Close()
		settings.Publisher = pub
	}

	segmenter, err := cfg.Segmenter()
	if err != nil {
		return err
	}
	analyzer := cfg.Analyzer(logger)
	p := &data.Processor{
		Analyzer:    analyzer,
		Segmenter:   segmenter,
		Ops:         data.StandardOps(analyzer, settings),
		Results:     results.New(),
		Credentials: creds,
		Logger:      logger,
	}

	report := p.Process(ctx, urls, only...)
	fmt.Fprintln(cmd.OutOrStdout(), report)
	if report.FailedFiles() == len(report.Files) {
		return errors.New("no raw log could be processed")
	}

	if noSummary, _ := cmd.Flags().GetBool("no-summary"); noSummary || p.Results.Len() == 0 {
		return nil
	}
	return writeResults(ctx, p.Results, plotDir != "")
}

// writeResults writes the summary, the fit coefficients when the run was
// fitted and the TC histogram when plots are on, next to each other in
// summary_path.
func writeResults(ctx context.Context, set *results.ResultSet, histogram bool) error {
	base := strings.TrimSuffix(cfg.SummaryFile, ".csv")
	summary := data.JoinURL(cfg.SummaryPath, cfg.SummaryFile)
	if err := create(ctx, summary, func(w io.Writer) error {
		return set.WriteSummary(w)
	}); err != nil {
		return err
	}
	logger.Info("summary written", "path", summary, "events", set.Len())

	if set.Schema().Peaks > 0 {
		if err := create(ctx, data.JoinURL(cfg.SummaryPath, base+"-fit.csv"), set.WriteFitCoefficients); err != nil {
			return err
		}
	}

	if histogram {
		h, err := set.Histogram(cfg.Plot.HistogramBins)
		if err != nil {
			return err
		}
		if err := create(ctx, data.JoinURL(cfg.SummaryPath, base+"-tc.svg"), func(w io.Writer) error {
			return plot.RenderHistogram(w, h, base)
		}); err != nil {
			return err
		}
	}
	return nil
}
