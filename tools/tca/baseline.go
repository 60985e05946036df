// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rditech/tca/data"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline [event-file ...]",
	Short: "Average zero events into a reference file",
	Long: `Averages saved events, typically zero air runs, row by row into an
average event file usable as zero reference, and writes the summary of the
events used next to it.`,
	Example: `  tca baseline --date 2019-07-01 --name zero-2019-07-01.csv
  tca baseline events/2019-07-01-1000-eventdata.csv events/2019-07-01-1100-eventdata.csv`,
	RunE: runBaseline,
}

func init() {
	baselineCmd.Flags().String("from", "", "first date, yyyy-mm-dd")
	baselineCmd.Flags().String("to", "", "last date, yyyy-mm-dd")
	baselineCmd.Flags().String("date", "", "single date, yyyy-mm-dd; overrides --from and --to")
	baselineCmd.Flags().String("name", "", "average file name in baseline_path (default: baseline_file, or zero.csv)")
}

func runBaseline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	set, err := loadResults(ctx, cmd, args)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = cfg.BaselineFile
	}
	if name == "" {
		name = "zero.csv"
	}

	avgPath := data.JoinURL(cfg.BaselinePath, name)
	if err := create(ctx, avgPath, func(w io.Writer) error {
		return set.WriteAverage(w, name)
	}); err != nil {
		return err
	}

	preamble := fmt.Sprintf("Points used for average file:%s, tmax=%g", name, cfg.Analysis.IntegralWindow)
	summaryPath := data.JoinURL(cfg.BaselinePath, strings.TrimSuffix(name, ".csv")+"-summary.csv")
	if err := create(ctx, summaryPath, func(w io.Writer) error {
		return set.WriteSummary(w, preamble)
	}); err != nil {
		return err
	}

	logger.Info("average event written", "path", avgPath, "events", set.Len())
	fmt.Fprintln(cmd.OutOrStdout(), avgPath)
	return nil
}
