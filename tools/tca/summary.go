// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rditech/tca/data"
	"github.com/rditech/tca/rawlog"
	"github.com/rditech/tca/results"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [event-file ...]",
	Short: "Summarize saved event files",
	Long: `Rebuilds the results of saved event files and writes their summary.
Without arguments the event files under events_path are used, restricted to
the --from and --to dates.`,
	Example: `  tca summary --from 2019-07-01 --to 2019-07-07
  tca summary --date 2019-07-01 --out -`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().String("from", "", "first date, yyyy-mm-dd")
	summaryCmd.Flags().String("to", "", "last date, yyyy-mm-dd")
	summaryCmd.Flags().String("date", "", "single date, yyyy-mm-dd; overrides --from and --to")
	summaryCmd.Flags().String("out", "", `summary output, "-" for stdout (default: summary_path/summary_file)`)
}

// dateRange reads the --from, --to and --date flags.
func dateRange(cmd *cobra.Command) (data.DateRange, error) {
	var r data.DateRange
	r.From, _ = cmd.Flags().GetString("from")
	r.To, _ = cmd.Flags().GetString("to")
	if date, _ := cmd.Flags().GetString("date"); date != "" {
		r.From, r.To = date, date
	}
	for _, d := range []string{r.From, r.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(rawlog.DateLayout, d); err != nil {
			return r, fmt.Errorf("bad date %q: %w", d, err)
		}
	}
	return r, nil
}

// loadResults restores the event files named in args, or those under
// events_path within the date range of the flags.
func loadResults(ctx context.Context, cmd *cobra.Command, args []string) (*results.ResultSet, error) {
	urls := args
	if len(urls) == 0 {
		r, err := dateRange(cmd)
		if err != nil {
			return nil, err
		}
		urls, err = data.ListArtifacts(ctx, cfg.EventsPath, r, credentials())
		if err != nil {
			return nil, err
		}
	}
	if len(urls) == 0 {
		return nil, errors.New("no event files selected")
	}

	set, errs := data.Summarize(ctx, cfg.Analyzer(logger), urls, credentials(), logger)
	if len(errs) > 0 {
		logger.Warn("event files skipped", "count", len(errs))
	}
	if set.Len() == 0 {
		return nil, results.ErrEmpty
	}
	return set, nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	set, err := loadResults(ctx, cmd, args)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	switch out {
	case "-":
		return set.WriteSummary(cmd.OutOrStdout())
	case "":
		return writeResults(ctx, set, cfg.Plot.Enabled)
	}
	return create(ctx, out, func(w io.Writer) error {
		return set.WriteSummary(w)
	})
}
