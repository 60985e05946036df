// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rditech/tca/config"
	"github.com/rditech/tca/data"
	"github.com/rditech/tca/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tca",
	Short: "Total Carbon analyzer event extraction",
	Long: `tca turns raw Total Carbon analyzer logs into per event TC results.

Each combustion event found in a log is quantified, optionally corrected
with a zero reference and fitted with Gaussian peaks, and saved as an event
file. Summaries and average events are built from the saved event files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger, err = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tca.yaml or /etc/tca/tca.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(extractCmd, summaryCmd, baselineCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// credentials reads the storage credentials named in the configuration.
func credentials() string {
	creds, err := cfg.Credentials()
	if err != nil {
		logger.Warn("cannot read storage credentials", logging.Error(err))
	}
	return creds
}

// create opens the output at urlString, runs write on it and closes it.
func create(ctx context.Context, urlString string, write func(w io.Writer) error) error {
	w, err := data.GetWriter(ctx, urlString, credentials())
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		w.Close()
		return fmt.Errorf("%s: %w", urlString, err)
	}
	return w.Close()
}
