// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package config loads the tca settings from a YAML file and TCA_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rditech/tca/event"
	"github.com/rditech/tca/fit"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	DataPath     string `mapstructure:"data_path"`
	DataPattern  string `mapstructure:"data_pattern"`
	EventsPath   string `mapstructure:"events_path"`
	BaselinePath string `mapstructure:"baseline_path"`
	BaselineFile string `mapstructure:"baseline_file"`
	SummaryPath  string `mapstructure:"summary_path"`
	SummaryFile  string `mapstructure:"summary_file"`

	Analysis AnalysisConfig `mapstructure:"analysis"`
	Plot     PlotConfig     `mapstructure:"plot"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AnalysisConfig holds the window lengths in seconds and the fit settings.
type AnalysisConfig struct {
	DataWindow       float64 `mapstructure:"data_window_length"`
	IntegralWindow   float64 `mapstructure:"integral_window_length"`
	BaselineWindow   float64 `mapstructure:"baseline_window_length"`
	FitWindow        float64 `mapstructure:"fit_window_length"`
	PeakCount        int     `mapstructure:"peak_count"`
	FitMaxIterations int     `mapstructure:"fit_max_iterations"`
	Segmentation     string  `mapstructure:"segmentation"`
}

type PlotConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	HistogramBins int  `mapstructure:"histogram_bins"`
}

type PublishConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
	Channel   string `mapstructure:"channel"`
}

type ServerConfig struct {
	Port   int `mapstructure:"port"`
	Recent int `mapstructure:"recent"`
}

type StorageConfig struct {
	// CredentialsFile is a service account key used for gs:// locations.
	CredentialsFile string `mapstructure:"credentials_file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", "data")
	v.SetDefault("data_pattern", "*.txt")
	v.SetDefault("events_path", "events")
	v.SetDefault("baseline_path", "baseline")
	v.SetDefault("baseline_file", "")
	v.SetDefault("summary_path", "summary")
	v.SetDefault("summary_file", "summary.csv")

	v.SetDefault("analysis.data_window_length", 120.0)
	v.SetDefault("analysis.integral_window_length", 65.0)
	v.SetDefault("analysis.baseline_window_length", 5.0)
	v.SetDefault("analysis.fit_window_length", 0.0)
	v.SetDefault("analysis.peak_count", 0)
	v.SetDefault("analysis.fit_max_iterations", fit.DefaultMaxIterations)
	v.SetDefault("analysis.segmentation", "oven")

	v.SetDefault("plot.enabled", false)
	v.SetDefault("plot.histogram_bins", 10)

	v.SetDefault("publish.redis_addr", "")
	v.SetDefault("publish.channel", "tca-events")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.recent", 50)

	v.SetDefault("storage.credentials_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads configPath, or tca.yaml from the working directory or
// /etc/tca when configPath is empty. A missing default file is not an
// error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("tca")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/tca")
	}

	v.SetEnvPrefix("TCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	a := c.Analysis
	switch {
	case a.DataWindow <= 0:
		return fmt.Errorf("%w: data window %g", ErrInvalid, a.DataWindow)
	case a.IntegralWindow <= 0 || a.IntegralWindow > a.DataWindow:
		return fmt.Errorf("%w: integral window %g outside (0, %g]", ErrInvalid, a.IntegralWindow, a.DataWindow)
	case a.BaselineWindow <= 0:
		return fmt.Errorf("%w: baseline window %g", ErrInvalid, a.BaselineWindow)
	case a.FitWindow < 0 || a.FitWindow > a.DataWindow:
		return fmt.Errorf("%w: fit window %g outside [0, %g]", ErrInvalid, a.FitWindow, a.DataWindow)
	case a.PeakCount < 0 || a.PeakCount > fit.MaxPeaks:
		return fmt.Errorf("%w: peak count %d outside [0, %d]", ErrInvalid, a.PeakCount, fit.MaxPeaks)
	}
	if _, err := event.NewSegmenter(a.Segmentation, a.DataWindow); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) Analyzer(logger *slog.Logger) *event.Analyzer {
	return &event.Analyzer{
		DataWindow:     c.Analysis.DataWindow,
		IntegralWindow: c.Analysis.IntegralWindow,
		BaselineWindow: c.Analysis.BaselineWindow,
		Logger:         logger,
	}
}

func (c *Config) Segmenter() (event.Segmenter, error) {
	return event.NewSegmenter(c.Analysis.Segmentation, c.Analysis.DataWindow)
}

// ReferencePath is the zero reference file, or "" when none is configured.
func (c *Config) ReferencePath() string {
	if c.BaselineFile == "" {
		return ""
	}
	return filepath.Join(c.BaselinePath, c.BaselineFile)
}

// PlotPath is where event plots go, or "" when plotting is off.
func (c *Config) PlotPath() string {
	if !c.Plot.Enabled {
		return ""
	}
	return filepath.Join(c.EventsPath, "graph")
}

// Credentials returns the content of the storage credentials file, if any.
func (c *Config) Credentials() (string, error) {
	if c.Storage.CredentialsFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.Storage.CredentialsFile)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
