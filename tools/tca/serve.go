// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rditech/tca/logging"
	"github.com/rditech/tca/publish"
	"github.com/rditech/tca/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve saved events and recently published results over HTTP",
	Long: `Starts a read-only HTTP view of events_path. Results published by
extract runs on publish.channel are kept and listed under /recent. Without
publish.redis_addr an in-process Redis server is started.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port (default: server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Define redis connection
	redisAddr := cfg.Publish.RedisAddr
	if len(redisAddr) == 0 {
		s, err := miniredis.Run()
		if err != nil {
			return err
		}
		defer s.Close()
		redisAddr = s.Addr()
		logger.Info("started in-process redis server", "addr", redisAddr)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	logger.Info("connected to redis server", "addr", redisAddr)

	recent := publish.NewRecent(cfg.Server.Recent)
	msgs, err := publish.Subscribe(ctx, redisAddr, cfg.Publish.Channel, logger)
	if err != nil {
		return err
	}
	go recent.Collect(ctx, msgs)

	s := &server.Server{
		EventsDir:     cfg.EventsPath,
		Credentials:   credentials(),
		Analyzer:      cfg.Analyzer(logger),
		HistogramBins: cfg.Plot.HistogramBins,
		Recent:        recent,
		Logger:        logger,
	}

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}
	srv := &http.Server{Addr: ":" + strconv.Itoa(port), Handler: s.Router()}

	// Set up interrupt for nice quitting
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("http server started", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("ListenAndServe", logging.Error(err))
		return err
	}
	logger.Info("successful quit")
	return nil
}
