package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/internal/cache"
	"github.com/minjae/udbridge/internal/commands"
	"github.com/minjae/udbridge/internal/config"
	"github.com/minjae/udbridge/internal/quiet"
	"github.com/minjae/udbridge/internal/rpc"
	"github.com/minjae/udbridge/internal/schedule"
	"github.com/minjae/udbridge/internal/udb"
	"github.com/minjae/udbridge/internal/watcher"
)

var (
	version     = "dev"
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("udbridge version %s\n", version)
		os.Exit(0)
	}

	// Stdout carries the RPC stream, so logs go to stderr
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Starting udbridge")

	// Owned search cache
	searchCache, err := cache.New(cfg.CachePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize search cache")
	}
	defer searchCache.Close()
	cacheStore := cache.NewStore(searchCache, logger)

	// Owned schedule store
	schedules, err := schedule.New(cfg.ScheduleDBPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize schedule store")
	}
	defer schedules.Close()

	// Foreign message store reader
	reader := udb.NewReader(logger)

	hideState := &watcher.HideState{}
	classTimes := quiet.ParseRanges(cfg.ClassTimes)

	registry, err := commands.NewRegistry(cfg, reader, cacheStore, schedules, hideState, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create command registry")
	}

	server := rpc.NewServer(cfg, registry, logger)

	// Change watcher pushes notifications through the RPC server. A failed
	// start only disables change detection.
	w := watcher.New(cfg.UDBPath, reader, server, hideState, classTimes, logger)
	w.Start()
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(ctx); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	case err := <-errChan:
		logger.WithError(err).Error("Server error")
		cancel()
	}

	logger.Info("Shutting down udbridge")
}
