// Command xrayvisiond runs the XRayVision daemon: it receives instances,
// converts them, relays artifacts for analysis, and serves the dashboard.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/cstroie/XRayVision-sub000/internal/config"
	"github.com/cstroie/XRayVision-sub000/internal/daemon"
	"github.com/cstroie/XRayVision-sub000/internal/deps"
	"github.com/cstroie/XRayVision-sub000/internal/logging"
	"github.com/cstroie/XRayVision-sub000/internal/reports"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewTee(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}, cfg.Paths.LogDir, "xrayvision.log")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	for _, missing := range deps.Missing(deps.CheckBinaries(deps.Requirements())) {
		logger.Warn("external tool unavailable",
			logging.String("tool", missing.Name),
			logging.String("detail", missing.Detail))
	}

	store, err := reports.Open(cfg.Paths.LogDir)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("xrayvisiond shutting down")
	d.Stop()
}
