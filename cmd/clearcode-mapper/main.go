package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/swhbridge/clearcode-mapper/internal/archive"
	"github.com/swhbridge/clearcode-mapper/internal/config"
	"github.com/swhbridge/clearcode-mapper/internal/logging"
	"github.com/swhbridge/clearcode-mapper/internal/metrics"
	"github.com/swhbridge/clearcode-mapper/internal/orchestrator"
	"github.com/swhbridge/clearcode-mapper/internal/sink"
	"github.com/swhbridge/clearcode-mapper/internal/staging"
)

// Version information (set via ldflags)
var (
	Version = "v0.1.0"
	GitSHA  = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
	})
	log := logging.Component("main")
	log.Info("clearcode mapper starting", "version", Version, "git_sha", GitSHA)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown handler
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		log.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if cfg.Metrics.Enabled {
		metrics.Init("clearcode_mapper")
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Address); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	st, err := staging.NewPostgresStore(cfg.Staging.DSN)
	if err != nil {
		log.Error("failed to connect to staging database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	arch, err := archive.NewPostgresArchive(cfg.Archive.DSN)
	if err != nil {
		log.Error("failed to connect to archive database", "error", err)
		os.Exit(1)
	}
	defer arch.Close()

	w, err := sink.NewPostgresWriter(cfg.Sink.DSN)
	if err != nil {
		log.Error("failed to connect to metadata database", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	o := orchestrator.New(st, arch, w, sink.DefaultAuthority, sink.DefaultFetcher)
	if err := o.Run(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown complete")
			return
		}
		log.Error("run failed", "error", err)
		os.Exit(1)
	}

	log.Info("clearcode mapper stopped cleanly")
}
