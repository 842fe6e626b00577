// Package main provides the worker command serving the production data API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"enrprod/internal/cache"
	"enrprod/internal/config"
	"enrprod/internal/fetch"
	"enrprod/internal/logger"
	"enrprod/internal/metrics"
	"enrprod/internal/pipeline"
	"enrprod/internal/server"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configFile := flag.String("config", "configs/enrprod.yaml", "Path to YAML configuration file")
	dataPath := flag.String("data", "", "Source CSV (overrides dataset.path)")
	addr := flag.String("addr", "", "Listen address (overrides server.address)")
	logLevel := flag.String("log-level", "", "Log level (overrides logging.level)")

	flag.Parse()

	cfg, err := config.LoadOrDefault(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *dataPath != "" {
		cfg.Dataset.Path = *dataPath
	}

	if *addr != "" {
		cfg.Server.Address = *addr
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize Logger
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	log.Info("🚀 Starting enrprod worker")
	log.Info(fmt.Sprintf("📍 Source: %s", cfg.Dataset.Path))
	log.Info(fmt.Sprintf("🎯 Listening on: %s", cfg.Server.Address))

	// 2. Metrics
	// ----------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := metrics.New(reg, metrics.DefaultNamespace)

	// 3. Pipeline & Cache
	// -------------------
	p := pipeline.NewFromConfig(cfg, log, m)

	var store server.Store = cache.Passthrough{Builder: p}

	if cfg.Cache.Enabled {
		memo, memoErr := cache.NewMemo(p, cfg.Cache.MaxEntries, m)
		if memoErr != nil {
			log.Error(fmt.Sprintf("❌ Cache setup failed: %v", memoErr))
			os.Exit(1)
		}

		store = memo
	} else {
		log.Warn("⚠️  Cache disabled: every request rebuilds the dataset")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Fetch.Enabled() {
		if _, fetchErr := fetch.New(cfg.Fetch, log).FetchIfMissing(ctx, cfg.Dataset.Path); fetchErr != nil {
			log.Warn(fmt.Sprintf("⚠️  Download failed: %v", fetchErr))
		}
	}

	// Warm the cache so a broken source shows up at startup, not on the first request.
	if ds, warmErr := store.Get(ctx, cfg.Dataset.Path); warmErr != nil {
		log.Warn(fmt.Sprintf("⚠️  Initial load failed: %v (serving 503 until the source is fixed)", warmErr))
	} else {
		log.Info(fmt.Sprintf("✅ Loaded %d observations across %d regions", ds.Observations.Len(), ds.Geometry.Len()))
	}

	// 4. Serve
	// --------
	srv := server.New(store, server.Options{
		Path:        cfg.Dataset.Path,
		MetricsPath: cfg.Server.MetricsPath,
		Gatherer:    reg,
		Metrics:     m,
		Logger:      log,
	})

	if err := srv.Run(ctx, cfg.Server.Address, cfg.Server.ReadTimeout(), cfg.Server.ShutdownTimeout()); err != nil {
		log.Error(fmt.Sprintf("❌ Server stopped: %v", err))
		os.Exit(1)
	}

	log.Info("✨ Worker stopped")
}
