// Package main provides the one-shot normalizer: load the source CSV,
// normalize it and export the derived artefacts to a bucket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"enrprod/internal/config"
	"enrprod/internal/export"
	"enrprod/internal/fetch"
	"enrprod/internal/logger"
	"enrprod/internal/pipeline"
	"enrprod/pkg/metadata"
)

const version = "0.1.0"

func main() {
	configFile := flag.String("config", "configs/enrprod.yaml", "Path to YAML configuration file")
	inputPath := flag.String("input", "", "Source CSV (overrides dataset.path)")
	bucketURL := flag.String("bucket", "", "Destination bucket URL, e.g. file://./out or s3://bucket (overrides export.bucket_url)")
	formats := flag.String("formats", "", "Comma separated export formats (overrides export.formats)")
	refresh := flag.Bool("fetch", false, "Download the source from fetch.url even if a local copy exists")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *inputPath != "" {
		cfg.Dataset.Path = *inputPath
	}

	if *bucketURL != "" {
		cfg.Export.BucketURL = *bucketURL
	}

	if *formats != "" {
		cfg.Export.Formats = strings.Split(*formats, ",")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()

	// Download
	if cfg.Fetch.Enabled() {
		fetcher := fetch.New(cfg.Fetch, log)

		var res *fetch.Result
		if *refresh {
			res, err = fetcher.Fetch(ctx, cfg.Dataset.Path)
		} else {
			res, err = fetcher.FetchIfMissing(ctx, cfg.Dataset.Path)
		}

		if err != nil {
			log.Error(fmt.Sprintf("❌ Download failed: %v", err))
			os.Exit(1)
		}

		if res != nil {
			fmt.Printf("⬇️  Downloaded %d bytes from %s\n", res.Bytes, res.URL)
		}
	} else if *refresh {
		log.Error("❌ -fetch needs fetch.url in the configuration")
		os.Exit(1)
	}

	// Load & normalize
	log.Info(fmt.Sprintf("📂 Reading: %s", cfg.Dataset.Path))

	ds, err := pipeline.NewFromConfig(cfg, log, nil).Build(ctx, cfg.Dataset.Path)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Normalization failed: %v", err))
		os.Exit(1)
	}

	stats := ds.Observations.Stats
	fmt.Printf("📊 Normalized: %d observations, %d energy types, %d regions (%d missing, %d invalid cells dropped)\n",
		ds.Observations.Len(), len(ds.Observations.EnergyTypes()), ds.Geometry.Len(), stats.DroppedMissing, stats.DroppedInvalid)

	if len(cfg.Export.Formats) == 0 {
		fmt.Println("⚠️  No export formats configured, nothing written.")
		return
	}

	// Export
	bucket, err := export.OpenBucket(ctx, cfg.Export.BucketURL)
	if err != nil {
		log.Error(fmt.Sprintf("❌ %v", err))
		os.Exit(1)
	}
	defer bucket.Close()

	exporter := export.NewExporter(bucket, cfg.Export.Prefix, metadata.ProducerInfo{Name: "enrprod-normalizer", Version: version}, log, nil)

	manifest, err := exporter.WriteAll(ctx, ds, cfg.Export.Formats)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Export failed: %v", err))
		os.Exit(1)
	}

	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📦 Export Report (run %s)\n", manifest.RunID)
	fmt.Println("------------------------------------------------")

	for _, f := range cfg.Export.Formats {
		for key, info := range manifest.Files {
			if info.Format == f {
				fmt.Printf("  %-8s %-45s %8d bytes %6d rows\n", f, key, info.ByteSize, info.RowCount)
			}
		}
	}

	fmt.Printf("Destination: %s/%s\n", strings.TrimSuffix(cfg.Export.BucketURL, "/"), exporter.Key(export.KeyManifest))
	fmt.Printf("Total Duration: %v\n", time.Since(startTime))
	fmt.Println("------------------------------------------------")
}
