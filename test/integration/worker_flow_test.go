package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gocloud.dev/blob/memblob"

	"enrprod/internal/cache"
	"enrprod/internal/config"
	"enrprod/internal/export"
	"enrprod/internal/logger"
	"enrprod/internal/metrics"
	"enrprod/internal/pipeline"
	"enrprod/internal/server"
	"enrprod/pkg/metadata"
)

// Path to the sample dataset and configuration shipped with the repo.
var (
	dataPath   = filepath.Join("..", "..", "data", "prod-region-annuelle-enr.csv")
	configPath = filepath.Join("..", "..", "configs", "enrprod.yaml")
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	cfg.Dataset.Path = dataPath

	return cfg
}

func TestWorkerFlow_SampleDataset(t *testing.T) {
	cfg := loadConfig(t)

	// 1. Load & normalize (simulating the normalizer command)
	ds, err := pipeline.NewFromConfig(cfg, logger.Discard(), nil).Build(context.Background(), cfg.Dataset.Path)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 25 rows, 4 production columns, 2 blank cells.
	if got := ds.Observations.Len(); got != 98 {
		t.Errorf("observations = %d, want 98", got)
	}

	if got := ds.Observations.Stats.DroppedMissing; got != 2 {
		t.Errorf("DroppedMissing = %d, want 2", got)
	}

	wantTypes := []string{"hydraulique", "bioénergies", "éolienne", "solaire"}
	if got := ds.Observations.EnergyTypes(); !slices.Equal(got, wantTypes) {
		t.Errorf("EnergyTypes() = %v, want %v", got, wantTypes)
	}

	if got := ds.Geometry.Len(); got != 5 {
		t.Errorf("geometry regions = %d, want 5", got)
	}

	for _, region := range ds.Geometry.Regions() {
		g, _ := ds.Geometry.Get(region)
		if g.Boundary == nil || g.Centroid == nil {
			t.Errorf("region %s has incomplete geometry: %+v", region, g)
		}
	}

	// 2. Export to an in-memory bucket
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	exporter := export.NewExporter(bucket, cfg.Export.Prefix, metadata.ProducerInfo{Name: "integration"}, logger.Discard(), nil)

	manifest, err := exporter.WriteAll(context.Background(), ds, cfg.Export.Formats)
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	if len(manifest.Files) != len(cfg.Export.Formats) {
		t.Errorf("manifest files = %d, want %d", len(manifest.Files), len(cfg.Export.Formats))
	}

	data, err := bucket.ReadAll(context.Background(), exporter.Key(export.KeyParquet))
	if err != nil {
		t.Fatalf("ReadAll parquet: %v", err)
	}

	rows, err := export.DecodeParquet(data)
	if err != nil {
		t.Fatalf("DecodeParquet: %v", err)
	}

	if !slices.Equal(rows, ds.Observations.Rows()) {
		t.Error("parquet round trip does not match the normalized table")
	}
}

func TestWorkerFlow_ServeAndReload(t *testing.T) {
	cfg := loadConfig(t)

	// Work on a copy so the source can be edited.
	content, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	src := filepath.Join(t.TempDir(), "prod.csv")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, metrics.DefaultNamespace)

	memo, err := cache.NewMemo(pipeline.NewFromConfig(cfg, logger.Discard(), m), cfg.Cache.MaxEntries, m)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(server.New(memo, server.Options{Path: src, Metrics: m, Gatherer: reg}))
	defer srv.Close()

	regions := func() int {
		t.Helper()

		resp, err := http.Get(srv.URL + "/api/v1/options")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("options status = %d", resp.StatusCode)
		}

		var body struct {
			Regions []string `json:"regions"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}

		return len(body.Regions)
	}

	if got := regions(); got != 5 {
		t.Fatalf("regions = %d, want 5", got)
	}

	if got := regions(); got != 5 {
		t.Fatalf("regions on second request = %d, want 5", got)
	}

	if hits := testutil.ToFloat64(m.CacheRequests.WithLabelValues(metrics.ResultHit)); hits != 1 {
		t.Errorf("cache hits = %v, want 1", hits)
	}

	// Keep only the header and the first data row; the fingerprint changes.
	lines := 0
	for i, b := range content {
		if b == '\n' {
			lines++
			if lines == 2 {
				content = content[:i+1]
				break
			}
		}
	}

	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(src, later, later); err != nil {
		t.Fatal(err)
	}

	if got := regions(); got != 1 {
		t.Errorf("regions after edit = %d, want 1", got)
	}

	// A missing source is a 503, not a crash.
	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/api/v1/kpis")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status after removal = %d, want 503", resp.StatusCode)
	}
}
