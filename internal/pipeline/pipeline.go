// Package pipeline builds a normalized dataset from the source file.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"enrprod/internal/config"
	"enrprod/internal/loader"
	"enrprod/internal/logger"
	"enrprod/internal/metrics"
	"enrprod/internal/models"
	"enrprod/internal/normalizer"
)

// Pipeline runs the loader then the normalizer.
type Pipeline struct {
	loader    *loader.Loader
	processor *normalizer.Processor
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New creates a pipeline. log and m may be nil.
func New(l *loader.Loader, p *normalizer.Processor, log *logger.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}

	return &Pipeline{
		loader:    l,
		processor: p,
		log:       log.Component("pipeline"),
		metrics:   m,
		now:       time.Now,
	}
}

// NewFromConfig wires the loader and normalizer described by cfg.
func NewFromConfig(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *Pipeline {
	return New(loader.NewLoader(cfg.DelimiterRune()), normalizer.NewProcessor(SchemaFromConfig(cfg.Dataset)), log, m)
}

// SchemaFromConfig maps the dataset section of the configuration to a
// normalizer schema.
func SchemaFromConfig(ds config.DatasetConfig) normalizer.Schema {
	return normalizer.Schema{
		YearColumn:      ds.Columns.Year,
		RegionColumn:    ds.Columns.Region,
		ShapeColumn:     ds.Columns.Shape,
		PointColumn:     ds.Columns.Point,
		ExpectedMetrics: ds.ExpectedMetrics,
	}
}

// Build loads and normalizes path. Load failures are returned as
// *loader.LoadError; normalization failures are wrapped.
func (p *Pipeline) Build(ctx context.Context, path string) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := p.now()
	log := p.log.With("path", path)

	ds, err := p.build(path)
	p.metrics.RecordLoad(p.now().Sub(start), err)

	if err != nil {
		log.Error("Dataset build failed", "error", err)

		return nil, err
	}

	for _, w := range ds.Warnings {
		log.Warn("Normalization warning", "run_id", ds.RunID, "warning", w)
	}

	stats := ds.Observations.Stats
	p.metrics.RecordNormalization(stats.Kept, stats.DroppedMissing, stats.DroppedInvalid)

	log.Info("Dataset built",
		"run_id", ds.RunID,
		"checksum", ds.Checksum,
		"source_rows", stats.SourceRows,
		"value_columns", stats.ValueColumns,
		"observations", stats.Kept,
		"dropped_missing", stats.DroppedMissing,
		"dropped_invalid", stats.DroppedInvalid,
		"negative", stats.Negative,
		"regions", ds.Geometry.Len(),
		"duration", p.now().Sub(start),
	)

	return ds, nil
}

func (p *Pipeline) build(path string) (*models.Dataset, error) {
	raw, err := p.loader.Load(path)
	if err != nil {
		return nil, err
	}

	ds, err := p.processor.Process(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}

	ds.RunID = uuid.NewString()
	ds.LoadedAt = p.now().UTC()

	return ds, nil
}
