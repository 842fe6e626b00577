package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"gocloud.dev/blob"

	"enrprod/internal/config"
	"enrprod/internal/logger"
	"enrprod/internal/metrics"
	"enrprod/internal/models"
	"enrprod/pkg/metadata"
)

// Object keys, relative to the exporter prefix.
const (
	KeyParquet  = "observations.parquet"
	KeyJSONL    = "observations.jsonl.zst"
	KeyXLSX     = "summary.xlsx"
	KeyPDF      = "summary.pdf"
	KeyManifest = "_manifest.json"
)

// ErrNoDataset is returned when there is nothing to export.
var ErrNoDataset = errors.New("no dataset to export")

// Content types of the exported objects.
var contentTypes = map[string]string{
	config.FormatParquet: "application/vnd.apache.parquet",
	config.FormatJSONL:   "application/zstd",
	config.FormatXLSX:    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	config.FormatPDF:     "application/pdf",
}

// Exporter writes derived artefacts of a dataset to a bucket. Each object
// becomes visible only once fully written.
type Exporter struct {
	bucket   *blob.Bucket
	prefix   string
	producer metadata.ProducerInfo
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewExporter creates an exporter writing under prefix. log and m may be nil.
func NewExporter(bucket *blob.Bucket, prefix string, producer metadata.ProducerInfo, log *logger.Logger, m *metrics.Metrics) *Exporter {
	if log == nil {
		log = logger.Discard()
	}

	return &Exporter{
		bucket:   bucket,
		prefix:   prefix,
		producer: producer,
		log:      log.Component("export"),
		metrics:  m,
	}
}

// Key returns the full object key of name.
func (e *Exporter) Key(name string) string {
	if e.prefix == "" {
		return name
	}

	return path.Join(e.prefix, name)
}

// WriteParquet writes the observations as Parquet.
func (e *Exporter) WriteParquet(ctx context.Context, ds *models.Dataset) (metadata.FileInfo, error) {
	return e.writeFormat(ctx, ds, config.FormatParquet, KeyParquet, func() ([]byte, error) {
		return EncodeParquet(ds.Observations.Rows())
	})
}

// WriteJSONL writes the observations as zstd-compressed JSON Lines.
func (e *Exporter) WriteJSONL(ctx context.Context, ds *models.Dataset) (metadata.FileInfo, error) {
	return e.writeFormat(ctx, ds, config.FormatJSONL, KeyJSONL, func() ([]byte, error) {
		return EncodeJSONL(ds.Observations.Rows())
	})
}

// WriteXLSX writes the observation and summary workbook.
func (e *Exporter) WriteXLSX(ctx context.Context, ds *models.Dataset) (metadata.FileInfo, error) {
	return e.writeFormat(ctx, ds, config.FormatXLSX, KeyXLSX, func() ([]byte, error) {
		return EncodeXLSX(ds.Observations.Rows())
	})
}

// WritePDF writes the PDF summary.
func (e *Exporter) WritePDF(ctx context.Context, ds *models.Dataset) (metadata.FileInfo, error) {
	return e.writeFormat(ctx, ds, config.FormatPDF, KeyPDF, func() ([]byte, error) {
		return EncodePDF(ds)
	})
}

func (e *Exporter) writeFormat(ctx context.Context, ds *models.Dataset, format, name string, encode func() ([]byte, error)) (metadata.FileInfo, error) {
	if ds == nil {
		return metadata.FileInfo{}, ErrNoDataset
	}

	info, err := e.encodeAndWrite(ctx, format, name, ds.Observations.Len(), encode)
	e.metrics.RecordExport(format, err)

	if err != nil {
		e.log.Error("Export failed", "format", format, "error", err)

		return metadata.FileInfo{}, err
	}

	e.log.Info("Exported", "format", format, "key", info.Key, "rows", info.RowCount, "bytes", info.ByteSize)

	return info, nil
}

func (e *Exporter) encodeAndWrite(ctx context.Context, format, name string, rows int, encode func() ([]byte, error)) (metadata.FileInfo, error) {
	data, err := encode()
	if err != nil {
		return metadata.FileInfo{}, fmt.Errorf("encode %s: %w", format, err)
	}

	key := e.Key(name)
	if err := e.write(ctx, key, contentTypes[format], data); err != nil {
		return metadata.FileInfo{}, err
	}

	return metadata.Describe(key, format, data, rows), nil
}

// WriteManifest writes m next to the exported files.
func (e *Exporter) WriteManifest(ctx context.Context, m *metadata.Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	return e.write(ctx, e.Key(KeyManifest), "application/json", data)
}

// WriteAll writes every requested format then the manifest describing
// them. It stops at the first failure; the manifest is only written when
// every format succeeded.
func (e *Exporter) WriteAll(ctx context.Context, ds *models.Dataset, formats []string) (*metadata.Manifest, error) {
	if ds == nil {
		return nil, ErrNoDataset
	}

	writers := map[string]func(context.Context, *models.Dataset) (metadata.FileInfo, error){
		config.FormatParquet: e.WriteParquet,
		config.FormatJSONL:   e.WriteJSONL,
		config.FormatXLSX:    e.WriteXLSX,
		config.FormatPDF:     e.WritePDF,
	}

	manifest := metadata.NewManifest(ds.RunID, metadata.SourceInfo{Path: ds.Source, Checksum: ds.Checksum}, e.producer)

	for _, format := range formats {
		write, ok := writers[format]
		if !ok {
			return nil, fmt.Errorf("%w: %q", config.ErrInvalidExportFormat, format)
		}

		info, err := write(ctx, ds)
		if err != nil {
			return nil, err
		}

		manifest.Add(info)
	}

	if err := e.WriteManifest(ctx, manifest); err != nil {
		return nil, err
	}

	return manifest, nil
}

func (e *Exporter) write(ctx context.Context, key, contentType string, data []byte) error {
	return e.writeFunc(ctx, key, contentType, func(w io.Writer) error {
		_, err := w.Write(data)

		return err
	})
}

// writeFunc streams fill into key. When fill fails the writer context is
// canceled before Close, so the bucket discards the object.
func (e *Exporter) writeFunc(ctx context.Context, key, contentType string, fill func(io.Writer) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := e.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}

	if err := fill(w); err != nil {
		cancel()
		w.Close()

		return fmt.Errorf("write data to %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}

	return nil
}
