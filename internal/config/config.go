// Package config provides configuration management for the production pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingDatasetPath   = errors.New("dataset.path is required")
	ErrInvalidDelimiter     = errors.New("dataset.delimiter must be a single character")
	ErrMissingYearColumn    = errors.New("dataset.columns.year is required")
	ErrMissingRegionColumn  = errors.New("dataset.columns.region is required")
	ErrDuplicateMetric      = errors.New("dataset.expected_metrics contains a duplicate")
	ErrInvalidMaxEntries    = errors.New("cache.max_entries must be at least 1")
	ErrInvalidExportFormat  = errors.New("export.formats entries must be one of: parquet, jsonl, xlsx, pdf")
	ErrMissingBucketURL     = errors.New("export.bucket_url is required when export formats are set")
	ErrMissingServerAddress = errors.New("server.address is required")
	ErrInvalidTimeout       = errors.New("server timeouts must be at least 1 second")
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat     = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidRetryPolicy   = errors.New("fetch.retry needs max_attempts >= 1, timeout_sec >= 1 and backoff_multiplier >= 1")
	ErrInvalidMaxSize       = errors.New("fetch.max_size_mb must be at least 1")
)

// Export formats.
const (
	FormatParquet = "parquet"
	FormatJSONL   = "jsonl"
	FormatXLSX    = "xlsx"
	FormatPDF     = "pdf"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Export  ExportConfig  `yaml:"export"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Cache   CacheConfig   `yaml:"cache"`
	Fetch   FetchConfig   `yaml:"fetch"`
}

// DatasetConfig describes the source CSV.
type DatasetConfig struct {
	Path      string        `yaml:"path"`
	Delimiter string        `yaml:"delimiter"`
	Columns   ColumnsConfig `yaml:"columns"`
	// ExpectedMetrics pins the production columns the file must carry.
	// Empty means any column matching the discovery rule is accepted.
	ExpectedMetrics []string `yaml:"expected_metrics"`
}

// ColumnsConfig names the identifier and geometry columns of the source.
type ColumnsConfig struct {
	Year   string `yaml:"year"`
	Region string `yaml:"region"`
	Shape  string `yaml:"shape"`
	Point  string `yaml:"point"`
}

// FetchConfig describes where the source CSV can be downloaded from when it
// is not present locally.
type FetchConfig struct {
	URL        string      `yaml:"url"`
	BackupURLs []string    `yaml:"backup_urls"`
	Retry      RetryPolicy `yaml:"retry"`
	MaxSizeMB  int         `yaml:"max_size_mb"`
}

// Enabled reports whether a download source is configured.
func (f *FetchConfig) Enabled() bool {
	return f.URL != ""
}

// URLs returns the primary URL followed by the backups.
func (f *FetchConfig) URLs() []string {
	if f.URL == "" {
		return nil
	}

	return append([]string{f.URL}, f.BackupURLs...)
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// CacheConfig controls memoization of normalized datasets.
type CacheConfig struct {
	MaxEntries int  `yaml:"max_entries"`
	Enabled    bool `yaml:"enabled"`
}

// ExportConfig controls where derived artefacts are written.
type ExportConfig struct {
	BucketURL string   `yaml:"bucket_url"`
	Prefix    string   `yaml:"prefix"`
	Formats   []string `yaml:"formats"`
}

// ServerConfig controls the data API.
type ServerConfig struct {
	Address            string `yaml:"address"`
	MetricsPath        string `yaml:"metrics_path"`
	ReadTimeoutSec     int    `yaml:"read_timeout_sec"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:      "data/prod-region-annuelle-enr.csv",
			Delimiter: ";",
			Columns: ColumnsConfig{
				Year:   "Annee",
				Region: "Nom INSEE région",
				Shape:  "Géo-shape région",
				Point:  "Géo-point région",
			},
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 4,
		},
		Fetch: FetchConfig{
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
			MaxSizeMB: 64,
		},
		Export: ExportConfig{
			BucketURL: "file://./out",
			Prefix:    "exports/",
			Formats:   []string{FormatParquet, FormatJSONL, FormatXLSX, FormatPDF},
		},
		Server: ServerConfig{
			Address:            ":8080",
			MetricsPath:        "/metrics",
			ReadTimeoutSec:     10,
			ShutdownTimeoutSec: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file. Keys absent from the
// file keep their DefaultConfig value.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads filepath when it exists and falls back to DefaultConfig otherwise.
func LoadOrDefault(filepath string) (*Config, error) {
	if filepath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(filepath); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return LoadConfig(filepath)
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return ErrMissingDatasetPath
	}

	if utf8.RuneCountInString(c.Dataset.Delimiter) != 1 {
		return ErrInvalidDelimiter
	}

	if c.Dataset.Columns.Year == "" {
		return ErrMissingYearColumn
	}

	if c.Dataset.Columns.Region == "" {
		return ErrMissingRegionColumn
	}

	seen := make(map[string]bool, len(c.Dataset.ExpectedMetrics))
	for _, m := range c.Dataset.ExpectedMetrics {
		if seen[m] {
			return fmt.Errorf("%w: %q", ErrDuplicateMetric, m)
		}

		seen[m] = true
	}

	if c.Cache.Enabled && c.Cache.MaxEntries < 1 {
		return ErrInvalidMaxEntries
	}

	validFormats := []string{FormatParquet, FormatJSONL, FormatXLSX, FormatPDF}
	for i, f := range c.Export.Formats {
		if !slices.Contains(validFormats, f) {
			return fmt.Errorf("%w: formats[%d]=%q", ErrInvalidExportFormat, i, f)
		}
	}

	if len(c.Export.Formats) > 0 && c.Export.BucketURL == "" {
		return ErrMissingBucketURL
	}

	if c.Fetch.Enabled() {
		r := c.Fetch.Retry
		if r.MaxAttempts < 1 || r.TimeoutSec < 1 || r.BackoffMultiplier < 1 {
			return ErrInvalidRetryPolicy
		}

		if c.Fetch.MaxSizeMB < 1 {
			return ErrInvalidMaxSize
		}
	}

	if c.Server.Address == "" {
		return ErrMissingServerAddress
	}

	if c.Server.ReadTimeoutSec < 1 || c.Server.ShutdownTimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// DelimiterRune returns the CSV field separator.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Dataset.Delimiter)

	return r
}

// ReadTimeout returns the HTTP read timeout.
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSec) * time.Second
}

// ShutdownTimeout returns the graceful shutdown deadline.
func (s *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSec) * time.Second
}

// GetRetryDelay returns the wait before the given attempt. The first attempt
// does not wait; later ones back off exponentially up to MaxDelayMs.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 2; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if rp.MaxDelayMs > 0 && delayMs > float64(rp.MaxDelayMs) {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (rp *RetryPolicy) Timeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Dataset: %s, Cache: %v, Export: %s %v}",
		c.Dataset.Path,
		c.Cache.Enabled,
		c.Export.BucketURL,
		c.Export.Formats,
	)
}
