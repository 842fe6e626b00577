// Package metadata provides checksums and manifests describing pipeline artefacts.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ChecksumPrefix marks the hash algorithm of a checksum string.
const ChecksumPrefix = "sha256:"

// Checksum verification errors.
var (
	ErrMalformedChecksum = errors.New("malformed checksum")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
)

// CalculateHash computes the prefixed SHA-256 checksum of data.
func CalculateHash(data []byte) string {
	hash := sha256.Sum256(data)

	return ChecksumPrefix + hex.EncodeToString(hash[:])
}

// Verify checks that data matches the expected checksum.
func Verify(data []byte, expected string) error {
	if !strings.HasPrefix(expected, ChecksumPrefix) {
		return fmt.Errorf("%w: %q", ErrMalformedChecksum, expected)
	}

	calculated := CalculateHash(data)
	if calculated != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, calculated)
	}

	return nil
}

// Manifest describes one export run.
type Manifest struct {
	CreatedAt time.Time           `json:"created_at"`
	Files     map[string]FileInfo `json:"files"`
	Source    SourceInfo          `json:"source"`
	Producer  ProducerInfo        `json:"producer"`
	RunID     string              `json:"run_id"`
}

// SourceInfo identifies the dataset the artefacts were derived from.
type SourceInfo struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// FileInfo describes a single exported file.
type FileInfo struct {
	Key      string `json:"key"`
	Format   string `json:"format"`
	Checksum string `json:"checksum"`
	RowCount int64  `json:"row_count"`
	ByteSize int64  `json:"byte_size"`
}

// ProducerInfo describes the software that produced the artefacts.
type ProducerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NewManifest creates a manifest with an empty file set.
func NewManifest(runID string, source SourceInfo, producer ProducerInfo) *Manifest {
	return &Manifest{
		RunID:     runID,
		Source:    source,
		Producer:  producer,
		Files:     make(map[string]FileInfo),
		CreatedAt: time.Now().UTC(),
	}
}

// Describe builds the FileInfo for data stored under key.
func Describe(key, format string, data []byte, rows int) FileInfo {
	return FileInfo{
		Key:      key,
		Format:   format,
		Checksum: CalculateHash(data),
		RowCount: int64(rows),
		ByteSize: int64(len(data)),
	}
}

// Add records a file in the manifest, keyed by format.
func (m *Manifest) Add(info FileInfo) {
	m.Files[info.Format] = info
}

// Marshal returns the manifest as indented JSON.
func (m *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
