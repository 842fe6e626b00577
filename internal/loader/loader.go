// Package loader reads the delimited source file into a raw wide table.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"enrprod/internal/models"
	"enrprod/pkg/metadata"
)

// DefaultDelimiter separates fields in the published dataset.
const DefaultDelimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads delimited UTF-8 files.
type Loader struct {
	delimiter rune
}

// NewLoader creates a loader splitting fields on delimiter.
func NewLoader(delimiter rune) *Loader {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	return &Loader{delimiter: delimiter}
}

// Load reads path with the default delimiter.
func Load(path string) (*models.RawTable, error) {
	return NewLoader(DefaultDelimiter).Load(path)
}

// Load reads the file at path. Every failure is a *LoadError; a table is
// only returned when the whole file parsed.
func (l *Loader) Load(path string) (*models.RawTable, error) {
	if _, err := Stat(path); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, loadErr(path, fmt.Errorf("read file: %w", err))
	}

	table, err := l.Parse(content)
	if err != nil {
		return nil, loadErr(path, err)
	}

	table.Path = path
	table.Checksum = metadata.CalculateHash(content)

	return table, nil
}

// Parse decodes delimited content. Rows shorter than the header are padded
// with empty cells.
func (l *Loader) Parse(content []byte) (*models.RawTable, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = l.delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}

	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	table := &models.RawTable{
		Header: header,
		Rows:   make([]models.RawRow, 0, 128),
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			// *csv.ParseError already carries the line number.
			return nil, fmt.Errorf("read csv row %d: %w", len(table.Rows)+1, err)
		}

		line, _ := reader.FieldPos(0)

		if len(record) > len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrRowTooWide, line, len(record), len(header))
		}

		cells := make([]string, len(header))
		copy(cells, record)

		table.Rows = append(table.Rows, models.RawRow{Line: line, Cells: cells})
	}

	return table, nil
}

// Fingerprint identifies one version of a file on disk.
type Fingerprint struct {
	ModTime time.Time
	Path    string
	Size    int64
}

// Key returns the cache key of the fingerprint.
func (f Fingerprint) Key() string {
	return fmt.Sprintf("%s|%d|%d", f.Path, f.ModTime.UnixNano(), f.Size)
}

// Stat checks that path exists and is a regular file and returns its
// fingerprint. The path in the fingerprint is absolute.
func Stat(path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Fingerprint{}, loadErr(path, ErrFileNotFound)
	}

	if err != nil {
		return Fingerprint{}, loadErr(path, fmt.Errorf("stat: %w", err))
	}

	if !info.Mode().IsRegular() {
		return Fingerprint{}, loadErr(path, ErrNotRegularFile)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return Fingerprint{
		Path:    abs,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}
