package loader

import (
	"errors"
	"fmt"
)

// Load errors. They are wrapped in a *LoadError carrying the attempted path.
var (
	ErrFileNotFound    = errors.New("file not found")
	ErrNotRegularFile  = errors.New("not a regular file")
	ErrEmptyFile       = errors.New("file has no header row")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrRowTooWide      = errors.New("row has more fields than the header")
)

// LoadError reports a recoverable failure to read the source table.
type LoadError struct {
	Err  error
	Path string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErr(path string, err error) error {
	return &LoadError{Path: path, Err: err}
}
