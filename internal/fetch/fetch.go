// Package fetch downloads the source CSV from its publisher, falling back to
// mirror URLs and retrying transient failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"enrprod/internal/config"
	"enrprod/internal/logger"
	"enrprod/pkg/metadata"
)

// Fetch errors.
var (
	ErrNoSources            = errors.New("no download URL configured")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrTooLarge             = errors.New("response exceeds size limit")
)

const userAgent = "enrprod-fetch/1.0"

// Result describes a completed download.
type Result struct {
	URL      string
	Checksum string
	Bytes    int64
	Attempts int
	Duration time.Duration
}

// Fetcher downloads a file over HTTP with config-driven retry logic.
type Fetcher struct {
	client   *http.Client
	log      *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	urls     []string
	retry    config.RetryPolicy
	maxBytes int64
}

// New creates a fetcher for the URLs of cfg.
func New(cfg config.FetchConfig, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Discard()
	}

	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Retry.Timeout()},
		log:      log.Component("fetch"),
		sleep:    sleepCtx,
		urls:     cfg.URLs(),
		retry:    cfg.Retry,
		maxBytes: int64(cfg.MaxSizeMB) << 20,
	}
}

// FetchIfMissing downloads to dest only when dest does not exist yet.
func (f *Fetcher) FetchIfMissing(ctx context.Context, dest string) (*Result, error) {
	_, err := os.Stat(dest)
	if err == nil {
		return nil, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", dest, err)
	}

	return f.Fetch(ctx, dest)
}

// Fetch downloads the first URL that succeeds to dest. dest is replaced
// atomically; a failed download leaves it untouched.
func (f *Fetcher) Fetch(ctx context.Context, dest string) (*Result, error) {
	if len(f.urls) == 0 {
		return nil, ErrNoSources
	}

	start := time.Now()
	attempts := 0

	var errs []error

	for _, url := range f.urls {
		body, n, err := f.download(ctx, url)
		attempts += n

		if err != nil {
			f.log.Warn("Source unavailable", "url", url, "attempts", n, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", url, err))

			if ctx.Err() != nil {
				break
			}

			continue
		}

		if err := writeAtomic(dest, body); err != nil {
			return nil, err
		}

		res := &Result{
			URL:      url,
			Checksum: metadata.CalculateHash(body),
			Bytes:    int64(len(body)),
			Attempts: attempts,
			Duration: time.Since(start),
		}

		f.log.Info("Dataset downloaded", "url", url, "bytes", res.Bytes, "dest", dest, "duration", res.Duration)

		return res, nil
	}

	return nil, fmt.Errorf("download failed: %w", errors.Join(errs...))
}

// download fetches url with retries and returns the body and the number of
// attempts made.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, int, error) {
	var lastErr error

	attempt := 1
	for ; attempt <= f.retry.MaxAttempts; attempt++ {
		if err := f.sleep(ctx, f.retry.GetRetryDelay(attempt)); err != nil {
			return nil, attempt - 1, err
		}

		body, status, err := f.get(ctx, url)
		if err == nil {
			return body, attempt, nil
		}

		lastErr = fmt.Errorf("attempt %d/%d: %w", attempt, f.retry.MaxAttempts, err)

		// Client errors and oversized bodies will not get better.
		if status != 0 && !isRetryableStatus(status) {
			break
		}

		if ctx.Err() != nil {
			break
		}
	}

	return nil, min(attempt, f.retry.MaxAttempts), lastErr
}

// get performs one request. status is zero when no response was received.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > f.maxBytes {
		return nil, resp.StatusCode, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	return body, resp.StatusCode, nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusBadGateway,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// writeAtomic writes data to a temporary file next to dest and renames it
// into place.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("rename to %s: %w", dest, err)
	}

	return nil
}
