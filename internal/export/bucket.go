// Package export writes the observation table and its summaries to a blob
// bucket as Parquet, zstd JSON Lines, XLSX and PDF, with a manifest.
package export

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/memblob"  // mem:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
)

// OpenBucket opens the bucket at bucketURL. Relative file:// URLs such as
// file://./out are resolved against the working directory and created.
func OpenBucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	resolved, err := resolveFileURL(bucketURL)
	if err != nil {
		return nil, err
	}

	bucket, err := blob.OpenBucket(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}

	return bucket, nil
}

func resolveFileURL(bucketURL string) (string, error) {
	if !strings.HasPrefix(bucketURL, "file://") {
		return bucketURL, nil
	}

	u, err := url.Parse(bucketURL)
	if err != nil {
		return "", fmt.Errorf("parse bucket url %s: %w", bucketURL, err)
	}

	dir := u.Host + u.Path

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", abs, err)
	}

	resolved := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: u.RawQuery}

	return resolved.String(), nil
}
