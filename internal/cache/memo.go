// Package cache memoizes normalized datasets per source file version.
package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"enrprod/internal/loader"
	"enrprod/internal/metrics"
	"enrprod/internal/models"
)

// Builder produces the dataset of a source file.
type Builder interface {
	Build(ctx context.Context, path string) (*models.Dataset, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, path string) (*models.Dataset, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, path string) (*models.Dataset, error) {
	return f(ctx, path)
}

// Memo caches datasets keyed by file path, modification time and size, so
// an edited file is rebuilt on the next Get. Failed builds are not cached.
// Memo is safe for concurrent use; concurrent misses on one key build once
// and hits never wait on a build.
type Memo struct {
	builder Builder
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries *lru.Cache
	// current maps an absolute path to the key of its latest cached version.
	current  map[string]string
	inflight map[string]*build
}

type entry struct {
	path string
	ds   *models.Dataset
}

// build is a Build call in progress. ds and err are set before done closes.
type build struct {
	done chan struct{}
	ds   *models.Dataset
	err  error
}

// NewMemo creates a memo holding at most size datasets.
func NewMemo(builder Builder, size int, m *metrics.Metrics) (*Memo, error) {
	c := &Memo{
		builder:  builder,
		metrics:  m,
		current:  make(map[string]string),
		inflight: make(map[string]*build),
	}

	// entries is only mutated under c.mu, so onEvict may touch current.
	entries, err := lru.NewWithEvict(size, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	c.entries = entries

	return c, nil
}

func (c *Memo) onEvict(key, value interface{}) {
	e := value.(entry)
	if c.current[e.path] == key.(string) {
		delete(c.current, e.path)
	}
}

// Get returns the dataset of path, building it when the file changed or was
// never built.
func (c *Memo) Get(ctx context.Context, path string) (*models.Dataset, error) {
	fp, err := loader.Stat(path)
	if err != nil {
		return nil, err
	}

	key := fp.Key()

	c.mu.Lock()

	if v, ok := c.entries.Get(key); ok {
		c.mu.Unlock()
		c.metrics.RecordCache(true)

		return v.(entry).ds, nil
	}

	if b, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		c.metrics.RecordCache(true)

		select {
		case <-b.done:
			return b.ds, b.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b := &build{done: make(chan struct{})}
	c.inflight[key] = b
	c.mu.Unlock()

	c.metrics.RecordCache(false)

	b.ds, b.err = c.builder.Build(ctx, path)

	c.mu.Lock()
	delete(c.inflight, key)

	if b.err == nil {
		if old, ok := c.current[fp.Path]; ok && old != key {
			c.entries.Remove(old)
		}

		c.entries.Add(key, entry{path: fp.Path, ds: b.ds})
		c.current[fp.Path] = key
	}
	c.mu.Unlock()

	close(b.done)

	return b.ds, b.err
}

// Invalidate drops the cached dataset of path and reports whether one was
// cached.
func (c *Memo) Invalidate(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key, ok := c.current[abs]
	if !ok {
		return false
	}

	delete(c.current, abs)

	return c.entries.Remove(key)
}

// Purge drops every cached dataset.
func (c *Memo) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	c.current = make(map[string]string)
}

// Len returns the number of cached datasets.
func (c *Memo) Len() int {
	return c.entries.Len()
}

// Passthrough builds on every Get. It stands in for a Memo when caching is
// disabled.
type Passthrough struct {
	Builder Builder
}

// Get builds the dataset of path.
func (p Passthrough) Get(ctx context.Context, path string) (*models.Dataset, error) {
	return p.Builder.Build(ctx, path)
}

// Invalidate has nothing to drop.
func (p Passthrough) Invalidate(string) bool {
	return false
}
