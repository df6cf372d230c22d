package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/avendale/lodforge/internal/assets"
	"github.com/avendale/lodforge/pkg/simplify"
)

// Cache maps (source asset, quality) pairs to binary artifacts on disk.
// Artifacts live flat under the cache root as <base>_<suffix>.glb.
type Cache struct {
	root string
	log  *zap.Logger

	mu     sync.Mutex
	hits   int
	misses int
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{root: dir, log: log}
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Resolve returns the artifact path for a source asset at a quality.
// sourceID may be a path; only its base name identifies the asset.
func (c *Cache) Resolve(sourceID string, q simplify.Quality) string {
	name := assets.BaseName(sourceID) + "_" + q.Suffix() + ".glb"
	return filepath.Join(c.root, name)
}

// Exists reports whether an artifact is present for the pair.
func (c *Cache) Exists(sourceID string, q simplify.Quality) bool {
	info, err := os.Stat(c.Resolve(sourceID, q))
	return err == nil && !info.IsDir()
}

// Lookup loads a cached artifact. A present but unreadable artifact is
// treated as corrupt: it is deleted and the lookup reported as a miss, so
// the caller recomputes it.
func (c *Cache) Lookup(sourceID string, q simplify.Quality) (*assets.Asset, bool) {
	path := c.Resolve(sourceID, q)

	a, err := assets.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("dropping corrupt cache artifact",
				zap.String("path", path),
				zap.Error(err))
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				c.log.Warn("removing corrupt artifact failed",
					zap.String("path", path),
					zap.Error(rmErr))
			}
		}
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return a, true
}

// Invalidate removes the cached artifacts for a source asset at the given
// qualities. Missing artifacts are not an error.
func (c *Cache) Invalidate(sourceID string, qualities []simplify.Quality) error {
	for _, q := range qualities {
		path := c.Resolve(sourceID, q)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("invalidating %s: %w", path, err)
		}
	}
	return nil
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// PersistTask is an in-flight background write of a cache artifact.
type PersistTask struct {
	path string
	done chan struct{}
	err  error
}

// Wait blocks until the write finishes and returns its error.
func (t *PersistTask) Wait() error {
	<-t.done
	return t.err
}

// Path returns the artifact path being written.
func (t *PersistTask) Path() string {
	return t.path
}

// Persist writes an artifact in the background. Callers must Wait on the
// returned task before relying on the artifact being present.
func (c *Cache) Persist(a *assets.Asset, sourceID string, q simplify.Quality) *PersistTask {
	t := &PersistTask{
		path: c.Resolve(sourceID, q),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		if err := assets.Write(a, t.path); err != nil {
			t.err = fmt.Errorf("persisting %s: %w", t.path, err)
		}
	}()
	return t
}
