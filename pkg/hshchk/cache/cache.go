// Package cache stores file digests between runs so that create runs can
// skip re-hashing files whose size and modification time are unchanged.
package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

// DefaultPath returns $XDG_CACHE_HOME/hshchk/digests.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "hshchk", "digests")
}

// Stats describes the cache contents.
type Stats struct {
	Entries int
	Roots   int
}

// Cache provides digest lookups and buffered updates on top of Store.
type Cache struct {
	store *Store

	mu      sync.Mutex
	pending map[string]map[string]*Entry // root -> relPath -> entry
}

// Open opens or creates a cache at path.
func Open(path string) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &Cache{
		store:   store,
		pending: make(map[string]map[string]*Entry),
	}, nil
}

// Close closes the cache. Unflushed records are discarded.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Lookup returns the cached digest for a file when its size and
// modification time still match.
func (c *Cache) Lookup(root, relPath, algorithm string, size int64, mtime time.Time) (string, bool) {
	entry, err := c.store.Get(root, relPath)
	if err != nil {
		return "", false
	}
	if !entry.Matches(size, mtime.UnixNano()) {
		return "", false
	}
	sum, ok := entry.Digests[algorithm]
	return sum, ok && sum != ""
}

// Record buffers a digest until Flush is called for root.
func (c *Cache) Record(root, relPath, algorithm string, size int64, mtime time.Time, sum string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byPath, ok := c.pending[root]
	if !ok {
		byPath = make(map[string]*Entry)
		c.pending[root] = byPath
	}

	entry, ok := byPath[relPath]
	if !ok || !entry.Matches(size, mtime.UnixNano()) {
		entry = c.existing(root, relPath, size, mtime)
		byPath[relPath] = entry
	}
	entry.Digests[algorithm] = sum
}

// existing returns the stored entry when it matches, so that digests of
// other algorithms are kept, or a fresh one.
func (c *Cache) existing(root, relPath string, size int64, mtime time.Time) *Entry {
	stored, err := c.store.Get(root, relPath)
	if err == nil && stored.Matches(size, mtime.UnixNano()) && stored.Digests != nil {
		return stored
	}
	return &Entry{
		Version: Version,
		Size:    size,
		Mtime:   mtime.UnixNano(),
		Digests: make(map[string]string),
	}
}

// Flush writes buffered records for root.
func (c *Cache) Flush(root string) error {
	c.mu.Lock()
	byPath := c.pending[root]
	delete(c.pending, root)
	c.mu.Unlock()

	if len(byPath) == 0 {
		return nil
	}
	if err := c.store.PutBatch(root, byPath); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Discard drops buffered records for root.
func (c *Cache) Discard(root string) {
	c.mu.Lock()
	delete(c.pending, root)
	c.mu.Unlock()
}

// Clear removes all entries for root.
func (c *Cache) Clear(root string) error {
	if root == "" {
		return errors.New("cache: empty root")
	}
	return c.store.DeletePrefix(root)
}

// ClearAll removes every entry.
func (c *Cache) ClearAll() error {
	return c.store.DeletePrefix("")
}

// Stats returns entry and root counts.
func (c *Cache) Stats() (Stats, error) {
	entries, roots, err := c.store.Count()
	if err != nil {
		return Stats{}, fmt.Errorf("reading cache: %w", err)
	}
	return Stats{Entries: entries, Roots: roots}, nil
}
