package storage

import (
	"sync"

	"github.com/viper373/videostation/internal/models"
)

// DirectoryCache maps a normalized path prefix (the empty string is the
// root) to the ordered entries of one completed crawl. Population is
// monotonic: a present prefix is never re-fetched until Invalidate removes
// it. The cache is an injected value so tests get an isolated instance.
type DirectoryCache struct {
	mu      sync.RWMutex
	entries map[string][]models.Entry
}

// NewDirectoryCache returns an empty cache.
func NewDirectoryCache() *DirectoryCache {
	return &DirectoryCache{entries: make(map[string][]models.Entry)}
}

// Get returns the cached entries for prefix, if present. The returned slice
// is a copy; callers may reorder it freely.
func (c *DirectoryCache) Get(prefix string) ([]models.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.entries[prefix]
	if !ok {
		return nil, false
	}
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	return out, true
}

// Has reports whether prefix has been crawled.
func (c *DirectoryCache) Has(prefix string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[prefix]
	return ok
}

// Set stores the result of a completed crawl.
func (c *DirectoryCache) Set(prefix string, entries []models.Entry) {
	stored := make([]models.Entry, len(entries))
	copy(stored, entries)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[prefix] = stored
}

// Invalidate removes one prefix, forcing the next read to re-crawl. Used
// after mutating operations outside this engine.
func (c *DirectoryCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, prefix)
}

// Keys returns every cached prefix. Order is unspecified.
func (c *DirectoryCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}

// Len reports the number of cached prefixes.
func (c *DirectoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// All returns a snapshot of every cached prefix and its entries. The search
// engine walks this to build its corpus.
func (c *DirectoryCache) All() map[string][]models.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]models.Entry, len(c.entries))
	for prefix, entries := range c.entries {
		copied := make([]models.Entry, len(entries))
		copy(copied, entries)
		out[prefix] = copied
	}
	return out
}
