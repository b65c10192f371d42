package cache

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// DefaultTTL is how long a cached registry lookup stays fresh.
const DefaultTTL = 15 * time.Minute

// Cache provides high-level registry caching with TTL expiry.
type Cache struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time
}

// DefaultPath returns the cache location under the XDG cache directory.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "boxsync", "registry")
}

// Open opens or creates a cache at the given path. A zero ttl uses
// DefaultTTL.
func Open(path string, ttl time.Duration) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{store: store, ttl: ttl, now: time.Now}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Get returns the cached entry if present and still fresh. Expired
// entries are dropped and reported as misses.
func (c *Cache) Get(registry, box, version string) (*Entry, error) {
	entry, err := c.store.Get(registry, box, version)
	if err != nil {
		return nil, err
	}

	if c.now().Sub(entry.FetchedAt) > c.ttl {
		_ = c.store.Delete(registry, box, version)
		return nil, ErrNotFound
	}
	return entry, nil
}

// Put stores an entry, stamping the fetch time.
func (c *Cache) Put(registry, box, version string, entry *Entry) error {
	entry.FetchedAt = c.now()
	return c.store.Put(registry, box, version, entry)
}

// Invalidate removes every cached version of a box.
func (c *Cache) Invalidate(registry, box string) error {
	return c.store.DeletePrefix(registry, box)
}

// Clear removes all cached entries for a registry.
func (c *Cache) Clear(registry string) error {
	return c.store.DeletePrefix(registry, "")
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrNotFound)
}
