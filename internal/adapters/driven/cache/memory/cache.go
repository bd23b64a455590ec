// Package memory provides an in-process TTL cache for source executor results.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
	"github.com/custodia-labs/rememba-cli/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.CacheService = (*Cache)(nil)

// Cache is an in-memory implementation of driven.CacheService. Expired
// entries are dropped lazily on read and swept periodically.
type Cache struct {
	mu      sync.RWMutex
	entries map[driven.CacheKey]driven.CacheEntry

	stopOnce sync.Once
	stop     chan struct{}
}

// NewCache creates a cache and starts a background sweep at the given
// interval. interval <= 0 disables the sweeper.
func NewCache(sweepInterval time.Duration) *Cache {
	c := &Cache{
		entries: make(map[driven.CacheKey]driven.CacheEntry),
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

// Get returns the cached entry for the key, or domain.ErrNotFound on a
// miss or an expired entry.
func (c *Cache) Get(_ context.Context, key driven.CacheKey) (*driven.CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, domain.ErrNotFound
	}
	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a Set may have refreshed it.
		if current, ok := c.entries[key]; ok && time.Now().After(current.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Set stores candidates under the key. A nil or empty slice records a
// negative entry.
func (c *Cache) Set(_ context.Context, key driven.CacheKey, candidates []domain.Candidate, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	stored := make([]domain.Candidate, len(candidates))
	copy(stored, candidates)

	c.mu.Lock()
	c.entries[key] = driven.CacheEntry{
		Candidates: stored,
		ExpiresAt:  time.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Delete removes an entry. Idempotent.
func (c *Cache) Delete(_ context.Context, key driven.CacheKey) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len reports the number of live entries, counting expired ones not yet
// swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.ExpiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
