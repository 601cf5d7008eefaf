package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/codepay/pkg/cache"
)

// MemoryCache implements cache.AliasCache in process memory.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	userID    string
	expiresAt time.Time
}

// NewMemoryCache creates a cache whose expired entries are purged every
// cleanupEvery. A zero cleanupEvery disables the purge loop.
func NewMemoryCache(cleanupEvery time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go c.cleanup(cleanupEvery)
	}
	return c
}

// Get returns the cached user id for alias.
func (c *MemoryCache) Get(_ context.Context, alias string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[alias]
	if !ok || c.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.userID, true, nil
}

// Set stores alias with ttl.
func (c *MemoryCache) Set(_ context.Context, alias, userID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[alias] = cacheEntry{userID: userID, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete drops alias.
func (c *MemoryCache) Delete(_ context.Context, alias string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, alias)
	return nil
}

// Len reports how many entries are held, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the purge loop.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *MemoryCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

var _ cache.AliasCache = (*MemoryCache)(nil)
