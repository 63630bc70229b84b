package moderation

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache defaults.
const (
	DefaultCacheTTL      = 60 * time.Second
	DefaultCacheCapacity = 10_000
)

// Cache stores verdicts keyed by normalized scan text.
// Entries must not be served after their TTL.
type Cache interface {
	// Get returns the cached verdict and whether one was present.
	Get(ctx context.Context, key string) (safe bool, ok bool)

	// Set stores a verdict for the cache's TTL.
	Set(ctx context.Context, key string, safe bool)
}

// MemoryCache is an in-process expiring LRU cache.
type MemoryCache struct {
	data *expirable.LRU[string, bool]
}

// NewMemoryCache creates a cache holding up to capacity verdicts for ttl.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		data: expirable.NewLRU[string, bool](capacity, nil, ttl),
	}
}

// Get returns the cached verdict for key.
func (c *MemoryCache) Get(_ context.Context, key string) (bool, bool) {
	return c.data.Get(key)
}

// Set stores a verdict for key.
func (c *MemoryCache) Set(_ context.Context, key string, safe bool) {
	c.data.Add(key, safe)
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	return c.data.Len()
}

var _ Cache = (*MemoryCache)(nil)
