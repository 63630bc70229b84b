package moderation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"solana-token-feed/internal/idhash"
)

// RedisCache shares verdicts between instances through Redis, with a small
// TinyLFU tier in front. Redis errors are logged and treated as misses.
type RedisCache struct {
	rdb    *redis.Client
	data   *cache.Cache
	ttl    time.Duration
	prefix string
	logger *log.Logger
}

// NewRedisCache connects to redisURL (redis://host:port/db) and verifies the
// connection.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration, logger *log.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisCacheWithClient(rdb, ttl, logger), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(rdb *redis.Client, ttl time.Duration, logger *log.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RedisCache{
		data: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(DefaultCacheCapacity, ttl),
		}),
		rdb:    rdb,
		ttl:    ttl,
		prefix: "moderation/",
		logger: logger,
	}
}

// Get returns the cached verdict for key.
func (c *RedisCache) Get(ctx context.Context, key string) (bool, bool) {
	var safe bool
	err := c.data.Get(ctx, c.redisKey(key), &safe)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, false
	}
	if err != nil {
		c.logger.Printf("[moderation] redis cache get: %v", err)
		return false, false
	}
	return safe, true
}

// Set stores a verdict for key.
func (c *RedisCache) Set(ctx context.Context, key string, safe bool) {
	err := c.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   c.redisKey(key),
		Value: safe,
		TTL:   c.ttl,
	})
	if err != nil {
		c.logger.Printf("[moderation] redis cache set: %v", err)
	}
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func (c *RedisCache) redisKey(key string) string {
	return c.prefix + idhash.ComputeScanKeyHash(key)
}

var _ Cache = (*RedisCache)(nil)
