package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// RedisCache stores msgpack-encoded entries in Redis so every worker shares
// one cache. Expiry is left to the key TTL.
type RedisCache struct {
	client    *redis.Client
	prefix    string
	duration  time.Duration
	hitCount  atomic.Int64
	missCount atomic.Int64
}

// NewRedisCache creates a cache over an existing client. The client is not
// closed by Close.
func NewRedisCache(client *redis.Client, prefix string, duration time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, duration: duration}
}

// Get retrieves an entry from cache
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.missCount.Add(1)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache key %s: %w", key, err)
	}

	var entry Entry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		c.missCount.Add(1)
		return nil, fmt.Errorf("decoding cache key %s: %w", key, err)
	}
	c.hitCount.Add(1)
	entry.AccessedAt = time.Now()
	return &entry, nil
}

// Set stores an entry in cache
func (c *RedisCache) Set(ctx context.Context, key string, entry *Entry) error {
	now := time.Now()
	stored := *entry
	stored.Key = key
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(c.duration)
	stored.AccessedAt = now

	data, err := msgpack.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("encoding cache key %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.duration).Err(); err != nil {
		return fmt.Errorf("writing cache key %s: %w", key, err)
	}
	return nil
}

// Delete removes an entry from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Exists checks if an entry exists in cache
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes every key under the cache prefix
func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}
	c.hitCount.Store(0)
	c.missCount.Store(0)
	return nil
}

// GetStats returns the entry count and this process's hit counters
func (c *RedisCache) GetStats(ctx context.Context) (*Stats, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return nil, err
	}

	hits, misses := c.hitCount.Load(), c.missCount.Load()
	stats := &Stats{
		TotalEntries: len(keys),
		HitCount:     hits,
		MissCount:    misses,
	}
	if hits+misses > 0 {
		stats.HitRate = float64(hits) / float64(hits+misses)
	}
	return stats, nil
}

// Close is a no-op; the client belongs to the caller
func (c *RedisCache) Close() error {
	return nil
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning cache keys: %w", err)
	}
	return keys, nil
}
