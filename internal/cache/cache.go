package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pep299/news-hydrator/internal/model"
)

// Cache interface defines cache operations
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// Entry is a cached analysis
type Entry struct {
	Key         string         `json:"key"`
	Analysis    model.Analysis `json:"analysis"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	AccessedAt  time.Time      `json:"accessed_at"`
	AccessCount int            `json:"access_count"`
}

// Stats represents cache statistics
type Stats struct {
	TotalEntries   int           `json:"total_entries"`
	HitCount       int64         `json:"hit_count"`
	MissCount      int64         `json:"miss_count"`
	HitRate        float64       `json:"hit_rate"`
	MemoryUsage    int64         `json:"memory_usage_bytes"`
	OldestEntry    time.Time     `json:"oldest_entry"`
	AverageAge     time.Duration `json:"average_age"`
	ExpiredEntries int           `json:"expired_entries"`
}

// ErrCacheMiss is returned by Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// MemoryCache implements in-memory cache
type MemoryCache struct {
	entries   map[string]*Entry
	mutex     sync.RWMutex
	duration  time.Duration
	hitCount  int64
	missCount int64
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(duration time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:  make(map[string]*Entry),
		duration: duration,
		done:     make(chan struct{}),
	}

	go cache.cleanup(10 * time.Minute)

	return cache
}

// Get retrieves an entry from cache
func (c *MemoryCache) Get(ctx context.Context, key string) (*Entry, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return nil, ErrCacheMiss
	}

	if time.Now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.missCount++
		return nil, ErrCacheMiss
	}

	entry.AccessedAt = time.Now()
	entry.AccessCount++
	c.hitCount++

	copied := *entry
	return &copied, nil
}

// Set stores an entry in cache
func (c *MemoryCache) Set(ctx context.Context, key string, entry *Entry) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	stored := *entry
	stored.Key = key
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(c.duration)
	stored.AccessedAt = now
	stored.AccessCount = 0

	c.entries[key] = &stored
	return nil
}

// Delete removes an entry from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if an entry exists in cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return false, nil
	}

	return !time.Now().After(entry.ExpiresAt), nil
}

// Clear removes all entries from cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*Entry)
	c.hitCount = 0
	c.missCount = 0
	return nil
}

// GetStats returns cache statistics
func (c *MemoryCache) GetStats(ctx context.Context) (*Stats, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := &Stats{
		TotalEntries: len(c.entries),
		HitCount:     c.hitCount,
		MissCount:    c.missCount,
	}

	if c.hitCount+c.missCount > 0 {
		stats.HitRate = float64(c.hitCount) / float64(c.hitCount+c.missCount)
	}

	var totalAge time.Duration
	now := time.Now()
	for _, entry := range c.entries {
		stats.MemoryUsage += estimateMemoryUsage(entry)

		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		totalAge += now.Sub(entry.CreatedAt)

		if now.After(entry.ExpiresAt) {
			stats.ExpiredEntries++
		}
	}

	if len(c.entries) > 0 {
		stats.AverageAge = totalAge / time.Duration(len(c.entries))
	}

	return stats, nil
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// cleanup removes expired entries periodically
func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

// cleanupExpired removes expired entries
func (c *MemoryCache) cleanupExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
}

// estimateMemoryUsage approximates the size of an entry by its JSON length
func estimateMemoryUsage(entry *Entry) int64 {
	data, err := json.Marshal(entry)
	if err != nil {
		return 0
	}
	return int64(len(data))
}

// Manager handles cache operations with convenience methods
type Manager struct {
	cache Cache
}

// NewManager creates a new cache manager
func NewManager(cacheType string, duration time.Duration) (*Manager, error) {
	var cache Cache

	switch cacheType {
	case "memory":
		cache = NewMemoryCache(duration)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}

	return &Manager{cache: cache}, nil
}

// NewManagerWithCache wraps an existing cache
func NewManagerWithCache(cache Cache) *Manager {
	return &Manager{cache: cache}
}

// GetAnalysis retrieves the cached analysis of a text
func (m *Manager) GetAnalysis(ctx context.Context, text string) (*model.Analysis, error) {
	entry, err := m.cache.Get(ctx, GenerateKey(text))
	if err != nil {
		return nil, err
	}
	return &entry.Analysis, nil
}

// SetAnalysis caches the analysis of a text
func (m *Manager) SetAnalysis(ctx context.Context, text string, analysis model.Analysis) error {
	return m.cache.Set(ctx, GenerateKey(text), &Entry{Analysis: analysis})
}

// IsCached checks if a text has a cached analysis
func (m *Manager) IsCached(ctx context.Context, text string) (bool, error) {
	return m.cache.Exists(ctx, GenerateKey(text))
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	return m.cache.GetStats(ctx)
}

// Clear clears all cached entries
func (m *Manager) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// Close releases the underlying cache
func (m *Manager) Close() error {
	return m.cache.Close()
}

// GenerateKey hashes the text so keys have a fixed length
func GenerateKey(text string) string {
	hash := md5.Sum([]byte(text))
	return fmt.Sprintf("analysis:%x", hash)
}
