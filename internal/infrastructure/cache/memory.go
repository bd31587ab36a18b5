package cache

import (
	"context"
	"sync"
	"time"

	"github.com/basketlens/backend/internal/domain"
)

// cacheItem represents a single snapshot in the cache with expiration
type cacheItem struct {
	Snapshot   *domain.CatalogSnapshot
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory snapshot cache with TTL support.
// Stored snapshots are shared, not copied; callers must treat them as read-only.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		stop: make(chan struct{}),
	}

	// Remove expired entries every 10 minutes
	go cache.cleanupExpired(10 * time.Minute)

	return cache
}

// Get retrieves a snapshot from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.CatalogSnapshot, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	return item.Snapshot, nil
}

// Set stores a snapshot in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, snapshot *domain.CatalogSnapshot, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Snapshot:   snapshot,
		Expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a snapshot from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Stat returns the metadata of a stored snapshot, expired or not.
// Expired entries stay visible here until the cleanup sweep removes them.
func (c *MemoryCache) Stat(ctx context.Context, key string) (*domain.SnapshotMeta, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	return &domain.SnapshotMeta{
		FetchedAt:    item.Snapshot.FetchedAt,
		ExpiresAt:    item.Expiration,
		LastModified: item.Snapshot.LastModified,
	}, nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, item := range c.data {
				if now.After(item.Expiration) {
					delete(c.data, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
