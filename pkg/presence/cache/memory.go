package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryCache implements an in-memory cache. Values are stored as their
// JSON encoding rather than the raw interface{} so Get can populate an
// arbitrary destination the same way the Redis-backed caches do, instead
// of silently returning a zero value.
type MemoryCache struct {
	items      map[string]cacheItem
	mu         sync.RWMutex
	maxItems   int
	defaultTTL time.Duration
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(maxItems int, defaultTTL time.Duration) Cache {
	return &MemoryCache{
		items:      make(map[string]cacheItem),
		maxItems:   maxItems,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves data from the cache
func (c *MemoryCache) Get(ctx context.Context, key string, value interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return ErrNotFound
	}

	if time.Now().After(item.expiration) {
		return ErrNotFound
	}

	return json.Unmarshal(item.value, value)
}

// Set stores data in the cache
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	// Evict oldest item if at capacity
	if len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = cacheItem{
		value:      data,
		expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes data from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Exists checks if a key exists in the cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return false, nil
	}

	return !time.Now().After(item.expiration), nil
}

// Flush clears all data from the cache
func (c *MemoryCache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Close closes the cache connection
func (c *MemoryCache) Close() error {
	return nil
}

// evictOldest removes the oldest item from cache
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.expiration.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.expiration
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
