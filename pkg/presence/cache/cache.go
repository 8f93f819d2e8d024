package cache

import (
	"context"
	"time"
)

// Cache interface defines the operations for a caching system
type Cache interface {
	// Get retrieves data from the cache
	Get(ctx context.Context, key string, value interface{}) error
	// Set stores data in the cache
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete removes data from the cache
	Delete(ctx context.Context, key string) error
	// Exists checks if a key exists in the cache
	Exists(ctx context.Context, key string) (bool, error)
	// Flush clears all data from the cache
	Flush(ctx context.Context) error
	// Close closes the cache connection
	Close() error
}

// Error represents a cache-related error
type Error struct {
	Message string
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

// Note: RedisConfig is now fully defined in init.go to prevent redeclaration errors

// Note: stubCache has been removed as part of the Go workspace migration.
// Use redis_cache.go and redis_cluster.go implementations instead,
// which provide full cache functionality with Redis.

// Note: NewCache is now fully implemented in init.go to prevent redeclaration errors
