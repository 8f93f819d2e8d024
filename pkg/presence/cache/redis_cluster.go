package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClusterCache implements Cache against a sharded Redis deployment,
// the scale-out option behind NewCache when RedisConfig names multiple
// Addresses: presence and opstore's cache-aside reads don't care which
// backend answers them, only that RedisCache and RedisClusterCache satisfy
// the same interface.
type RedisClusterCache struct {
	client *redis.ClusterClient
	config RedisClusterConfig
}

// RedisClusterConfig holds configuration for Redis in cluster mode
type RedisClusterConfig struct {
	Addrs          []string
	Username       string
	Password       string
	MaxRetries     int
	MinIdleConns   int
	PoolSize       int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PoolTimeout    time.Duration
	UseTLS         bool
	TLSConfig      *tls.Config
	RouteRandomly  bool
	RouteByLatency bool
}

// NewRedisClusterCache dials every seed address in cfg.Addrs and verifies at
// least one shard answers before returning, so a misconfigured cluster
// fails at construction time rather than on the first cache-aside read.
func NewRedisClusterCache(cfg RedisClusterConfig) (*RedisClusterCache, error) {
	options := &redis.ClusterOptions{
		Addrs:          cfg.Addrs,
		MaxRetries:     cfg.MaxRetries,
		MinIdleConns:   cfg.MinIdleConns,
		PoolSize:       cfg.PoolSize,
		DialTimeout:    cfg.DialTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		PoolTimeout:    cfg.PoolTimeout,
		RouteRandomly:  cfg.RouteRandomly,
		RouteByLatency: cfg.RouteByLatency,
	}

	if cfg.Username != "" {
		options.Username = cfg.Username
	}
	if cfg.Password != "" {
		options.Password = cfg.Password
	}
	if cfg.UseTLS {
		options.TLSConfig = cfg.TLSConfig
	}

	client := redis.NewClusterClient(options)

	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis cluster: %w", err)
	}

	return &RedisClusterCache{
		client: client,
		config: cfg,
	}, nil
}

// Get retrieves a value from the cache
func (c *RedisClusterCache) Get(ctx context.Context, key string, value any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get value from cache: %w", err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Set stores a value in the cache
func (c *RedisClusterCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set value in cache: %w", err)
	}
	return nil
}

// Delete removes a value from the cache
func (c *RedisClusterCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete value from cache: %w", err)
	}
	return nil
}

// Exists checks if a key exists in the cache
func (c *RedisClusterCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if key exists: %w", err)
	}
	return result > 0, nil
}

// Flush clears all values in the cache. A cluster has no single FLUSHALL
// target, so each shard is flushed independently.
func (c *RedisClusterCache) Flush(ctx context.Context) error {
	err := c.client.ForEachShard(ctx, func(ctx context.Context, shard *redis.Client) error {
		return shard.FlushAll(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}

// Close closes the Redis cluster connection
func (c *RedisClusterCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis cluster client, for callers that
// need cluster-specific operations Cache doesn't expose (e.g. pipelines
// scoped to a single shard).
func (c *RedisClusterCache) GetClient() *redis.ClusterClient {
	return c.client
}
