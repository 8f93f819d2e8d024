package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a key is not found in the cache
var ErrNotFound = errors.New("key not found in cache")

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Type         string        `mapstructure:"type"`           // "redis" or "redis_cluster"
	Address      string        `mapstructure:"address"`        // Redis address (single instance)
	Addresses    []string      `mapstructure:"addresses"`      // Redis addresses (cluster mode)
	Username     string        `mapstructure:"username"`       // Redis username
	Password     string        `mapstructure:"password"`       // Redis password
	Database     int           `mapstructure:"database"`       // Redis database number (single mode only)
	MaxRetries   int           `mapstructure:"max_retries"`    // Max retries on failure
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`   // Dial timeout
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`   // Read timeout
	WriteTimeout time.Duration `mapstructure:"write_timeout"`  // Write timeout
	PoolSize     int           `mapstructure:"pool_size"`      // Connection pool size
	MinIdleConns int           `mapstructure:"min_idle_conns"` // Min idle connections
	PoolTimeout  int           `mapstructure:"pool_timeout"`   // Pool timeout in seconds
	UseIAMAuth   bool          `mapstructure:"use_iam_auth"`   // Use TLS the way a managed Redis' in-transit encryption requires

	// TLS configuration
	TLS *TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds the subset of TLS settings a Redis connection needs.
type TLSConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

// NewCache creates a new cache based on the configuration.
func NewCache(ctx context.Context, cfg interface{}) (Cache, error) {
	config, ok := cfg.(RedisConfig)
	if !ok {
		return nil, fmt.Errorf("unsupported cache type: %T", cfg)
	}

	if config.Type == "redis_cluster" || len(config.Addresses) > 0 {
		return newRedisClusterClient(config)
	}

	return NewRedisCache(config)
}

// newRedisClusterClient creates a new Redis cluster client
func newRedisClusterClient(config RedisConfig) (Cache, error) {
	clusterConfig := RedisClusterConfig{
		Addrs:          config.Addresses,
		Username:       config.Username,
		Password:       config.Password,
		MaxRetries:     config.MaxRetries,
		MinIdleConns:   config.MinIdleConns,
		PoolSize:       config.PoolSize,
		DialTimeout:    config.DialTimeout,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		PoolTimeout:    time.Duration(config.PoolTimeout) * time.Second,
		RouteRandomly:  true,
		RouteByLatency: true,
	}

	if config.UseIAMAuth || (config.TLS != nil && config.TLS.Enabled) {
		clusterConfig.UseTLS = true
	}

	return NewRedisClusterCache(clusterConfig)
}
