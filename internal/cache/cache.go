// file: internal/cache/cache.go
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ===============================
// CACHE INTERFACE
// ===============================

// Cache stores opaque byte payloads under string keys. Values are always
// written with a TTL; a miss and an expired entry are indistinguishable.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Health(ctx context.Context) error
	Close() error
}

// Config holds cache configuration.
type Config struct {
	// Provider is "memory" or "redis".
	Provider string

	// Redis settings, used only when Provider is "redis".
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PoolSize      int
}

// DefaultConfig returns an in-memory cache configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: "memory",
		PoolSize: 10,
	}
}

// New creates a cache for the configured provider.
func New(config *Config, logger *zap.Logger) (Cache, error) {
	switch config.Provider {
	case "redis":
		return NewRedisCache(config, logger)
	case "memory", "":
		return NewMemoryCache(logger), nil
	default:
		return nil, fmt.Errorf("unknown cache provider %q", config.Provider)
	}
}

// ===============================
// MEMORY CACHE IMPLEMENTATION
// ===============================

type memoryCache struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	logger *zap.Logger
	stopCh chan struct{}
	once   sync.Once
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-process cache. Suitable for single-instance
// deployments and tests; expired entries are swept every minute.
func NewMemoryCache(logger *zap.Logger) Cache {
	c := &memoryCache{
		items:  make(map[string]memoryItem),
		logger: logger,
		stopCh: make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	c.mu.Lock()
	c.items[key] = memoryItem{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Health(_ context.Context) error { return nil }

func (c *memoryCache) Close() error {
	c.once.Do(func() { close(c.stopCh) })
	return nil
}

func (c *memoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// ===============================
// REDIS CACHE IMPLEMENTATION
// ===============================

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed cache and verifies connectivity.
func NewRedisCache(config *Config, logger *zap.Logger) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.RedisAddr, err)
	}

	logger.Info("redis cache connected", zap.String("addr", config.RedisAddr))
	return &redisCache{client: client, logger: logger}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
