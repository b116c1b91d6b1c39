// file: internal/cache/cache.go
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is the key-value store used for catalog caching, request rate
// limiting and chat quota state.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Health(ctx context.Context) error
	Close() error
}

// Config represents cache configuration
type Config struct {
	Provider   string
	RedisURL   string
	DefaultTTL time.Duration
	MaxEntries int
}

// NewCache creates a cache for the configured provider, falling back to
// memory when redis is not configured.
func NewCache(cfg *Config, logger *zap.Logger) (Cache, error) {
	switch cfg.Provider {
	case "redis":
		return NewRedisCache(cfg, logger)
	case "", "memory":
		return NewMemoryCache(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache provider %q", cfg.Provider)
	}
}

// ===============================
// MEMORY CACHE
// ===============================

type cacheItem struct {
	value      interface{}
	expiresAt  time.Time
	lastAccess time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

type memoryCache struct {
	mu      sync.RWMutex
	items   map[string]*cacheItem
	config  *Config
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped sync.Once
}

// NewMemoryCache creates an in-process cache with periodic cleanup.
func NewMemoryCache(cfg *Config, logger *zap.Logger) Cache {
	c := &memoryCache{
		items:  make(map[string]*cacheItem),
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *memoryCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
		}
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || item.expired(time.Now()) {
		return nil, false
	}

	c.mu.Lock()
	item.lastAccess = time.Now()
	c.mu.Unlock()
	return item.value, true
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.DefaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.MaxEntries > 0 && len(c.items) >= c.config.MaxEntries {
		if _, exists := c.items[key]; !exists {
			c.evictOldestLocked()
		}
	}

	c.items[key] = &cacheItem{
		value:      value,
		expiresAt:  expiresAt,
		lastAccess: time.Now(),
	}
	return nil
}

// evictOldestLocked drops the least recently used entry. Caller holds the lock.
func (c *memoryCache) evictOldestLocked() {
	var oldestKey string
	var oldestAccess time.Time
	for key, item := range c.items {
		if oldestKey == "" || item.lastAccess.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = item.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) bool {
	_, ok := c.Get(ctx, key)
	return ok
}

func (c *memoryCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok || item.expired(time.Now()) {
		item = &cacheItem{value: int64(0), lastAccess: time.Now()}
		if c.config.DefaultTTL > 0 {
			item.expiresAt = time.Now().Add(c.config.DefaultTTL)
		}
		c.items[key] = item
	}

	current, ok := item.value.(int64)
	if !ok {
		return 0, fmt.Errorf("value at %q is not a counter", key)
	}
	current += delta
	item.value = current
	item.lastAccess = time.Now()
	return current, nil
}

func (c *memoryCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[key]; ok {
		item.expiresAt = time.Now().Add(ttl)
	}
	return nil
}

func (c *memoryCache) Health(ctx context.Context) error {
	return nil
}

func (c *memoryCache) Close() error {
	c.stopped.Do(func() { close(c.stopCh) })
	return nil
}

// ===============================
// REDIS CACHE
// ===============================

type redisCache struct {
	client *redis.Client
	config *Config
	logger *zap.Logger
}

// NewRedisCache connects to redis and verifies the connection.
func NewRedisCache(cfg *Config, logger *zap.Logger) (Cache, error) {
	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("Redis cache connected", zap.String("addr", options.Addr))
	return &redisCache{client: client, config: cfg, logger: logger}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.DefaultTTL
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Exists(ctx context.Context, key string) bool {
	n, err := c.client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

func (c *redisCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return c.client.IncrBy(ctx, key, delta).Result()
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

func (c *redisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

// AsInt64 converts a cached counter value from either provider.
func AsInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// AsBytes converts a cached payload value from either provider.
func AsBytes(v interface{}) ([]byte, bool) {
	switch t := v.(type) {
	case []byte:
		return t, true
	case string:
		return []byte(t), true
	}
	return nil, false
}
