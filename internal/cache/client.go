// internal/cache/client.go
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/javajoker/jewelry-backend/internal/config"
)

// Client is the cache contract the services depend on.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ErrCacheMiss is returned when the key is not in the cache.
var ErrCacheMiss = redis.Nil

type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisClient{rdb: rdb}, nil
}

func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

func (c *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}

// MemoryClient is an in-process Client used when Redis is disabled and in
// tests. Values are stored as their fmt string form, like Redis does.
type MemoryClient struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryClient) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (c *MemoryClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	entry := memoryEntry{value: stringify(value)}
	if expiration > 0 {
		entry.expiresAt = c.now().Add(expiration)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryClient) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Open returns a Redis client when enabled, and an in-process client
// otherwise.
func Open(cfg config.RedisConfig) (Client, error) {
	if !cfg.Enabled {
		return NewMemoryClient(), nil
	}
	client, err := NewRedisClient(cfg.Addr(), cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	return client, nil
}
