// Package cache provides a response cache for idempotent tool fetches,
// backed by Redis when configured and an in-process LRU otherwise
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsline/engine/internal/util"
)

type (
	// Cache stores serialized tool responses keyed by request identity
	Cache interface {
		Get(ctx context.Context, key string) ([]byte, bool)
		Put(ctx context.Context, key string, value []byte)
		Close() error
	}

	// RedisCache stores responses in Redis with a TTL
	RedisCache struct {
		client *redis.Client
		ttl    time.Duration
	}

	// MemoryCache stores responses in a bounded in-process LRU. Entries
	// carry an expiry so TTL semantics match the Redis implementation
	MemoryCache struct {
		entries *util.LRUCache[memoryEntry]
		ttl     time.Duration
	}

	memoryEntry struct {
		expires time.Time
		value   []byte
	}
)

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*MemoryCache)(nil)
)

// NewRedisCache creates a Redis-backed cache and verifies connectivity
func NewRedisCache(
	ctx context.Context, addr, password string, db int, ttl time.Duration,
) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get retrieves a cached response, reporting whether it was present
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	return val, true
}

// Put stores a response under the cache TTL. Write failures are logged and
// otherwise ignored; the cache is advisory
func (c *RedisCache) Put(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		slog.Warn("Cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// Close releases the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NewMemoryCache creates an in-process cache with the given entry bound
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: util.NewLRUCache[memoryEntry](maxSize),
		ttl:     ttl,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	entry, ok := c.entries.Get(key)
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Put(_ context.Context, key string, value []byte) {
	c.entries.Put(key, memoryEntry{
		expires: time.Now().Add(c.ttl),
		value:   value,
	})
}

func (c *MemoryCache) Close() error {
	return nil
}

// Key computes a deterministic cache key from the given request parts
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "opsline:" + hex.EncodeToString(hash[:])
}
