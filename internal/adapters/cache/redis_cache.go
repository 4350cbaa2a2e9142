package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "urlcache:"

// RedisCache is a Redis implementation of the CacheRepository interface.
// Expiry is delegated to Redis key TTLs.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	clock  core.Clock
}

// NewRedisCache creates a new Redis cache and verifies the connection
func NewRedisCache(ctx context.Context, addr, password string, db int, logger *zap.Logger, clock core.Clock) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &RedisCache{client: client, logger: logger, clock: clock}, nil
}

type redisEntry struct {
	Result    *core.AnalysisResult `json:"result"`
	StoredAt  time.Time            `json:"stored_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Get retrieves a live entry for a key
func (c *RedisCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	var stored redisEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}

	entry := &core.CacheEntry{
		Key:       key,
		Result:    stored.Result,
		StoredAt:  stored.StoredAt,
		ExpiresAt: stored.ExpiresAt,
	}
	// The injected clock may run ahead of the server's TTL bookkeeping.
	if entry.Expired(c.clock.Now()) {
		return nil, ports.ErrCacheMiss
	}

	return entry, nil
}

// Set stores a cache entry with a TTL matching its expiry
func (c *RedisCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	ttl := entry.ExpiresAt.Sub(c.clock.Now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(redisEntry{
		Result:    entry.Result,
		StoredAt:  entry.StoredAt,
		ExpiresAt: entry.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cached result: %w", err)
	}

	if err := c.client.Set(ctx, redisKeyPrefix+entry.Key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup is a no-op; Redis evicts expired keys itself
func (c *RedisCache) Cleanup(ctx context.Context) error {
	return nil
}

// Stop closes the Redis client
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis client", zap.Error(err))
	}
}
