// Package cache is the Redis-backed read cache for API responses. Keys
// hash the endpoint and its parameters; entries expire on a fixed TTL, so
// invalidation is purely time-based.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"pheye/internal/logger"
)

const keyPrefix = "pheye:cache:"

// Cache wraps Redis for read endpoints. A disabled or nil cache misses
// everything, so callers never branch on availability.
type Cache struct {
	rdb     *redis.Client
	ttl     time.Duration
	enabled bool
	log     *slog.Logger
}

// New builds a cache. ttl must be positive when enabled.
func New(rdb *redis.Client, ttl time.Duration, enabled bool) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, enabled: enabled, log: logger.Get()}
}

// Key derives a cache key from an endpoint name and its parameters.
func Key(endpoint string, params ...string) string {
	sum := md5.Sum([]byte(endpoint + "|" + strings.Join(params, "|")))
	return keyPrefix + endpoint + ":" + hex.EncodeToString(sum[:])
}

// Get loads a cached JSON value into dest. It returns false on miss,
// disabled cache, or any Redis error; errors are logged, never surfaced.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || !c.enabled || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.log.Warn("cache read failed", "key", key, "error", err.Error())
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn("cache entry corrupt", "key", key, "error", err.Error())
		return false
	}
	return true
}

// Set stores a JSON value under the cache TTL. Failures are logged and
// swallowed; a cold cache is never an API error.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil || !c.enabled || c.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", "key", key, "error", err.Error())
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "key", key, "error", err.Error())
	}
}
