// Package cache is a thin read-through layer over redis for hot read-only
// configuration. The engine is fully functional with a nil cache.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"edenapp/internal/config"

	"github.com/redis/go-redis/v9"
)

var log = config.InitLogger()

const defaultTtl = 5 * time.Minute

type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Get unmarshals the cached value into dest and reports whether it was
// present. Misses and transport errors are both reported as absent.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Warn("Failed to decode cached value ", key, ": ", err)
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn("Failed to encode value for cache ", key, ": ", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, defaultTtl).Err(); err != nil {
		log.Warn("Failed to cache ", key, ": ", err)
	}
}

func (c *Cache) Del(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn("Failed to invalidate cache: ", err)
	}
}
