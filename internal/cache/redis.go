package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelar/feedlight/pkg/types"
)

// DefaultRedisTTL bounds staleness of shared cache entries. The LRU cache
// lives only as long as the process; Redis entries need an explicit expiry.
const DefaultRedisTTL = 5 * time.Minute

const redisKeyPrefix = "feedlight:fast:"

// Redis is a shared cache for multi-instance deployments. Errors degrade to
// cache misses; the cache is an optimization, never a source of truth.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Cache = (*Redis)(nil)

// NewRedis wraps a Redis client as a fast-phase cache. ttl <= 0 uses
// DefaultRedisTTL.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

// Get returns the cached records for a category.
func (c *Redis) Get(ctx context.Context, category string) ([]types.ContentRecord, bool) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+category).Bytes()
	if err != nil {
		return nil, false
	}

	var records []types.ContentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	return records, true
}

// Set stores the records for a category with the configured TTL.
func (c *Redis) Set(ctx context.Context, category string, records []types.ContentRecord) {
	raw, err := json.Marshal(records)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, redisKeyPrefix+category, raw, c.ttl).Err()
}

// Len is unknown for the shared cache; it reports zero.
func (c *Redis) Len() int {
	return 0
}
