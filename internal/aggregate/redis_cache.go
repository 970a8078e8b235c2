package aggregate

// This file backs the aggregate Cache with Redis.  Each movie has a
// generation counter; averages are stored under a key that includes the
// generation they were computed in, so a value computed concurrently with a
// rating write lands under a stale generation and is never read again.

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-review-api/internal/config"
)

// RedisCache implements Cache on a Redis client.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache returns a Cache for cfg, or nil when caching is disabled or
// no client is available.
func NewRedisCache(cfg config.AggregateCacheConfig, rdb *redis.Client) Cache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{rdb: rdb, prefix: cfg.Prefix, ttl: ttl}
}

func (c *RedisCache) genKey(movieID uint64) string {
	return c.prefix + ":gen:" + strconv.FormatUint(movieID, 10)
}

func (c *RedisCache) avgKey(movieID uint64, gen int64) string {
	return c.prefix + ":avg:" + strconv.FormatUint(movieID, 10) + ":" + strconv.FormatInt(gen, 10)
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, movieID uint64) (float64, bool, int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey(movieID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, false, 0, err
	}
	avg, err := c.rdb.Get(ctx, c.avgKey(movieID, gen)).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, gen, nil
	}
	if err != nil {
		return 0, false, gen, err
	}
	return avg, true, gen, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, movieID uint64, gen int64, avg float64) error {
	return c.rdb.SetEx(ctx, c.avgKey(movieID, gen), strconv.FormatFloat(avg, 'f', 2, 64), c.ttl).Err()
}

// Invalidate implements Cache.
func (c *RedisCache) Invalidate(ctx context.Context, movieID uint64) error {
	return c.rdb.Incr(ctx, c.genKey(movieID)).Err()
}
