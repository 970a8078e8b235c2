package middleware

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/logging"
)

// tokenBucket refills whole intervals only, so a client hammering the API
// never earns a fractional token.  Returns {allowed, remaining, retry_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_ms')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
    tokens = capacity
    last = now_ms
end

local intervals = math.floor(math.max(0, now_ms - last) / interval_ms)
if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals * refill)
    last = last + intervals * interval_ms
end

local allowed, retry_ms = 0, 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_ms = math.max(0, interval_ms - (now_ms - last))
end

redis.call('HSET', key, 'tokens', tokens, 'last_ms', last)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry_ms}
`)

type bucketResult struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

func parseBucketResult(v any) (bucketResult, error) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return bucketResult{}, fmt.Errorf("unexpected limiter reply %v", v)
	}
	nums := make([]int64, 3)
	for i, x := range arr {
		n, ok := x.(int64)
		if !ok {
			return bucketResult{}, errors.New("limiter reply is not integral")
		}
		nums[i] = n
	}
	return bucketResult{
		allowed:   nums[0] == 1,
		remaining: nums[1],
		retry:     time.Duration(nums[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket returns a Redis token bucket limiter.  Only methods in
// cfg.Methods consume tokens.  A disabled limiter, a nil client or a failing
// script lets requests through: losing Redis must not take writes down.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = time.Second
	}
	ttlSec := int64(math.Ceil(cfg.TTL.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(cfg.Methods) > 0 && !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := buildRateKey(cfg, c)

			reply, err := tokenBucket.Run(ctx, rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, interval.Milliseconds(), ttlSec).Result()
			if err == nil {
				var res bucketResult
				if res, err = parseBucketResult(reply); err == nil {
					return applyBucket(c, cfg, key, res, next)
				}
			}
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
			return next(c)
		}
	}
}

func applyBucket(c echo.Context, cfg config.RateLimitConfig, key string, res bucketResult, next echo.HandlerFunc) error {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
	if cfg.Debug {
		h.Set("X-RateLimit-Key", key)
	}
	if res.allowed {
		return next(c)
	}
	secs := int(math.Ceil(res.retry.Seconds()))
	h.Set("Retry-After", strconv.Itoa(secs))
	logging.Ctx(c.Request().Context()).Info().Str("key", key).Dur("retry", res.retry).Msg("rate limited")
	return c.JSON(http.StatusTooManyRequests, echo.Map{
		"error":       "rate limit exceeded",
		"retry_after": secs,
	})
}

// buildRateKey names the bucket a request draws from.  "principal" (the
// default) keys authenticated callers by user id and anonymous ones by IP.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userID(c)
	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	default:
		if Principal(c).IsAnonymous() {
			parts = append(parts, "ip", ip)
		} else {
			parts = append(parts, "user", uid)
		}
	}
	return strings.Join(parts, ":")
}
