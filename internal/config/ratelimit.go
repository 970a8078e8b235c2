package config

import "time"

// RateLimitConfig configures the Redis token bucket in front of the API.
// Only methods in Methods consume tokens, so browsing the catalog and
// reading reviews is never throttled.
type RateLimitConfig struct {
	Enabled        bool
	Methods        map[string]bool
	Capacity       int           // bucket size, also the burst
	RefillTokens   int           // tokens added per RefillInterval
	RefillInterval time.Duration
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string        // principal | ip | user | ip_user
	Prefix         string
	Debug          bool // expose the bucket key in X-RateLimit-Key
}

// LoadRateLimitConfig reads RATE_LIMIT_* and clamps nonsensical values.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Methods:        map[string]bool{},
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 30),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 2*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "principal"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	for _, m := range envList("RATE_LIMIT_METHODS", "POST,PUT,PATCH,DELETE") {
		cfg.Methods[m] = true
	}
	cfg.Capacity = max(cfg.Capacity, 1)
	cfg.RefillTokens = max(cfg.RefillTokens, 1)
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// A bucket must outlive several refills or it resets to full too early.
	cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
	return cfg
}
