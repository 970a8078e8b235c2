package config

import "time"

// AggregateCacheConfig defines settings for the movie average rating cache.
// When Enabled is false or no Redis client is configured, averages are
// computed from the store on every read.  TTL bounds how long a computed
// average may live; invalidation on rating writes happens regardless.
type AggregateCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadAggregateCacheConfig reads AGG_CACHE_* variables.  Defaults are used
// when variables are not set.
func LoadAggregateCacheConfig() AggregateCacheConfig {
	return AggregateCacheConfig{
		Enabled: envBool("AGG_CACHE_ENABLED", true),
		TTL:     envDur("AGG_CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("AGG_CACHE_PREFIX", "avgstars"),
	}
}
