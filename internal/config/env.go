package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Optional variables.  A malformed value falls back to the default, like an
// unset one; required variables go through loader instead.

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(envStr(key, "")); err == nil {
		return n
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(envStr(key, "")); err == nil {
		return d
	}
	return def
}

// envList splits a comma separated variable into upper-cased, non-empty items.
func envList(key, def string) []string {
	var out []string
	for _, p := range strings.Split(envStr(key, def), ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
