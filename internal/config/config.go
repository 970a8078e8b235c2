package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/logging"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	StoreDriver    string // "mysql" or "memory"
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing
	LogLevel       string // zerolog level name
	LogFormat      string // "json" or "console"
	AdminUsername  string // bootstrap admin account (optional)
	AdminPassword  string
	AdminEmail     string
}

// LoadFromEnv reads configuration values from environment variables.  It
// collects every missing or malformed variable into a single error.  The
// database variables are only required for the mysql driver.
func LoadFromEnv() (Config, error) {
	var l loader
	cfg := Config{
		Env:            l.must("APP_ENV"),
		Port:           l.must("APP_PORT"),
		StoreDriver:    strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		DBPass:         os.Getenv("DB_PASS"),
		JWTSecret:      l.must("JWT_SECRET"),
		AccessTTLMin:   l.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: l.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     l.mustInt("BCRYPT_COST"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFormat:      envStr("LOG_FORMAT", "json"),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
	}
	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = l.must("DB_USER")
		cfg.DBHost = l.must("DB_HOST")
		cfg.DBPort = l.must("DB_PORT")
		cfg.DBName = l.must("DB_NAME")
	case DriverMemory:
	default:
		l.errs = append(l.errs, fmt.Sprintf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}
	if cfg.AdminUsername != "" && cfg.AdminPassword == "" {
		l.errs = append(l.errs, "ADMIN_PASSWORD is required when ADMIN_USERNAME is set")
	}
	if len(l.errs) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(l.errs, "; "))
	}
	return cfg, nil
}

// loader accumulates problems so that every missing variable is reported
// at once.
type loader struct {
	errs []string
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		l.errs = append(l.errs, "missing required env var: "+key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func (l *loader) mustInt(key string) int {
	s := l.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("invalid int for %s: %q", key, s))
	}
	return n
}

// Load is LoadFromEnv for process startup: a bad configuration is fatal.
func Load() Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	return cfg
}
