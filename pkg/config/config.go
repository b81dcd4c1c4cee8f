package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Bazaar data source
	Bazaar BazaarConfig

	// Refresh cycle
	Refresh RefreshConfig

	// Database (optional, enables the Postgres run log)
	Database DatabaseConfig

	// Redis (optional, enables the snapshot cache)
	Redis RedisConfig

	// Preferences file (optional)
	PrefsFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// BazaarConfig holds the market API client configuration
type BazaarConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64 // requests per second, 0 = unlimited
}

// RefreshConfig controls the scheduled refresh and the run log
type RefreshConfig struct {
	Schedule         string        // cron spec, e.g. "@every 60s"
	RunLogRetention  time.Duration // runs older than this are pruned
	SnapshotCacheTTL time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from the environment (and .env when present).
// A malformed value is an error, not a silent fallback to the default.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	var env envReader
	cfg := &Config{
		Port: env.str("PORT", "8089"),
		Env:  env.str("ENV", "development"),

		Bazaar: BazaarConfig{
			BaseURL:    env.str("BAZAAR_BASE_URL", "https://api.hypixel.net"),
			APIKey:     env.str("BAZAAR_API_KEY", ""),
			Timeout:    env.duration("BAZAAR_TIMEOUT", 15*time.Second),
			MaxRetries: env.int("BAZAAR_MAX_RETRIES", 2),
			RateLimit:  env.float("BAZAAR_RATE_LIMIT", 1),
		},

		Refresh: RefreshConfig{
			Schedule:         env.str("REFRESH_SCHEDULE", "@every 60s"),
			RunLogRetention:  env.duration("RUNLOG_RETENTION", 7*24*time.Hour),
			SnapshotCacheTTL: env.duration("SNAPSHOT_CACHE_TTL", 10*time.Minute),
		},

		Database: DatabaseConfig{
			URL:             env.str("DATABASE_URL", ""),
			MaxConns:        env.int("DB_MAX_CONNS", 5),
			MinConns:        env.int("DB_MIN_CONNS", 1),
			MaxConnLifetime: env.duration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: env.duration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},

		Redis: RedisConfig{
			Host:     env.str("REDIS_HOST", "localhost"),
			Port:     env.str("REDIS_PORT", "6379"),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.int("REDIS_DB", 0),
			Enabled:  env.bool("REDIS_ENABLED", false),
		},

		PrefsFile: env.str("PREFS_FILE", ""),

		LogLevel:  env.str("LOG_LEVEL", "info"),
		LogFormat: env.str("LOG_FORMAT", "json"),
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

var validEnvs = map[string]bool{"development": true, "staging": true, "production": true}

// validate checks ranges and required values
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(validEnvs[c.Env], "ENV must be one of: development, staging, production")
	check(c.Bazaar.BaseURL != "", "BAZAAR_BASE_URL is required")
	check(c.Bazaar.Timeout > 0, "BAZAAR_TIMEOUT must be positive")
	check(c.Bazaar.MaxRetries >= 0, "BAZAAR_MAX_RETRIES must not be negative")
	check(c.Bazaar.RateLimit >= 0, "BAZAAR_RATE_LIMIT must not be negative")
	check(c.Refresh.Schedule != "", "REFRESH_SCHEDULE is required")
	check(c.Refresh.RunLogRetention >= 0, "RUNLOG_RETENTION must not be negative")
	check(c.Database.MinConns <= c.Database.MaxConns || c.Database.MaxConns == 0,
		"DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	check(c.LogFormat == "" || c.LogFormat == "json" || c.LogFormat == "console" || c.LogFormat == "pretty",
		"LOG_FORMAT must be json, console or pretty")

	return errors.Join(errs...)
}

// loadEnvFile loads the first .env found next to the working directory or the binary
func loadEnvFile() {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		paths = append(paths, filepath.Join(dir, ".env"), filepath.Join(dir, "..", ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// envReader reads typed variables and remembers every malformed one
type envReader struct {
	errs []error
}

func (r *envReader) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parse applies fn to the raw value of key; unset keeps def
func parse[T any](r *envReader, key string, def T, fn func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := fn(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return def
	}
	return v
}

func (r *envReader) int(key string, def int) int {
	return parse(r, key, def, strconv.Atoi)
}

func (r *envReader) float(key string, def float64) float64 {
	return parse(r, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (r *envReader) bool(key string, def bool) bool {
	return parse(r, key, def, strconv.ParseBool)
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	return parse(r, key, def, time.ParseDuration)
}
