package config

import (
	"errors"
	"os"
	"time"
)

// ErrMissingDatabaseURL is returned when no database URL is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// Config holds application configuration.
type Config struct {
	DatabaseURL string
	RedisURL    string
	ServerPort  string
	LogLevel    string
	CacheTTL    time.Duration
}

const (
	defaultServerPort = "8080"
	defaultLogLevel   = "info"
	defaultCacheTTL   = 30 * time.Second
)

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load tries to load .env.local and .env from the current directory.
// DATABASE_URL is required; everything else is optional.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		ServerPort:  os.Getenv("SERVER_PORT"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		CacheTTL:    parseDuration(os.Getenv("CACHE_TTL"), defaultCacheTTL),
	}
	c.applyDefaults()
	if c.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = defaultServerPort
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
