package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/vidstate")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_TTL", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/vidstate", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vidstate")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://localhost/vidstate
server_port: "9090"
cache_ttl: 1m
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/vidstate", cfg.DatabaseURL)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadFromFile_MissingDatabaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: \"9090\"\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestParseEnvFile(t *testing.T) {
	got := parseEnvFile([]byte(`
# comment
DATABASE_URL="postgres://localhost/vidstate"
export REDIS_URL='redis://localhost:6379'
=novalue
BROKEN
`))
	assert.Equal(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/vidstate",
		"REDIS_URL":    "redis://localhost:6379",
	}, got)
}
