package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	ServerPort  string `yaml:"server_port"`
	LogLevel    string `yaml:"log_level"`
	CacheTTL    string `yaml:"cache_ttl"`
}

// LoadFromFile loads config from a YAML file. database_url is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	c := &Config{
		DatabaseURL: f.DatabaseURL,
		RedisURL:    f.RedisURL,
		ServerPort:  f.ServerPort,
		LogLevel:    f.LogLevel,
		CacheTTL:    parseDuration(f.CacheTTL, defaultCacheTTL),
	}
	c.applyDefaults()
	return c, nil
}
