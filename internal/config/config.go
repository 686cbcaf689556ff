// Package config loads client configuration from an optional YAML file and
// environment variables. Environment wins over the file, the file over
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all explorer client configuration.
type Config struct {
	// Backend
	ServerURL      string        `yaml:"server_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DeviceName     string        `yaml:"device_name"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Metrics endpoint for watch mode ("" disables it)
	MetricsAddr string `yaml:"metrics_addr"`

	// Address resolution
	MaxConcurrentResolves int           `yaml:"max_concurrent_resolves"`
	PathCacheTTL          time.Duration `yaml:"path_cache_ttl"`
	PathCacheSize         int           `yaml:"path_cache_size"`

	// Invalidation watch
	WatchSSE bool `yaml:"watch_sse"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sdexplorer", "config.yaml")
}

// Load reads the config file (if present) and applies env overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ServerURL:             "http://localhost:8080",
		RequestTimeout:        30 * time.Second,
		DeviceName:            defaultDeviceName(),
		LogLevel:              "info",
		LogFormat:             "console",
		MetricsAddr:           "",
		MaxConcurrentResolves: 8,
		PathCacheTTL:          5 * time.Minute,
		PathCacheSize:         4096,
		WatchSSE:              true,
	}

	if path == "" {
		path = DefaultPath()
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.ServerURL = envOr("SDEXPLORER_SERVER_URL", cfg.ServerURL)
	cfg.DeviceName = envOr("SDEXPLORER_DEVICE_NAME", cfg.DeviceName)
	cfg.LogLevel = envOr("SDEXPLORER_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("SDEXPLORER_LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsAddr = envOr("SDEXPLORER_METRICS_ADDR", cfg.MetricsAddr)
	cfg.MaxConcurrentResolves = envInt("SDEXPLORER_MAX_CONCURRENT_RESOLVES", cfg.MaxConcurrentResolves)
	cfg.PathCacheSize = envInt("SDEXPLORER_PATH_CACHE_SIZE", cfg.PathCacheSize)
	cfg.WatchSSE = envBool("SDEXPLORER_WATCH_SSE", cfg.WatchSSE)

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is required")
	}
	if cfg.MaxConcurrentResolves < 1 {
		cfg.MaxConcurrentResolves = 1
	}

	return cfg, nil
}

func defaultDeviceName() string {
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "sdexplorer"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
