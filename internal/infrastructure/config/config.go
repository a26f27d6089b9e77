package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Layout    LayoutConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// StorageConfig selects the backend persisted layouts live in.
type StorageConfig struct {
	Backend         string        `envconfig:"STORAGE_BACKEND" default:"memory"`
	Path            string        `envconfig:"STORAGE_PATH" default:"./data"`
	BreakerFailures uint32        `envconfig:"STORAGE_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"STORAGE_BREAKER_TIMEOUT" default:"30s"`
}

// LayoutConfig holds workspace layout configuration.
type LayoutConfig struct {
	StorageKey   string `envconfig:"LAYOUT_STORAGE_KEY" default:"ui-store"`
	DefaultsFile string `envconfig:"LAYOUT_DEFAULTS_FILE"`
	MaxLoaded    int    `envconfig:"LAYOUT_MAX_LOADED" default:"1024"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:         "memory",
			Path:            "./data",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Layout: LayoutConfig{
			StorageKey: "ui-store",
			MaxLoaded:  1024,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
	}
}

// Validate checks values envconfig cannot express as types.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: want memory, file or sqlite", c.Storage.Backend)
	}
	if c.Storage.Backend != "memory" && c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH is required for the %s backend", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Layout.StorageKey) == "" || strings.Contains(c.Layout.StorageKey, ":") {
		return fmt.Errorf("invalid LAYOUT_STORAGE_KEY %q", c.Layout.StorageKey)
	}
	if c.Layout.MaxLoaded < 0 {
		return fmt.Errorf("LAYOUT_MAX_LOADED must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive RATE_LIMIT_RPS and RATE_LIMIT_BURST")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
