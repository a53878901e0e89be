// Package config loads service settings from the environment.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Populate the Config struct from QUAKE_MAP_-prefixed environment
//     variables via envconfig struct tags.
//  3. Validate the struct with go-playground/validator.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/quakesight/quake-map-service/internal/domain"
)

// envPrefix namespaces all environment variables, e.g. QUAKE_MAP_HTTP_ADDR.
const envPrefix = "QUAKE_MAP"

// Config holds all service settings.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Feed acquisition.
	FeedBaseURL  string        `envconfig:"FEED_BASE_URL" default:"https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary" validate:"url"`
	FeedTimeout  time.Duration `envconfig:"FEED_TIMEOUT" default:"30s" validate:"gt=0"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5m" validate:"gte=10s"`
	TimeRange    string        `envconfig:"TIME_RANGE" default:"day" validate:"oneof=day week month"`

	// Browser frontend access.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// Load reads configuration from the environment, applying defaults where
// unset, and validates it.
func Load() (*Config, error) {
	// Best effort: local development keeps overrides in .env.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultTimeRange returns the configured startup feed window.
func (c *Config) DefaultTimeRange() domain.TimeRange {
	r, err := domain.ParseTimeRange(c.TimeRange)
	if err != nil {
		// Unreachable after validation; keep the safe default anyway.
		return domain.RangeDay
	}
	return r
}
