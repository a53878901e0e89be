package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakesight/quake-map-service/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary", cfg.FeedBaseURL)
	assert.Equal(t, 30*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, "day", cfg.TimeRange)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, domain.RangeDay, cfg.DefaultTimeRange())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("QUAKE_MAP_HTTP_ADDR", ":9090")
	t.Setenv("QUAKE_MAP_LOG_LEVEL", "debug")
	t.Setenv("QUAKE_MAP_LOG_FORMAT", "text")
	t.Setenv("QUAKE_MAP_SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("QUAKE_MAP_FEED_BASE_URL", "http://localhost:9999/feeds")
	t.Setenv("QUAKE_MAP_FEED_TIMEOUT", "5s")
	t.Setenv("QUAKE_MAP_POLL_INTERVAL", "1m")
	t.Setenv("QUAKE_MAP_TIME_RANGE", "month")
	t.Setenv("QUAKE_MAP_ALLOWED_ORIGINS", "https://map.example.org,https://staging.example.org")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:9999/feeds", cfg.FeedBaseURL)
	assert.Equal(t, 5*time.Second, cfg.FeedTimeout)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, domain.RangeMonth, cfg.DefaultTimeRange())
	assert.Equal(t, []string{"https://map.example.org", "https://staging.example.org"}, cfg.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "QUAKE_MAP_LOG_LEVEL", "verbose"},
		{"bad log format", "QUAKE_MAP_LOG_FORMAT", "xml"},
		{"bad time range", "QUAKE_MAP_TIME_RANGE", "year"},
		{"poll interval too short", "QUAKE_MAP_POLL_INTERVAL", "1s"},
		{"unparseable duration", "QUAKE_MAP_FEED_TIMEOUT", "soon"},
		{"feed base URL not a URL", "QUAKE_MAP_FEED_BASE_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
