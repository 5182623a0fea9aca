package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-analytics-service/internal/model"
)

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/parking")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7071, cfg.HTTP.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, model.StrategyDistribution, cfg.Analysis.Strategy)
	assert.Equal(t, 30*time.Second, cfg.Analysis.QueryTimeout)
	assert.Equal(t, "sensor_status", cfg.Live.Channel)
	assert.Equal(t, 30*time.Second, cfg.Live.PingInterval)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/parking")
	t.Setenv("ANALYSIS_STRATEGY", "hybrid")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_STRATEGY")
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/parking")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ANALYSIS_STRATEGY", "duration")
	t.Setenv("LIVE_PING_INTERVAL", "10s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, model.StrategyDuration, cfg.Analysis.Strategy)
	assert.Equal(t, 10*time.Second, cfg.Live.PingInterval)
}
