package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/trends.db", cfg.Store.Path)
	assert.Equal(t, "fr-CA", cfg.Trends.Language)
	assert.Equal(t, "CA-QC", cfg.Trends.Geo)
	assert.Equal(t, "today 12-m", cfg.Trends.Timeframe)
	assert.Equal(t, 360, cfg.Trends.TimezoneOffset)
	assert.Equal(t, 60, cfg.Collection.DelaySeconds)
	assert.Equal(t, 3, cfg.Collection.RetryAttempts)
	assert.Equal(t, 1, cfg.Collection.StalenessDays)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TRENDS_STORE_DRIVER", "postgres")
	t.Setenv("TRENDS_TRENDS_GEO", "CA")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "CA", cfg.Trends.Geo)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "chatty", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
}
