package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "linkforge.db", cfg.Store.Path)
	assert.Equal(t, "https://google.serper.dev", cfg.Serper.BaseURL)
	assert.InDelta(t, 5.0, cfg.Serper.RatePerSec, 0.001)
	assert.Equal(t, 10, cfg.Serp.TopN)
	assert.Equal(t, 24*time.Hour, cfg.Serp.CacheTTL())
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Writer.Model)
	assert.Equal(t, 8192, cfg.Writer.MaxTokens)
	assert.Equal(t, 6, cfg.QC.LSIMin)
	assert.Equal(t, 10, cfg.QC.LSIMax)
	assert.Equal(t, 800, cfg.Pipeline.DefaultMinWordCount)
	assert.Equal(t, []string{"gambling", "finance", "health"}, cfg.Pipeline.SignoffVerticals)
	assert.Equal(t, 1024, cfg.Pipeline.GuardCapacity)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LINKFORGE_LOG_LEVEL", "debug")
	t.Setenv("LINKFORGE_STORE_PATH", "/tmp/custom.db")
	t.Setenv("LINKFORGE_SERP_TOP_N", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/custom.db", cfg.Store.Path)
	assert.Equal(t, 5, cfg.Serp.TopN)
}
