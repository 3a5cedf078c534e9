package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.App.Port)
	assert.Equal(t, 1536, cfg.LLM.EmbeddingDimension)
	assert.Equal(t, 0.1, cfg.LLM.Temperature)
	assert.Equal(t, 0.5, cfg.Index.MinScore)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9100")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("INDEX_MIN_SCORE", "0.35")
	t.Setenv("INDEX_TOP_K", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 0.35, cfg.Index.MinScore)
	assert.Equal(t, 8, cfg.Index.TopK)
}

func TestLoadIgnoresUnparsableEnv(t *testing.T) {
	t.Setenv("LLM_TEMPERATURE", "hot")
	t.Setenv("APP_PORT", "eighty")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.1, cfg.LLM.Temperature)
	assert.Equal(t, 8000, cfg.App.Port)
}
