package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Agent.MaxSteps)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  max_steps: 10\nllm:\n  model: gpt-4o-mini\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Agent.MaxSteps)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	// untouched sections keep defaults
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent: [broken"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}
