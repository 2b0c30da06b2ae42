package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/ragchunk/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "structure", cfg.Strategy)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.OverlapSize)
	assert.Equal(t, 0.7, cfg.BlendWeight)
	assert.Equal(t, "ollama", cfg.Embedder.Provider)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
strategy: semantic+global_context
chunk_size: 256
overlap_size: 25
similarity_threshold: 0.6
embedder:
  provider: gemini
  model: text-embedding-004
qdrant:
  host: qdrant.internal
  collection: docs
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "semantic+global_context", cfg.Strategy)
	assert.Equal(t, 256, cfg.ChunkSize)
	assert.Equal(t, 25, cfg.OverlapSize)
	assert.Equal(t, 0.6, cfg.SimilarityThreshold)
	assert.Equal(t, "gemini", cfg.Embedder.Provider)
	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, "docs", cfg.Qdrant.Collection)

	// Untouched fields keep their defaults.
	assert.Equal(t, 8192, cfg.MaxContextLength)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeConfig(t, "chunk_sizes: 512\n")

	_, err := config.Load(path)
	assert.ErrorIs(t, err, config.ErrConfigInvalid)
}

func TestLoad_UnknownStrategy(t *testing.T) {
	path := writeConfig(t, "strategy: galaxy_brain\n")

	_, err := config.Load(path)
	assert.ErrorIs(t, err, config.ErrConfigInvalid)
}

func TestChunkerOptions(t *testing.T) {
	cfg := config.Default()
	opts := cfg.ChunkerOptions()
	assert.Len(t, opts, 10)
}
