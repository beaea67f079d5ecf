package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, 128, cfg.Embeddings.Dimensions)
	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
	assert.Equal(t, 0.5, cfg.Search.KeywordWeight)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFilesReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-empty"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-empty"))

	yamlContent := `
version: 1
embeddings:
  provider: ollama
  model: nomic-embed-text
  dimensions: 768
search:
  semantic_weight: 0.7
  keyword_weight: 0.3
  default_top_k: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".catalogsearch.yaml"), []byte(yamlContent), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)
	assert.Equal(t, 768, cfg.Embeddings.Dimensions)
	assert.Equal(t, 0.7, cfg.Search.SemanticWeight)
	assert.Equal(t, 20, cfg.Search.DefaultTopK)
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-empty"))
	yamlContent := "embeddings:\n  provider: ollama\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".catalogsearch.yaml"), []byte(yamlContent), 0o644))
	t.Setenv("CATALOGSEARCH_EMBEDDER", "static")
	t.Setenv("CATALOGSEARCH_SEMANTIC_WEIGHT", "0.9")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, 0.9, cfg.Search.SemanticWeight)
}

func TestValidate_RejectsOutOfRangeTopK(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.DefaultTopK = 100
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Provider = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsZeroDimensions(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Dimensions = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := NewConfig()
	cfg.Store.URI = "postgres://example"
	require.NoError(t, cfg.WriteYAML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "postgres://example")
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	assert.Equal(t, "/tmp/xdg-test/catalogsearch/config.yaml", GetUserConfigPath())
}
