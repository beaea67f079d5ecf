package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MalformedYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-empty"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".catalogsearch.yaml"), []byte("not: [valid: yaml"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_YamlTakesPrecedenceOverYml(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-empty"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".catalogsearch.yaml"), []byte("embeddings:\n  provider: static\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".catalogsearch.yml"), []byte("embeddings:\n  provider: ollama\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_EmptyYAMLKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-empty"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".catalogsearch.yaml"), []byte(""), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search.DefaultTopK, cfg.Search.DefaultTopK)
}

func TestValidate_AcceptsZeroWeights(t *testing.T) {
	// Weights are not required to sum to 1 and either may independently
	// be zero, matching the Hybrid Ranker's linear combination.
	cfg := NewConfig()
	cfg.Search.SemanticWeight = 0
	cfg.Search.KeywordWeight = 1
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsNegativeWeight(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.SemanticWeight = -0.1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsWeightAboveOne(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.KeywordWeight = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsMinScoreOutOfRange(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.DefaultMinScore = 1.5
	assert.Error(t, cfg.Validate())
}

func TestEnvOverride_InvalidWeightIsIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-empty"))
	t.Setenv("CATALOGSEARCH_SEMANTIC_WEIGHT", "not-a-number")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search.SemanticWeight, cfg.Search.SemanticWeight)
}

func TestEnvOverride_OutOfRangeWeightIsIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-empty"))
	t.Setenv("CATALOGSEARCH_SEMANTIC_WEIGHT", "5.0")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search.SemanticWeight, cfg.Search.SemanticWeight)
}
