package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete catalogsearch configuration: where the
// external Document Store lives, which embedder to use, the fusion
// weights and defaults for the Hybrid Ranker, and the thin serving
// layer's own knobs.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// StoreConfig addresses the external Document Store (spec §6).
type StoreConfig struct {
	// URI is the connection string to the external document store.
	URI string `yaml:"uri" json:"uri"`
	// Database is the logical database name.
	Database string `yaml:"database" json:"database"`
	// Collection is the collection name within Database.
	Collection string `yaml:"collection" json:"collection"`
	// DiskCacheDir, if set, enables the advisory disk-cache mirror of
	// the BM25 blob under this directory.
	DiskCacheDir string `yaml:"disk_cache_dir" json:"disk_cache_dir"`
}

// EmbeddingsConfig configures the Embedder (spec §2.3).
type EmbeddingsConfig struct {
	// Provider selects "ollama" or "static".
	Provider string `yaml:"provider" json:"provider"`
	// Model is the model_name passed to the Embedder.
	Model string `yaml:"model" json:"model"`
	// Dimensions is embedding_dim D; must match the model.
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	// CacheSize bounds the query-embedding LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// OllamaHost overrides the default Ollama endpoint.
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
}

// SearchConfig holds the Hybrid Ranker's default fusion weights and
// request bounds (spec §4.4, §6).
type SearchConfig struct {
	// SemanticWeight is w_sem, the default weight on vector score.
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	// KeywordWeight is w_kw, the default weight on BM25 score. Weights
	// are not required to sum to 1 (spec §4.4).
	KeywordWeight float64 `yaml:"keyword_weight" json:"keyword_weight"`
	// DefaultTopK is used when a request omits top_k. Must be in [1,50].
	DefaultTopK int `yaml:"default_top_k" json:"default_top_k"`
	// DefaultMinScore is used when a request omits min_score. Must be
	// in [0,1].
	DefaultMinScore float64 `yaml:"default_min_score" json:"default_min_score"`
}

// ServerConfig holds server settings. The CLI's serve command speaks
// JSON lines over stdin/stdout; no command listens on Port.
type ServerConfig struct {
	Port     int    `yaml:"port" json:"port"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config with sensible, fully offline-capable
// defaults: a local SQLite-backed Doc Store and the deterministic
// static embedder, so the core runs with zero external dependencies
// until an operator points it at a real store and model.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			URI:        "./catalogsearch.db",
			Database:   "catalogsearch",
			Collection: "materials",
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Model:      "static-hash",
			Dimensions: 128,
			CacheSize:  1000,
		},
		Search: SearchConfig{
			SemanticWeight:  0.5,
			KeywordWeight:   0.5,
			DefaultTopK:     10,
			DefaultMinScore: 0.0,
		},
		Server: ServerConfig{
			Port:     8080,
			LogLevel: "info",
		},
	}
}

// GetUserConfigPath returns the user/global configuration file path,
// following the XDG Base Directory spec.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "catalogsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "catalogsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "catalogsearch", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user config.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user config file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves configuration in order of increasing precedence:
// hardcoded defaults, the user/global config, a project config
// (.catalogsearch.yaml in dir), then CATALOGSEARCH_* environment
// variables.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".catalogsearch.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".catalogsearch.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges other's non-zero fields into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Store.URI != "" {
		c.Store.URI = other.Store.URI
	}
	if other.Store.Database != "" {
		c.Store.Database = other.Store.Database
	}
	if other.Store.Collection != "" {
		c.Store.Collection = other.Store.Collection
	}
	if other.Store.DiskCacheDir != "" {
		c.Store.DiskCacheDir = other.Store.DiskCacheDir
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}

	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.KeywordWeight != 0 {
		c.Search.KeywordWeight = other.Search.KeywordWeight
	}
	if other.Search.DefaultTopK != 0 {
		c.Search.DefaultTopK = other.Search.DefaultTopK
	}
	if other.Search.DefaultMinScore != 0 {
		c.Search.DefaultMinScore = other.Search.DefaultMinScore
	}

	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies CATALOGSEARCH_* environment variables, the
// highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CATALOGSEARCH_STORE_URI"); v != "" {
		c.Store.URI = v
	}
	if v := os.Getenv("CATALOGSEARCH_STORE_DATABASE"); v != "" {
		c.Store.Database = v
	}
	if v := os.Getenv("CATALOGSEARCH_STORE_COLLECTION"); v != "" {
		c.Store.Collection = v
	}

	if v := os.Getenv("CATALOGSEARCH_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CATALOGSEARCH_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("CATALOGSEARCH_EMBEDDING_DIM"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			c.Embeddings.Dimensions = d
		}
	}
	if v := os.Getenv("CATALOGSEARCH_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}

	if v := os.Getenv("CATALOGSEARCH_SEMANTIC_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("CATALOGSEARCH_KEYWORD_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.KeywordWeight = w
		}
	}

	if v := os.Getenv("CATALOGSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate rejects configurations that would violate the Query API's
// documented parameter ranges (spec §6) or are otherwise unusable.
func (c *Config) Validate() error {
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return fmt.Errorf("search.semantic_weight must be between 0 and 1, got %f", c.Search.SemanticWeight)
	}
	if c.Search.KeywordWeight < 0 || c.Search.KeywordWeight > 1 {
		return fmt.Errorf("search.keyword_weight must be between 0 and 1, got %f", c.Search.KeywordWeight)
	}
	if c.Search.DefaultTopK < 1 || c.Search.DefaultTopK > 50 {
		return fmt.Errorf("search.default_top_k must be between 1 and 50, got %d", c.Search.DefaultTopK)
	}
	if c.Search.DefaultMinScore < 0 || c.Search.DefaultMinScore > 1 {
		return fmt.Errorf("search.default_min_score must be between 0 and 1, got %f", c.Search.DefaultMinScore)
	}

	if c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}
	validProviders := map[string]bool{"static": true, "ollama": true}
	if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'static' or 'ollama', got %s", c.Embeddings.Provider)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if math.IsNaN(c.Search.SemanticWeight) || math.IsNaN(c.Search.KeywordWeight) {
		return fmt.Errorf("search weights must not be NaN")
	}
	return nil
}

// WriteYAML writes the configuration to path as YAML.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file, if any.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
