package embedder

import (
	"context"
	"os"
	"strings"

	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// Provider selects which Embedder implementation New constructs.
type Provider string

const (
	// ProviderOllama embeds via a real Ollama model, matching
	// Configuration's model_name/embedding_dim (spec §6).
	ProviderOllama Provider = "ollama"
	// ProviderStatic uses the deterministic hash-based embedder, the
	// default for tests and offline operation.
	ProviderStatic Provider = "static"
)

// envProviderOverride is checked before Provider, the way the teacher's
// factory lets an operator override provider selection without a
// config-file edit.
const envProviderOverride = "CATALOGSEARCH_EMBEDDER"

// envCacheDisable disables the LRU wrapper New applies by default.
const envCacheDisable = "CATALOGSEARCH_EMBED_CACHE_DISABLE"

// New constructs an Embedder for provider, wrapping it with a query
// cache unless CATALOGSEARCH_EMBED_CACHE_DISABLE is set. model and dim
// are forwarded to the Ollama provider as model_name/embedding_dim;
// the static provider ignores model and takes its width from dim.
func New(ctx context.Context, provider Provider, model string, dim int, cacheSize int) (Embedder, error) {
	if override := os.Getenv(envProviderOverride); override != "" {
		provider = Provider(strings.ToLower(override))
	}

	var inner Embedder
	var err error
	switch provider {
	case ProviderOllama:
		inner, err = NewOllama(ctx, OllamaConfig{Model: model, Dimensions: dim})
	case ProviderStatic, "":
		inner = NewStatic(dim)
	default:
		return nil, cerrors.New(cerrors.ErrCodeConfigInvalid, "embedder: unknown provider "+string(provider), nil)
	}
	if err != nil {
		return nil, err
	}

	if os.Getenv(envCacheDisable) != "" {
		return inner, nil
	}
	return NewCached(inner, cacheSize), nil
}
