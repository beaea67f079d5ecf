// Package engine owns the process-wide handle combining the Document
// Store Adapter, Embedder, Ingestion Controller, and Hybrid Ranker into
// the Query API surface (spec §6). It replaces the source's global
// mutable search-engine singleton with an explicit init/teardown handle
// (spec §9): callers construct one Engine at startup and pass it down,
// rather than reaching for a module-level variable.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/catalogsearch/internal/config"
	"github.com/Aman-CERP/catalogsearch/internal/docstore"
	"github.com/Aman-CERP/catalogsearch/internal/embedder"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
	"github.com/Aman-CERP/catalogsearch/internal/hybridrank"
	"github.com/Aman-CERP/catalogsearch/internal/ingest"
)

// resetTimeout is how long the query-path circuit breaker stays open
// before allowing a half-open probe request through.
const resetTimeout = 30 * time.Second

// Engine is the owned handle the CLI and (per the redesign in spec §9)
// any future HTTP layer hold instead of a global singleton.
type Engine struct {
	cfg      *config.Config
	store    *docstore.Store
	emb      embedder.Embedder
	queryEmb embedder.Embedder
	cache    *docstore.DiskCache
	ctrl     *ingest.Controller
}

// New opens the Document Store, constructs the configured Embedder,
// wires the Ingestion Controller, and hydrates the in-memory indexes
// from whatever persisted state exists (or rebuilds from scratch if
// none does). The returned Engine is ready to serve the Query API
// surface.
func New(ctx context.Context, cfg *config.Config) (*Engine, error) {
	store, err := docstore.Open(cfg.Store.URI)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.ErrStoreUnavailable, err)
	}

	emb, err := embedder.New(ctx, embedder.Provider(cfg.Embeddings.Provider), cfg.Embeddings.Model, cfg.Embeddings.Dimensions, cfg.Embeddings.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var cache *docstore.DiskCache
	if cfg.Store.DiskCacheDir != "" {
		cache, err = docstore.NewDiskCache(cfg.Store.DiskCacheDir)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	ctrl := ingest.New(store, emb, cfg.Embeddings.Dimensions, cache)

	slog.Info("engine hydrating", slog.String("store_uri", cfg.Store.URI), slog.String("embedder", cfg.Embeddings.Provider))
	if err := ctrl.Hydrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Engine{cfg: cfg, store: store, emb: emb, queryEmb: newCircuitEmbedder(emb), cache: cache, ctrl: ctrl}, nil
}

// Close releases the Document Store connection and any Embedder
// resources (e.g. an Ollama HTTP client).
func (e *Engine) Close() error {
	embErr := e.emb.Close()
	storeErr := e.store.Close()
	if embErr != nil {
		return embErr
	}
	return storeErr
}

// SearchResponse is the Query API surface's search return shape:
// `(query, results[], total)`.
type SearchResponse struct {
	Query   string
	Results []hybridrank.Result
	Total   int
}

// Search fuses BM25 and vector rankings for query (spec §4.4, §6).
// top_k, min_score, w_sem, and w_kw follow the documented ranges;
// a zero top_k falls back to the configured default, while min_score,
// w_sem, and w_kw are used as given, zero included.
func (e *Engine) Search(ctx context.Context, query string, topK int, minScore, wSem, wKw float64) (SearchResponse, error) {
	if topK == 0 {
		topK = e.cfg.Search.DefaultTopK
	}
	if topK < 1 || topK > 50 {
		return SearchResponse{}, cerrors.New(cerrors.ErrCodeInvalidInput, fmt.Sprintf("top_k must be in [1,50], got %d", topK), nil)
	}
	if minScore < 0 || minScore > 1 {
		return SearchResponse{}, cerrors.New(cerrors.ErrCodeInvalidInput, fmt.Sprintf("min_score must be in [0,1], got %f", minScore), nil)
	}
	if wSem < 0 || wSem > 1 || wKw < 0 || wKw > 1 {
		return SearchResponse{}, cerrors.New(cerrors.ErrCodeInvalidInput, "w_sem and w_kw must each be in [0,1]", nil)
	}

	bm25, vector := e.ctrl.Snapshot()
	ranker := hybridrank.New(keywordSearcher{bm25}, semanticSearcher{vector}, e.queryEmb)

	results, err := ranker.Search(ctx, query, topK, minScore, wSem, wKw)
	if err != nil {
		return SearchResponse{}, err
	}
	return SearchResponse{Query: query, Results: results, Total: len(results)}, nil
}

// AddOne adds a single document already present in the Document Store
// to both indexes (spec §4.5). Already-indexed is treated as success.
func (e *Engine) AddOne(ctx context.Context, docID string) error {
	return e.ctrl.AddOne(ctx, docID)
}

// UpdateOne recomputes a document's embedding and updates both indexes
// (spec §4.5). Falls through to add when the document was never indexed.
func (e *Engine) UpdateOne(ctx context.Context, docID string) error {
	return e.ctrl.UpdateOne(ctx, docID)
}

// Rebuild reindexes the entire Document Store from scratch (spec §4.5).
func (e *Engine) Rebuild(ctx context.Context) error {
	return e.ctrl.Rebuild(ctx)
}

// HealthStatus is the Query API surface's `health()` return shape.
type HealthStatus struct {
	Status          string
	MaterialsLoaded int
	ModelName       string
}

// Health reports whether the Engine's indexes are populated and which
// embedding model backs them.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	bm25, _ := e.ctrl.Snapshot()
	status := "ok"
	if bm25.Len() == 0 {
		status = "empty"
	}
	return HealthStatus{
		Status:          status,
		MaterialsLoaded: bm25.Len(),
		ModelName:       e.emb.ModelName(),
	}
}
