// Package ingest implements the Ingestion Controller (spec §4.5): the
// only component that mutates the BM25 and Vector indexes. It enforces
// the concurrency model of spec §5 — writers serialize against each
// other, the Embedder call and Doc Store I/O happen outside the
// in-memory critical section, and readers always observe either the
// pre- or post-write state of both indexes together, never a mix.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/catalogsearch/internal/bm25index"
	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	"github.com/Aman-CERP/catalogsearch/internal/docstore"
	"github.com/Aman-CERP/catalogsearch/internal/embedder"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
	"github.com/Aman-CERP/catalogsearch/internal/vectorindex"
)

// rebuildConcurrency bounds how many documents are embedded in parallel
// during rebuild, so a large catalog doesn't open one goroutine per doc.
const rebuildConcurrency = 8

// Controller owns the live BM25 and Vector indexes and is the only
// writer to either. writeMu serializes rebuild/add_one/update_one
// against each other; mu guards the index pointers themselves and is
// held only for the short in-memory splice, so concurrent readers are
// excluded only for that instant.
type Controller struct {
	writeMu sync.Mutex
	mu      sync.RWMutex

	store *docstore.Store
	emb   embedder.Embedder
	cache *docstore.DiskCache
	dim   int

	bm25   *bm25index.Index
	vector *vectorindex.Index
}

// New constructs a Controller with empty indexes. Call Hydrate to load
// prior state before serving queries.
func New(store *docstore.Store, emb embedder.Embedder, dim int, cache *docstore.DiskCache) *Controller {
	return &Controller{
		store:  store,
		emb:    emb,
		cache:  cache,
		dim:    dim,
		bm25:   bm25index.New(),
		vector: vectorindex.New(dim),
	}
}

// Snapshot returns the current BM25 and Vector index pair, captured
// atomically with respect to any in-flight writer. Callers use the
// returned pair for the duration of one query; per spec §5 the pair is
// treated as immutable for that duration.
func (c *Controller) Snapshot() (*bm25index.Index, *vectorindex.Index) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bm25, c.vector
}

// Hydrate loads prior index state at startup: the Doc Store's persisted
// BM25 blob if present, falling back to the disk cache mirror, falling
// back to a full Rebuild if neither exists. The Vector index has no
// persisted form of its own — it is always reconstructed from each
// document's stored embedding field.
func (c *Controller) Hydrate(ctx context.Context) error {
	docs, err := c.store.ScanAll(ctx)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}

	blob, ok, err := c.store.LoadIndexBlob(ctx)
	if err != nil {
		return err
	}
	if !ok && c.cache != nil {
		blob, ok, err = c.cache.Load()
		if err != nil {
			return err
		}
	}
	if !ok {
		return c.Rebuild(ctx)
	}

	docmap := make(map[string]catalog.Document, len(docs))
	for _, d := range docs {
		docmap[d.DocID] = d
	}

	newBM25 := bm25index.FromBlob(blob)
	newBM25.HydrateDocmap(docmap)

	newVector := vectorindex.New(c.dim)
	for _, d := range docs {
		if !d.HasEmbedding() {
			continue
		}
		if err := newVector.Add(d, d.Embedding); err != nil {
			continue
		}
	}

	c.mu.Lock()
	c.bm25, c.vector = newBM25, newVector
	c.mu.Unlock()
	return nil
}

// Rebuild performs a full, atomic reindex per spec §4.5: scan the Doc
// Store, compute and persist an embedding for every document, build
// fresh BM25 and Vector indexes from scratch, then atomically swap them
// in. The old state remains live and servable until the swap succeeds,
// so a failure here never leaves the core without a working index.
func (c *Controller) Rebuild(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	docs, err := c.store.ScanAll(ctx)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildConcurrency)
	now := time.Now().UTC()
	for i := range docs {
		i := i
		g.Go(func() error {
			doc := &docs[i]
			vec, err := c.emb.Embed(gctx, doc.IndexedText())
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeEmbeddingFailed, err)
			}
			doc.Embedding = vec
			doc.EmbeddingModel = c.emb.ModelName()
			doc.EmbeddingGeneratedAt = now
			return c.store.PersistEmbedding(gctx, doc.DocID, vec, doc.EmbeddingModel, now)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	newBM25 := bm25index.New()
	newVector := vectorindex.New(c.dim)
	for _, doc := range docs {
		if err := newBM25.Add(doc); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInternal, err)
		}
		if doc.HasEmbedding() {
			if err := newVector.Add(doc, doc.Embedding); err != nil {
				return cerrors.Wrap(cerrors.ErrCodeInternal, err)
			}
		}
	}

	if err := newBM25.CheckInvariants(); err != nil {
		return err
	}

	c.mu.Lock()
	c.bm25, c.vector = newBM25, newVector
	c.mu.Unlock()

	if err := c.store.PersistIndexBlob(ctx, newBM25.Snapshot()); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Save(newBM25.Snapshot())
	}
	return nil
}

// AddOne fetches a document and ensures it is present in both indexes.
// If the document has no embedding yet, one is computed and persisted
// before the index mutation. AlreadyIndexed from either index is
// treated as idempotent success, per spec §4.5.
func (c *Controller) AddOne(ctx context.Context, docID string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	doc, err := c.store.FetchByID(ctx, docID)
	if err != nil {
		return err
	}

	if !doc.HasEmbedding() {
		if err := c.computeAndPersistEmbedding(ctx, &doc); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.bm25.Add(doc); err != nil && !errors.Is(err, cerrors.ErrAlreadyIndexed) {
		return err
	}
	if err := c.vector.Add(doc, doc.Embedding); err != nil && !errors.Is(err, cerrors.ErrAlreadyIndexed) {
		return err
	}
	return nil
}

// UpdateOne fetches a document, recomputes its embedding, persists it,
// then updates both indexes. A BM25 NotIndexed (document was never
// added) falls through to an add, per spec §4.5.
func (c *Controller) UpdateOne(ctx context.Context, docID string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	doc, err := c.store.FetchByID(ctx, docID)
	if err != nil {
		return err
	}

	if err := c.computeAndPersistEmbedding(ctx, &doc); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.bm25.Update(doc); err != nil {
		if !errors.Is(err, cerrors.ErrNotIndexed) {
			return err
		}
		if err := c.bm25.Add(doc); err != nil {
			return err
		}
	}
	if err := c.vector.Update(doc, doc.Embedding); err != nil {
		if !errors.Is(err, cerrors.ErrNotIndexed) {
			return err
		}
		if err := c.vector.Add(doc, doc.Embedding); err != nil {
			return err
		}
	}
	return nil
}

// computeAndPersistEmbedding runs the Embedder and writes the result
// back to the Doc Store. Called with writeMu held but before mu is
// taken, per spec §5: the Embedder call is never made under the
// in-memory lock.
func (c *Controller) computeAndPersistEmbedding(ctx context.Context, doc *catalog.Document) error {
	vec, err := c.emb.Embed(ctx, doc.IndexedText())
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeEmbeddingFailed, err)
	}
	now := time.Now().UTC()
	if err := c.store.PersistEmbedding(ctx, doc.DocID, vec, c.emb.ModelName(), now); err != nil {
		return err
	}
	doc.Embedding = vec
	doc.EmbeddingModel = c.emb.ModelName()
	doc.EmbeddingGeneratedAt = now
	return nil
}
