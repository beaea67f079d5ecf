package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	"github.com/Aman-CERP/catalogsearch/internal/docstore"
	"github.com/Aman-CERP/catalogsearch/internal/embedder"
)

const testDim = 32

func newTestController(t *testing.T) (*Controller, *docstore.Store) {
	t.Helper()
	store, err := docstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	emb := embedder.NewStatic(testDim)
	t.Cleanup(func() { _ = emb.Close() })

	return New(store, emb, testDim, nil), store
}

func TestController_Rebuild_IndexesAllDocumentsAndPersistsEmbeddings(t *testing.T) {
	// Given: two documents in the Doc Store with no embeddings yet
	ctrl, store := newTestController(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "OPC cement", Category: "cement"}))
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-2", Title: "TMT steel bar", Category: "steel"}))

	// When: rebuild runs
	require.NoError(t, ctrl.Rebuild(ctx))

	// Then: both indexes contain both documents
	bm25, vec := ctrl.Snapshot()
	assert.Equal(t, 2, bm25.Len())
	assert.Equal(t, 2, vec.Len())

	// And: the embeddings were written back to the Doc Store
	doc, err := store.FetchByID(ctx, "sku-1")
	require.NoError(t, err)
	assert.True(t, doc.HasEmbedding())
	assert.Equal(t, "static-hash", doc.EmbeddingModel)
}

func TestController_Rebuild_PersistsBM25Blob(t *testing.T) {
	// Given: a rebuilt controller
	ctrl, store := newTestController(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "OPC cement"}))
	require.NoError(t, ctrl.Rebuild(ctx))

	// Then: the blob is retrievable from the Doc Store
	_, ok, err := store.LoadIndexBlob(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestController_AddOne_NewDocumentEntersBothIndexes(t *testing.T) {
	// Given: a document in the Doc Store, no prior indexing
	ctrl, store := newTestController(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "OPC cement"}))

	// When: add_one runs
	require.NoError(t, ctrl.AddOne(ctx, "sku-1"))

	// Then: both indexes have the document
	bm25, vec := ctrl.Snapshot()
	assert.True(t, bm25.Has("sku-1"))
	assert.True(t, vec.Has("sku-1"))
}

func TestController_AddOne_AlreadyIndexedIsIdempotent(t *testing.T) {
	// Given: a document already added once
	ctrl, store := newTestController(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "OPC cement"}))
	require.NoError(t, ctrl.AddOne(ctx, "sku-1"))

	// When: add_one runs again for the same doc_id
	err := ctrl.AddOne(ctx, "sku-1")

	// Then: it succeeds rather than surfacing AlreadyIndexed
	assert.NoError(t, err)
	bm25, vec := ctrl.Snapshot()
	assert.True(t, bm25.Has("sku-1"))
	assert.True(t, vec.Has("sku-1"))
}

func TestController_AddOne_NotFoundPropagates(t *testing.T) {
	ctrl, _ := newTestController(t)
	err := ctrl.AddOne(context.Background(), "missing")
	assert.Error(t, err)
}

func TestController_UpdateOne_RecomputesEmbedding(t *testing.T) {
	// Given: an indexed document
	ctrl, store := newTestController(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "OPC cement"}))
	require.NoError(t, ctrl.AddOne(ctx, "sku-1"))

	// When: the title changes and update_one runs
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "PPC cement"}))
	require.NoError(t, ctrl.UpdateOne(ctx, "sku-1"))

	// Then: the stored document reflects the recomputed embedding
	doc, err := store.FetchByID(ctx, "sku-1")
	require.NoError(t, err)
	assert.True(t, doc.HasEmbedding())
}

func TestController_UpdateOne_FallsThroughToAddWhenNotIndexed(t *testing.T) {
	// Given: a document in the Doc Store that was never added to the indexes
	ctrl, store := newTestController(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "OPC cement"}))

	// When: update_one runs directly
	err := ctrl.UpdateOne(ctx, "sku-1")

	// Then: it falls through to add_one semantics and succeeds
	require.NoError(t, err)
	bm25, vec := ctrl.Snapshot()
	assert.True(t, bm25.Has("sku-1"))
	assert.True(t, vec.Has("sku-1"))
}

func TestController_Hydrate_NoBlobTriggersRebuild(t *testing.T) {
	// Given: documents exist but no blob has ever been persisted
	ctrl, store := newTestController(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "OPC cement"}))

	// When: Hydrate runs
	require.NoError(t, ctrl.Hydrate(ctx))

	// Then: the document is indexed, as if Rebuild had run directly
	bm25, vec := ctrl.Snapshot()
	assert.True(t, bm25.Has("sku-1"))
	assert.True(t, vec.Has("sku-1"))
}

func TestController_Hydrate_RestoresFromPersistedBlob(t *testing.T) {
	// Given: a controller that already rebuilt once
	ctrl, store := newTestController(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Document{DocID: "sku-1", Title: "OPC cement"}))
	require.NoError(t, ctrl.Rebuild(ctx))

	// When: a fresh controller hydrates against the same store
	emb := embedder.NewStatic(testDim)
	t.Cleanup(func() { _ = emb.Close() })
	fresh := New(store, emb, testDim, nil)
	require.NoError(t, fresh.Hydrate(ctx))

	// Then: the restored index already has the document without re-embedding
	bm25, vec := fresh.Snapshot()
	assert.True(t, bm25.Has("sku-1"))
	assert.True(t, vec.Has("sku-1"))
}
