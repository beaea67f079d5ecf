package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	"github.com/Aman-CERP/catalogsearch/internal/config"
)

const testDim = 32

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Store.URI = ""
	cfg.Embeddings.Provider = "static"
	cfg.Embeddings.Dimensions = testDim

	e, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func seedDoc(t *testing.T, e *Engine, docID, title, category string) {
	t.Helper()
	require.NoError(t, e.store.Put(context.Background(), catalog.Document{
		DocID: docID, Title: title, Category: category,
	}))
}

func TestEngine_New_HydratesEmptyStoreWithoutError(t *testing.T) {
	e := newTestEngine(t)
	health := e.Health(context.Background())
	assert.Equal(t, "empty", health.Status)
	assert.Equal(t, 0, health.MaterialsLoaded)
	assert.Equal(t, "static-hash", health.ModelName)
}

func TestEngine_Rebuild_PopulatesBothIndexes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedDoc(t, e, "sku-1", "OPC cement 43 grade", "cement")
	seedDoc(t, e, "sku-2", "TMT steel bars", "steel")

	require.NoError(t, e.Rebuild(ctx))

	health := e.Health(ctx)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.MaterialsLoaded)
}

func TestEngine_Search_ReturnsExpectedDocumentsForKeywordQuery(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedDoc(t, e, "d1", "OPC cement 43 grade", "cement")
	seedDoc(t, e, "d2", "TMT steel bars", "steel")
	seedDoc(t, e, "d3", "white cement powder", "cement")
	require.NoError(t, e.Rebuild(ctx))

	resp, err := e.Search(ctx, "cement", 10, 0.0, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "cement", resp.Query)
	assert.Equal(t, len(resp.Results), resp.Total)

	var ids []string
	for _, r := range resp.Results {
		ids = append(ids, r.DocID)
	}
	assert.Contains(t, ids, "d1")
	assert.Contains(t, ids, "d3")
}

func TestEngine_Search_DefaultsTopKFromConfig(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedDoc(t, e, "d1", "OPC cement", "cement")
	require.NoError(t, e.Rebuild(ctx))

	resp, err := e.Search(ctx, "cement", 0, 0.0, 0.5, 0.5)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)
}

func TestEngine_Search_RejectsTopKOutOfRange(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Search(context.Background(), "cement", 51, 0.0, 0.5, 0.5)
	assert.Error(t, err)
}

func TestEngine_Search_RejectsMinScoreOutOfRange(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Search(context.Background(), "cement", 10, 1.5, 0.5, 0.5)
	assert.Error(t, err)
}

func TestEngine_Search_RejectsWeightOutOfRange(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Search(context.Background(), "cement", 10, 0.0, 1.5, 0.5)
	assert.Error(t, err)
}

func TestEngine_AddOne_ThenSearchFindsDocument(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedDoc(t, e, "d1", "ready mix concrete", "concrete")

	require.NoError(t, e.AddOne(ctx, "d1"))

	resp, err := e.Search(ctx, "concrete", 10, 0.0, 0.5, 0.5)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "d1", resp.Results[0].DocID)
}

func TestEngine_UpdateOne_ReflectsNewContent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	seedDoc(t, e, "d2", "cement additive", "cement")
	require.NoError(t, e.AddOne(ctx, "d2"))

	seedDoc(t, e, "d2", "cement additive revised", "cement")
	require.NoError(t, e.UpdateOne(ctx, "d2"))

	resp, err := e.Search(ctx, "cement", 10, 0.0, 0.5, 0.5)
	require.NoError(t, err)
	var found bool
	for _, r := range resp.Results {
		if r.DocID == "d2" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngine_Health_ReportsModelName(t *testing.T) {
	e := newTestEngine(t)
	health := e.Health(context.Background())
	assert.Equal(t, "static-hash", health.ModelName)
}
