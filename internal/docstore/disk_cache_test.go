package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalogsearch/internal/bm25index"
)

func TestDiskCache_SaveThenLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir)
	require.NoError(t, err)

	blob := bm25index.Blob{
		InvertedIndex:   map[string][]string{"cement": {"sku-1"}},
		TermFrequencies: map[string]map[string]int{"sku-1": {"cement": 1}},
		DocLengths:      map[string]int{"sku-1": 1},
		LastUpdated:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.Save(blob))

	got, ok, err := c.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, blob.InvertedIndex, got.InvertedIndex)
	assert.Equal(t, blob.TermFrequencies, got.TermFrequencies)
	assert.Equal(t, blob.DocLengths, got.DocLengths)
	assert.True(t, blob.LastUpdated.Equal(got.LastUpdated))
}

func TestDiskCache_Load_ColdCacheReturnsNotOK(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir)
	require.NoError(t, err)

	_, ok, err := c.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiskCache_Save_OverwritesPreviousMirror(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir)
	require.NoError(t, err)

	require.NoError(t, c.Save(bm25index.Blob{
		InvertedIndex:   map[string][]string{"cement": {"sku-1"}},
		TermFrequencies: map[string]map[string]int{"sku-1": {"cement": 1}},
		DocLengths:      map[string]int{"sku-1": 1},
	}))
	require.NoError(t, c.Save(bm25index.Blob{
		InvertedIndex:   map[string][]string{"steel": {"sku-2"}},
		TermFrequencies: map[string]map[string]int{"sku-2": {"steel": 1}},
		DocLengths:      map[string]int{"sku-2": 1},
	}))

	got, ok, err := c.Load()
	require.NoError(t, err)
	require.True(t, ok)
	_, hasCement := got.InvertedIndex["cement"]
	assert.False(t, hasCement)
	assert.Equal(t, []string{"sku-2"}, got.InvertedIndex["steel"])
}
