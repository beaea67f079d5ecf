package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

func TestIndex_AddThenSearch(t *testing.T) {
	idx := New(3)
	require.NoError(t, idx.Add(catalog.Document{DocID: "d1"}, []float32{1, 0, 0}))
	require.NoError(t, idx.Add(catalog.Document{DocID: "d2"}, []float32{0, 1, 0}))

	results, err := idx.Search([]float32{1, 0, 0}, 10, -1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d1", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, results[1].Score, 1e-9)
}

func TestIndex_Add_DimensionMismatch(t *testing.T) {
	idx := New(3)
	err := idx.Add(catalog.Document{DocID: "d1"}, []float32{1, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrDimensionMismatch)
}

func TestIndex_Add_ZeroVector(t *testing.T) {
	idx := New(3)
	err := idx.Add(catalog.Document{DocID: "d1"}, []float32{0, 0, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrZeroVector)
}

func TestIndex_Add_AlreadyIndexed(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Add(catalog.Document{DocID: "d1"}, []float32{1, 1}))
	err := idx.Add(catalog.Document{DocID: "d1"}, []float32{1, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrAlreadyIndexed)
}

func TestIndex_Update_PreservesSlot(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Add(catalog.Document{DocID: "d1"}, []float32{1, 0}))
	require.NoError(t, idx.Add(catalog.Document{DocID: "d2"}, []float32{0, 1}))
	require.NoError(t, idx.Update(catalog.Document{DocID: "d1"}, []float32{0, 1}))

	results, err := idx.Search([]float32{0, 1}, 10, -1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 1.0, results[1].Score, 1e-9)
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_Update_NotIndexed(t *testing.T) {
	idx := New(2)
	err := idx.Update(catalog.Document{DocID: "missing"}, []float32{1, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrNotIndexed)
}

func TestIndex_Search_EmptyIndex(t *testing.T) {
	idx := New(2)
	results, err := idx.Search([]float32{1, 0}, 10, -1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_Search_ZeroNormQuery(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Add(catalog.Document{DocID: "d1"}, []float32{1, 0}))
	_, err := idx.Search([]float32{0, 0}, 10, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, cerrors.ErrInvalidQuery)
}

func TestIndex_Search_TopKGreaterThanIndexSize(t *testing.T) {
	idx := New(2)
	require.NoError(t, idx.Add(catalog.Document{DocID: "d1"}, []float32{1, 0}))
	results, err := idx.Search([]float32{1, 0}, 50, -1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
