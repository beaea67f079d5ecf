package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_IndexedText(t *testing.T) {
	d := Document{Title: "OPC cement", Category: "Binders", Description: "43 grade"}
	assert.Equal(t, "OPC cement Binders 43 grade", d.IndexedText())
}

func TestDocument_IndexedText_SkipsEmptyFields(t *testing.T) {
	d := Document{Title: "TMT steel bars"}
	assert.Equal(t, "TMT steel bars", d.IndexedText())
}

func TestDocument_Validate_RequiresDocID(t *testing.T) {
	require.Error(t, Document{}.Validate())
	require.Error(t, Document{DocID: "   "}.Validate())
	require.NoError(t, Document{DocID: "d1"}.Validate())
}

func TestDocument_HasEmbedding(t *testing.T) {
	assert.False(t, Document{}.HasEmbedding())
	assert.True(t, Document{Embedding: []float32{0.1, 0.2}}.HasEmbedding())
}
