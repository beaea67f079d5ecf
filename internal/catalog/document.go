// Package catalog defines the Document record shared by every index and
// store in the search core. A Document carries the fields the BM25 and
// Vector indexes rank on, plus an optional embedding and arbitrary
// passthrough metadata that is never used for ranking.
package catalog

import (
	"strings"
	"time"

	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// Document is one catalog entry. Title, Category, and Description are
// concatenated (in that order, space-separated) to form the text the
// Tokenizer and Embedder both operate on. Metadata is returned verbatim
// in results and never participates in ranking.
type Document struct {
	DocID       string
	Title       string
	Category    string
	Description string
	Metadata    map[string]any

	// Embedding is optional: a document may exist in the Doc Store
	// without one until an Ingestion operation computes it.
	Embedding []float32

	EmbeddingGeneratedAt time.Time
	EmbeddingModel       string
}

// IndexedText returns the concatenation of Title, Category, and
// Description in that order, space-separated, the text both the
// Tokenizer and the Embedder consume.
func (d Document) IndexedText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{d.Title, d.Category, d.Description} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// HasEmbedding reports whether the document already carries a vector.
func (d Document) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// Validate rejects documents with no doc_id, the one field every store
// and index operation depends on.
func (d Document) Validate() error {
	if strings.TrimSpace(d.DocID) == "" {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "document: doc_id is empty", nil)
	}
	return nil
}

// ReservedIndexBlobKey is the Doc Store key reserved for the persisted
// BM25 blob (spec §6). Scans for ranking must exclude it.
const ReservedIndexBlobKey = "bm25_index"
