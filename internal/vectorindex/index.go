// Package vectorindex implements the dense half of the hybrid catalog
// search core: an exact, brute-force cosine-similarity index over a
// parallel materials/embeddings pair. Approximate nearest-neighbor
// indexing is an explicit non-goal at the target corpus size, so every
// search is a full scan.
package vectorindex

import (
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// Result is one ranked vector hit.
type Result struct {
	DocID    string
	Score    float64
	Metadata catalog.Document
}

// Index holds the ordered materials slice and its parallel embedding
// matrix. Rows are never reordered; update overwrites a row in place.
// Deletion (tombstoning rather than compaction) is not required for v1
// and is not implemented.
type Index struct {
	mu sync.RWMutex

	dim int

	materials []catalog.Document
	embedding [][]float32
	norms     []float64
	slot      map[string]int
}

// New returns an empty vector index fixed to dimension dim.
func New(dim int) *Index {
	return &Index{
		dim:  dim,
		slot: make(map[string]int),
	}
}

// Dimensions returns the fixed vector width this index was constructed
// with.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Len reports the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.materials)
}

// Has reports whether docID currently occupies a slot.
func (idx *Index) Has(docID string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.slot[docID]
	return ok
}

// Add appends a new row. Errors: AlreadyIndexed if docID already
// occupies a slot, DimensionMismatch if len(vector) != Dimensions(),
// ZeroVector if the vector's L2 norm is zero.
func (idx *Index) Add(doc catalog.Document, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.slot[doc.DocID]; exists {
		return cerrors.WithCause(cerrors.ErrAlreadyIndexed, nil).WithDetail("doc_id", doc.DocID)
	}
	if len(vector) != idx.dim {
		return cerrors.WithCause(cerrors.ErrDimensionMismatch, nil).
			WithDetail("doc_id", doc.DocID).
			WithDetail("expected_dim", strconv.Itoa(idx.dim)).
			WithDetail("got_dim", strconv.Itoa(len(vector)))
	}
	norm := l2Norm(vector)
	if norm == 0 {
		return cerrors.WithCause(cerrors.ErrZeroVector, nil).WithDetail("doc_id", doc.DocID)
	}

	row := append([]float32(nil), vector...)
	idx.materials = append(idx.materials, doc)
	idx.embedding = append(idx.embedding, row)
	idx.norms = append(idx.norms, norm)
	idx.slot[doc.DocID] = len(idx.materials) - 1
	return nil
}

// Update overwrites the existing row for docID in place, preserving its
// slot index. Errors: NotIndexed if docID is absent, DimensionMismatch,
// ZeroVector.
func (idx *Index) Update(doc catalog.Document, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i, exists := idx.slot[doc.DocID]
	if !exists {
		return cerrors.WithCause(cerrors.ErrNotIndexed, nil).WithDetail("doc_id", doc.DocID)
	}
	if len(vector) != idx.dim {
		return cerrors.WithCause(cerrors.ErrDimensionMismatch, nil).
			WithDetail("doc_id", doc.DocID).
			WithDetail("expected_dim", strconv.Itoa(idx.dim)).
			WithDetail("got_dim", strconv.Itoa(len(vector)))
	}
	norm := l2Norm(vector)
	if norm == 0 {
		return cerrors.WithCause(cerrors.ErrZeroVector, nil).WithDetail("doc_id", doc.DocID)
	}

	idx.materials[i] = doc
	idx.embedding[i] = append([]float32(nil), vector...)
	idx.norms[i] = norm
	return nil
}

// Search ranks the index against queryVector using cosine similarity.
// Empty index returns an empty result. A zero-norm query vector returns
// InvalidQuery. Ties break by doc_id ascending.
func (idx *Index) Search(queryVector []float32, topK int, minScore float64) ([]Result, error) {
	qNorm := l2Norm(queryVector)
	if qNorm == 0 {
		return nil, cerrors.WithCause(cerrors.ErrInvalidQuery, nil)
	}

	idx.mu.RLock()
	materials := idx.materials
	embedding := idx.embedding
	norms := idx.norms
	idx.mu.RUnlock()

	if len(materials) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, 0, len(materials))
	for i, row := range embedding {
		dot := dotProduct(row, queryVector)
		score := dot / (norms[i] * qNorm)
		if score < minScore {
			continue
		}
		results = append(results, Result{DocID: materials[i].DocID, Score: score, Metadata: materials[i]})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func l2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

