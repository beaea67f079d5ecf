// Package bm25index implements the inverted-index half of the hybrid
// catalog search core: a hand-rolled BM25 ranking index exposing the
// exact postings/term-frequency/document-length maps the persistence
// format and the testable invariants depend on directly.
package bm25index

import (
	"math"
	"sort"
	"sync"
	"time"

	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	"github.com/Aman-CERP/catalogsearch/internal/tokenizer"
)

const (
	k1 = 1.5
	b  = 0.75
)

// Result is one ranked BM25 hit.
type Result struct {
	DocID    string
	Score    float64
	Metadata catalog.Document
}

// Index is the BM25 inverted index described in spec §3/§4.2. It
// exclusively owns its four maps; callers serialize writes externally
// (the Ingestion Controller's writer lock) but reads are safe to call
// concurrently with each other.
type Index struct {
	mu sync.RWMutex

	// postings maps a stemmed term to the set of doc_ids containing it.
	postings map[string]map[string]struct{}
	// tf maps doc_id -> term -> raw count.
	tf map[string]map[string]int
	// docLen maps doc_id -> total token count (including duplicates).
	docLen map[string]int
	// docmap maps doc_id -> the full Document, echoed back in results.
	docmap map[string]catalog.Document

	lastUpdated time.Time
}

// New returns an empty BM25 index.
func New() *Index {
	return &Index{
		postings: make(map[string]map[string]struct{}),
		tf:       make(map[string]map[string]int),
		docLen:   make(map[string]int),
		docmap:   make(map[string]catalog.Document),
	}
}

// Len reports the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docmap)
}

// Has reports whether docID is currently indexed.
func (idx *Index) Has(docID string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.docmap[docID]
	return ok
}

// Add inserts a new document. Returns ErrAlreadyIndexed if docID is
// already present.
func (idx *Index) Add(doc catalog.Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.docmap[doc.DocID]; exists {
		return cerrors.WithCause(cerrors.ErrAlreadyIndexed, nil).WithDetail("doc_id", doc.DocID)
	}
	idx.insertLocked(doc)
	return nil
}

// Update replaces an existing document's tokenized content. Semantically
// equivalent to remove-then-add, exposed as one call so callers don't
// need to synchronize the two steps themselves. Returns ErrNotIndexed
// if docID is absent.
func (idx *Index) Update(doc catalog.Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.docmap[doc.DocID]; !exists {
		return cerrors.WithCause(cerrors.ErrNotIndexed, nil).WithDetail("doc_id", doc.DocID)
	}
	idx.removeLocked(doc.DocID)
	idx.insertLocked(doc)
	return nil
}

// Remove deletes a document from all four maps. Returns ErrNotIndexed
// if docID is absent.
func (idx *Index) Remove(docID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.docmap[docID]; !exists {
		return cerrors.WithCause(cerrors.ErrNotIndexed, nil).WithDetail("doc_id", docID)
	}
	idx.removeLocked(docID)
	return nil
}

// insertLocked tokenizes doc and populates the four maps. Caller holds
// the write lock. Tokenization failures (non-UTF-8 text) are treated as
// zero tokens rather than propagated, since a Document's fields are
// always valid Go strings by construction; the Tokenizer's UTF-8 guard
// exists for the query path, not stored documents.
func (idx *Index) insertLocked(doc catalog.Document) {
	tokens, err := tokenizer.Tokenize(doc.IndexedText())
	if err != nil {
		tokens = nil
	}

	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}

	idx.tf[doc.DocID] = counts
	idx.docLen[doc.DocID] = len(tokens)
	idx.docmap[doc.DocID] = doc

	for term := range counts {
		set, ok := idx.postings[term]
		if !ok {
			set = make(map[string]struct{})
			idx.postings[term] = set
		}
		set[doc.DocID] = struct{}{}
	}

	idx.lastUpdated = time.Now()
}

// removeLocked deletes doc_id from all four maps. Caller holds the write
// lock.
func (idx *Index) removeLocked(docID string) {
	for term := range idx.tf[docID] {
		if set, ok := idx.postings[term]; ok {
			delete(set, docID)
			if len(set) == 0 {
				delete(idx.postings, term)
			}
		}
	}
	delete(idx.tf, docID)
	delete(idx.docLen, docID)
	delete(idx.docmap, docID)
	idx.lastUpdated = time.Now()
}

// Search ranks the index against query using standard BM25 (k1=1.5,
// b=0.75). Empty query or empty index return an empty, non-error
// result. Documents with no query-term hit are excluded; ties break by
// doc_id ascending.
func (idx *Index) Search(query string, topK int, minScore float64) ([]Result, error) {
	terms, err := tokenizer.Tokenize(query)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err)
	}
	if len(terms) == 0 {
		return []Result{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.docmap)
	if n == 0 {
		return []Result{}, nil
	}

	avgdl := idx.avgDocLenLocked()
	candidates := make(map[string]struct{})
	for _, t := range terms {
		for d := range idx.postings[t] {
			candidates[d] = struct{}{}
		}
	}

	scores := make(map[string]float64, len(candidates))
	for d := range candidates {
		scores[d] = idx.scoreLocked(terms, d, n, avgdl)
	}

	results := make([]Result, 0, len(scores))
	for d, s := range scores {
		if s < minScore {
			continue
		}
		results = append(results, Result{DocID: d, Score: s, Metadata: idx.docmap[d]})
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

// scoreLocked computes Σ IDF(t)·TF_norm(t,d) over terms for document d.
// Caller holds at least a read lock.
func (idx *Index) scoreLocked(terms []string, d string, n int, avgdl float64) float64 {
	dl := float64(idx.docLen[d])
	var score float64
	for _, t := range terms {
		df := len(idx.postings[t])
		idf := idfLocked(n, df)
		ft := float64(idx.tf[d][t])
		if ft == 0 {
			continue
		}
		tfNorm := ft * (k1 + 1) / (ft + k1*(1-b+b*dl/avgdl))
		score += idf * tfNorm
	}
	return score
}

// idfLocked computes IDF(t) = ln((N - df + 0.5)/(df + 0.5) + 1).
func idfLocked(n, df int) float64 {
	return math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
}

// avgDocLenLocked returns the mean of doc_len over all indexed
// documents. Caller holds at least a read lock and len(docLen) > 0.
func (idx *Index) avgDocLenLocked() float64 {
	var total int
	for _, l := range idx.docLen {
		total += l
	}
	return float64(total) / float64(len(idx.docLen))
}

// CheckInvariants verifies the four-map consistency invariants from
// spec §3/§8: docmap's key set equals tf's key set, sum(tf[d].values())
// equals doc_len[d] for every d, and postings[t] contains d iff
// tf[d][t] > 0. It returns ErrIndexInvariant, wrapped with which
// doc_id or term failed, on the first violation found.
func (idx *Index) CheckInvariants() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.docmap) != len(idx.tf) {
		return cerrors.WithCause(cerrors.ErrIndexInvariant, nil).
			WithDetail("reason", "docmap/tf key-set size mismatch")
	}
	for d := range idx.docmap {
		if _, ok := idx.tf[d]; !ok {
			return cerrors.WithCause(cerrors.ErrIndexInvariant, nil).
				WithDetail("doc_id", d).WithDetail("reason", "in docmap but not tf")
		}
	}

	for d, counts := range idx.tf {
		var sum int
		for _, c := range counts {
			sum += c
		}
		if sum != idx.docLen[d] {
			return cerrors.WithCause(cerrors.ErrIndexInvariant, nil).
				WithDetail("doc_id", d).WithDetail("reason", "sum(tf) != doc_len")
		}
	}

	for t, postingSet := range idx.postings {
		for d := range postingSet {
			if idx.tf[d][t] <= 0 {
				return cerrors.WithCause(cerrors.ErrIndexInvariant, nil).
					WithDetail("doc_id", d).WithDetail("term", t).
					WithDetail("reason", "posting present but tf[d][t] == 0")
			}
		}
	}
	for d, counts := range idx.tf {
		for t, c := range counts {
			if c <= 0 {
				continue
			}
			if _, ok := idx.postings[t][d]; !ok {
				return cerrors.WithCause(cerrors.ErrIndexInvariant, nil).
					WithDetail("doc_id", d).WithDetail("term", t).
					WithDetail("reason", "tf[d][t] > 0 but posting missing")
			}
		}
	}
	return nil
}
