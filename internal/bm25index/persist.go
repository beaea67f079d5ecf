package bm25index

import (
	"encoding/json"
	"io"
	"time"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// Blob is the persisted-for-cold-start shape spec §3/§6 describes:
// inverted_index, term_frequencies, doc_lengths, plus a monotonic
// last_updated timestamp. Embeddings are not part of this blob; they
// live on the Document itself in the Doc Store.
type Blob struct {
	InvertedIndex   map[string][]string       `json:"inverted_index"`
	TermFrequencies map[string]map[string]int `json:"term_frequencies"`
	DocLengths      map[string]int            `json:"doc_lengths"`
	LastUpdated     time.Time                 `json:"last_updated"`

	// The docmap is not part of the blob: Load and FromBlob return an
	// index whose docmap is empty, and HydrateDocmap refills it from the
	// Doc Store, the canonical source for metadata. The disk-cache
	// mirror does not store a docmap either.
}

// Snapshot returns the persistable Blob for the index's current state.
func (idx *Index) Snapshot() Blob {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	inverted := make(map[string][]string, len(idx.postings))
	for term, set := range idx.postings {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		inverted[term] = ids
	}

	tf := make(map[string]map[string]int, len(idx.tf))
	for d, counts := range idx.tf {
		c := make(map[string]int, len(counts))
		for t, n := range counts {
			c[t] = n
		}
		tf[d] = c
	}

	docLen := make(map[string]int, len(idx.docLen))
	for d, l := range idx.docLen {
		docLen[d] = l
	}

	return Blob{
		InvertedIndex:   inverted,
		TermFrequencies: tf,
		DocLengths:      docLen,
		LastUpdated:     idx.lastUpdated,
	}
}

// Save serializes the current index state as JSON to sink.
func (idx *Index) Save(sink io.Writer) error {
	blob := idx.Snapshot()
	enc := json.NewEncoder(sink)
	if err := enc.Encode(blob); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeFileCorrupt, err)
	}
	return nil
}

// Load replaces the index's postings/tf/doc_len maps with the contents
// of a previously Saved blob read from source. The docmap is left
// empty — Load only restores the lexical structure; callers reconstruct
// docmap from the Doc Store (the spec's "indexes are reconstructable
// from the Doc Store alone; the blob is an optimization").
func Load(source io.Reader) (*Index, error) {
	var blob Blob
	dec := json.NewDecoder(source)
	if err := dec.Decode(&blob); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileCorrupt, err)
	}
	return FromBlob(blob), nil
}

// FromBlob rebuilds an Index's postings/tf/doc_len maps directly from an
// already-decoded Blob, for callers (the Ingestion Controller's Doc
// Store and disk-cache hydration paths) that have the blob in hand
// without an io.Reader. The docmap is left empty, same as Load.
func FromBlob(blob Blob) *Index {
	idx := New()
	for term, ids := range blob.InvertedIndex {
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		idx.postings[term] = set
	}
	for d, counts := range blob.TermFrequencies {
		c := make(map[string]int, len(counts))
		for t, n := range counts {
			c[t] = n
		}
		idx.tf[d] = c
	}
	for d, l := range blob.DocLengths {
		idx.docLen[d] = l
	}
	idx.lastUpdated = blob.LastUpdated
	return idx
}

// HydrateDocmap fills in docmap entries for every doc_id already present
// in tf, using docs as the source of truth. Called after Load once the
// Doc Store has supplied the full Document for each doc_id. Any doc_id
// in tf without a matching entry in docs is dropped from all four maps,
// preserving the invariant that docmap's key set equals tf's key set.
func (idx *Index) HydrateDocmap(docs map[string]catalog.Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for d := range idx.tf {
		doc, ok := docs[d]
		if !ok {
			idx.removeLocked(d)
			continue
		}
		idx.docmap[d] = doc
	}
}
