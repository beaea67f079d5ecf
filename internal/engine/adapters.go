package engine

import (
	"github.com/Aman-CERP/catalogsearch/internal/bm25index"
	"github.com/Aman-CERP/catalogsearch/internal/hybridrank"
	"github.com/Aman-CERP/catalogsearch/internal/vectorindex"
)

// keywordSearcher adapts *bm25index.Index to hybridrank.KeywordSearcher.
// The two Result shapes already agree field-for-field; this only exists
// because Go interface satisfaction requires the named return type to
// match, not just its structure.
type keywordSearcher struct {
	idx *bm25index.Index
}

func (k keywordSearcher) Search(query string, topK int, minScore float64) ([]hybridrank.KeywordHit, error) {
	results, err := k.idx.Search(query, topK, minScore)
	if err != nil {
		return nil, err
	}
	hits := make([]hybridrank.KeywordHit, len(results))
	for i, r := range results {
		hits[i] = hybridrank.KeywordHit{DocID: r.DocID, Score: r.Score, Metadata: r.Metadata}
	}
	return hits, nil
}

// semanticSearcher adapts *vectorindex.Index to hybridrank.SemanticSearcher.
type semanticSearcher struct {
	idx *vectorindex.Index
}

func (s semanticSearcher) Search(queryVector []float32, topK int, minScore float64) ([]hybridrank.SemanticHit, error) {
	results, err := s.idx.Search(queryVector, topK, minScore)
	if err != nil {
		return nil, err
	}
	hits := make([]hybridrank.SemanticHit, len(results))
	for i, r := range results {
		hits[i] = hybridrank.SemanticHit{DocID: r.DocID, Score: r.Score, Metadata: r.Metadata}
	}
	return hits, nil
}
