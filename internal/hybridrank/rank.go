// Package hybridrank fuses BM25 and vector rankings into a single
// ordered result list: fetch a widened candidate pool from each
// sub-search, independently min-max normalize, linearly combine, filter,
// and sort.
package hybridrank

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/catalogsearch/internal/catalog"
)

// maxFetch caps the widened candidate pool regardless of top_k.
const maxFetch = 50

// fetchMultiplier widens each sub-search beyond top_k before fusion, so
// independent min-max normalization has more than one candidate to
// calibrate against.
const fetchMultiplier = 3

// KeywordSearcher is the BM25 side of a query.
type KeywordSearcher interface {
	Search(query string, topK int, minScore float64) ([]KeywordHit, error)
}

// KeywordHit is one BM25 candidate.
type KeywordHit struct {
	DocID    string
	Score    float64
	Metadata catalog.Document
}

// SemanticSearcher is the vector side of a query.
type SemanticSearcher interface {
	Search(queryVector []float32, topK int, minScore float64) ([]SemanticHit, error)
}

// SemanticHit is one vector candidate.
type SemanticHit struct {
	DocID    string
	Score    float64
	Metadata catalog.Document
}

// Embedder turns query text into a vector for the semantic sub-search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result is one fused, ranked hit.
type Result struct {
	DocID         string
	Metadata      catalog.Document
	SemanticScore float64
	KeywordScore  float64
	CombinedScore float64
}

// Ranker orchestrates one query across a BM25 and a Vector index. It
// owns neither index; it only reads both.
type Ranker struct {
	kw  KeywordSearcher
	sem SemanticSearcher
	emb Embedder
}

// New builds a Ranker over the given keyword searcher, semantic
// searcher, and embedder.
func New(kw KeywordSearcher, sem SemanticSearcher, emb Embedder) *Ranker {
	return &Ranker{kw: kw, sem: sem, emb: emb}
}

// Search fuses BM25 and vector rankings for query. wSem and wKw are not
// required to sum to 1, matching observed source behavior (spec §4.4).
func (r *Ranker) Search(ctx context.Context, query string, topK int, minScore, wSem, wKw float64) ([]Result, error) {
	fetch := topK * fetchMultiplier
	if fetch > maxFetch {
		fetch = maxFetch
	}
	if fetch < 1 {
		fetch = 1
	}

	var kwHits []KeywordHit
	var semHits []SemanticHit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.kw.Search(query, fetch, 0.0)
		if err != nil {
			return err
		}
		kwHits = hits
		return nil
	})
	g.Go(func() error {
		vec, err := r.emb.Embed(gctx, query)
		if err != nil {
			return err
		}
		hits, err := r.sem.Search(vec, fetch, 0.0)
		if err != nil {
			return err
		}
		semHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	semByID := make(map[string]SemanticHit, len(semHits))
	for _, h := range semHits {
		semByID[h.DocID] = h
	}
	kwByID := make(map[string]KeywordHit, len(kwHits))
	for _, h := range kwHits {
		kwByID[h.DocID] = h
	}

	normSem := minMaxNormalize(semScores(semHits))
	normKw := minMaxNormalize(kwScores(kwHits))

	union := make(map[string]struct{}, len(semHits)+len(kwHits))
	for _, h := range semHits {
		union[h.DocID] = struct{}{}
	}
	for _, h := range kwHits {
		union[h.DocID] = struct{}{}
	}

	results := make([]Result, 0, len(union))
	for docID := range union {
		ns := normSem[docID]
		nk := normKw[docID]
		combined := wSem*ns + wKw*nk
		if combined < minScore {
			continue
		}

		var meta catalog.Document
		var rawSem, rawKw float64
		if h, ok := semByID[docID]; ok {
			meta = h.Metadata
			rawSem = h.Score
		}
		if h, ok := kwByID[docID]; ok {
			meta = h.Metadata
			rawKw = h.Score
		}

		results = append(results, Result{
			DocID:         docID,
			Metadata:      meta,
			SemanticScore: rawSem,
			KeywordScore:  rawKw,
			CombinedScore: roundTo4(combined),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].DocID < results[j].DocID
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func semScores(hits []SemanticHit) map[string]float64 {
	m := make(map[string]float64, len(hits))
	for _, h := range hits {
		m[h.DocID] = h.Score
	}
	return m
}

func kwScores(hits []KeywordHit) map[string]float64 {
	m := make(map[string]float64, len(hits))
	for _, h := range hits {
		m[h.DocID] = h.Score
	}
	return m
}

// minMaxNormalize rescales scores onto [0,1] using their own min and
// max. When max == min (including the single-element and empty cases),
// every score normalizes to 0, matching the observed source behavior
// spec §9 flags as a known sharp edge.
func minMaxNormalize(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	min, max := scores[firstKey(scores)], scores[firstKey(scores)]
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	for docID, s := range scores {
		if max > min {
			out[docID] = (s - min) / (max - min)
		} else {
			out[docID] = 0
		}
	}
	return out
}

func firstKey(m map[string]float64) string {
	for k := range m {
		return k
	}
	return ""
}

func roundTo4(f float64) float64 {
	const scale = 10000.0
	if f >= 0 {
		return float64(int64(f*scale+0.5)) / scale
	}
	return float64(int64(f*scale-0.5)) / scale
}
