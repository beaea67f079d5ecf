package embedder

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

const (
	tokenWeight float32 = 0.7
	ngramWeight float32 = 0.3
	ngramSize           = 3
)

// Static is a deterministic, hash-based Embedder. It requires no
// external model and is the default for tests and offline operation: a
// given non-blank text always maps to the same unit vector, so fixtures
// and golden-file assertions stay stable without mocking a real model.
// Blank text maps to the zero vector.
type Static struct {
	mu     sync.RWMutex
	dim    int
	closed bool
}

// NewStatic returns a Static embedder producing vectors of width dim.
func NewStatic(dim int) *Static {
	return &Static{dim: dim}
}

// Embed generates a hash-based vector for a single text.
func (s *Static) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, cerrors.New(cerrors.ErrCodeInternal, "embedder: closed", nil)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, s.dim), nil
	}
	return normalizeVector(s.generateVector(trimmed)), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *Static) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// generateVector hashes whitespace tokens and character n-grams into
// buckets of a fixed-width vector, weighting whole tokens above
// n-grams so exact-term matches dominate near-miss overlaps.
func (s *Static) generateVector(text string) []float32 {
	vector := make([]float32, s.dim)

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		vector[hashToIndex(tok, s.dim)] += tokenWeight
	}

	for _, ng := range ngrams(strings.ToLower(text), ngramSize) {
		vector[hashToIndex(ng, s.dim)] += ngramWeight
	}

	return vector
}

func ngrams(s string, n int) []string {
	compact := strings.Join(strings.Fields(s), " ")
	if len(compact) < n {
		return nil
	}
	out := make([]string, 0, len(compact)-n+1)
	for i := 0; i+n <= len(compact); i++ {
		out = append(out, compact[i:i+n])
	}
	return out
}

func hashToIndex(s string, dim int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(dim))
}

// Dimensions returns the fixed embedding width.
func (s *Static) Dimensions() int { return s.dim }

// ModelName identifies this embedder in health() output.
func (s *Static) ModelName() string { return "static-hash" }

// Available always reports true while the embedder is open.
func (s *Static) Available(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// Close marks the embedder unavailable for further calls.
func (s *Static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
