// Package embedder provides the opaque text-to-vector function the
// search core treats as an injected collaborator: dimension D is fixed
// at construction, and Embed is assumed safe for concurrent use.
package embedder

import (
	"context"
	"math"
)

// Embedder maps text to a fixed-dimensional vector. Implementations
// must be safe for concurrent calls to Embed — the core treats the
// embedder as process-wide and shared.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed embedding width D.
	Dimensions() int

	// ModelName returns the model identifier, echoed by health().
	ModelName() string

	// Available reports whether the embedder is ready to serve calls.
	Available(ctx context.Context) bool

	// Close releases any held resources.
	Close() error
}

func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}
	magnitude := math.Sqrt(sumSquares)
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = float32(float64(val) / magnitude)
	}
	return out
}
