package engine

import (
	"context"

	"github.com/Aman-CERP/catalogsearch/internal/embedder"
	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// circuitEmbedder wraps an Embedder with a circuit breaker on the query
// path (spec §5: the Embedder call is the expensive suspension point a
// query blocks on). After repeated failures it fails new queries fast
// instead of piling up goroutines waiting on a dead embedding backend;
// the Ingestion Controller talks to the unwrapped Embedder directly so a
// tripped breaker never blocks writes from retrying on their own terms.
type circuitEmbedder struct {
	embedder.Embedder
	cb *cerrors.CircuitBreaker
}

func newCircuitEmbedder(e embedder.Embedder) *circuitEmbedder {
	return &circuitEmbedder{
		Embedder: e,
		cb:       cerrors.NewCircuitBreaker("query-embedder", cerrors.WithMaxFailures(5), cerrors.WithResetTimeout(resetTimeout)),
	}
}

func (c *circuitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return cerrors.CircuitExecuteWithResult(c.cb, func() ([]float32, error) {
		return c.Embedder.Embed(ctx, text)
	}, func() ([]float32, error) {
		return nil, cerrors.WithCause(cerrors.ErrStoreUnavailable, cerrors.ErrCircuitOpen).
			WithDetail("breaker", c.cb.Name())
	})
}
