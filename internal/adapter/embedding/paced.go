package embedding

import (
	"context"

	"golang.org/x/time/rate"

	"vecindex/internal/port"
)

// PacedEmbedder wraps another embedder with a token-bucket limiter so
// request bursts stay under the provider's rate limits.
type PacedEmbedder struct {
	inner   port.Embedder
	limiter *rate.Limiter
}

func NewPacedEmbedder(inner port.Embedder, requestsPerSecond float64) *PacedEmbedder {
	return &PacedEmbedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (e *PacedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.Embed(ctx, texts)
}

func (e *PacedEmbedder) Dimension() int { return e.inner.Dimension() }

func (e *PacedEmbedder) ProviderName() string { return e.inner.ProviderName() }

func (e *PacedEmbedder) ModelName() string { return e.inner.ModelName() }
