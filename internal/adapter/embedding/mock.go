package embedding

import (
	"context"
	"fmt"
	"strings"

	"vecindex/internal/domain"
)

// MockEmbedder produces deterministic vectors derived from the input
// characters. Useful for tests and offline dry runs.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 8
	}
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: text %d is empty", domain.ErrInvalidInput, i)
		}
		v := make([]float32, e.dimension)
		for j, r := range text {
			v[j%e.dimension] += float32(r) / 1000.0
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *MockEmbedder) Dimension() int { return e.dimension }

func (e *MockEmbedder) ProviderName() string { return "mock" }

func (e *MockEmbedder) ModelName() string { return "mock" }
