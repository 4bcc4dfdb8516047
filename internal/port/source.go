package port

import (
	"context"

	"vecindex/internal/domain"
)

// Source discovers candidate documents for one pipeline run.
type Source interface {
	Discover(ctx context.Context) ([]domain.Document, error)
}
