package port

import (
	"context"

	"vecindex/internal/domain"
)

// Extractor turns a raw document into plain text. Implementations pick
// exactly one extraction strategy per document and never mix partial
// outputs from different strategies.
type Extractor interface {
	Extract(ctx context.Context, doc domain.Document) (string, error)

	// Supports reports whether the extractor handles the mime type.
	Supports(mimeType string) bool
}
