package extractor

import (
	"context"
	"fmt"

	"vecindex/internal/domain"
	"vecindex/internal/port"
)

// Registry dispatches extraction to the first extractor claiming the
// document's declared mime type.
type Registry struct {
	extractors []port.Extractor
}

func NewRegistry(extractors ...port.Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// NewDefaultRegistry wires the standard PDF and plaintext extractors.
func NewDefaultRegistry(opts ...PDFOption) *Registry {
	return NewRegistry(NewPDFExtractor(opts...), NewPlaintextExtractor())
}

func (r *Registry) Supports(mimeType string) bool {
	for _, e := range r.extractors {
		if e.Supports(mimeType) {
			return true
		}
	}
	return false
}

func (r *Registry) Extract(ctx context.Context, doc domain.Document) (string, error) {
	for _, e := range r.extractors {
		if e.Supports(doc.MimeType) {
			return e.Extract(ctx, doc)
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedType, doc.MimeType, doc.ID)
}
