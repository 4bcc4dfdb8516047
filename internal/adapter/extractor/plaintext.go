package extractor

import (
	"context"
	"fmt"
	"unicode/utf8"

	"vecindex/internal/domain"
)

// PlaintextExtractor passes text documents through unchanged.
type PlaintextExtractor struct{}

func NewPlaintextExtractor() *PlaintextExtractor {
	return &PlaintextExtractor{}
}

func (e *PlaintextExtractor) Supports(mimeType string) bool {
	switch mimeType {
	case "text/plain", "text/markdown":
		return true
	}
	return false
}

func (e *PlaintextExtractor) Extract(_ context.Context, doc domain.Document) (string, error) {
	if len(doc.Raw) == 0 {
		return "", fmt.Errorf("%w: %s has no bytes", domain.ErrCorruptDocument, doc.ID)
	}
	if !utf8.Valid(doc.Raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrCorruptDocument, doc.ID)
	}
	return string(doc.Raw), nil
}
