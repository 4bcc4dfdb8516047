package port

import (
	"context"

	"vecindex/internal/domain"
)

// VectorIndex is the capability surface of the external vector store.
type VectorIndex interface {
	// EnsureCollection creates the collection when missing and verifies
	// the configured dimension when it exists. A dimension conflict is a
	// configuration error, fatal for the run.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// Upsert writes records keyed by (DocID, Ordinal). Each record
	// overwrites any prior record with the same key.
	Upsert(ctx context.Context, collection string, records []domain.IndexRecord) error

	// Delete removes every record belonging to the document.
	Delete(ctx context.Context, collection, docID string) error

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// Search returns the k nearest chunks to the query vector.
	Search(ctx context.Context, collection string, vector []float32, k int) ([]domain.SearchHit, error)
}
