package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"vecindex/internal/domain"
)

// MemoryIndex is an in-process VectorIndex used by tests and dry runs.
// It mirrors the upsert-by-deterministic-key semantics of the Qdrant
// client.
type MemoryIndex struct {
	mu          sync.RWMutex
	dimensions  map[string]int
	collections map[string]map[string]domain.IndexRecord
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		dimensions:  make(map[string]int),
		collections: make(map[string]map[string]domain.IndexRecord),
	}
}

func (m *MemoryIndex) EnsureCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.dimensions[name]; ok {
		if existing != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, embedder produces %d",
				domain.ErrDimensionMismatch, name, existing, dimension)
		}
		return nil
	}
	m.dimensions[name] = dimension
	m.collections[name] = make(map[string]domain.IndexRecord)
	return nil
}

func (m *MemoryIndex) Upsert(_ context.Context, collection string, records []domain.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	points, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: unknown collection %q", domain.ErrUpsertFailed, collection)
	}
	dim := m.dimensions[collection]
	for _, rec := range records {
		if len(rec.Vector) != dim {
			return fmt.Errorf("%w: record %s#%d has dimension %d, want %d",
				domain.ErrUpsertFailed, rec.DocID, rec.Ordinal, len(rec.Vector), dim)
		}
	}
	for _, rec := range records {
		points[PointID(rec.DocID, rec.Ordinal)] = rec
	}
	return nil
}

func (m *MemoryIndex) Delete(_ context.Context, collection, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	points, ok := m.collections[collection]
	if !ok {
		return nil
	}
	for key, rec := range points {
		if rec.DocID == docID {
			delete(points, key)
		}
	}
	return nil
}

func (m *MemoryIndex) Count(_ context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection]), nil
}

func (m *MemoryIndex) Search(_ context.Context, collection string, vector []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = 5
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []domain.SearchHit
	for _, rec := range m.collections[collection] {
		hits = append(hits, domain.SearchHit{
			DocID:   rec.DocID,
			Ordinal: rec.Ordinal,
			Text:    rec.Text,
			Source:  rec.Source,
			Score:   cosine(vector, rec.Vector),
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Records returns a copy of the stored records for assertions in tests.
func (m *MemoryIndex) Records(collection string) []domain.IndexRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]domain.IndexRecord, 0, len(m.collections[collection]))
	for _, rec := range m.collections[collection] {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].DocID != records[j].DocID {
			return records[i].DocID < records[j].DocID
		}
		return records[i].Ordinal < records[j].Ordinal
	})
	return records
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
