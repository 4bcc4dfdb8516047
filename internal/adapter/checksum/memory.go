package checksum

import (
	"sync"

	"vecindex/internal/domain"
)

// MemoryStore is an in-process ChecksumStore for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Fingerprint]domain.ChecksumRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[domain.Fingerprint]domain.ChecksumRecord)}
}

func (s *MemoryStore) Has(fp domain.Fingerprint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[fp]
	return ok, nil
}

func (s *MemoryStore) Get(fp domain.Fingerprint) (domain.ChecksumRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fp]
	return rec, ok, nil
}

func (s *MemoryStore) Put(fp domain.Fingerprint, rec domain.ChecksumRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[fp] = rec
	return nil
}

func (s *MemoryStore) DeleteByDoc(docID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for fp, rec := range s.records {
		if rec.DocID == docID {
			delete(s.records, fp)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) List() (map[domain.Fingerprint]domain.ChecksumRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Fingerprint]domain.ChecksumRecord, len(s.records))
	for fp, rec := range s.records {
		out[fp] = rec
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
