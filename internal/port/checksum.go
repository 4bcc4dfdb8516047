package port

import "vecindex/internal/domain"

// ChecksumStore persists one fingerprint per indexed document. It is the
// sole source of truth for "already indexed" and is written only after a
// document's chunks are all upserted.
type ChecksumStore interface {
	Has(fp domain.Fingerprint) (bool, error)

	Get(fp domain.Fingerprint) (domain.ChecksumRecord, bool, error)

	// Put commits the record for fp. All-or-nothing per document.
	Put(fp domain.Fingerprint, rec domain.ChecksumRecord) error

	// DeleteByDoc drops any record whose DocID matches, so a later run
	// reprocesses the document.
	DeleteByDoc(docID string) (int, error)

	List() (map[domain.Fingerprint]domain.ChecksumRecord, error)

	Close() error
}
