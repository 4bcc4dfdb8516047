package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"vecindex/internal/domain"
)

var bucketChecksums = []byte("checksums")

// Compute returns the fingerprint of a document's raw bytes. Identical
// bytes always produce identical fingerprints; a single differing byte
// changes the result.
func Compute(raw []byte) domain.Fingerprint {
	sum := sha256.Sum256(raw)
	return domain.Fingerprint(hex.EncodeToString(sum[:]))
}

// BoltStore persists checksum records in a bbolt database so dedup
// survives process restarts.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open checksum db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChecksums)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checksum bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Has(fp domain.Fingerprint) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketChecksums).Get([]byte(fp)) != nil
		return nil
	})
	return found, err
}

func (s *BoltStore) Get(fp domain.Fingerprint) (domain.ChecksumRecord, bool, error) {
	var rec domain.ChecksumRecord
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChecksums).Get([]byte(fp))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		found = true
		return nil
	})
	return rec, found, err
}

func (s *BoltStore) Put(fp domain.Fingerprint, rec domain.ChecksumRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketChecksums).Put([]byte(fp), data)
	})
}

func (s *BoltStore) DeleteByDoc(docID string) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChecksums)

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec domain.ChecksumRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.DocID == docID {
				key := make([]byte, len(k))
				copy(key, k)
				stale = append(stale, key)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range stale {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(stale)
		return nil
	})
	return deleted, err
}

func (s *BoltStore) List() (map[domain.Fingerprint]domain.ChecksumRecord, error) {
	records := make(map[domain.Fingerprint]domain.ChecksumRecord)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChecksums).ForEach(func(k, v []byte) error {
			var rec domain.ChecksumRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records[domain.Fingerprint(k)] = rec
			return nil
		})
	})
	return records, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
