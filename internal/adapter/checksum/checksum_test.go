package checksum

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vecindex/internal/domain"
	"vecindex/internal/port"
)

func TestComputeFingerprint(t *testing.T) {
	a := Compute([]byte("identical bytes"))
	b := Compute([]byte("identical bytes"))
	assert.Equal(t, a, b)

	c := Compute([]byte("identical byteS"))
	assert.NotEqual(t, a, c, "one differing byte must change the fingerprint")

	assert.Len(t, string(a), 64)
}

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checksums.db")
	store, err := NewBoltStore(path)
	require.NoError(t, err)
	defer store.Close()

	fp := Compute([]byte("document bytes"))

	found, err := store.Has(fp)
	require.NoError(t, err)
	assert.False(t, found)

	rec := domain.ChecksumRecord{
		DocID:      "docs/report.pdf",
		IndexedAt:  time.Now().UTC().Truncate(time.Second),
		ChunkCount: 7,
	}
	require.NoError(t, store.Put(fp, rec))

	found, err = store.Has(fp)
	require.NoError(t, err)
	assert.True(t, found)

	got, ok, err := store.Get(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checksums.db")

	store, err := NewBoltStore(path)
	require.NoError(t, err)
	fp := Compute([]byte("payload"))
	require.NoError(t, store.Put(fp, domain.ChecksumRecord{DocID: "a.pdf", ChunkCount: 1}))
	require.NoError(t, store.Close())

	reopened, err := NewBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.Has(fp)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDeleteByDoc(t *testing.T) {
	stores := map[string]port.ChecksumStore{
		"memory": NewMemoryStore(),
	}
	bolt, err := NewBoltStore(filepath.Join(t.TempDir(), "checksums.db"))
	require.NoError(t, err)
	defer bolt.Close()
	stores["bolt"] = bolt

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(Compute([]byte("v1")), domain.ChecksumRecord{DocID: "a.pdf"}))
			require.NoError(t, store.Put(Compute([]byte("v2")), domain.ChecksumRecord{DocID: "a.pdf"}))
			require.NoError(t, store.Put(Compute([]byte("v3")), domain.ChecksumRecord{DocID: "b.pdf"}))

			deleted, err := store.DeleteByDoc("a.pdf")
			require.NoError(t, err)
			assert.Equal(t, 2, deleted)

			records, err := store.List()
			require.NoError(t, err)
			require.Len(t, records, 1)
			for _, rec := range records {
				assert.Equal(t, "b.pdf", rec.DocID)
			}
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ port.ChecksumStore = (*BoltStore)(nil)
	var _ port.ChecksumStore = (*MemoryStore)(nil)
}
