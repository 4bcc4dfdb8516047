package domain

import "time"

// Document is a raw candidate discovered at pipeline invocation. It is
// read-only during processing; the pipeline never mutates it.
type Document struct {
	ID       string // stable source path or external ID
	Name     string // display name (base file name)
	Raw      []byte
	MimeType string
	Size     int64
	Pages    int // optional, 0 when unknown
}

// Fingerprint is the deterministic content hash of a document's raw bytes.
// Used only for dedup membership testing, never for addressing.
type Fingerprint string

// ChecksumRecord maps a fingerprint back to the document it was computed
// from. A record exists only for documents whose chunks were all upserted.
type ChecksumRecord struct {
	DocID      string    `json:"doc_id"`
	IndexedAt  time.Time `json:"indexed_at"`
	ChunkCount int       `json:"chunk_count"`
}

// TextChunk is one ordered unit of a document's extracted text.
// Start and End are byte offsets into the full extracted text, so
// Text == extracted[Start:End].
type TextChunk struct {
	DocID   string
	Ordinal int
	Text    string
	Start   int
	End     int
}

// IndexRecord is the persisted unit in the vector store. Its key is a
// deterministic composite of document identity and chunk ordinal, so
// re-processing the same document overwrites rather than duplicates.
type IndexRecord struct {
	DocID    string
	Ordinal  int
	Vector   []float32
	Text     string
	Start    int
	End      int
	Provider string
	Model    string
	Source   string // display name of the originating document
}

// SearchHit is a scored chunk returned from the vector index.
type SearchHit struct {
	DocID   string
	Ordinal int
	Text    string
	Source  string
	Score   float64
}

// DocState tracks a document through the pipeline state machine.
type DocState int

const (
	StateDiscovered DocState = iota
	StateFingerprinted
	StateSkippedDuplicate
	StateExtracting
	StateExtracted
	StateChunking
	StateChunked
	StateEmbedding
	StateEmbedded
	StateUpserting
	StateCommitted
	StateFailed
)

func (s DocState) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateFingerprinted:
		return "fingerprinted"
	case StateSkippedDuplicate:
		return "skipped_duplicate"
	case StateExtracting:
		return "extracting"
	case StateExtracted:
		return "extracted"
	case StateChunking:
		return "chunking"
	case StateChunked:
		return "chunked"
	case StateEmbedding:
		return "embedding"
	case StateEmbedded:
		return "embedded"
	case StateUpserting:
		return "upserting"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DocOutcome is the per-document result reported in a run summary.
type DocOutcome struct {
	DocID  string
	Name   string
	State  DocState
	Chunks int    // chunks upserted, set only when State == StateCommitted
	Err    string // empty unless State == StateFailed
}

// RunSummary aggregates the outcome of one pipeline run.
type RunSummary struct {
	Indexed  int
	Skipped  int
	Failed   int
	Chunks   int
	Outcomes []DocOutcome
}
