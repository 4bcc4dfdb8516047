package port

import "vecindex/internal/domain"

type Chunker interface {
	Chunk(docID, text string) []domain.TextChunk
}
