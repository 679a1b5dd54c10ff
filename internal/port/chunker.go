package port

import "semindex/internal/domain"

type Chunker interface {
	Chunk(docID, text string, chunkSize, overlap int) []domain.Chunk
}
