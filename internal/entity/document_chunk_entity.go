package entity

import "time"

type DocumentChunk struct {
	Id         int64
	Source     string
	ChunkIndex int
	FilePath   string
	Text       string
	Embedding  []float32
	CreatedAt  time.Time
}

// ScoredDocumentChunk carries the cosine similarity of a vector search hit.
type ScoredDocumentChunk struct {
	Chunk      *DocumentChunk
	Similarity float64
}
