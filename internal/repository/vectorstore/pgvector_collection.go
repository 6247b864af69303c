package vectorstore

import (
	"context"
	"fmt"
	"strconv"

	"leaf-research-be/internal/entity"
	"leaf-research-be/internal/repository/contract"
	"leaf-research-be/pkg/rag/retrieval"
)

// PgvectorCollection serves the document retriever from the document_chunks
// table. The scroll cursor is the last chunk id seen.
type PgvectorCollection struct {
	repo contract.DocumentChunkRepository
}

func NewPgvectorCollection(repo contract.DocumentChunkRepository) *PgvectorCollection {
	return &PgvectorCollection{repo: repo}
}

func (c *PgvectorCollection) Scroll(ctx context.Context, source string, cursor interface{}, limit int) (retrieval.Page, error) {
	after, err := cursorID(cursor)
	if err != nil {
		return retrieval.Page{}, err
	}

	rows, err := c.repo.ScrollAfter(ctx, source, after, limit)
	if err != nil {
		return retrieval.Page{}, err
	}

	page := retrieval.Page{Chunks: make([]retrieval.Chunk, len(rows))}
	for i, row := range rows {
		page.Chunks[i] = toChunk(row, 0)
	}
	if len(rows) == limit && limit > 0 {
		page.Next = rows[len(rows)-1].Id
	}
	return page, nil
}

func (c *PgvectorCollection) SearchSimilar(ctx context.Context, vec []float32, source string, limit int) ([]retrieval.Chunk, error) {
	hits, err := c.repo.SearchSimilar(ctx, vec, source, limit)
	if err != nil {
		return nil, err
	}
	chunks := make([]retrieval.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = toChunk(h.Chunk, h.Similarity)
	}
	return chunks, nil
}

func toChunk(row *entity.DocumentChunk, score float64) retrieval.Chunk {
	return retrieval.Chunk{
		ID:         strconv.FormatInt(row.Id, 10),
		Source:     row.Source,
		Text:       row.Text,
		ChunkIndex: row.ChunkIndex,
		FilePath:   row.FilePath,
		Score:      score,
	}
}

func cursorID(cursor interface{}) (int64, error) {
	switch v := cursor.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("pgvector collection: unsupported cursor %T", cursor)
	}
}
