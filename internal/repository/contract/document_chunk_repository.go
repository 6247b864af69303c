package contract

import (
	"context"

	"leaf-research-be/internal/entity"
)

type DocumentChunkRepository interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
	// ScrollAfter returns up to limit chunks with id greater than afterId in
	// id order. An empty source matches every chunk.
	ScrollAfter(ctx context.Context, source string, afterId int64, limit int) ([]*entity.DocumentChunk, error)
	SearchSimilar(ctx context.Context, embedding []float32, source string, limit int) ([]*entity.ScoredDocumentChunk, error)
	Count(ctx context.Context) (int64, error)
}
