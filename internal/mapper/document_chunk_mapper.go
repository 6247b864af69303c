package mapper

import (
	"leaf-research-be/internal/entity"
	"leaf-research-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}
	e := &entity.DocumentChunk{
		Id:         c.Id,
		Source:     c.Source,
		ChunkIndex: c.ChunkIndex,
		FilePath:   c.FilePath,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
	}
	if c.Embedding != nil {
		e.Embedding = c.Embedding.Slice()
	}
	return e
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}
	out := &model.DocumentChunk{
		Id:         c.Id,
		Source:     c.Source,
		ChunkIndex: c.ChunkIndex,
		FilePath:   c.FilePath,
		Text:       c.Text,
		CreatedAt:  c.CreatedAt,
	}
	if len(c.Embedding) > 0 {
		vec := pgvector.NewVector(c.Embedding)
		out.Embedding = &vec
	}
	return out
}

func (m *DocumentChunkMapper) ToEntities(models []*model.DocumentChunk) []*entity.DocumentChunk {
	entities := make([]*entity.DocumentChunk, len(models))
	for i, c := range models {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
