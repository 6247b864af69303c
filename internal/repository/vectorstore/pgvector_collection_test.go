package vectorstore

import (
	"context"
	"testing"

	"leaf-research-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChunkRepo struct {
	rows []*entity.DocumentChunk
}

func (f *fakeChunkRepo) Create(_ context.Context, chunk *entity.DocumentChunk) error {
	chunk.Id = int64(len(f.rows) + 1)
	f.rows = append(f.rows, chunk)
	return nil
}

func (f *fakeChunkRepo) ScrollAfter(_ context.Context, source string, afterId int64, limit int) ([]*entity.DocumentChunk, error) {
	var out []*entity.DocumentChunk
	for _, r := range f.rows {
		if r.Id <= afterId || (source != "" && r.Source != source) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeChunkRepo) SearchSimilar(_ context.Context, _ []float32, _ string, limit int) ([]*entity.ScoredDocumentChunk, error) {
	var out []*entity.ScoredDocumentChunk
	for i, r := range f.rows {
		if i == limit {
			break
		}
		out = append(out, &entity.ScoredDocumentChunk{Chunk: r, Similarity: 0.9})
	}
	return out, nil
}

func (f *fakeChunkRepo) Count(context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

func TestPgvectorCollection_ScrollPages(t *testing.T) {
	repo := &fakeChunkRepo{}
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &entity.DocumentChunk{Source: "ipcc", ChunkIndex: i, Text: "chunk"}))
	}
	coll := NewPgvectorCollection(repo)

	var (
		cursor interface{}
		seen   int
		pages  int
	)
	for {
		page, err := coll.Scroll(ctx, "ipcc", cursor, 2)
		require.NoError(t, err)
		seen += len(page.Chunks)
		pages++
		if page.Next == nil {
			break
		}
		cursor = page.Next
	}

	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, pages)
}

func TestPgvectorCollection_SearchSimilar(t *testing.T) {
	repo := &fakeChunkRepo{}
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &entity.DocumentChunk{Source: "ipcc", ChunkIndex: 3, Text: "sea level"}))

	chunks, err := NewPgvectorCollection(repo).SearchSimilar(ctx, []float32{0.1}, "ipcc", 5)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "1", chunks[0].ID)
	assert.Equal(t, 0.9, chunks[0].Score)
	assert.Equal(t, `data\ipcc.pdf`, chunks[0].VectorSource().FilePath)
}

func TestPgvectorCollection_BadCursor(t *testing.T) {
	_, err := NewPgvectorCollection(&fakeChunkRepo{}).Scroll(context.Background(), "", "offset", 2)
	assert.Error(t, err)
}
