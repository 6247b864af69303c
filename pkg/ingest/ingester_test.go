package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"leaf-research-be/internal/entity"
	"leaf-research-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	chunks []*entity.DocumentChunk
}

func (m *memoryStore) Create(_ context.Context, chunk *entity.DocumentChunk) error {
	m.chunks = append(m.chunks, chunk)
	return nil
}

// fakeExtractor treats the file bytes as the document text.
type fakeExtractor struct{}

func (fakeExtractor) ExtractText(data []byte) (string, error) {
	if strings.HasPrefix(string(data), "broken") {
		return "", errors.New("pdf: no extractable text")
	}
	return string(data), nil
}

type fakeEmbedder struct {
	tasks []string
}

func (f *fakeEmbedder) Generate(_ context.Context, text string, taskType string) ([]float32, error) {
	f.tasks = append(f.tasks, taskType)
	return []float32{float32(len(text))}, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "IPCC_AR6.pdf", strings.Repeat("warming ", 30))
	writeFile(t, dir, "broken.pdf", "broken")
	writeFile(t, dir, "notes.txt", "ignored")

	store := &memoryStore{}
	embedder := &fakeEmbedder{}
	in := NewIngester(store, fakeExtractor{}, embedder, logger.NewNopLogger())
	in.ChunkSize, in.Overlap = 100, 10

	report, err := in.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Files)
	assert.Equal(t, []string{"broken.pdf"}, report.Failed)
	assert.Equal(t, len(store.chunks), report.Chunks)
	require.NotEmpty(t, store.chunks)

	first := store.chunks[0]
	assert.Equal(t, "IPCC_AR6", first.Source)
	assert.Equal(t, `data\IPCC_AR6.pdf`, first.FilePath)
	assert.Equal(t, 0, first.ChunkIndex)
	assert.NotEmpty(t, first.Embedding)
	assert.Equal(t, "RETRIEVAL_DOCUMENT", embedder.tasks[0])
}

func TestIngestFile_WithoutEmbedder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "glaciers.pdf", "Glaciers retreat.")

	store := &memoryStore{}
	in := NewIngester(store, fakeExtractor{}, nil, logger.NewNopLogger())

	n, err := in.IngestFile(context.Background(), filepath.Join(dir, "glaciers.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Nil(t, store.chunks[0].Embedding)
	assert.Equal(t, "Glaciers retreat.", store.chunks[0].Text)
}
