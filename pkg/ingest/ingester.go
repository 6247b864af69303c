package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"leaf-research-be/internal/entity"
	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/embedding"
	"leaf-research-be/pkg/rag/retrieval"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// ChunkStore persists one chunk. DocumentChunkRepository satisfies it.
type ChunkStore interface {
	Create(ctx context.Context, chunk *entity.DocumentChunk) error
}

type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// Ingester loads PDF files into the document collection.
type Ingester struct {
	store     ChunkStore
	extractor TextExtractor
	embedder  embedding.EmbeddingProvider
	logger    logger.ILogger

	ChunkSize int
	Overlap   int
}

// NewIngester builds an Ingester. A nil embedder stores chunks without
// vectors, so only the keyword scan can find them.
func NewIngester(store ChunkStore, extractor TextExtractor, embedder embedding.EmbeddingProvider, log logger.ILogger) *Ingester {
	return &Ingester{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		logger:    log,
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
	}
}

type Report struct {
	Files  int
	Chunks int
	Failed []string
}

// IngestDir ingests every *.pdf directly under dir in name order. A file that
// fails is recorded in the report and skipped.
func (in *Ingester) IngestDir(ctx context.Context, dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var report Report
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		n, err := in.IngestFile(ctx, filepath.Join(dir, name))
		if err != nil {
			in.logger.Warn("INGEST", "Skipping file", map[string]interface{}{
				"file":  name,
				"error": err.Error(),
			})
			report.Failed = append(report.Failed, name)
			continue
		}
		report.Files++
		report.Chunks += n
	}
	return report, nil
}

// IngestFile stores the chunks of one PDF and returns how many were written.
// The source name is the file name without its extension.
func (in *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text, err := in.extractor.ExtractText(data)
	if err != nil {
		return 0, err
	}

	base := filepath.Base(path)
	source := strings.TrimSuffix(base, filepath.Ext(base))
	filePath := retrieval.DefaultFilePath(source)

	written := 0
	for i, piece := range SplitText(text, in.ChunkSize, in.Overlap) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		chunk := &entity.DocumentChunk{
			Source:     source,
			ChunkIndex: i,
			FilePath:   filePath,
			Text:       piece,
		}
		if in.embedder != nil {
			vec, err := in.embedder.Generate(ctx, piece, embedding.TaskRetrievalDocument)
			if err != nil {
				return written, fmt.Errorf("embed chunk %d: %w", i, err)
			}
			chunk.Embedding = vec
		}
		if err := in.store.Create(ctx, chunk); err != nil {
			return written, fmt.Errorf("store chunk %d: %w", i, err)
		}
		written++
	}

	in.logger.Info("INGEST", "File ingested", map[string]interface{}{
		"source": source,
		"chunks": written,
	})
	return written, nil
}
