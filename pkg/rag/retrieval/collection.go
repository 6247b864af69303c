package retrieval

import (
	"context"
	"fmt"

	"leaf-research-be/pkg/rag/sources"
	"leaf-research-be/pkg/vectordb"
)

// Chunk is one stored document fragment.
type Chunk struct {
	ID         string
	Source     string
	Text       string
	ChunkIndex int
	FilePath   string
	Score      float64
}

// Page is one batch of a scroll. Next is nil after the last page.
type Page struct {
	Chunks []Chunk
	Next   interface{}
}

// Collection is the paginated document store the keyword scan walks.
type Collection interface {
	Scroll(ctx context.Context, source string, cursor interface{}, limit int) (Page, error)
}

// SimilaritySearcher is the optional nearest-neighbour lookup.
type SimilaritySearcher interface {
	SearchSimilar(ctx context.Context, vec []float32, source string, limit int) ([]Chunk, error)
}

// DefaultFilePath is used when a chunk does not carry its origin file.
func DefaultFilePath(source string) string {
	return fmt.Sprintf(`data\%s.pdf`, source)
}

func (c Chunk) VectorSource() sources.VectorSource {
	filePath := c.FilePath
	if filePath == "" {
		filePath = DefaultFilePath(c.Source)
	}
	return sources.VectorSource{
		DocumentID: c.ID,
		SourceName: c.Source,
		ChunkIndex: c.ChunkIndex,
		FilePath:   filePath,
		Text:       c.Text,
		Score:      c.Score,
	}
}

// QdrantCollection adapts the Qdrant client to Collection and SimilaritySearcher.
type QdrantCollection struct {
	client *vectordb.Client
}

func NewQdrantCollection(client *vectordb.Client) *QdrantCollection {
	return &QdrantCollection{client: client}
}

func (q *QdrantCollection) Scroll(ctx context.Context, source string, cursor interface{}, limit int) (Page, error) {
	page, err := q.client.Scroll(ctx, vectordb.SourceFilter(source), cursor, limit)
	if err != nil {
		return Page{}, err
	}
	chunks := make([]Chunk, len(page.Points))
	for i, p := range page.Points {
		chunks[i] = chunkFromPoint(p)
	}
	return Page{Chunks: chunks, Next: page.NextOffset}, nil
}

func (q *QdrantCollection) SearchSimilar(ctx context.Context, vec []float32, source string, limit int) ([]Chunk, error) {
	points, err := q.client.Search(ctx, vec, limit, vectordb.SourceFilter(source))
	if err != nil {
		return nil, err
	}
	chunks := make([]Chunk, len(points))
	for i, p := range points {
		chunks[i] = chunkFromPoint(p)
	}
	return chunks, nil
}

func chunkFromPoint(p vectordb.Point) Chunk {
	text := payloadString(p.Payload, "text")
	if text == "" {
		text = payloadString(p.Payload, "content")
	}
	return Chunk{
		ID:         fmt.Sprint(p.ID),
		Source:     payloadString(p.Payload, "source"),
		Text:       text,
		ChunkIndex: payloadInt(p.Payload, "chunk_index"),
		FilePath:   payloadString(p.Payload, "file_path"),
		Score:      p.Score,
	}
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
