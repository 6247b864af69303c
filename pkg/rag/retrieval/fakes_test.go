package retrieval

import (
	"context"
	"errors"
	"fmt"

	"leaf-research-be/pkg/search/tavily"
)

// memoryCollection pages over a fixed chunk slice using an int cursor.
type memoryCollection struct {
	chunks []Chunk
	calls  int
	fail   bool
}

func (m *memoryCollection) Scroll(ctx context.Context, source string, cursor interface{}, limit int) (Page, error) {
	m.calls++
	if m.fail {
		return Page{}, errors.New("collection offline")
	}
	var filtered []Chunk
	for _, c := range m.chunks {
		if source == "" || c.Source == source {
			filtered = append(filtered, c)
		}
	}
	start := 0
	if cursor != nil {
		start = cursor.(int)
	}
	end := start + limit
	if end >= len(filtered) {
		return Page{Chunks: filtered[start:]}, nil
	}
	return Page{Chunks: filtered[start:end], Next: end}, nil
}

func chunksFrom(texts ...string) []Chunk {
	out := make([]Chunk, len(texts))
	for i, t := range texts {
		out[i] = Chunk{ID: fmt.Sprintf("c%d", i), Source: "ipcc", Text: t, ChunkIndex: i}
	}
	return out
}

type fakeSearcher struct {
	resp *tavily.SearchResponse
	err  error
	last tavily.SearchRequest
}

func (f *fakeSearcher) Search(ctx context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error) {
	f.last = req
	return f.resp, f.err
}

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

type fakeSimilarity struct {
	chunks []Chunk
	err    error
}

func (f fakeSimilarity) SearchSimilar(ctx context.Context, vec []float32, source string, limit int) ([]Chunk, error) {
	return f.chunks, f.err
}
