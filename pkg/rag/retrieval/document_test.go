package retrieval

import (
	"context"
	"errors"
	"testing"

	"leaf-research-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermScore(t *testing.T) {
	terms := QueryTerms("Sea LEVEL")
	assert.Equal(t, 3, TermScore("sea level rise: the sea is rising", terms))
	assert.Equal(t, 0, TermScore("glaciers", terms))
	assert.Equal(t, 1, TermScore("c++ and co2", QueryTerms("c++")))
}

func TestKeywordRetrieve_Deterministic(t *testing.T) {
	coll := &memoryCollection{chunks: chunksFrom(
		"methane emissions from agriculture",
		"ocean heat content",
		"methane methane leaks",
		"methane and carbon",
		"unrelated text",
	)}
	r := NewDocumentRetriever(coll, logger.NewNopLogger(), WithPageSize(2))

	first := r.Retrieve(context.Background(), "methane", "", 2)
	second := r.Retrieve(context.Background(), "methane", "", 2)

	require.Nil(t, first.Err)
	assert.Equal(t, first.Sources, second.Sources)
	require.Len(t, first.Sources, 2)
	assert.Equal(t, "c2", first.Sources[0].DocumentID)
	// tie between c0 and c3 keeps scroll order
	assert.Equal(t, "c0", first.Sources[1].DocumentID)
	assert.Equal(t, 1, first.Sources[0].Index)
	assert.Equal(t, 2, first.Sources[1].Index)
	assert.Equal(t, 5, first.Scanned)
	assert.Equal(t, StrategyKeyword, first.Strategy)
}

func TestKeywordRetrieve_ZeroScoreNeverReturned(t *testing.T) {
	coll := &memoryCollection{chunks: chunksFrom("a", "b", "c")}
	r := NewDocumentRetriever(coll, logger.NewNopLogger())

	got := r.Retrieve(context.Background(), "drought", "", 5)
	assert.Nil(t, got.Err)
	assert.Empty(t, got.Sources)
}

func TestKeywordRetrieve_RespectsCeiling(t *testing.T) {
	coll := &memoryCollection{chunks: chunksFrom("x", "x", "x", "x", "x", "x match")}
	r := NewDocumentRetriever(coll, logger.NewNopLogger(), WithScrollCeiling(4), WithPageSize(3))

	got := r.Retrieve(context.Background(), "match", "", 5)
	assert.Empty(t, got.Sources)
	assert.Equal(t, 4, got.Scanned)
}

func TestKeywordRetrieve_SourceFilterAndDefaultPath(t *testing.T) {
	chunks := chunksFrom("flood risk", "flood maps")
	chunks[1].Source = "noaa"
	coll := &memoryCollection{chunks: chunks}
	r := NewDocumentRetriever(coll, logger.NewNopLogger())

	got := r.Retrieve(context.Background(), "flood", "noaa", 5)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "noaa", got.Sources[0].SourceName)
	assert.Equal(t, `data\noaa.pdf`, got.Sources[0].FilePath)
}

func TestKeywordRetrieve_FailureIsEmpty(t *testing.T) {
	r := NewDocumentRetriever(&memoryCollection{fail: true}, logger.NewNopLogger())

	got := r.Retrieve(context.Background(), "flood", "", 5)
	assert.NotNil(t, got.Sources)
	assert.Empty(t, got.Sources)
	require.NotNil(t, got.Err)
	assert.Equal(t, SourceDocument, got.Err.Source)
}

func TestSemanticPrePass(t *testing.T) {
	coll := &memoryCollection{chunks: chunksFrom("permafrost thaw")}

	t.Run("semantic hits skip keyword scan", func(t *testing.T) {
		coll.calls = 0
		r := NewDocumentRetriever(coll, logger.NewNopLogger(), WithSemanticSearch(
			fakeEmbedder{},
			fakeSimilarity{chunks: []Chunk{{ID: "s1", Source: "ar6", Text: "thaw", Score: 0.8}}},
		))
		got := r.Retrieve(context.Background(), "permafrost thaw rates", "", 5)
		require.Len(t, got.Sources, 1)
		assert.Equal(t, StrategySemantic, got.Strategy)
		assert.Equal(t, 0, coll.calls)
	})

	t.Run("embedding failure falls back to keyword", func(t *testing.T) {
		r := NewDocumentRetriever(coll, logger.NewNopLogger(), WithSemanticSearch(
			fakeEmbedder{err: errors.New("ollama down")},
			fakeSimilarity{},
		))
		got := r.Retrieve(context.Background(), "permafrost thaw rates", "", 5)
		require.Len(t, got.Sources, 1)
		assert.Equal(t, StrategyKeyword, got.Strategy)
	})

	t.Run("literal query skips embedding", func(t *testing.T) {
		r := NewDocumentRetriever(coll, logger.NewNopLogger(), WithSemanticSearch(
			fakeEmbedder{},
			fakeSimilarity{chunks: []Chunk{{ID: "s1"}}},
		))
		got := r.Retrieve(context.Background(), `"permafrost"`, "", 5)
		assert.Equal(t, StrategyKeyword, got.Strategy)
	})
}
