package retrieval

import (
	"context"
	"errors"
	"sort"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/embedding"
	"leaf-research-be/pkg/rag/sources"
	"leaf-research-be/pkg/search"
)

const (
	DefaultScrollCeiling = 8000
	DefaultPageSize      = 1000
	DefaultDocumentLimit = 5

	StrategyKeyword  = "keyword"
	StrategySemantic = "semantic"
)

var errEmptyQuery = errors.New("query has no terms")

// DocumentResult always carries a usable Sources slice; Err explains an empty one.
type DocumentResult struct {
	Sources  []sources.VectorSource
	Strategy string
	Scanned  int
	Err      *Error
}

type DocumentRetriever struct {
	collection Collection
	similarity SimilaritySearcher
	embedder   embedding.EmbeddingProvider
	ceiling    int
	pageSize   int
	logger     logger.ILogger
}

type DocumentOption func(*DocumentRetriever)

// WithSemanticSearch enables the embedding pre-pass before the keyword scan.
func WithSemanticSearch(embedder embedding.EmbeddingProvider, searcher SimilaritySearcher) DocumentOption {
	return func(r *DocumentRetriever) {
		r.embedder = embedder
		r.similarity = searcher
	}
}

func WithScrollCeiling(ceiling int) DocumentOption {
	return func(r *DocumentRetriever) {
		if ceiling > 0 {
			r.ceiling = ceiling
		}
	}
}

func WithPageSize(size int) DocumentOption {
	return func(r *DocumentRetriever) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

func NewDocumentRetriever(collection Collection, log logger.ILogger, opts ...DocumentOption) *DocumentRetriever {
	r := &DocumentRetriever{
		collection: collection,
		ceiling:    DefaultScrollCeiling,
		pageSize:   DefaultPageSize,
		logger:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most limit chunks for the query. Failures degrade to an
// empty result with Err set.
func (r *DocumentRetriever) Retrieve(ctx context.Context, query, source string, limit int) DocumentResult {
	if limit <= 0 {
		limit = DefaultDocumentLimit
	}

	if r.embedder != nil && r.similarity != nil && search.DetermineStrategy(query) == search.StrategySemantic {
		found, err := r.semantic(ctx, query, source, limit)
		if err != nil {
			r.logger.Warn("RETRIEVAL", "Semantic pre-pass failed, using keyword scan", map[string]interface{}{
				"error": err.Error(),
			})
		} else if len(found) > 0 {
			return DocumentResult{Sources: found, Strategy: StrategySemantic}
		}
	}

	found, scanned, err := r.keyword(ctx, query, source, limit)
	if err != nil {
		r.logger.Error("RETRIEVAL", "Keyword document scan failed", map[string]interface{}{
			"error":   err.Error(),
			"source":  source,
			"scanned": scanned,
		})
		return DocumentResult{
			Sources:  []sources.VectorSource{},
			Strategy: StrategyKeyword,
			Scanned:  scanned,
			Err:      &Error{Source: SourceDocument, Err: err},
		}
	}

	r.logger.Info("RETRIEVAL", "Keyword document scan complete", map[string]interface{}{
		"scanned": scanned,
		"matched": len(found),
		"source":  source,
	})
	return DocumentResult{Sources: found, Strategy: StrategyKeyword, Scanned: scanned}
}

func (r *DocumentRetriever) semantic(ctx context.Context, query, source string, limit int) ([]sources.VectorSource, error) {
	vec, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	chunks, err := r.similarity.SearchSimilar(ctx, vec, source, limit)
	if err != nil {
		return nil, err
	}
	out := make([]sources.VectorSource, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.VectorSource())
	}
	return sources.DedupVectors(out), nil
}

type scored struct {
	chunk Chunk
	score int
}

// keyword walks the collection up to the ceiling, keeps chunks with a
// positive term count, and returns the top limit by score. Ties keep scroll
// order.
func (r *DocumentRetriever) keyword(ctx context.Context, query, source string, limit int) ([]sources.VectorSource, int, error) {
	terms := QueryTerms(query)
	if len(terms) == 0 {
		return nil, 0, errEmptyQuery
	}

	var (
		matches []scored
		cursor  interface{}
		scanned int
	)
	for scanned < r.ceiling {
		size := r.pageSize
		if remaining := r.ceiling - scanned; remaining < size {
			size = remaining
		}

		page, err := r.collection.Scroll(ctx, source, cursor, size)
		if err != nil {
			return nil, scanned, err
		}

		for _, c := range page.Chunks {
			if scanned >= r.ceiling {
				break
			}
			scanned++
			if s := TermScore(c.Text, terms); s > 0 {
				matches = append(matches, scored{chunk: c, score: s})
			}
		}

		if page.Next == nil || len(page.Chunks) == 0 {
			break
		}
		cursor = page.Next
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]sources.VectorSource, 0, limit)
	for _, m := range matches {
		v := m.chunk.VectorSource()
		v.Score = float64(m.score)
		out = append(out, v)
	}
	out = sources.DedupVectors(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, scanned, nil
}
