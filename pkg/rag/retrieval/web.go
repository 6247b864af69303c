package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/search/tavily"
)

var ErrWebSearchDisabled = errors.New("web search disabled")

// Searcher is the web search provider surface.
type Searcher interface {
	Search(ctx context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error)
}

// SearcherFactory builds a provider client from an API key.
type SearcherFactory func(apiKey string) (Searcher, error)

// TavilyFactory is the production SearcherFactory.
func TavilyFactory(apiKey string) (Searcher, error) {
	return tavily.NewClient(apiKey)
}

type searcherHandle struct {
	searcher Searcher
}

// WebResult always carries a non-nil Response; Err explains an empty one.
type WebResult struct {
	Response *tavily.SearchResponse
	Err      *Error
}

func emptyResponse() *tavily.SearchResponse {
	return &tavily.SearchResponse{Results: []json.RawMessage{}, Images: []json.RawMessage{}}
}

// WebRetriever owns a process-wide provider client created on first use.
// Initialisation is a presence check without a lock: two racing requests may
// both build a client and one of them wins, which is harmless.
type WebRetriever struct {
	apiKey  string
	factory SearcherFactory
	client  atomic.Pointer[searcherHandle]
	logger  logger.ILogger
}

func NewWebRetriever(apiKey string, factory SearcherFactory, log logger.ILogger) *WebRetriever {
	if factory == nil {
		factory = TavilyFactory
	}
	return &WebRetriever{apiKey: apiKey, factory: factory, logger: log}
}

// Available initialises the client if needed and reports whether it exists.
// A missing API key disables web search silently.
func (w *WebRetriever) Available() bool {
	if w.client.Load() != nil {
		return true
	}
	if w.apiKey == "" {
		return false
	}
	s, err := w.factory(w.apiKey)
	if err != nil {
		w.logger.Warn("RETRIEVAL", "Web search client unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	w.client.Store(&searcherHandle{searcher: s})
	return true
}

// Retrieve searches the web with the given options. It never fails: errors
// and a missing client both yield an empty response.
func (w *WebRetriever) Retrieve(ctx context.Context, query string, opts SearchOptions) WebResult {
	if !w.Available() {
		return WebResult{Response: emptyResponse(), Err: &Error{Source: SourceWeb, Err: ErrWebSearchDisabled}}
	}

	if err := opts.Validate(); err != nil {
		w.logger.Warn("RETRIEVAL", "Search options invalid, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		opts = NewSearchOptions(DefaultPlan())
	}

	handle := w.client.Load()
	resp, err := handle.searcher.Search(ctx, opts.Request(query))
	if err != nil {
		w.logger.Error("RETRIEVAL", "Web search failed", map[string]interface{}{
			"error": err.Error(),
			"query": query,
		})
		return WebResult{Response: emptyResponse(), Err: &Error{Source: SourceWeb, Err: err}}
	}
	if resp == nil {
		resp = emptyResponse()
	}

	w.logger.Info("RETRIEVAL", "Web search complete", map[string]interface{}{
		"results": len(resp.Results),
		"images":  len(resp.Images),
		"depth":   opts.SearchDepth,
	})
	return WebResult{Response: resp}
}
