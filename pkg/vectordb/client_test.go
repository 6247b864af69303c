package vectordb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScroll_PassesFilterAndOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/docs/points/scroll", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(2), body["limit"])
		assert.Equal(t, "p2", body["offset"])
		assert.NotNil(t, body["filter"])

		_, _ = w.Write([]byte(`{"result":{"points":[{"id":3,"payload":{"source":"ipcc","text":"warming"}}],"next_page_offset":null},"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, APIKey: "secret", Collection: "docs"}, nil)
	page, err := c.Scroll(context.Background(), SourceFilter("ipcc"), "p2", 2)
	require.NoError(t, err)
	require.Len(t, page.Points, 1)
	assert.Equal(t, "ipcc", page.Points[0].Payload["source"])
	assert.Nil(t, page.NextOffset)
}

func TestSearch_FallsBackToLegacyEndpoint(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		if r.URL.Path == "/collections/docs/points/query" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"result":[{"id":"a","score":0.9,"payload":{"source":"nasa"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Collection: "docs"}, nil)
	points, err := c.Search(context.Background(), []float32{0.1}, 5, nil)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 0.9, points[0].Score)
	assert.Equal(t, []string{"/collections/docs/points/query", "/collections/docs/points/search"}, hits)
}

func TestSourceFilter_Empty(t *testing.T) {
	assert.Nil(t, SourceFilter(""))
}
