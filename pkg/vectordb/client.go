package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is a minimal Qdrant HTTP client
type Client struct {
	cfg  Config
	http *http.Client
	base string
	log  *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	c := cfg
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.PageSize == 0 {
		c.PageSize = 1000
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:  c,
		http: &http.Client{Timeout: c.Timeout},
		base: strings.TrimRight(c.URL, "/"),
		log:  log,
	}
}

func (c *Client) Collection() string { return c.cfg.Collection }

func (c *Client) PageSize() int { return c.cfg.PageSize }

type scrollRequest struct {
	Limit       int                    `json:"limit"`
	Offset      interface{}            `json:"offset,omitempty"`
	Filter      map[string]interface{} `json:"filter,omitempty"`
	WithPayload bool                   `json:"with_payload"`
	WithVector  bool                   `json:"with_vector"`
}

type scrollResponse struct {
	Result struct {
		Points         []Point     `json:"points"`
		NextPageOffset interface{} `json:"next_page_offset"`
	} `json:"result"`
	Status interface{} `json:"status"`
}

// qdrant search request/response (simplified)
type queryRequest struct {
	Query       []float32              `json:"query"`
	Limit       int                    `json:"limit"`
	WithPayload bool                   `json:"with_payload"`
	Filter      map[string]interface{} `json:"filter,omitempty"`
}

type searchResponse struct {
	Result []Point `json:"result"`
}

// queryResponse for the /points/query endpoint which has nested structure
type queryResponse struct {
	Result struct {
		Points []Point `json:"points"`
	} `json:"result"`
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/collections/%s%s", c.base, c.cfg.Collection, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
	return c.http.Do(req)
}

// Scroll fetches one page of points in storage order.
func (c *Client) Scroll(ctx context.Context, filter map[string]interface{}, offset interface{}, limit int) (*ScrollPage, error) {
	if limit <= 0 {
		limit = c.cfg.PageSize
	}
	resp, err := c.post(ctx, "/points/scroll", scrollRequest{
		Limit:       limit,
		Offset:      offset,
		Filter:      filter,
		WithPayload: true,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("qdrant scroll status %d: %s", resp.StatusCode, string(body))
	}

	var sr scrollResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("qdrant scroll decode: %w", err)
	}

	c.log.Debug("qdrant scroll page",
		zap.String("collection", c.cfg.Collection),
		zap.Int("points", len(sr.Result.Points)),
		zap.Bool("has_next", sr.Result.NextPageOffset != nil))

	return &ScrollPage{Points: sr.Result.Points, NextOffset: sr.Result.NextPageOffset}, nil
}

// Search runs a similarity query. It prefers /points/query and falls back to
// the legacy /points/search on a non-200 answer.
func (c *Client) Search(ctx context.Context, vec []float32, limit int, filter map[string]interface{}) ([]Point, error) {
	resp, err := c.post(ctx, "/points/query", queryRequest{Query: vec, Limit: limit, WithPayload: true, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var qr queryResponse
		if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
			return nil, err
		}
		return qr.Result.Points, nil
	}

	c.log.Warn("qdrant /points/query unavailable, falling back to /points/search",
		zap.Int("status", resp.StatusCode))

	legacy := map[string]interface{}{"vector": vec, "limit": limit, "with_payload": true}
	if filter != nil {
		legacy["filter"] = filter
	}
	resp2, err := c.post(ctx, "/points/search", legacy)
	if err != nil {
		return nil, fmt.Errorf("qdrant query/search failed: %w", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qdrant status %d", resp2.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp2.Body).Decode(&sr); err != nil {
		return nil, err
	}
	return sr.Result, nil
}
