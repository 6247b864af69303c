package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.tavily.com"

var ErrMissingAPIKey = errors.New("tavily: missing API key")

// SearchRequest mirrors the /search payload.
type SearchRequest struct {
	Query                    string   `json:"query"`
	SearchDepth              string   `json:"search_depth,omitempty"`
	TimeRange                string   `json:"time_range,omitempty"`
	IncludeAnswer            string   `json:"include_answer,omitempty"`
	IncludeImages            bool     `json:"include_images"`
	IncludeImageDescriptions bool     `json:"include_image_descriptions"`
	IncludeRawContent        bool     `json:"include_raw_content"`
	MaxResults               int      `json:"max_results,omitempty"`
	IncludeDomains           []string `json:"include_domains,omitempty"`
}

// SearchResponse keeps results and images raw so a single malformed item
// can be handled by the caller without failing the whole batch.
type SearchResponse struct {
	Query        string            `json:"query"`
	Answer       string            `json:"answer,omitempty"`
	Results      []json.RawMessage `json:"results"`
	Images       []json.RawMessage `json:"images"`
	ResponseTime float64           `json:"response_time"`
}

type Result struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Content        *string `json:"content"`
	RawContent     *string `json:"raw_content"`
	ContentSnippet *string `json:"content_snippet"`
	Score          float64 `json:"score"`
	PublishedDate  string  `json:"published_date,omitempty"`
}

// Text returns the first content field that is present, preferring raw content.
func (r Result) Text() string {
	for _, c := range []*string{r.RawContent, r.Content, r.ContentSnippet} {
		if c != nil && *c != "" {
			return *c
		}
	}
	return ""
}

type Image struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url"`
}

func DecodeResult(raw json.RawMessage) (Result, error) {
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{}, fmt.Errorf("tavily: decode result: %w", err)
	}
	return r, nil
}

// DecodeImage accepts either a bare URL string or an image object.
func DecodeImage(raw json.RawMessage) (Image, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var url string
		if err := json.Unmarshal(raw, &url); err != nil {
			return Image{}, fmt.Errorf("tavily: decode image: %w", err)
		}
		return Image{URL: url}, nil
	}
	var img Image
	if err := json.Unmarshal(raw, &img); err != nil {
		return Image{}, fmt.Errorf("tavily: decode image: %w", err)
	}
	return img, nil
}

type Client struct {
	apiKey  string
	BaseURL string
	http    *http.Client
}

func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Client{
		apiKey:  apiKey,
		BaseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}
