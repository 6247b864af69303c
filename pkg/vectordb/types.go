package vectordb

import "time"

// Config controls Qdrant client behavior
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	// Points fetched per scroll request
	PageSize int
}

// Point is a stored chunk as returned by scroll or search.
type Point struct {
	ID      interface{}            `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

// ScrollPage is one page of a scroll; NextOffset is nil on the last page.
type ScrollPage struct {
	Points     []Point
	NextOffset interface{}
}

// SourceFilter builds an equality filter on the payload "source" field.
// An empty source means no filter.
func SourceFilter(source string) map[string]interface{} {
	if source == "" {
		return nil
	}
	return map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"key":   "source",
				"match": map[string]interface{}{"value": source},
			},
		},
	}
}
