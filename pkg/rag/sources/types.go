package sources

type WebSource struct {
	Index        int       `json:"index"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Content      string    `json:"content"`
	RecencyScore int       `json:"recency_score"`
	Relevance    float64   `json:"relevance"`
	DateHint     *DateHint `json:"date_hint,omitempty"`
}

type ImageSource struct {
	Index       int    `json:"index"`
	URL         string `json:"url"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url"`
}

type VectorSource struct {
	Index      int     `json:"index"`
	DocumentID string  `json:"document_id"`
	SourceName string  `json:"source_name"`
	ChunkIndex int     `json:"chunk_index"`
	FilePath   string  `json:"file_path"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Set is the evidence gathered for one request, indexed per kind.
type Set struct {
	Web     []WebSource    `json:"web"`
	Images  []ImageSource  `json:"images"`
	Vectors []VectorSource `json:"vectors"`
}

func (s Set) Empty() bool {
	return len(s.Web) == 0 && len(s.Images) == 0 && len(s.Vectors) == 0
}
