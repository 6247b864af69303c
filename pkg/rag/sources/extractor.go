package sources

import (
	"sort"
	"strconv"
	"time"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/search/tavily"
)

const (
	untitledSource      = "Untitled Source"
	defaultImageCaption = "Image related to query"

	// recencyGap is the score difference above which recency outranks relevance.
	recencyGap = 20
)

// Extracted is the normalized view of one web search response.
type Extracted struct {
	Web    []WebSource
	Images []ImageSource
}

type Extractor struct {
	now    func() time.Time
	logger logger.ILogger
}

func NewExtractor(log logger.ILogger) *Extractor {
	return &Extractor{now: time.Now, logger: log}
}

// WithClock pins the reference time used for recency scoring.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract converts a raw provider response into deduplicated, ordered,
// re-indexed web and image sources. A nil response yields empty lists.
func (e *Extractor) Extract(resp *tavily.SearchResponse) Extracted {
	if resp == nil {
		return Extracted{Web: []WebSource{}, Images: []ImageSource{}}
	}

	now := e.now()

	web := make([]WebSource, 0, len(resp.Results))
	for i, raw := range resp.Results {
		r, err := tavily.DecodeResult(raw)
		if err != nil {
			e.logger.Warn("EXTRACTOR", "Malformed web result replaced with placeholder", map[string]interface{}{
				"position": i,
				"error":    err.Error(),
			})
			web = append(web, WebSource{Title: untitledSource})
			continue
		}
		web = append(web, e.toWebSource(r, now))
	}

	images := make([]ImageSource, 0, len(resp.Images))
	for i, raw := range resp.Images {
		img, err := tavily.DecodeImage(raw)
		if err != nil {
			e.logger.Warn("EXTRACTOR", "Malformed image result replaced with placeholder", map[string]interface{}{
				"position": i,
				"error":    err.Error(),
			})
			images = append(images, ImageSource{Description: defaultImageCaption})
			continue
		}
		images = append(images, toImageSource(img))
	}

	SortWeb(web)
	web = DedupWeb(web)
	images = DedupImages(images)

	e.logger.Debug("EXTRACTOR", "Sources normalized", map[string]interface{}{
		"raw_results": len(resp.Results),
		"web":         len(web),
		"raw_images":  len(resp.Images),
		"images":      len(images),
	})

	return Extracted{Web: web, Images: images}
}

func (e *Extractor) toWebSource(r tavily.Result, now time.Time) WebSource {
	title := r.Title
	if title == "" {
		title = untitledSource
	}
	content := r.Text()

	hint := ExtractFirstDateHint(content, r.Title, r.URL)
	return WebSource{
		Title:        title,
		URL:          r.URL,
		Content:      content,
		Relevance:    r.Score,
		DateHint:     hint,
		RecencyScore: RecencyScore(hint, now),
	}
}

func toImageSource(img tavily.Image) ImageSource {
	desc := img.Description
	if desc == "" {
		desc = defaultImageCaption
	}
	return ImageSource{URL: img.URL, Description: desc, SourceURL: img.SourceURL}
}

// SortWeb orders by recency when two scores differ by more than recencyGap,
// otherwise by provider relevance. The comparator is two-tier, not a blend.
// Equal elements keep provider order.
func SortWeb(web []WebSource) {
	sort.SliceStable(web, func(i, j int) bool {
		a, b := web[i], web[j]
		if diff := a.RecencyScore - b.RecencyScore; diff > recencyGap || diff < -recencyGap {
			return a.RecencyScore > b.RecencyScore
		}
		return a.Relevance > b.Relevance
	})
}

// DedupWeb keeps the first occurrence of each URL and re-indexes from 1.
// Placeholders without a URL are never merged and are numbered after every
// addressed source.
func DedupWeb(web []WebSource) []WebSource {
	seen := make(map[string]bool, len(web))
	out := make([]WebSource, 0, len(web))
	var unaddressed []WebSource
	for _, s := range web {
		if s.URL == "" {
			unaddressed = append(unaddressed, s)
			continue
		}
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		s.Index = len(out) + 1
		out = append(out, s)
	}
	for _, s := range unaddressed {
		s.Index = len(out) + 1
		out = append(out, s)
	}
	return out
}

// DedupImages keeps the first occurrence of each URL and re-indexes from 1,
// numbering placeholders last as DedupWeb does.
func DedupImages(images []ImageSource) []ImageSource {
	seen := make(map[string]bool, len(images))
	out := make([]ImageSource, 0, len(images))
	var unaddressed []ImageSource
	for _, img := range images {
		if img.URL == "" {
			unaddressed = append(unaddressed, img)
			continue
		}
		if seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		img.Index = len(out) + 1
		out = append(out, img)
	}
	for _, img := range unaddressed {
		img.Index = len(out) + 1
		out = append(out, img)
	}
	return out
}

// DedupVectors keys chunks by document id and chunk index, keeps the first
// occurrence and re-indexes from 1.
func DedupVectors(vectors []VectorSource) []VectorSource {
	seen := make(map[string]bool, len(vectors))
	out := make([]VectorSource, 0, len(vectors))
	for _, v := range vectors {
		key := vectorKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		v.Index = len(out) + 1
		out = append(out, v)
	}
	return out
}

func vectorKey(v VectorSource) string {
	if v.DocumentID == "" {
		return v.SourceName + "#" + strconv.Itoa(v.ChunkIndex)
	}
	return v.DocumentID + "#" + strconv.Itoa(v.ChunkIndex)
}
