package response

import (
	"context"
	"strings"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/rag/session"
	"leaf-research-be/pkg/rag/sources"
)

// Cache supplies the last sources a thread was answered with.
type Cache interface {
	Recall(ctx context.Context, threadID string) session.Context
}

// Result is a repaired answer plus a record of what had to be done to it.
type Result struct {
	Text          string
	Reconstructed bool
	Web           Stage
	Images        Stage
	Vectors       Stage
	LinksAdded    int
}

// Repairer enforces the answer contract: a References heading followed by the
// web, image and vector blocks, each present exactly once.
type Repairer struct {
	cache  Cache
	logger logger.ILogger
}

func NewRepairer(cache Cache, log logger.ILogger) *Repairer {
	return &Repairer{cache: cache, logger: log}
}

// Repair is idempotent: its output always takes the fast path on a second
// pass, and backfill never relinks a marker it already linked.
func (r *Repairer) Repair(ctx context.Context, raw, threadID string) Result {
	text := StripFence(raw)

	if l, ok := parseLayout(text); ok {
		body, added := Backfill(l.Body, citationURLs(l.Web))
		return Result{
			Text:       body + text[len(l.Body):],
			Web:        StageTagged,
			Images:     StageTagged,
			Vectors:    StageTagged,
			LinksAdded: added,
		}
	}

	res := r.reconstruct(ctx, text, threadID)
	r.logger.Info("REPAIR", "Response reconstructed", map[string]interface{}{
		"thread_id":   threadID,
		"web":         res.Web,
		"images":      res.Images,
		"vectors":     res.Vectors,
		"links_added": res.LinksAdded,
	})
	return res
}

func (r *Repairer) reconstruct(ctx context.Context, text, threadID string) Result {
	res := Result{Reconstructed: true}

	contents, rest := extractBlocks(text)
	body, _ := splitReferences(rest)

	var (
		cached     session.Context
		haveCached bool
	)
	recall := func() session.Context {
		if !haveCached && r.cache != nil {
			cached = r.cache.Recall(ctx, threadID)
			haveCached = true
		}
		return cached
	}

	web := dedupLines(contents[sources.WebTag])
	res.Web = StageTagged
	if web == "" {
		web, res.Web = recoverWeb(rest)
		web = dedupLines(web)
	}
	if web == "" {
		if c := recall(); len(c.Web) > 0 {
			web, res.Web = dedupLines(cachedWeb(c.Web)), StageCache
		}
	}
	if web == "" {
		res.Web = StagePlaceholder
	}

	images := dedupLines(contents[sources.ImageTag])
	res.Images = StageTagged
	if images == "" {
		images, res.Images = recoverImages(rest)
		images = dedupLines(images)
	}
	if images == "" {
		res.Images = StagePlaceholder
	}

	vectors := strings.TrimSpace(strayTag.ReplaceAllString(contents[sources.VectorTag], ""))
	res.Vectors = StageTagged
	if vectors == "" {
		if c := recall(); len(c.Vectors) > 0 {
			vectors, res.Vectors = strayTag.ReplaceAllString(cachedVectors(c.Vectors), ""), StageCache
		}
	}
	if vectors == "" {
		res.Vectors = StagePlaceholder
	}

	body, res.LinksAdded = Backfill(strings.TrimSpace(body), citationURLs(web))

	var b strings.Builder
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	b.WriteString(sources.ReferencesHeading)
	b.WriteString("\n\n")
	b.WriteString(sources.Block(sources.WebTag, web, sources.NoWebSources))
	b.WriteString("\n\n")
	b.WriteString(sources.Block(sources.ImageTag, images, sources.NoImageSources))
	b.WriteString("\n\n")
	b.WriteString(sources.Block(sources.VectorTag, vectors, sources.NoVectorSources))

	res.Text = b.String()
	return res
}
