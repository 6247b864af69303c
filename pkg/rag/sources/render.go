package sources

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Tags of the three mandatory source blocks, in output order.
const (
	WebTag    = "websources"
	ImageTag  = "imagesources"
	VectorTag = "vectorsources"
)

// ReferencesHeading introduces the source blocks at the end of an answer.
const ReferencesHeading = "## References"

const (
	NoWebSources    = "No web sources available."
	NoImageSources  = "No image sources available."
	NoVectorSources = "No vector sources available."

	ExcerptLength = 300
	ellipsis      = "..."
)

// Truncate cuts s to at most n runes and appends an ellipsis when it did.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + ellipsis
}

func WebLine(s WebSource) string {
	return fmt.Sprintf("[%d] %s - %s", s.Index, s.Title, s.URL)
}

func ImageLine(img ImageSource) string {
	return fmt.Sprintf("[I%d] %s - %s", img.Index, img.Description, img.URL)
}

func VectorLine(v VectorSource) string {
	return fmt.Sprintf("[V%d] %s - Chunk %d - %s", v.Index, v.SourceName, v.ChunkIndex, v.FilePath)
}

// VectorEntry is the vector line followed by a quoted excerpt of the chunk.
func VectorEntry(v VectorSource) string {
	excerpt := strings.Join(strings.Fields(Truncate(v.Text, ExcerptLength)), " ")
	excerpt = strings.ReplaceAll(excerpt, `"`, `'`)
	return fmt.Sprintf("%s\nText excerpt: \"%s\"", VectorLine(v), excerpt)
}

// Block wraps body in an open/close tag pair, substituting the placeholder
// when body is blank.
func Block(tag, body, placeholder string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		body = placeholder
	}
	return fmt.Sprintf("<%s>\n%s\n</%s>", tag, body, tag)
}

// WebBlock renders the citable web sources. Placeholders without a URL are
// left out.
func WebBlock(web []WebSource) string {
	lines := make([]string, 0, len(web))
	for _, s := range web {
		if s.URL == "" {
			continue
		}
		lines = append(lines, WebLine(s))
	}
	return Block(WebTag, strings.Join(lines, "\n"), NoWebSources)
}

func ImageBlock(images []ImageSource) string {
	lines := make([]string, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		lines = append(lines, ImageLine(img))
	}
	return Block(ImageTag, strings.Join(lines, "\n"), NoImageSources)
}

// VectorBlock renders plain lines; withExcerpt adds the quoted chunk text.
func VectorBlock(vectors []VectorSource, withExcerpt bool) string {
	lines := make([]string, len(vectors))
	for i, v := range vectors {
		if withExcerpt {
			lines[i] = VectorEntry(v)
		} else {
			lines[i] = VectorLine(v)
		}
	}
	return Block(VectorTag, strings.Join(lines, "\n"), NoVectorSources)
}

// WebDetails renders web sources for the prompt with content cut at limit.
func WebDetails(web []WebSource, limit int) string {
	parts := make([]string, len(web))
	for i, s := range web {
		parts[i] = fmt.Sprintf("[%d] %s\nURL: %s\nContent: %s", s.Index, s.Title, s.URL, Truncate(s.Content, limit))
	}
	return strings.Join(parts, "\n\n")
}

func ImageDetails(images []ImageSource) string {
	parts := make([]string, len(images))
	for i, img := range images {
		parts[i] = fmt.Sprintf("[I%d] %s\nURL: %s\nSource: %s", img.Index, img.Description, img.URL, img.SourceURL)
	}
	return strings.Join(parts, "\n\n")
}

func VectorDetails(vectors []VectorSource, limit int) string {
	parts := make([]string, len(vectors))
	for i, v := range vectors {
		parts[i] = fmt.Sprintf("[V%d] Source: %s\nChunk Index: %d\nContent: %s", v.Index, v.SourceName, v.ChunkIndex, Truncate(v.Text, limit))
	}
	return strings.Join(parts, "\n\n")
}
