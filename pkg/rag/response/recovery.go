package response

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"leaf-research-be/pkg/rag/sources"
)

// Stage records where a block's content came from.
type Stage string

const (
	StageTagged      Stage = "tagged"
	StageNumbered    Stage = "numbered-citations"
	StageMarkdown    Stage = "markdown-links"
	StageBareURL     Stage = "bare-urls"
	StageImages      Stage = "markdown-images"
	StageCache       Stage = "session-cache"
	StagePlaceholder Stage = "placeholder"
)

var (
	numberedCitation = regexp.MustCompile(`\[(\d+)\][ \t]*([^\n\[\]]*?)[ \t]*(` + urlExpr + `)`)
	numberedImage    = regexp.MustCompile(`\[I(\d+)\][ \t]*([^\n\[\]]*?)[ \t]*(` + urlExpr + `)`)
	markdownLink     = regexp.MustCompile(`(!?)\[([^\]\n]+)\]\((` + linkTargetExpr + `)\)`)
	markdownImage    = regexp.MustCompile(`!\[([^\]\n]*)\]\((` + linkTargetExpr + `)\)`)
	numberedImageRow = regexp.MustCompile(`(?m)^.*\[I\d+\].*$`)
)

type entry struct {
	Number int
	Title  string
	URL    string
}

func cleanTitle(s, fallback string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "-–—:|*\"' \t")
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// uniqueByURL keeps the first entry per URL and, when keepNumbers is set, the
// first entry per number.
func uniqueByURL(in []entry, keepNumbers bool) []entry {
	seenURL := make(map[string]bool)
	seenNum := make(map[int]bool)
	var out []entry
	for _, e := range in {
		if seenURL[e.URL] || (keepNumbers && seenNum[e.Number]) {
			continue
		}
		seenURL[e.URL] = true
		seenNum[e.Number] = true
		out = append(out, e)
	}
	return out
}

func renumber(in []entry) []entry {
	for i := range in {
		in[i].Number = i + 1
	}
	return in
}

func renderEntries(in []entry, prefix string) string {
	lines := make([]string, len(in))
	for i, e := range in {
		lines[i] = fmt.Sprintf("[%s%d] %s - %s", prefix, e.Number, e.Title, e.URL)
	}
	return strings.Join(lines, "\n")
}

// webScanText hides image references so their URLs are not taken for web
// sources.
func webScanText(text string) string {
	text = markdownImage.ReplaceAllString(text, "")
	return numberedImageRow.ReplaceAllString(text, "")
}

// recoverWeb scans free text for web citations: numbered citations with a
// URL, then markdown links, then bare URLs. The first stage that yields
// anything wins.
func recoverWeb(text string) (string, Stage) {
	text = webScanText(text)

	var numbered []entry
	for _, m := range numberedCitation.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		numbered = append(numbered, entry{Number: n, Title: cleanTitle(m[2], "Reference"), URL: cleanURL(m[3])})
	}
	if numbered = uniqueByURL(numbered, true); len(numbered) > 0 {
		sort.SliceStable(numbered, func(i, j int) bool { return numbered[i].Number < numbered[j].Number })
		return renderEntries(numbered, ""), StageNumbered
	}

	var links []entry
	for _, m := range markdownLink.FindAllStringSubmatch(text, -1) {
		if m[1] == "!" {
			continue
		}
		links = append(links, entry{Title: cleanTitle(m[2], "Reference"), URL: cleanURL(m[3])})
	}
	if links = uniqueByURL(links, false); len(links) > 0 {
		return renderEntries(renumber(links), ""), StageMarkdown
	}

	var bare []entry
	for _, u := range urlPattern.FindAllString(text, -1) {
		bare = append(bare, entry{Title: "Reference", URL: cleanURL(u)})
	}
	if bare = uniqueByURL(bare, false); len(bare) > 0 {
		return renderEntries(renumber(bare), ""), StageBareURL
	}

	return "", StagePlaceholder
}

// recoverImages scans for numbered image entries, then markdown images.
func recoverImages(text string) (string, Stage) {
	var numbered []entry
	for _, m := range numberedImage.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		numbered = append(numbered, entry{Number: n, Title: cleanTitle(m[2], "Image"), URL: cleanURL(m[3])})
	}
	if numbered = uniqueByURL(numbered, true); len(numbered) > 0 {
		sort.SliceStable(numbered, func(i, j int) bool { return numbered[i].Number < numbered[j].Number })
		return renderEntries(numbered, "I"), StageNumbered
	}

	var images []entry
	for _, m := range markdownImage.FindAllStringSubmatch(text, -1) {
		images = append(images, entry{Title: cleanTitle(m[1], "Image"), URL: cleanURL(m[2])})
	}
	if images = uniqueByURL(images, false); len(images) > 0 {
		return renderEntries(renumber(images), "I"), StageImages
	}

	return "", StagePlaceholder
}

func cachedWeb(web []sources.WebSource) string {
	lines := make([]string, 0, len(web))
	for _, s := range web {
		if s.URL == "" {
			continue
		}
		lines = append(lines, sources.WebLine(s))
	}
	return strings.Join(lines, "\n")
}

func cachedVectors(vectors []sources.VectorSource) string {
	lines := make([]string, len(vectors))
	for i, v := range vectors {
		lines[i] = sources.VectorEntry(v)
	}
	return strings.Join(lines, "\n")
}
