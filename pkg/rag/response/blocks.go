package response

import (
	"regexp"
	"strings"

	"leaf-research-be/pkg/rag/sources"
)

var (
	// layoutPattern matches a complete answer: body, heading, then the three
	// blocks in order with nothing after the last one.
	layoutPattern = regexp.MustCompile(`(?s)^(.*?)(?:^|\n)` + regexp.QuoteMeta(sources.ReferencesHeading) +
		`[ \t]*\r?\n\s*<websources>(.*?)</websources>\s*<imagesources>(.*?)</imagesources>\s*<vectorsources>(.*?)</vectorsources>$`)

	blockPatterns = map[string]*regexp.Regexp{
		sources.WebTag:    regexp.MustCompile(`(?s)<websources>(.*?)</websources>`),
		sources.ImageTag:  regexp.MustCompile(`(?s)<imagesources>(.*?)</imagesources>`),
		sources.VectorTag: regexp.MustCompile(`(?s)<vectorsources>(.*?)</vectorsources>`),
	}
	strayTag = regexp.MustCompile(`</?(?:websources|imagesources|vectorsources)>`)

	// Any heading-like "References" line, including bold and colon variants.
	referencesLine = regexp.MustCompile(`(?im)^[ \t]*(?:#{1,6}[ \t]*)?(?:\*\*)?references(?:\*\*)?[ \t]*:?[ \t]*$`)

	urlPattern = regexp.MustCompile(urlExpr)
)

// urlExpr matches an absolute URL. Balanced parentheses stay inside it, as
// in DOIs like 10.1016/S0140-6736(20)32290-X.
const urlExpr = `https?://(?:[^\s<>()\[\]"'` + "`" + `]|\([^\s<>()\[\]"'` + "`" + `]*\))+`

// linkTargetExpr is the target of a markdown link, up to its closing paren.
const linkTargetExpr = `https?://(?:[^\s()]|\([^\s()]*\))+`

var blockOrder = []string{sources.WebTag, sources.ImageTag, sources.VectorTag}

// layout is a well-formed answer split into its regions.
type layout struct {
	Body    string
	Web     string
	Images  string
	Vectors string
}

// parseLayout accepts text only when every block appears exactly once, in
// order, under the heading, with non-empty content and no duplicate URLs.
func parseLayout(text string) (layout, bool) {
	for _, tag := range blockOrder {
		if strings.Count(text, "<"+tag+">") != 1 || strings.Count(text, "</"+tag+">") != 1 {
			return layout{}, false
		}
	}

	m := layoutPattern.FindStringSubmatch(text)
	if m == nil {
		return layout{}, false
	}

	l := layout{
		Body:    m[1],
		Web:     strings.TrimSpace(m[2]),
		Images:  strings.TrimSpace(m[3]),
		Vectors: strings.TrimSpace(m[4]),
	}
	if l.Web == "" || l.Images == "" || l.Vectors == "" {
		return layout{}, false
	}
	if hasDuplicateURLs(l.Web) || hasDuplicateURLs(l.Images) {
		return layout{}, false
	}
	return l, true
}

// extractBlocks removes every tagged block from text and returns the joined
// non-empty contents per tag alongside the remaining text.
func extractBlocks(text string) (map[string]string, string) {
	contents := make(map[string]string, len(blockOrder))
	for _, tag := range blockOrder {
		re := blockPatterns[tag]
		var parts []string
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if c := strings.TrimSpace(m[1]); c != "" {
				parts = append(parts, c)
			}
		}
		contents[tag] = strings.Join(parts, "\n")
		text = re.ReplaceAllString(text, "")
	}
	return contents, strayTag.ReplaceAllString(text, "")
}

// splitReferences cuts text at its last References heading.
func splitReferences(text string) (body, refs string) {
	locs := referencesLine.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, ""
	}
	last := locs[len(locs)-1]
	return text[:last[0]], text[last[1]:]
}

// lineURL is the last URL on a line, which for "[n] title - url" entries is
// the source address.
func lineURL(line string) string {
	all := urlPattern.FindAllString(line, -1)
	if len(all) == 0 {
		return ""
	}
	return cleanURL(all[len(all)-1])
}

func cleanURL(u string) string {
	return strings.TrimRight(u, ".,;:!?")
}

func hasDuplicateURLs(content string) bool {
	seen := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		u := lineURL(line)
		if u == "" {
			continue
		}
		if seen[u] {
			return true
		}
		seen[u] = true
	}
	return false
}

// dedupLines drops lines whose URL already appeared. Lines without a URL are
// kept.
func dedupLines(content string) string {
	seen := make(map[string]bool)
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(strayTag.ReplaceAllString(line, ""), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if u := lineURL(line); u != "" {
			if seen[u] {
				continue
			}
			seen[u] = true
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
