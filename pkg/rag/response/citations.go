package response

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	lookbehindWindow = 100
	minPhraseWords   = 3
	maxPhraseWords   = 5
	fallbackLinkText = "reference"
)

var (
	citationMarker = regexp.MustCompile(`\[(\d+)\]`)
	anyLink        = regexp.MustCompile(`!?\[[^\]\n]*\]\((?:[^()\s]|\([^()\s]*\))*\)`)
	wordSpan       = regexp.MustCompile(`\S+`)
	blockEntry     = regexp.MustCompile(`^\s*\[(\d+)\]`)
)

// Citation is a bracket-numbered marker like [3] found in answer prose.
type Citation struct {
	Number int
	Start  int
	End    int
}

// FindBareCitations returns numeric markers that are not themselves link text
// and do not open a line, in text order.
func FindBareCitations(body string) []Citation {
	var out []Citation
	for _, loc := range citationMarker.FindAllStringSubmatchIndex(body, -1) {
		start, end := loc[0], loc[1]
		if end < len(body) && body[end] == '(' {
			continue
		}
		lineStart := strings.LastIndexByte(body[:start], '\n') + 1
		if strings.TrimSpace(body[lineStart:start]) == "" {
			continue
		}
		n, err := strconv.Atoi(body[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		out = append(out, Citation{Number: n, Start: start, End: end})
	}
	return out
}

// citationURLs maps entry numbers of a web block to their URLs.
func citationURLs(web string) map[int]string {
	urls := make(map[int]string)
	for _, line := range strings.Split(web, "\n") {
		m := blockEntry.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, dup := urls[n]; dup {
			continue
		}
		if u := lineURL(line); u != "" {
			urls[n] = u
		}
	}
	return urls
}

// Backfill turns bare [n] markers into linked citations. Markers are handled
// from the end of body backwards so earlier offsets stay valid. It returns
// the new body and the number of links added.
func Backfill(body string, urls map[int]string) (string, int) {
	if len(urls) == 0 {
		return body, 0
	}
	cites := FindBareCitations(body)
	links := anyLink.FindAllStringIndex(body, -1)

	added := 0
	for i := len(cites) - 1; i >= 0; i-- {
		c := cites[i]
		url, ok := urls[c.Number]
		if !ok || linkNear(links, c.Start) {
			continue
		}
		var spliced bool
		body, spliced = spliceLink(body, c, url)
		if spliced {
			added++
		}
	}
	return body, added
}

// linkNear reports a link ending within the lookbehind window before pos, or
// one that encloses pos.
func linkNear(links [][]int, pos int) bool {
	for _, l := range links {
		if l[0] <= pos && l[1] > pos {
			return true
		}
		if l[1] <= pos && pos-l[1] <= lookbehindWindow {
			return true
		}
	}
	return false
}

func spliceLink(body string, c Citation, url string) (string, bool) {
	head := strings.TrimRight(body[:c.Start], " \t")
	limit := len(head)
	if limit > 0 && strings.ContainsRune(".!?;:,", rune(head[limit-1])) {
		limit--
	}
	fragStart := strings.LastIndexAny(head[:limit], ".!?;:\n[]()") + 1
	fragment := body[fragStart:limit]

	words := wordSpan.FindAllStringIndex(fragment, -1)
	first, count := len(words), 0
	for j := len(words) - 1; j >= 0 && count < maxPhraseWords; j-- {
		if !plainWord(fragment[words[j][0]:words[j][1]]) {
			break
		}
		first = j
		count++
	}

	if count >= minPhraseWords {
		ps := fragStart + words[first][0]
		pe := fragStart + words[len(words)-1][1]
		return body[:ps] + "[" + body[ps:pe] + "](" + url + ")" + body[pe:], true
	}

	// Grouped markers like [1][2] only link the first one.
	if len(head) > 0 && head[len(head)-1] == ']' {
		return body, false
	}
	return body[:c.Start] + "[" + fallbackLinkText + "](" + url + ") " + body[c.Start:], true
}

func plainWord(w string) bool {
	if strings.ContainsAny(w, "[]()`*_<>|#") {
		return false
	}
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
