package response

import (
	"regexp"
	"strings"
)

var (
	leadingMarkdownFence = regexp.MustCompile("^```(?:markdown|md)[ \t]*\r?\n")
	leadingBareFence     = regexp.MustCompile("^```[ \t]*\r?\n")
	trailingFence        = regexp.MustCompile("\r?\n```[ \t]*$")
)

// StripFence removes a ```markdown wrapper the model sometimes puts around
// the whole answer. A bare ``` opener is only removed when the text also ends
// with a fence, so an answer starting with a code block survives.
func StripFence(text string) string {
	text = strings.TrimSpace(text)

	switch {
	case leadingMarkdownFence.MatchString(text):
		text = leadingMarkdownFence.ReplaceAllString(text, "")
		text = trailingFence.ReplaceAllString(text, "")
	case leadingBareFence.MatchString(text) && trailingFence.MatchString(text):
		text = leadingBareFence.ReplaceAllString(text, "")
		text = trailingFence.ReplaceAllString(text, "")
	}

	return strings.TrimSpace(text)
}
