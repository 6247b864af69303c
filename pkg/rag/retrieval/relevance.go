package retrieval

import (
	"regexp"
	"strings"
)

// QueryTerms lower-cases the query and splits it on whitespace.
// Each term is compiled once as a literal pattern.
func QueryTerms(query string) []*regexp.Regexp {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]*regexp.Regexp, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, regexp.MustCompile(regexp.QuoteMeta(f)))
	}
	return terms
}

// TermScore is the total number of non-overlapping matches of every term in
// the lower-cased text.
func TermScore(text string, terms []*regexp.Regexp) int {
	if text == "" || len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	score := 0
	for _, re := range terms {
		score += len(re.FindAllStringIndex(lower, -1))
	}
	return score
}
