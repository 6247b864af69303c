package search

import (
	"strings"
)

type SearchStrategy string

const (
	StrategyLiteral  SearchStrategy = "literal"
	StrategySemantic SearchStrategy = "semantic"
)

// DetermineStrategy decides whether a document query is worth embedding.
// Literal queries go straight to the keyword scan.
func DetermineStrategy(query string) SearchStrategy {
	query = strings.TrimSpace(query)

	// 1. Check for structured separators (e.g., "id:42", "scenario=SSP2")
	// They usually mean an identifier or a code.
	if strings.ContainsAny(query, ":=") {
		return StrategyLiteral
	}

	// 2. Check for short specific keywords
	// Very short queries (e.g., "CO2", "GHG") are literal lookups.
	if len(query) <= 3 {
		return StrategyLiteral
	}

	// 3. Check if query is enclosed in quotes (explicit literal request)
	if len(query) > 1 && strings.HasPrefix(query, "\"") && strings.HasSuffix(query, "\"") {
		return StrategyLiteral
	}

	// 4. Default to semantic for explorative queries
	return StrategySemantic
}
