package search

import (
	"strings"
)

// SearchFilters holds the extracted filters and the remaining clean query
type SearchFilters struct {
	Source      string // Equality filter on the chunk "source" payload field
	SearchQuery string // The remaining text sent to retrievers
}

// ParseQuery extracts slash commands from the raw query string
// Supported:
// /source:<name> OR /src:<name> -> Filter document chunks by source
// <text> -> Remaining text is the SearchQuery
func ParseQuery(raw string) SearchFilters {
	filters := SearchFilters{}
	parts := strings.Fields(raw)
	var cleanParts []string

	for _, part := range parts {
		lowerPart := strings.ToLower(part)

		switch {
		case strings.HasPrefix(lowerPart, "/source:"):
			filters.Source = part[len("/source:"):]
		case strings.HasPrefix(lowerPart, "/src:"):
			// Alias for /source:
			filters.Source = part[len("/src:"):]
		default:
			cleanParts = append(cleanParts, part)
		}
	}

	filters.SearchQuery = strings.Join(cleanParts, " ")
	return filters
}
