package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		source string
		query  string
	}{
		{"no directive", "sea level rise 2024", "", "sea level rise 2024"},
		{"source directive", "/source:IPCC_AR6 sea level rise", "IPCC_AR6", "sea level rise"},
		{"alias", "methane /src:epa leaks", "epa", "methane leaks"},
		{"last directive wins", "/src:a /source:b ocean", "b", "ocean"},
		{"directive only", "/source:nasa", "nasa", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.raw)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.query, got.SearchQuery)
		})
	}
}

func TestDetermineStrategy(t *testing.T) {
	assert.Equal(t, StrategyLiteral, DetermineStrategy("CO2"))
	assert.Equal(t, StrategyLiteral, DetermineStrategy(`"net zero"`))
	assert.Equal(t, StrategyLiteral, DetermineStrategy("doi:10.1038"))
	assert.Equal(t, StrategySemantic, DetermineStrategy("how fast are glaciers melting"))
}
