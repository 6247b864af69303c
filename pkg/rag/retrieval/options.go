package retrieval

import (
	"github.com/go-playground/validator/v10"

	"leaf-research-be/pkg/search/tavily"
)

const (
	DefaultSearchDepth = "advanced"
	DefaultTimeRange   = "year"
	DefaultMaxResults  = 10

	MinResults = 3
	MaxResults = 20
)

var validate = validator.New()

// SearchPlan is the loosely typed suggestion produced by the planner model.
// Zero values mean "no preference".
type SearchPlan struct {
	SearchDepth   string `json:"searchDepth"`
	TimeRange     string `json:"timeRange"`
	IncludeImages *bool  `json:"includeImages"`
	MaxResults    int    `json:"maxResults"`
}

// DefaultPlan is used whenever the planner cannot produce one.
func DefaultPlan() SearchPlan {
	include := true
	return SearchPlan{
		SearchDepth:   DefaultSearchDepth,
		TimeRange:     DefaultTimeRange,
		IncludeImages: &include,
		MaxResults:    DefaultMaxResults,
	}
}

type SearchOptions struct {
	SearchDepth              string `validate:"oneof=basic advanced"`
	TimeRange                string `validate:"omitempty,oneof=day week month year d w m y"`
	IncludeAnswer            string `validate:"oneof=basic advanced"`
	IncludeImages            bool
	IncludeImageDescriptions bool
	IncludeRawContent        bool
	MaxResults               int      `validate:"min=3,max=20"`
	IncludeDomains           []string `validate:"dive,required"`
}

// NewSearchOptions turns a plan into provider options. Out-of-range result
// counts are clamped and unknown depth or time range values fall back to the
// defaults, so the result always validates.
func NewSearchOptions(plan SearchPlan) SearchOptions {
	opts := SearchOptions{
		SearchDepth:              plan.SearchDepth,
		TimeRange:                plan.TimeRange,
		IncludeAnswer:            "advanced",
		IncludeImages:            plan.IncludeImages == nil || *plan.IncludeImages,
		IncludeImageDescriptions: true,
		IncludeRawContent:        true,
		MaxResults:               clamp(plan.MaxResults),
		IncludeDomains:           ClimateDomains,
	}

	if opts.SearchDepth == "" || validate.Var(opts.SearchDepth, "oneof=basic advanced") != nil {
		opts.SearchDepth = DefaultSearchDepth
	}
	if opts.TimeRange == "" || validate.Var(opts.TimeRange, "oneof=day week month year d w m y") != nil {
		opts.TimeRange = DefaultTimeRange
	}

	return opts
}

// Validate checks the invariants NewSearchOptions establishes.
func (o SearchOptions) Validate() error {
	return validate.Struct(o)
}

func (o SearchOptions) Request(query string) tavily.SearchRequest {
	return tavily.SearchRequest{
		Query:                    query,
		SearchDepth:              o.SearchDepth,
		TimeRange:                o.TimeRange,
		IncludeAnswer:            o.IncludeAnswer,
		IncludeImages:            o.IncludeImages,
		IncludeImageDescriptions: o.IncludeImageDescriptions,
		IncludeRawContent:        o.IncludeRawContent,
		MaxResults:               o.MaxResults,
		IncludeDomains:           o.IncludeDomains,
	}
}

func clamp(n int) int {
	if n == 0 {
		n = DefaultMaxResults
	}
	if n < MinResults {
		return MinResults
	}
	if n > MaxResults {
		return MaxResults
	}
	return n
}
