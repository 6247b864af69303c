package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/rag/classifier"
	"leaf-research-be/pkg/rag/generation"
	"leaf-research-be/pkg/rag/retrieval"
)

// SearchPlanner asks the router model how deep and how recent a web search
// should be for a query.
type SearchPlanner struct {
	oracle classifier.Oracle
	model  string
	logger logger.ILogger
}

func NewSearchPlanner(oracle classifier.Oracle, model string, log logger.ILogger) *SearchPlanner {
	return &SearchPlanner{oracle: oracle, model: model, logger: log}
}

// Plan never fails; any model or parse error yields retrieval.DefaultPlan.
func (p *SearchPlanner) Plan(ctx context.Context, query string) retrieval.SearchPlan {
	zero := 0.0
	response, err := p.oracle.Invoke(ctx, generation.Request{
		HumanPrompt: planPrompt(query),
		Temperature: &zero,
		Model:       p.model,
	})
	if err != nil {
		p.logger.Warn("ROUTER", "Search planning failed, using default plan", map[string]interface{}{
			"error": err.Error(),
		})
		return retrieval.DefaultPlan()
	}

	plan, err := parsePlan(response)
	if err != nil {
		p.logger.Warn("ROUTER", "Search plan unparseable, using default plan", map[string]interface{}{
			"error":    err.Error(),
			"response": response,
		})
		return retrieval.DefaultPlan()
	}

	p.logger.Debug("ROUTER", "Search plan resolved", map[string]interface{}{
		"depth":       plan.SearchDepth,
		"time_range":  plan.TimeRange,
		"max_results": plan.MaxResults,
	})
	return plan
}

func planPrompt(query string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyze this climate-related query: %q\n\n", query))
	sb.WriteString("Based on this query, determine these search parameters:\n")
	sb.WriteString(`1. searchDepth: "basic" for simple queries, "advanced" for complex research questions` + "\n")
	sb.WriteString(`2. timeRange: "day", "week", "month", "year" based on information recency needs` + "\n")
	sb.WriteString("3. includeImages: boolean depending on if visual representation would be helpful\n")
	sb.WriteString("4. maxResults: integer between 3 and 15 based on query complexity (more complex = more results)\n\n")
	sb.WriteString("Return ONLY a valid JSON object without any markdown formatting, code blocks, or explanations:\n")
	sb.WriteString(`{"searchDepth":"advanced","timeRange":"year","includeImages":true,"maxResults":10}`)
	return sb.String()
}

func parsePlan(response string) (retrieval.SearchPlan, error) {
	var plan retrieval.SearchPlan
	if err := json.Unmarshal([]byte(extractJSON(response)), &plan); err != nil {
		return retrieval.SearchPlan{}, fmt.Errorf("json unmarshal failed: %w", err)
	}
	return plan, nil
}

// extractJSON isolates JSON content from response, dropping code fences and prose.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}
