package classifier

import (
	"context"
	"fmt"
	"strings"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/llm"
	"leaf-research-be/pkg/rag/generation"
)

type Topic string

const (
	TopicClimate      Topic = "CLIMATE"
	TopicConversation Topic = "CONVERSATION"
	TopicOther        Topic = "OTHER"
)

type Intent string

const (
	IntentCasual   Intent = "CASUAL_CONVERSATION"
	IntentResearch Intent = "RESEARCH_QUESTION"
	IntentGeneral  Intent = "GENERAL_QUESTION"
)

// Result drives the pipeline branch for one query.
type Result struct {
	TopicValid bool   `json:"topic_valid"`
	Topic      Topic  `json:"topic"`
	Intent     Intent `json:"intent"`
}

// Oracle answers a single forced-choice prompt.
type Oracle interface {
	Invoke(ctx context.Context, req generation.Request) (string, error)
}

type Classifier struct {
	oracle Oracle
	model  string
	logger logger.ILogger
}

func NewClassifier(oracle Oracle, model string, log logger.ILogger) *Classifier {
	return &Classifier{oracle: oracle, model: model, logger: log}
}

// Classify runs the topic check and, for valid topics, the intent router.
// Oracle failures never surface: topic falls back to a valid CONVERSATION and
// intent to GENERAL_QUESTION.
func (c *Classifier) Classify(ctx context.Context, query string, history []llm.Message) Result {
	valid, topic := c.ClassifyTopic(ctx, query, history)
	res := Result{TopicValid: valid, Topic: topic, Intent: IntentGeneral}
	if valid {
		res.Intent = c.ClassifyIntent(ctx, query)
	}

	c.logger.Info("CLASSIFIER", "Query classified", map[string]interface{}{
		"topic_valid": res.TopicValid,
		"topic":       string(res.Topic),
		"intent":      string(res.Intent),
	})
	return res
}

func (c *Classifier) ClassifyTopic(ctx context.Context, query string, history []llm.Message) (bool, Topic) {
	raw, err := c.ask(ctx, topicPrompt(query, history))
	if err != nil {
		c.logger.Warn("CLASSIFIER", "Topic check failed, failing open", map[string]interface{}{
			"error": err.Error(),
		})
		return true, TopicConversation
	}

	topic, ok := ParseTopic(raw)
	if !ok {
		c.logger.Warn("CLASSIFIER", "Unrecognised topic label, failing open", map[string]interface{}{
			"raw": raw,
		})
		return true, TopicConversation
	}
	return topic != TopicOther, topic
}

func (c *Classifier) ClassifyIntent(ctx context.Context, query string) Intent {
	raw, err := c.ask(ctx, intentPrompt(query))
	if err != nil {
		c.logger.Warn("CLASSIFIER", "Intent routing failed, using GENERAL_QUESTION", map[string]interface{}{
			"error": err.Error(),
		})
		return IntentGeneral
	}
	return ParseIntent(raw)
}

func (c *Classifier) ask(ctx context.Context, prompt string) (string, error) {
	zero := 0.0
	return c.oracle.Invoke(ctx, generation.Request{
		HumanPrompt: prompt,
		Temperature: &zero,
		Model:       c.model,
	})
}

// ParseTopic matches labels by case-insensitive substring. The second return
// is false when no label is present.
func ParseTopic(raw string) (Topic, bool) {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, string(TopicClimate)):
		return TopicClimate, true
	case strings.Contains(upper, string(TopicConversation)):
		return TopicConversation, true
	case strings.Contains(upper, string(TopicOther)):
		return TopicOther, true
	default:
		return "", false
	}
}

// ParseIntent matches labels by case-insensitive substring; anything else is
// a general question.
func ParseIntent(raw string) Intent {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "CASUAL"):
		return IntentCasual
	case strings.Contains(upper, "RESEARCH"):
		return IntentResearch
	default:
		return IntentGeneral
	}
}

func topicPrompt(query string, history []llm.Message) string {
	var sb strings.Builder
	sb.WriteString("Analyze this query and determine if it falls into one of these categories:\n")
	sb.WriteString("1. CLIMATE: Directly related to climate change, environmental sustainability, or related domains\n")
	sb.WriteString("2. CONVERSATION: Basic conversation, context questions, or task-related queries (like summarizing PDFs, asking about previous discussions)\n")
	sb.WriteString("3. OTHER: Completely unrelated topics\n\n")

	if len(history) > 0 {
		sb.WriteString("Recent conversation:\n")
		start := len(history) - 2
		if start < 0 {
			start = 0
		}
		for _, m := range history[start:] {
			sb.WriteString(fmt.Sprintf("%s: %s\n", m.Role, truncate(m.Content, 300)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Query: %q\n\n", query))
	sb.WriteString(`Return ONLY "CLIMATE", "CONVERSATION", or "OTHER".`)
	return sb.String()
}

func intentPrompt(query string) string {
	var sb strings.Builder
	sb.WriteString("Classify the following user query into EXACTLY ONE of these categories:\n")
	sb.WriteString("1. CASUAL_CONVERSATION: Simple greetings, chitchat, or personal exchanges unrelated to climate\n")
	sb.WriteString("2. RESEARCH_QUESTION: Questions that require factual information, data, studies, or citations, latest recent data, sources, images, urls.\n")
	sb.WriteString("3. GENERAL_QUESTION: Other non-research climate questions that don't require citations\n\n")
	sb.WriteString(fmt.Sprintf("Query: %q\n\n", query))
	sb.WriteString("Return ONLY the category name, nothing else. No explanations.")
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
