package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/rag/generation"
)

// oracleFunc answers topic and intent prompts separately.
type oracleFunc struct {
	topic, intent       string
	topicErr, intentErr error
	requests            []generation.Request
}

func (o *oracleFunc) Invoke(ctx context.Context, req generation.Request) (string, error) {
	o.requests = append(o.requests, req)
	if strings.HasPrefix(req.HumanPrompt, "Analyze") {
		return o.topic, o.topicErr
	}
	return o.intent, o.intentErr
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		raw   string
		topic Topic
		ok    bool
	}{
		{"CLIMATE", TopicClimate, true},
		{"  climate\n", TopicClimate, true},
		{"The answer is: Conversation.", TopicConversation, true},
		{"other", TopicOther, true},
		{"I cannot decide", "", false},
	}
	for _, tt := range tests {
		topic, ok := ParseTopic(tt.raw)
		assert.Equal(t, tt.topic, topic, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentCasual, ParseIntent("casual_conversation"))
	assert.Equal(t, IntentResearch, ParseIntent("Category: RESEARCH_QUESTION"))
	assert.Equal(t, IntentGeneral, ParseIntent("GENERAL_QUESTION"))
	assert.Equal(t, IntentGeneral, ParseIntent("???"))
}

func TestClassify_FailOpen(t *testing.T) {
	oracle := &oracleFunc{topicErr: errors.New("boom"), intentErr: errors.New("boom")}
	c := NewClassifier(oracle, "router", logger.NewNopLogger())

	res := c.Classify(context.Background(), "what is albedo", nil)
	assert.Equal(t, Result{TopicValid: true, Topic: TopicConversation, Intent: IntentGeneral}, res)
}

func TestClassify_OffTopicSkipsIntent(t *testing.T) {
	oracle := &oracleFunc{topic: "OTHER", intent: "RESEARCH_QUESTION"}
	c := NewClassifier(oracle, "router", logger.NewNopLogger())

	res := c.Classify(context.Background(), "best pizza in town", nil)
	assert.False(t, res.TopicValid)
	assert.Equal(t, TopicOther, res.Topic)
	assert.Len(t, oracle.requests, 1)
}

func TestClassify_DeterministicRequests(t *testing.T) {
	oracle := &oracleFunc{topic: "CLIMATE", intent: "RESEARCH_QUESTION"}
	c := NewClassifier(oracle, "router-model", logger.NewNopLogger())

	res := c.Classify(context.Background(), "latest sea level data", nil)
	assert.Equal(t, Result{TopicValid: true, Topic: TopicClimate, Intent: IntentResearch}, res)

	require.Len(t, oracle.requests, 2)
	for _, req := range oracle.requests {
		require.NotNil(t, req.Temperature)
		assert.Equal(t, 0.0, *req.Temperature)
		assert.Equal(t, "router-model", req.Model)
	}
}
