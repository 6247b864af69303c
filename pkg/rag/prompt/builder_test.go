package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaf-research-be/pkg/llm"
	"leaf-research-be/pkg/rag/sources"
)

func TestResearch_EmptySourcesStillCarryContract(t *testing.T) {
	req := NewContextualBuilder(Input{Query: "ocean acidification trends"}).Research()

	assert.Contains(t, req.HumanPrompt, "WEB SOURCES:\n"+sources.NoWebSources)
	assert.Contains(t, req.HumanPrompt, "<websources>\nNo web sources available.\n</websources>")
	assert.Contains(t, req.HumanPrompt, "<imagesources>\nNo image sources available.\n</imagesources>")
	assert.Contains(t, req.HumanPrompt, "<vectorsources>\nNo vector sources available.\n</vectorsources>")
	assert.Contains(t, req.HumanPrompt, ReferencesHeading)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, ResearchTemperature, *req.Temperature)
}

func TestResearch_PreRendersBlocksAndTruncates(t *testing.T) {
	set := sources.Set{
		Web:     []sources.WebSource{{Index: 1, Title: "AR6", URL: "https://ipcc.ch/ar6", Content: strings.Repeat("w", 1500)}},
		Images:  []sources.ImageSource{{Index: 1, Description: "Coral bleaching", URL: "https://img/c.jpg"}},
		Vectors: []sources.VectorSource{{Index: 1, SourceName: "AR6", ChunkIndex: 4, FilePath: `data\AR6.pdf`, Text: "ph decline"}},
	}
	req := NewContextualBuilder(Input{
		Query:   "acidification",
		Sources: set,
		PDFText: strings.Repeat("p", 9000),
		History: []llm.Message{{Role: llm.RoleUser, Content: "earlier"}},
	}).Research()

	assert.Contains(t, req.HumanPrompt, "Content: "+strings.Repeat("w", WebContentLimit)+"...")
	assert.NotContains(t, req.HumanPrompt, strings.Repeat("w", WebContentLimit+1))
	assert.Contains(t, req.HumanPrompt, strings.Repeat("p", PDFLimit)+"...")
	assert.Contains(t, req.HumanPrompt, "[1] AR6 - https://ipcc.ch/ar6")
	assert.Contains(t, req.HumanPrompt, "[I1] Coral bleaching - https://img/c.jpg")
	assert.Contains(t, req.HumanPrompt, `[V1] AR6 - Chunk 4 - data\AR6.pdf`)
	assert.Contains(t, req.HumanPrompt, "*Coral bleaching - Relevance")
	assert.Len(t, req.History, 1)
}

func TestConversation_HasNoSourceContract(t *testing.T) {
	req := NewContextualBuilder(Input{
		Query:   "hello",
		History: []llm.Message{{Role: llm.RoleAssistant, Content: "Hi there"}},
	}).Conversation()

	assert.NotContains(t, req.HumanPrompt, "<websources>")
	assert.Contains(t, req.HumanPrompt, "assistant: Hi there")
	assert.Contains(t, req.HumanPrompt, "Current query: hello")
	assert.Equal(t, ConversationTemperature, *req.Temperature)
}

func TestGeneral_ConciseMode(t *testing.T) {
	req := NewContextualBuilder(Input{Query: "what is albedo", Mode: ModeConcise}).General()
	assert.Contains(t, req.HumanPrompt, "under 200 words")
	assert.NotContains(t, req.HumanPrompt, "<websources>")
}
