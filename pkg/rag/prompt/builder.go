package prompt

import (
	"fmt"
	"strings"

	"leaf-research-be/pkg/llm"
	"leaf-research-be/pkg/rag/classifier"
	"leaf-research-be/pkg/rag/generation"
	"leaf-research-be/pkg/rag/sources"
)

type Mode string

const (
	ModeDetailed Mode = "detailed"
	ModeConcise  Mode = "concise"
)

const (
	WebContentLimit    = 1000
	VectorContentLimit = 1000
	PDFLimit           = 8000

	ReferencesHeading = sources.ReferencesHeading
)

// Temperatures per branch.
var (
	ConversationTemperature = 0.3
	ResearchTemperature     = 0.4
)

// Input is everything a prompt may draw on.
type Input struct {
	Query          string
	Classification classifier.Result
	Sources        sources.Set
	History        []llm.Message
	PDFText        string
	Mode           Mode
}

// ContextualBuilder turns pipeline state into generation requests
type ContextualBuilder struct {
	in Input
}

func NewContextualBuilder(in Input) *ContextualBuilder {
	if in.Mode == "" {
		in.Mode = ModeDetailed
	}
	return &ContextualBuilder{in: in}
}

// Research builds the cited, research-paper prompt with the source block contract.
func (b *ContextualBuilder) Research() generation.Request {
	var prompt strings.Builder

	b.writeResearchTask(&prompt)
	b.writeSourceDetails(&prompt)
	b.writePDF(&prompt, "PDF CONTENT:")
	b.writeFormatting(&prompt)
	b.writeContract(&prompt)

	temp := ResearchTemperature
	return generation.Request{
		SystemPrompt: researchSystemPrompt(b.in.Mode),
		History:      b.in.History,
		HumanPrompt:  prompt.String(),
		Temperature:  &temp,
	}
}

// Conversation builds the persona prompt for casual chat and context questions.
func (b *ContextualBuilder) Conversation() generation.Request {
	var prompt strings.Builder

	prompt.WriteString("You are Leaf, a helpful AI assistant with expertise in climate change and environmental sustainability.\n")
	prompt.WriteString("While your primary focus is climate-related topics, you can also engage in general conversation and help with basic tasks.\n\n")
	b.writeHistoryLines(&prompt)
	prompt.WriteString(fmt.Sprintf("Current query: %s\n\n", b.in.Query))
	b.writePDF(&prompt, "There is also a PDF document provided with the following content:")
	prompt.WriteString("Respond naturally to the query, taking into account the conversation context and any provided PDF content.\n")
	prompt.WriteString("If the query is about previous discussions, summarize the relevant points from the conversation context.\n")
	prompt.WriteString("If it's about a PDF, focus on providing a clear summary or answering specific questions about its content.\n")
	prompt.WriteString("Always maintain a helpful and engaging tone while subtly encouraging climate-related discussions when appropriate.\n\n")
	prompt.WriteString("IMPORTANT: Do not wrap your response in markdown code blocks. Use markdown formatting (**, *, #, ##) directly in your response.")

	temp := ConversationTemperature
	return generation.Request{
		SystemPrompt: "You are Leaf, maintaining a balance between climate expertise and general helpfulness. Format responses with markdown but do not use code blocks.",
		HumanPrompt:  prompt.String(),
		Temperature:  &temp,
	}
}

// General answers a climate question from model knowledge, without citations.
func (b *ContextualBuilder) General() generation.Request {
	var prompt strings.Builder

	b.writeHistoryLines(&prompt)
	prompt.WriteString(fmt.Sprintf("Question: %s\n\n", b.in.Query))
	b.writePDF(&prompt, "Reference PDF content:")
	prompt.WriteString("Answer clearly and accurately from established climate science. ")
	if b.in.Mode == ModeConcise {
		prompt.WriteString("Keep the answer under 200 words. ")
	} else {
		prompt.WriteString("Use short sections with headings where they help. ")
	}
	prompt.WriteString("Do not invent citations or URLs and do not add a references section. ")
	prompt.WriteString("Do not wrap your response in markdown code blocks.")

	temp := ConversationTemperature
	return generation.Request{
		SystemPrompt: "You are Leaf, an AI assistant specialized in climate change and environmental sustainability. Format responses with markdown but do not use code blocks.",
		History:      b.in.History,
		HumanPrompt:  prompt.String(),
		Temperature:  &temp,
	}
}

func researchSystemPrompt(mode Mode) string {
	length := "The response must be at least 2000 words, structured as a full research paper with 15-20 paragraphs, covering all relevant aspects of the query exhaustively."
	if mode == ModeConcise {
		length = "The response should be a focused briefing of 600-900 words in 6-8 paragraphs, keeping the paper structure but only the essential evidence."
	}

	return "You are Leaf, a specialized AI expert assistant focused on climate change mitigation and research. " +
		"Your task is to produce a research-paper-style response resembling an academic paper with depth, rigor, and detail. Follow these guidelines:\n\n" +
		"- **Length and Depth**: " + length + "\n" +
		"- **Scientific Rigor**: Use precise, evidence-based language, integrating data, studies, and real-world examples. Explain technical terms parenthetically and use analogies for complex concepts.\n" +
		"- **Narrative Style**: Write in an engaging, authoritative tone with emphasis markers (*italic*, **bold**) to maintain reader interest.\n" +
		"- **Evidence Integration**: Weave sources into the text, citing them in-line with [number] for web sources, [I#] for image sources and [V#] for vector sources.\n\n" +
		"Structure your response as follows:\n" +
		"- **Abstract**: A 150-200 word summary of key findings and conclusions.\n" +
		"- **Introduction**: Contextualize the query with a hook ('This matters because...') and outline the paper's scope.\n" +
		"- **Background**: Provide historical and scientific context.\n" +
		"- **Main Analysis**: Detailed sections (e.g., Impacts, Solutions, Challenges, Case Studies) with subheadings.\n" +
		"- **Discussion**: Analyze implications, trade-offs, and future directions.\n" +
		"- **Conclusion**: Summarize key takeaways and actionable insights.\n" +
		"- **References**: A dedicated section closing with the three tagged source blocks."
}

func (b *ContextualBuilder) writeResearchTask(prompt *strings.Builder) {
	prompt.WriteString(fmt.Sprintf("Provide a research-paper-style answer to this user query: %q\n\n", b.in.Query))
	prompt.WriteString("Use the following information sources to craft your answer:\n\n")
}

func (b *ContextualBuilder) writeSourceDetails(prompt *strings.Builder) {
	set := b.in.Sources

	prompt.WriteString("WEB SOURCES:\n")
	prompt.WriteString(orPlaceholder(sources.WebDetails(set.Web, WebContentLimit), sources.NoWebSources))
	prompt.WriteString("\n\nIMAGE SOURCES:\n")
	prompt.WriteString(orPlaceholder(sources.ImageDetails(set.Images), sources.NoImageSources))
	prompt.WriteString("\n\nVECTOR SOURCES:\n")
	prompt.WriteString(orPlaceholder(sources.VectorDetails(set.Vectors, VectorContentLimit), sources.NoVectorSources))
	prompt.WriteString("\n\n")
}

func (b *ContextualBuilder) writePDF(prompt *strings.Builder, label string) {
	text := strings.TrimSpace(b.in.PDFText)
	if text == "" {
		return
	}
	prompt.WriteString(label)
	prompt.WriteString("\n")
	prompt.WriteString(sources.Truncate(text, PDFLimit))
	prompt.WriteString("\n\n")
}

func (b *ContextualBuilder) writeHistoryLines(prompt *strings.Builder) {
	if len(b.in.History) == 0 {
		return
	}
	prompt.WriteString("Recent conversation context:\n")
	for _, msg := range b.in.History {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}
	prompt.WriteString("\n")
}

func (b *ContextualBuilder) writeFormatting(prompt *strings.Builder) {
	images := b.in.Sources.Images

	prompt.WriteString("Follow these formatting requirements exactly:\n\n")
	prompt.WriteString("1. **FORMAT USING PROFESSIONAL MARKDOWN**:\n")
	prompt.WriteString("   - Use headings (#, ##) for sections and subsections\n")
	prompt.WriteString("   - Use lists (- or 1.) and tables for data where applicable\n")
	prompt.WriteString("   - Use bold (**bold**) and italic (*italic*) for emphasis\n\n")

	prompt.WriteString("2. **START DIRECTLY WITH THE ABSTRACT**:\n")
	prompt.WriteString("   - Do NOT include greetings like \"I'm Leaf\" or introductory phrases\n")
	prompt.WriteString("   - Do NOT wrap the response in a code block\n\n")

	prompt.WriteString("3. **INCLUDE IMAGES**:\n")
	if len(images) > 0 {
		prompt.WriteString("   - Select 3-5 relevant images\n")
		prompt.WriteString("   - Insert using markdown: ![DESCRIPTIVE CAPTION](URL)\n")
		prompt.WriteString("   - Each image MUST have a caption in italics below it, for example:\n")
		prompt.WriteString(fmt.Sprintf("     *%s - Relevance to the topic explained.*\n\n", images[0].Description))
	} else {
		prompt.WriteString("   - No images available\n\n")
	}

	prompt.WriteString("4. **CITE SOURCES PROPERLY**:\n")
	prompt.WriteString("   - Use [1], [2], etc. for web sources, [I1], [I2], etc. for image sources, and [V1], [V2], etc. for vector sources\n")
	prompt.WriteString("   - Only cite numbers that appear in the source lists above\n\n")
}

// writeContract embeds the exact blocks the answer must end with.
func (b *ContextualBuilder) writeContract(prompt *strings.Builder) {
	set := b.in.Sources

	prompt.WriteString("5. **END WITH SEGREGATED SOURCE SECTIONS**:\n")
	prompt.WriteString(fmt.Sprintf("   - Finish with a \"%s\" heading followed by these three blocks, copied exactly and in this order:\n\n", ReferencesHeading))
	prompt.WriteString(ReferencesHeading)
	prompt.WriteString("\n\n")
	prompt.WriteString(sources.WebBlock(set.Web))
	prompt.WriteString("\n\n")
	prompt.WriteString(sources.ImageBlock(set.Images))
	prompt.WriteString("\n\n")
	prompt.WriteString(sources.VectorBlock(set.Vectors, true))
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
