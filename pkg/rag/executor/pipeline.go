package executor

import (
	"context"
	"strings"
	"time"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/events"
	"leaf-research-be/pkg/llm"
	"leaf-research-be/pkg/rag/classifier"
	"leaf-research-be/pkg/rag/generation"
	"leaf-research-be/pkg/rag/prompt"
	"leaf-research-be/pkg/rag/response"
	"leaf-research-be/pkg/rag/retrieval"
	"leaf-research-be/pkg/rag/sources"
	"leaf-research-be/pkg/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Processing states reported with every answer.
const (
	StateGeneralConversation = "general-conversation"
	StateConversation        = "conversation"
	StateGeneralQuestion     = "general-question"
	StateResearch            = "research-pipeline"
)

// OffTopicReply is returned verbatim when the topic check rejects a query.
const OffTopicReply = "I'm Leaf, an AI assistant specialized in climate change and environmental sustainability. While I can help with general conversations and tasks, I'd be most helpful discussing climate-related topics. How can I assist you today?"

const DefaultVectorLimit = 5

// queryLogLength bounds the query echoed in logs, in runes.
const queryLogLength = 80

// QueryClassifier never fails; it falls back to safe labels internally.
type QueryClassifier interface {
	Classify(ctx context.Context, query string, history []llm.Message) classifier.Result
}

type Planner interface {
	Plan(ctx context.Context, query string) retrieval.SearchPlan
}

type WebSearcher interface {
	Available() bool
	Retrieve(ctx context.Context, query string, opts retrieval.SearchOptions) retrieval.WebResult
}

type DocumentSearcher interface {
	Retrieve(ctx context.Context, query, source string, limit int) retrieval.DocumentResult
}

type Generator interface {
	Invoke(ctx context.Context, req generation.Request) (string, error)
}

// SourceMemory keeps the last sources per thread for answer repair.
type SourceMemory interface {
	Remember(ctx context.Context, threadID string, set sources.Set)
}

// Request is one user turn.
type Request struct {
	ThreadID        string
	Query           string
	PDFText         string
	History         []llm.Message
	EnableWebSearch bool
	IncludeImages   bool
	Mode            prompt.Mode
}

// ExecutionResult is the terminal payload of every branch.
type ExecutionResult struct {
	Reply           string
	ProcessingState string
	Classification  classifier.Result
	Sources         sources.Set
	Repair          *response.Result
}

// Dependencies wires the pipeline collaborators. Planner, Web, Documents,
// Memory and Publisher are optional. Empty model names use the provider default.
type Dependencies struct {
	Classifier     QueryClassifier
	Planner        Planner
	Web            WebSearcher
	Documents      DocumentSearcher
	Extractor      *sources.Extractor
	Generator      Generator
	Repairer       *response.Repairer
	Memory         SourceMemory
	Publisher      events.Publisher
	VectorLimit    int
	AssistantModel string
	FinalModel     string
}

// PipelineExecutor sequences classification, retrieval, generation and repair
// for a single request.
type PipelineExecutor struct {
	deps   Dependencies
	tracer trace.Tracer
	now    func() time.Time
	logger logger.ILogger
}

func NewPipelineExecutor(deps Dependencies, log logger.ILogger) *PipelineExecutor {
	if deps.VectorLimit <= 0 {
		deps.VectorLimit = DefaultVectorLimit
	}
	if deps.Extractor == nil {
		deps.Extractor = sources.NewExtractor(log)
	}
	if deps.Repairer == nil {
		deps.Repairer = response.NewRepairer(nil, log)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	return &PipelineExecutor{
		deps:   deps,
		tracer: otel.Tracer("leaf-research-be/pkg/rag/executor"),
		now:    time.Now,
		logger: log,
	}
}

// Execute runs the pipeline. Only validation and generation errors are
// returned; every other failure degrades to a fallback.
func (p *PipelineExecutor) Execute(ctx context.Context, req Request) (*ExecutionResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	p.logger.Info("PIPELINE", "Starting execution", map[string]interface{}{
		"thread_id": req.ThreadID,
		"query":     sources.Truncate(req.Query, queryLogLength),
		"web":       req.EnableWebSearch,
		"mode":      string(req.Mode),
		"pdf":       req.PDFText != "",
	})

	class := p.classify(ctx, req)

	var (
		result *ExecutionResult
		err    error
	)
	switch route(class) {
	case StateGeneralConversation:
		result = &ExecutionResult{Reply: OffTopicReply, ProcessingState: StateGeneralConversation}
	case StateConversation:
		result, err = p.converse(ctx, req, StateConversation)
	case StateGeneralQuestion:
		result, err = p.converse(ctx, req, StateGeneralQuestion)
	default:
		result, err = p.research(ctx, req, class)
	}
	if err != nil {
		p.logger.Error("PIPELINE", "Generation failed", map[string]interface{}{
			"thread_id": req.ThreadID,
			"error":     err.Error(),
		})
		return nil, err
	}

	result.Classification = class
	p.publish(ctx, req.ThreadID, result)

	p.logger.Info("PIPELINE", "Execution complete", map[string]interface{}{
		"thread_id":        req.ThreadID,
		"processing_state": result.ProcessingState,
		"reply_length":     len(result.Reply),
	})
	return result, nil
}

// route maps a classification onto a terminal processing state.
func route(c classifier.Result) string {
	switch {
	case !c.TopicValid:
		return StateGeneralConversation
	case c.Topic == classifier.TopicConversation, c.Intent == classifier.IntentCasual:
		return StateConversation
	case c.Intent == classifier.IntentResearch:
		return StateResearch
	default:
		return StateGeneralQuestion
	}
}

func (p *PipelineExecutor) classify(ctx context.Context, req Request) classifier.Result {
	ctx, span := p.tracer.Start(ctx, "rag.classify")
	defer span.End()

	class := p.deps.Classifier.Classify(ctx, req.Query, req.History)
	span.SetAttributes(
		attribute.Bool("topic_valid", class.TopicValid),
		attribute.String("topic", string(class.Topic)),
		attribute.String("intent", string(class.Intent)),
	)
	return class
}

func (p *PipelineExecutor) converse(ctx context.Context, req Request, state string) (*ExecutionResult, error) {
	builder := prompt.NewContextualBuilder(prompt.Input{
		Query:   req.Query,
		History: req.History,
		PDFText: req.PDFText,
		Mode:    req.Mode,
	})

	genReq := builder.Conversation()
	if state == StateGeneralQuestion {
		genReq = builder.General()
	}
	genReq.Model = p.deps.AssistantModel

	raw, err := p.generate(ctx, genReq)
	if err != nil {
		return nil, err
	}
	return &ExecutionResult{Reply: response.StripFence(raw), ProcessingState: state}, nil
}

func (p *PipelineExecutor) research(ctx context.Context, req Request, class classifier.Result) (*ExecutionResult, error) {
	set := p.retrieve(ctx, req)

	if p.deps.Memory != nil {
		p.deps.Memory.Remember(ctx, req.ThreadID, set)
	}

	genReq := prompt.NewContextualBuilder(prompt.Input{
		Query:          req.Query,
		Classification: class,
		Sources:        set,
		History:        req.History,
		PDFText:        req.PDFText,
		Mode:           req.Mode,
	}).Research()
	genReq.Model = p.deps.FinalModel

	raw, err := p.generate(ctx, genReq)
	if err != nil {
		return nil, err
	}

	_, span := p.tracer.Start(ctx, "rag.repair")
	repaired := p.deps.Repairer.Repair(ctx, raw, req.ThreadID)
	span.SetAttributes(
		attribute.Bool("reconstructed", repaired.Reconstructed),
		attribute.Int("links_added", repaired.LinksAdded),
	)
	span.End()

	return &ExecutionResult{
		Reply:           repaired.Text,
		ProcessingState: StateResearch,
		Sources:         set,
		Repair:          &repaired,
	}, nil
}

// retrieve runs web and document retrieval concurrently and normalizes the
// evidence. Neither side can fail the request.
func (p *PipelineExecutor) retrieve(ctx context.Context, req Request) sources.Set {
	ctx, span := p.tracer.Start(ctx, "rag.retrieve")
	defer span.End()

	filters := search.ParseQuery(req.Query)
	query := filters.SearchQuery
	if query == "" {
		query = req.Query
	}

	var (
		web  retrieval.WebResult
		docs retrieval.DocumentResult
		opts retrieval.SearchOptions
	)
	useWeb := req.EnableWebSearch && p.deps.Web != nil && p.deps.Web.Available()

	g, gctx := errgroup.WithContext(ctx)
	if useWeb {
		g.Go(func() error {
			plan := retrieval.DefaultPlan()
			if p.deps.Planner != nil {
				plan = p.deps.Planner.Plan(gctx, query)
			}
			if !req.IncludeImages {
				off := false
				plan.IncludeImages = &off
			}
			opts = retrieval.NewSearchOptions(plan)
			web = p.deps.Web.Retrieve(gctx, query, opts)
			return nil
		})
	}
	if p.deps.Documents != nil {
		g.Go(func() error {
			docs = p.deps.Documents.Retrieve(gctx, query, filters.Source, p.deps.VectorLimit)
			return nil
		})
	}
	_ = g.Wait()

	set := sources.Set{
		Web:     []sources.WebSource{},
		Images:  []sources.ImageSource{},
		Vectors: sources.DedupVectors(docs.Sources),
	}
	if useWeb {
		extracted := p.deps.Extractor.Extract(web.Response)
		set.Web = extracted.Web
		if opts.IncludeImages {
			set.Images = extracted.Images
		}
	}

	details := map[string]interface{}{
		"web":     len(set.Web),
		"images":  len(set.Images),
		"vectors": len(set.Vectors),
		"source":  filters.Source,
	}
	if web.Err != nil {
		details["web_error"] = web.Err.Error()
	}
	if docs.Err != nil {
		details["document_error"] = docs.Err.Error()
	}
	p.logger.Info("PIPELINE", "Retrieval complete", details)

	span.SetAttributes(
		attribute.Int("web_sources", len(set.Web)),
		attribute.Int("image_sources", len(set.Images)),
		attribute.Int("vector_sources", len(set.Vectors)),
	)
	return set
}

func (p *PipelineExecutor) generate(ctx context.Context, req generation.Request) (string, error) {
	ctx, span := p.tracer.Start(ctx, "rag.generate")
	defer span.End()

	raw, err := p.deps.Generator.Invoke(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("output_length", len(raw)))
	return raw, nil
}

// publish reports the terminal state. Failures are logged only.
func (p *PipelineExecutor) publish(ctx context.Context, threadID string, res *ExecutionResult) {
	evt := events.ResearchCompleted{
		ThreadID:        threadID,
		ProcessingState: res.ProcessingState,
		WebSources:      len(res.Sources.Web),
		ImageSources:    len(res.Sources.Images),
		VectorSources:   len(res.Sources.Vectors),
		Repaired:        res.Repair != nil && res.Repair.Reconstructed,
		OccurredAt:      p.now(),
	}
	if err := p.deps.Publisher.Publish(ctx, evt); err != nil {
		p.logger.Warn("PIPELINE", "Failed to publish completion event", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
	}
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return &ValidationError{Field: "query", Message: "message is required"}
	}
	if strings.TrimSpace(req.ThreadID) == "" {
		return &ValidationError{Field: "threadId", Message: "thread reference is required"}
	}
	return nil
}
