package executor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/pkg/events"
	"leaf-research-be/pkg/llm"
	"leaf-research-be/pkg/rag/classifier"
	"leaf-research-be/pkg/rag/generation"
	"leaf-research-be/pkg/rag/response"
	"leaf-research-be/pkg/rag/retrieval"
	"leaf-research-be/pkg/rag/session"
	"leaf-research-be/pkg/rag/sources"
	"leaf-research-be/pkg/search/tavily"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	result classifier.Result
}

func (f fakeClassifier) Classify(ctx context.Context, query string, history []llm.Message) classifier.Result {
	return f.result
}

type fakeWeb struct {
	mu    sync.Mutex
	resp  *tavily.SearchResponse
	calls int
	opts  retrieval.SearchOptions
	query string
}

func (f *fakeWeb) Available() bool { return true }

func (f *fakeWeb) Retrieve(ctx context.Context, query string, opts retrieval.SearchOptions) retrieval.WebResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.opts = opts
	f.query = query
	if f.resp == nil {
		return retrieval.WebResult{Response: &tavily.SearchResponse{}}
	}
	return retrieval.WebResult{Response: f.resp}
}

type fakeDocs struct {
	mu     sync.Mutex
	found  []sources.VectorSource
	calls  int
	query  string
	source string
	limit  int
}

func (f *fakeDocs) Retrieve(ctx context.Context, query, source string, limit int) retrieval.DocumentResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.query, f.source, f.limit = query, source, limit
	return retrieval.DocumentResult{Sources: f.found}
}

type fakeGenerator struct {
	reply    string
	err      error
	requests []generation.Request
}

func (f *fakeGenerator) Invoke(ctx context.Context, req generation.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

type fakeMemory struct {
	saved map[string]sources.Set
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{saved: map[string]sources.Set{}}
}

func (f *fakeMemory) Remember(ctx context.Context, threadID string, set sources.Set) {
	f.saved[threadID] = set
}

func (f *fakeMemory) Recall(ctx context.Context, threadID string) session.Context {
	set := f.saved[threadID]
	return session.Context{ThreadID: threadID, Web: set.Web, Vectors: set.Vectors}
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return r.err
}

type harness struct {
	web       *fakeWeb
	docs      *fakeDocs
	gen       *fakeGenerator
	memory    *fakeMemory
	publisher *recordingPublisher
	executor  *PipelineExecutor
}

func newHarness(class classifier.Result, reply string) *harness {
	log := logger.NewNopLogger()
	h := &harness{
		web:       &fakeWeb{},
		docs:      &fakeDocs{},
		gen:       &fakeGenerator{reply: reply},
		memory:    newFakeMemory(),
		publisher: &recordingPublisher{},
	}
	extractor := sources.NewExtractor(log).WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	})
	h.executor = NewPipelineExecutor(Dependencies{
		Classifier:     fakeClassifier{result: class},
		Web:            h.web,
		Documents:      h.docs,
		Extractor:      extractor,
		Generator:      h.gen,
		Repairer:       response.NewRepairer(h.memory, log),
		Memory:         h.memory,
		Publisher:      h.publisher,
		AssistantModel: "assistant-model",
		FinalModel:     "final-model",
	}, log)
	return h
}

func researchRequest(query string) Request {
	return Request{ThreadID: "thread-1", Query: query, EnableWebSearch: true, IncludeImages: true}
}

var research = classifier.Result{TopicValid: true, Topic: classifier.TopicClimate, Intent: classifier.IntentResearch}

func TestExecute_CasualGreetingSkipsRetrieval(t *testing.T) {
	h := newHarness(classifier.Result{
		TopicValid: true,
		Topic:      classifier.TopicConversation,
		Intent:     classifier.IntentCasual,
	}, "```markdown\nHello! How can I help with climate topics today?\n```")

	res, err := h.executor.Execute(context.Background(), researchRequest("hello"))

	require.NoError(t, err)
	assert.Equal(t, StateConversation, res.ProcessingState)
	assert.Equal(t, "Hello! How can I help with climate topics today?", res.Reply)
	assert.Zero(t, h.web.calls)
	assert.Zero(t, h.docs.calls)
	assert.Empty(t, h.memory.saved)
	for _, tag := range []string{"<websources>", "<imagesources>", "<vectorsources>"} {
		assert.NotContains(t, res.Reply, tag)
	}
	require.Len(t, h.gen.requests, 1)
	assert.Contains(t, h.gen.requests[0].HumanPrompt, "Current query: hello")
}

func TestExecute_OffTopicReturnsRedirect(t *testing.T) {
	h := newHarness(classifier.Result{TopicValid: false, Topic: classifier.TopicOther, Intent: classifier.IntentGeneral}, "unused")

	res, err := h.executor.Execute(context.Background(), researchRequest("best pizza in town"))

	require.NoError(t, err)
	assert.Equal(t, StateGeneralConversation, res.ProcessingState)
	assert.Equal(t, OffTopicReply, res.Reply)
	assert.Empty(t, h.gen.requests)
	assert.Empty(t, h.memory.saved)
	assert.Zero(t, h.web.calls)

	require.Len(t, h.publisher.events, 1)
	evt, ok := events.ResearchCompletedFrom(h.publisher.events[0])
	require.True(t, ok)
	assert.Equal(t, StateGeneralConversation, evt.ProcessingState)
}

func TestExecute_GeneralQuestionUsesPlainPrompt(t *testing.T) {
	h := newHarness(classifier.Result{
		TopicValid: true,
		Topic:      classifier.TopicClimate,
		Intent:     classifier.IntentGeneral,
	}, "The greenhouse effect traps heat.")

	res, err := h.executor.Execute(context.Background(), researchRequest("what is the greenhouse effect?"))

	require.NoError(t, err)
	assert.Equal(t, StateGeneralQuestion, res.ProcessingState)
	assert.Equal(t, "The greenhouse effect traps heat.", res.Reply)
	assert.Zero(t, h.web.calls)
	require.Len(t, h.gen.requests, 1)
	assert.NotContains(t, h.gen.requests[0].HumanPrompt, "<websources>")
}

func TestExecute_ResearchWithEmptyResults(t *testing.T) {
	h := newHarness(research, "Ocean heat content keeps rising.")

	res, err := h.executor.Execute(context.Background(), researchRequest("ocean heat content trends"))

	require.NoError(t, err)
	assert.Equal(t, StateResearch, res.ProcessingState)
	assert.Equal(t, 1, h.web.calls)
	assert.Equal(t, 1, h.docs.calls)
	assert.Equal(t, DefaultVectorLimit, h.docs.limit)

	require.Len(t, h.gen.requests, 1)
	assert.Contains(t, h.gen.requests[0].HumanPrompt, sources.NoWebSources)

	for _, tag := range []string{"<websources>", "</websources>", "<imagesources>", "</imagesources>", "<vectorsources>", "</vectorsources>"} {
		assert.Equal(t, 1, strings.Count(res.Reply, tag), tag)
	}
	assert.Contains(t, res.Reply, sources.NoWebSources)
	assert.Contains(t, res.Reply, sources.NoImageSources)
	assert.Contains(t, res.Reply, sources.NoVectorSources)
	require.NotNil(t, res.Repair)
	assert.True(t, res.Repair.Reconstructed)
	assert.Equal(t, response.StagePlaceholder, res.Repair.Web)
}

func TestExecute_DuplicateProviderURLs(t *testing.T) {
	h := newHarness(research, "Sea levels are rising [1].")
	h.web.resp = &tavily.SearchResponse{
		Results: []json.RawMessage{
			json.RawMessage(`{"title":"IPCC AR6 summary","url":"https://www.ipcc.ch/report/ar6","content":"Sea level rise accelerates","score":0.9}`),
			json.RawMessage(`{"title":"IPCC mirror","url":"https://www.ipcc.ch/report/ar6","content":"Duplicate","score":0.4}`),
			json.RawMessage(`{"title":"NOAA tide gauges","url":"https://www.noaa.gov/climate/tides","content":"Gauge data","score":0.7}`),
		},
	}

	res, err := h.executor.Execute(context.Background(), researchRequest("sea level rise"))

	require.NoError(t, err)
	require.Len(t, res.Sources.Web, 2)
	assert.Equal(t, "IPCC AR6 summary", res.Sources.Web[0].Title)
	assert.Equal(t, 1, res.Sources.Web[0].Index)
	assert.Equal(t, 2, res.Sources.Web[1].Index)

	// The answer had no blocks, so the web block comes from the thread memory.
	assert.Equal(t, response.StageCache, res.Repair.Web)
	assert.Equal(t, 1, strings.Count(res.Reply, "[1] IPCC AR6 summary - https://www.ipcc.ch/report/ar6"))
	assert.NotContains(t, res.Reply, "IPCC mirror")
	assert.Contains(t, res.Reply, "(https://www.ipcc.ch/report/ar6)")
}

func TestExecute_SourceDirectiveAndImages(t *testing.T) {
	h := newHarness(research, "Methane answer.")
	h.docs.found = []sources.VectorSource{
		{DocumentID: "d1", SourceName: "epa", ChunkIndex: 2, FilePath: "data\\epa.pdf", Text: "Methane leaks"},
		{DocumentID: "d1", SourceName: "epa", ChunkIndex: 2, FilePath: "data\\epa.pdf", Text: "Methane leaks"},
	}
	h.web.resp = &tavily.SearchResponse{
		Images: []json.RawMessage{json.RawMessage(`{"url":"https://epa.gov/flare.jpg","description":"Gas flare"}`)},
	}

	req := researchRequest("methane /src:epa leaks")
	req.IncludeImages = false
	res, err := h.executor.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "methane leaks", h.docs.query)
	assert.Equal(t, "epa", h.docs.source)
	assert.Equal(t, "methane leaks", h.web.query)
	assert.False(t, h.web.opts.IncludeImages)
	assert.Empty(t, res.Sources.Images)
	require.Len(t, res.Sources.Vectors, 1)
	assert.Equal(t, 1, res.Sources.Vectors[0].Index)
	assert.Equal(t, res.Sources, h.memory.saved["thread-1"])
	assert.Equal(t, response.StageCache, res.Repair.Vectors)
}

func TestExecute_WebSearchDisabled(t *testing.T) {
	h := newHarness(research, "Answer.")

	req := researchRequest("glacier retreat")
	req.EnableWebSearch = false
	_, err := h.executor.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Zero(t, h.web.calls)
	assert.Equal(t, 1, h.docs.calls)
}

func TestExecute_ValidationErrors(t *testing.T) {
	h := newHarness(research, "unused")

	_, err := h.executor.Execute(context.Background(), Request{ThreadID: "thread-1", Query: "   "})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "query", verr.Field)

	_, err = h.executor.Execute(context.Background(), Request{Query: "sea ice"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "threadId", verr.Field)

	assert.Empty(t, h.gen.requests)
	assert.Empty(t, h.publisher.events)
}

func TestExecute_GenerationErrorPropagates(t *testing.T) {
	h := newHarness(research, "")
	h.gen.err = &generation.Error{Kind: generation.KindQuota, Message: "quota exceeded"}

	res, err := h.executor.Execute(context.Background(), researchRequest("carbon budget"))

	assert.Nil(t, res)
	var gerr *generation.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, generation.KindQuota, gerr.Kind)
	assert.Empty(t, h.publisher.events)
}

func TestExecute_PublishFailureIsNotSurfaced(t *testing.T) {
	h := newHarness(research, "Answer.")
	h.publisher.err = errors.New("bus down")

	res, err := h.executor.Execute(context.Background(), researchRequest("permafrost"))

	require.NoError(t, err)
	assert.Equal(t, StateResearch, res.ProcessingState)
	require.Len(t, h.publisher.events, 1)
}

func TestExecute_ModelPerBranch(t *testing.T) {
	h := newHarness(research, "Answer.")
	_, err := h.executor.Execute(context.Background(), researchRequest("ocean acidification trends"))
	require.NoError(t, err)

	chat := newHarness(classifier.Result{TopicValid: true, Topic: classifier.TopicConversation, Intent: classifier.IntentCasual}, "Hi")
	_, err = chat.executor.Execute(context.Background(), researchRequest("hey"))
	require.NoError(t, err)

	require.Len(t, h.gen.requests, 1)
	require.Len(t, chat.gen.requests, 1)
	assert.Equal(t, "final-model", h.gen.requests[0].Model)
	assert.Equal(t, "assistant-model", chat.gen.requests[0].Model)
}

// rendezvous is passed only when both retrievers are inside Retrieve at once.
type rendezvous struct {
	arrived sync.WaitGroup
	all     chan struct{}
}

func newRendezvous(n int) *rendezvous {
	r := &rendezvous{all: make(chan struct{})}
	r.arrived.Add(n)
	go func() {
		r.arrived.Wait()
		close(r.all)
	}()
	return r
}

// meet reports whether every party arrived before the timeout.
func (r *rendezvous) meet() bool {
	r.arrived.Done()
	select {
	case <-r.all:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

type meetingWeb struct {
	fakeWeb
	r   *rendezvous
	met bool
}

func (f *meetingWeb) Retrieve(ctx context.Context, query string, opts retrieval.SearchOptions) retrieval.WebResult {
	f.met = f.r.meet()
	return f.fakeWeb.Retrieve(ctx, query, opts)
}

type meetingDocs struct {
	fakeDocs
	r   *rendezvous
	met bool
}

func (f *meetingDocs) Retrieve(ctx context.Context, query, source string, limit int) retrieval.DocumentResult {
	f.met = f.r.meet()
	return f.fakeDocs.Retrieve(ctx, query, source, limit)
}

func TestExecute_RetrieversRunConcurrently(t *testing.T) {
	h := newHarness(research, "Answer.")
	r := newRendezvous(2)
	web := &meetingWeb{r: r}
	docs := &meetingDocs{r: r}
	h.executor.deps.Web = web
	h.executor.deps.Documents = docs

	_, err := h.executor.Execute(context.Background(), researchRequest("glacier mass balance in the Alps"))
	require.NoError(t, err)

	assert.True(t, web.met, "web retrieval did not overlap document retrieval")
	assert.True(t, docs.met, "document retrieval did not overlap web retrieval")
	assert.Equal(t, 1, web.calls)
	assert.Equal(t, 1, docs.calls)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name  string
		class classifier.Result
		want  string
	}{
		{"off topic", classifier.Result{TopicValid: false, Topic: classifier.TopicOther}, StateGeneralConversation},
		{"conversation topic", classifier.Result{TopicValid: true, Topic: classifier.TopicConversation, Intent: classifier.IntentResearch}, StateConversation},
		{"casual climate", classifier.Result{TopicValid: true, Topic: classifier.TopicClimate, Intent: classifier.IntentCasual}, StateConversation},
		{"general climate", classifier.Result{TopicValid: true, Topic: classifier.TopicClimate, Intent: classifier.IntentGeneral}, StateGeneralQuestion},
		{"research climate", classifier.Result{TopicValid: true, Topic: classifier.TopicClimate, Intent: classifier.IntentResearch}, StateResearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, route(tt.class))
		})
	}
}
