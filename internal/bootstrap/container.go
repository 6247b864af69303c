package bootstrap

import (
	"context"
	"log"

	"leaf-research-be/internal/config"
	"leaf-research-be/internal/controller"
	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/internal/repository/cache"
	"leaf-research-be/internal/repository/memory"
	"leaf-research-be/internal/repository/unitofwork"
	"leaf-research-be/internal/repository/vectorstore"
	"leaf-research-be/internal/service"
	"leaf-research-be/pkg/embedding"
	"leaf-research-be/pkg/events"
	"leaf-research-be/pkg/llm/factory"
	"leaf-research-be/pkg/pdf"
	"leaf-research-be/pkg/rag"
	"leaf-research-be/pkg/rag/classifier"
	"leaf-research-be/pkg/rag/executor"
	"leaf-research-be/pkg/rag/generation"
	"leaf-research-be/pkg/rag/history"
	"leaf-research-be/pkg/rag/response"
	"leaf-research-be/pkg/rag/retrieval"
	"leaf-research-be/pkg/rag/session"
	"leaf-research-be/pkg/vectordb"

	pktNats "leaf-research-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// maxPDFPages bounds the pages read from one attachment.
const maxPDFPages = 50

type Container struct {
	// Controllers
	ResearchController controller.IResearchController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Close releases broker and cache connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	ragLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)
	c.Logger = sysLogger
	c.closers = append(c.closers, func() {
		_ = ragLogger.Sync()
		_ = sysLogger.Sync()
	})

	// 2. LLM
	// Each role names its model per request, so one provider serves all three.
	invoker := newInvoker(cfg, ragLogger)
	queryClassifier := classifier.NewClassifier(invoker, cfg.Ai.RouterModel, ragLogger)
	planner := rag.NewSearchPlanner(invoker, cfg.Ai.RouterModel, ragLogger)

	// 3. Retrieval
	webRetriever := retrieval.NewWebRetriever(cfg.Keys.Tavily, nil, ragLogger)
	if !webRetriever.Available() {
		sysLogger.Warn("BOOTSTRAP", "TAVILY_API_KEY not set, web search disabled", nil)
	}
	documentRetriever := newDocumentRetriever(cfg, uowFactory, sysLogger, ragLogger)

	// 4. Session cache
	var store session.Store
	switch cfg.Session.Backend {
	case "redis":
		rdb := newRedisClient(cfg.App.RedisURL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		store = cache.NewRedisSessionRepository(rdb, cfg.Session.TTL)
	default:
		store = memory.NewSessionRepository(cfg.Session.Capacity, cfg.Session.TTL)
	}
	sessionManager := session.NewManager(store, sysLogger)

	// 5. Event Bus
	publisher, source := newEventBus(c, cfg, sysLogger)

	// 6. Pipeline
	pipeline := executor.NewPipelineExecutor(executor.Dependencies{
		Classifier:     queryClassifier,
		Planner:        planner,
		Web:            webRetriever,
		Documents:      documentRetriever,
		Generator:      invoker,
		Repairer:       response.NewRepairer(sessionManager, ragLogger),
		Memory:         sessionManager,
		Publisher:      publisher,
		VectorLimit:    cfg.Retrieval.VectorLimit,
		AssistantModel: cfg.Ai.AssistantModel,
		FinalModel:     cfg.Ai.FinalModel,
	}, ragLogger)

	// 7. Services
	researchService := service.NewResearchService(
		uowFactory,
		pipeline,
		history.NewLoader(uowFactory),
		pdf.NewExtractor(sysLogger, maxPDFPages),
		sessionManager,
		sysLogger,
	)
	c.ConsumerService = service.NewConsumerService(source, sysLogger)

	// 8. Controllers
	c.ResearchController = controller.NewResearchController(researchService, c.ConsumerService)

	return c
}

func newInvoker(cfg *config.Config, ragLogger logger.ILogger) *generation.Invoker {
	provider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.AssistantModel,
		providerBaseURL(cfg),
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (router=%s, assistant=%s, final=%s)",
		cfg.Ai.LLMProvider, cfg.Ai.RouterModel, cfg.Ai.AssistantModel, cfg.Ai.FinalModel)
	return generation.NewInvoker(provider, ragLogger)
}

func providerBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return ""
}

func newDocumentRetriever(cfg *config.Config, uowFactory unitofwork.RepositoryFactory, sysLogger *logger.ZapLogger, ragLogger logger.ILogger) *retrieval.DocumentRetriever {
	var collection retrieval.Collection
	var similarity retrieval.SimilaritySearcher

	switch cfg.Retrieval.Backend {
	case "pgvector":
		pg := vectorstore.NewPgvectorCollection(uowFactory.NewUnitOfWork(context.Background()).DocumentChunkRepository())
		collection, similarity = pg, pg
	default:
		qdrant := retrieval.NewQdrantCollection(vectordb.NewClient(vectordb.Config{
			URL:        cfg.Retrieval.QdrantURL,
			APIKey:     cfg.Retrieval.QdrantAPIKey,
			Collection: cfg.Retrieval.Collection,
		}, sysLogger.Named("qdrant")))
		collection, similarity = qdrant, qdrant
	}

	opts := []retrieval.DocumentOption{retrieval.WithScrollCeiling(cfg.Retrieval.ScrollCeiling)}
	if cfg.Retrieval.Semantic {
		opts = append(opts, retrieval.WithSemanticSearch(NewEmbedder(cfg), similarity))
	}
	return retrieval.NewDocumentRetriever(collection, ragLogger, opts...)
}

// NewEmbedder returns the configured embedding provider. Ingestion and the
// semantic pre-pass must use the same one.
func NewEmbedder(cfg *config.Config) embedding.EmbeddingProvider {
	if cfg.Ai.EmbeddingProvider == "gemini" {
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
}

func newRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	return rdb
}

// newEventBus picks the research event transport. A broker that cannot be
// reached degrades to a bus with no consumer.
func newEventBus(c *Container, cfg *config.Config, sysLogger logger.ILogger) (events.Publisher, service.EventSource) {
	switch cfg.Events.Backend {
	case "nats":
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
			return events.NopPublisher{}, nil
		}
		c.closers = append(c.closers, natsPub.Close)

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
			return natsPub, nil
		}
		c.closers = append(c.closers, natsSub.Close)
		return natsPub, &service.NatsEventSource{Subscriber: natsSub, Durable: cfg.Events.Durable}
	case "gochannel":
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, events.NewWatermillLogger(sysLogger))
		c.closers = append(c.closers, func() { _ = pubSub.Close() })
		return events.NewWatermillPublisher(pubSub), events.NewWatermillSubscriber(pubSub, sysLogger)
	default:
		return events.NopPublisher{}, nil
	}
}
