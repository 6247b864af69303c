package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
	Session   SessionConfig
	Events    EventsConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LLMLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
	Verbose    bool
}

type APIKeys struct {
	GoogleGemini string
	Tavily       string
	JWTSecret    string
}

// AIConfig selects a provider and model per pipeline role.
type AIConfig struct {
	LLMProvider       string // "gemini" or "ollama"
	RouterModel       string // topic, intent and search planning
	AssistantModel    string // conversation branch
	FinalModel        string // research answer
	OllamaBaseURL     string
	EmbeddingProvider string // "ollama" or "gemini"
	EmbeddingModel    string
}

type RetrievalConfig struct {
	Backend       string // "qdrant" or "pgvector"
	QdrantURL     string
	QdrantAPIKey  string
	Collection    string
	ScrollCeiling int
	VectorLimit   int
	Semantic      bool
}

type SessionConfig struct {
	Backend  string // "memory" or "redis"
	Capacity int
	TTL      time.Duration
}

type EventsConfig struct {
	Backend string // "none", "gochannel" or "nats"
	Durable string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMLogFilePath:     getEnv("LLM_LOG_FILE_PATH", "logs/llm_rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Verbose:    getEnvAsBool("DB_VERBOSE", false),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Tavily:       getEnv("TAVILY_API_KEY", ""),
			JWTSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			RouterModel:       getEnv("LLM_ROUTER_MODEL", "gemini-2.0-flash-lite"),
			AssistantModel:    getEnv("LLM_ASSISTANT_MODEL", "gemini-2.0-flash-lite"),
			FinalModel:        getEnv("LLM_FINAL_MODEL", "gemini-2.0-flash"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Retrieval: RetrievalConfig{
			Backend:       getEnv("VECTOR_STORE", "qdrant"),
			QdrantURL:     getEnv("QDRANT_URL", "http://localhost:6333"),
			QdrantAPIKey:  getEnv("QDRANT_API_KEY", ""),
			Collection:    getEnv("QDRANT_COLLECTION", "climate_documents"),
			ScrollCeiling: getEnvAsInt("VECTOR_SCROLL_CEILING", 8000),
			VectorLimit:   getEnvAsInt("VECTOR_LIMIT", 5),
			Semantic:      getEnvAsBool("VECTOR_SEMANTIC_SEARCH", false),
		},
		Session: SessionConfig{
			Backend:  getEnv("SESSION_CACHE", "memory"),
			Capacity: getEnvAsInt("SESSION_CACHE_CAPACITY", 1000),
			TTL:      getEnvAsDuration("SESSION_CACHE_TTL", time.Hour),
		},
		Events: EventsConfig{
			Backend: getEnv("EVENTS_BACKEND", "gochannel"),
			Durable: getEnv("EVENTS_DURABLE", "leaf-research-stats"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "leaf-research-backend"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
