package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Pipeline PipelineConfig
	Vector   VectorConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string // empty disables event forwarding
	RedisURL           string // empty disables the transcript cache
	TranscriptCacheTTL time.Duration
	OtlpEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	Pinecone     string
	Groq         string
	GoogleGemini string
	Jina         string
	HuggingFace  string
}

type AIConfig struct {
	EmbeddingProvider  string // "ollama", "gemini", "jina", "onnx" or "hash"
	EmbeddingModel     string // empty uses the provider default
	EmbeddingDimension int
	OllamaBaseURL      string
	OnnxModelDir       string
	OnnxLibraryPath    string
	LLMProvider        string // "groq", "ollama", "huggingface", "openai"
	LLMModel           string
	LLMBaseURL         string
	Temperature        float64
	TopP               float64
	MaxTokens          int
	ResponseRegister   string // system instruction; empty uses the built-in one
}

type PipelineConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	TopK               int
	AnswerMaxChars     int
	Languages          []string
	TargetLanguage     string
	TranslateEndpoint  string
	TranslateRateLimit float64
	YoutubeBaseURL     string
}

type VectorConfig struct {
	Backend      string // "pinecone", "pgvector" or "memory"
	IndexName    string
	Cloud        string
	Region       string
	Namespace    string
	BatchSize    int
	SettleDelay  time.Duration
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			TranscriptCacheTTL: getEnvAsDuration("TRANSCRIPT_CACHE_TTL", 24*time.Hour),
			OtlpEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Pinecone:     getEnv("PINECONE_API_KEY", ""),
			Groq:         getEnv("GROQ_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", ""),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 384),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OnnxModelDir:       getEnv("ONNX_MODEL_DIR", "models/all-MiniLM-L6-v2"),
			OnnxLibraryPath:    getEnv("ONNX_LIBRARY_PATH", ""),
			LLMProvider:        getEnv("LLM_PROVIDER", "groq"),
			LLMModel:           getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
			LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
			Temperature:        getEnvAsFloat("LLM_TEMPERATURE", 0.1),
			TopP:               getEnvAsFloat("LLM_TOP_P", 0.9),
			MaxTokens:          getEnvAsInt("LLM_MAX_TOKENS", 900),
			ResponseRegister:   getEnv("RESPONSE_REGISTER", ""),
		},
		Pipeline: PipelineConfig{
			ChunkSize:          getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap:       getEnvAsInt("CHUNK_OVERLAP", 200),
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 5),
			AnswerMaxChars:     getEnvAsInt("ANSWER_MAX_CHARS", 500),
			Languages:          getEnvAsList("TRANSCRIPT_LANGUAGES", []string{"hi", "en"}),
			TargetLanguage:     getEnv("TRANSCRIPT_TARGET_LANGUAGE", "en"),
			TranslateEndpoint:  getEnv("TRANSLATE_ENDPOINT", "https://translate.googleapis.com/translate_a/single"),
			TranslateRateLimit: getEnvAsFloat("TRANSLATE_REQUESTS_PER_SECOND", 5),
			YoutubeBaseURL:     getEnv("YOUTUBE_BASE_URL", "https://www.youtube.com"),
		},
		Vector: VectorConfig{
			Backend:      getEnv("VECTOR_BACKEND", "pinecone"),
			IndexName:    getEnv("PINECONE_INDEX_NAME", "yt-chatbot"),
			Cloud:        getEnv("PINECONE_CLOUD", "aws"),
			Region:       getEnv("PINECONE_REGION", "us-east-1"),
			Namespace:    getEnv("VECTOR_NAMESPACE", ""),
			BatchSize:    getEnvAsInt("VECTOR_UPSERT_BATCH", 100),
			SettleDelay:  getEnvAsDuration("VECTOR_SETTLE_DELAY", 2*time.Second),
			PollInterval: getEnvAsDuration("VECTOR_READY_POLL_INTERVAL", time.Second),
			ReadyTimeout: getEnvAsDuration("VECTOR_READY_TIMEOUT", 2*time.Minute),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Validate reports the first setting the pipeline cannot run with.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", p.ChunkSize)
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", p.ChunkOverlap)
	}
	if p.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", p.TopK)
	}
	if len(p.Languages) == 0 {
		return fmt.Errorf("TRANSCRIPT_LANGUAGES must name at least one language")
	}
	if c.Ai.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.Ai.EmbeddingDimension)
	}

	switch c.Vector.Backend {
	case "pinecone":
		if c.Keys.Pinecone == "" {
			return fmt.Errorf("PINECONE_API_KEY is required for the pinecone backend")
		}
	case "pgvector":
		if c.Database.Connection == "" {
			return fmt.Errorf("DB_CONNECTION_STRING is required for the pgvector backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.Vector.Backend)
	}
	if c.Vector.BatchSize <= 0 {
		return fmt.Errorf("VECTOR_UPSERT_BATCH must be positive, got %d", c.Vector.BatchSize)
	}
	return nil
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

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
