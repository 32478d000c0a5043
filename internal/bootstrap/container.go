package bootstrap

import (
	"context"
	"fmt"
	"time"

	"yt-chatbot-be/internal/config"
	"yt-chatbot-be/internal/controller"
	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/internal/repository/cache"
	"yt-chatbot-be/internal/repository/memory"
	"yt-chatbot-be/internal/service"
	"yt-chatbot-be/pkg/database"
	"yt-chatbot-be/pkg/embedding"
	"yt-chatbot-be/pkg/embedding/jina"
	"yt-chatbot-be/pkg/embedding/onnx"
	"yt-chatbot-be/pkg/llm"
	"yt-chatbot-be/pkg/llm/factory"
	"yt-chatbot-be/pkg/rag"
	"yt-chatbot-be/pkg/rag/prompt"
	"yt-chatbot-be/pkg/translate"
	"yt-chatbot-be/pkg/utils"
	"yt-chatbot-be/pkg/vectorstore"
	vsmemory "yt-chatbot-be/pkg/vectorstore/memory"
	"yt-chatbot-be/pkg/vectorstore/pgvector"
	"yt-chatbot-be/pkg/vectorstore/pinecone"
	"yt-chatbot-be/pkg/youtube"

	pktNats "yt-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const videoEventsTopic = "video-events"

type Container struct {
	Logger *logger.ZapLogger

	// Controllers
	VideoController controller.IVideoController
	ChatController  controller.IChatController

	// Services (the CLI drives these directly)
	IngestionService service.IIngestionService
	ChatService      service.IChatService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 2. Events: in-process bus plus optional NATS fan-out
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	origin := uuid.NewString()
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "NATS publisher unavailable, events stay local", map[string]interface{}{"error": err.Error()})
			natsPub = nil
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "NATS subscriber unavailable", map[string]interface{}{"error": err.Error()})
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 3. Transcript cache
	var transcriptCache cache.TranscriptCache
	if cfg.App.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Redis unreachable, transcript cache disabled", map[string]interface{}{"error": err.Error()})
			_ = rdb.Close()
		} else {
			transcriptCache = cache.NewRedisTranscriptCache(rdb, cfg.App.TranscriptCacheTTL)
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
		cancel()
	}

	// 4. Embeddings
	provider, err := newEmbeddingProvider(cfg, c)
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewEmbedder(embedding.NewCachedProvider(provider, time.Hour), sysLogger)

	// 5. Vector store
	indexService, err := newIndexService(cfg, c)
	if err != nil {
		return nil, err
	}
	manager := vectorstore.NewManager(indexService, vectorstore.ManagerConfig{
		IndexName:    cfg.Vector.IndexName,
		Cloud:        cfg.Vector.Cloud,
		Region:       cfg.Vector.Region,
		Namespace:    cfg.Vector.Namespace,
		BatchSize:    cfg.Vector.BatchSize,
		SettleDelay:  cfg.Vector.SettleDelay,
		PollInterval: cfg.Vector.PollInterval,
		ReadyTimeout: cfg.Vector.ReadyTimeout,
	}, sysLogger)

	// 6. Transcript pipeline
	translator := translate.NewGoogleTranslator(translate.Config{
		Endpoint:          cfg.Pipeline.TranslateEndpoint,
		TargetLanguage:    cfg.Pipeline.TargetLanguage,
		RequestsPerSecond: cfg.Pipeline.TranslateRateLimit,
	}, sysLogger)
	fetcher := youtube.NewTranscriptFetcher(
		youtube.NewHTTPSource(cfg.Pipeline.YoutubeBaseURL),
		translator,
		youtube.FetcherConfig{
			PreferredLanguages: cfg.Pipeline.Languages,
			TargetLanguage:     cfg.Pipeline.TargetLanguage,
		},
		sysLogger,
	)
	splitter := utils.NewTextSplitter(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)

	// 7. Generation
	model, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		ApiKey:   llmApiKey(cfg),
	})
	if err != nil {
		return nil, err
	}
	model = llm.NewBreakerProvider(model, llm.DefaultBreakerConfig(cfg.Ai.LLMProvider), sysLogger)

	retriever := rag.NewVectorRetriever(embedder, manager)
	answerer := rag.NewAnswerer(retriever, model, prompt.NewBuilder(cfg.Ai.ResponseRegister), rag.AnswererConfig{
		TopK:        cfg.Pipeline.TopK,
		MaxChars:    cfg.Pipeline.AnswerMaxChars,
		Temperature: cfg.Ai.Temperature,
		TopP:        cfg.Ai.TopP,
		MaxTokens:   cfg.Ai.MaxTokens,
	}, sysLogger)

	// 8. Repositories & services
	videoRepo := memory.NewVideoRepository()
	sessionRepo := memory.NewSessionRepository(24 * time.Hour)

	publisherService := service.NewPublisherService(videoEventsTopic, pubSub, natsPub, origin, sysLogger)
	chatService := service.NewChatService(answerer, sessionRepo, videoRepo, sysLogger)
	ingestionService := service.NewIngestionService(
		fetcher,
		transcriptCache,
		splitter,
		embedder,
		manager,
		retriever,
		videoRepo,
		publisherService,
		sysLogger,
	)
	consumerService := service.NewConsumerService(pubSub, videoEventsTopic, natsSub, origin, chatService, videoRepo, sysLogger)

	c.VideoController = controller.NewVideoController(ingestionService)
	c.ChatController = controller.NewChatController(chatService)
	c.IngestionService = ingestionService
	c.ChatService = chatService
	c.ConsumerService = consumerService

	sysLogger.Info("BOOTSTRAP", "Container ready", map[string]interface{}{
		"embedding":  provider.Name(),
		"vector":     cfg.Vector.Backend,
		"index":      manager.IndexName(),
		"llm":        cfg.Ai.LLMProvider,
		"nats":       natsPub != nil,
		"transcript": transcriptCache != nil,
	})
	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newEmbeddingProvider(cfg *config.Config, c *Container) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel), nil
	case "gemini":
		if cfg.Keys.GoogleGemini == "" {
			return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY is required for gemini embeddings")
		}
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel), nil
	case "jina":
		if cfg.Keys.Jina == "" {
			return nil, fmt.Errorf("JINA_API_KEY is required for jina embeddings")
		}
		return jina.NewJinaProvider(cfg.Keys.Jina, cfg.Ai.EmbeddingModel), nil
	case "onnx":
		p, err := onnx.NewProvider(onnx.Config{
			ModelDir:          cfg.Ai.OnnxModelDir,
			SharedLibraryPath: cfg.Ai.OnnxLibraryPath,
			ModelName:         cfg.Ai.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("load onnx model: %w", err)
		}
		c.closers = append(c.closers, func() { _ = p.Close() })
		return p, nil
	case "hash":
		return embedding.NewHashProvider(cfg.Ai.EmbeddingDimension), nil
	default:
		return nil, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", cfg.Ai.EmbeddingProvider)
	}
}

func newIndexService(cfg *config.Config, c *Container) (vectorstore.IndexService, error) {
	switch cfg.Vector.Backend {
	case "pinecone":
		return pinecone.NewClient(cfg.Keys.Pinecone), nil
	case "pgvector":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("connect pgvector database: %w", err)
		}
		if err := pgvector.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate pgvector tables: %w", err)
		}
		c.closers = append(c.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		return pgvector.NewService(db), nil
	case "memory":
		return vsmemory.NewService(), nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.Vector.Backend)
	}
}

func llmApiKey(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "huggingface" {
		return cfg.Keys.HuggingFace
	}
	return cfg.Keys.Groq
}
