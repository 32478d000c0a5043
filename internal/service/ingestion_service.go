package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"yt-chatbot-be/internal/dto"
	"yt-chatbot-be/internal/entity"
	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/internal/pkg/serverutils"
	"yt-chatbot-be/internal/repository/cache"
	"yt-chatbot-be/internal/repository/memory"
	"yt-chatbot-be/pkg/embedding"
	"yt-chatbot-be/pkg/utils"
	"yt-chatbot-be/pkg/vectorstore"
	"yt-chatbot-be/pkg/youtube"
)

type IIngestionService interface {
	Ingest(ctx context.Context, req *dto.IngestVideoRequest) (*dto.IngestVideoResponse, error)
	Reset(ctx context.Context) error
	Current() *dto.CurrentVideoResponse
}

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoId string) (string, error)
}

// IndexHandoff receives the index handle once ingestion has opened it.
type IndexHandoff interface {
	SetIndex(idx vectorstore.Index)
}

type ingestionService struct {
	fetcher   TranscriptFetcher
	cache     cache.TranscriptCache
	splitter  *utils.TextSplitter
	embedder  *embedding.Embedder
	manager   *vectorstore.Manager
	handoff   IndexHandoff
	videos    *memory.VideoRepository
	publisher IPublisherService
	logger    logger.ILogger

	// mu serializes clear and upsert: the partition is shared.
	mu sync.Mutex
}

func NewIngestionService(
	fetcher TranscriptFetcher,
	transcriptCache cache.TranscriptCache,
	splitter *utils.TextSplitter,
	embedder *embedding.Embedder,
	manager *vectorstore.Manager,
	handoff IndexHandoff,
	videos *memory.VideoRepository,
	publisher IPublisherService,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		fetcher:   fetcher,
		cache:     transcriptCache,
		splitter:  splitter,
		embedder:  embedder,
		manager:   manager,
		handoff:   handoff,
		videos:    videos,
		publisher: publisher,
		logger:    log,
	}
}

func (s *ingestionService) Ingest(ctx context.Context, req *dto.IngestVideoRequest) (*dto.IngestVideoResponse, error) {
	url := strings.TrimSpace(req.Url)
	videoId := youtube.ExtractVideoId(url)
	if !youtube.IsValidVideoId(videoId) {
		return nil, serverutils.BadRequest("Invalid YouTube URL")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.logger.Info("INGEST", "Ingestion started", map[string]interface{}{"video_id": videoId})

	transcript, cached, err := s.transcript(ctx, videoId)
	if err != nil {
		return nil, err
	}

	chunks := s.splitter.Split(transcript)

	embedded, err := s.embedder.EmbedChunks(ctx, chunks, videoId)
	if err != nil {
		return nil, serverutils.NewAppError(http.StatusUnprocessableEntity, err.Error(), err)
	}

	idx, err := s.manager.GetOrCreateIndex(ctx, embedded.Dimension())
	if err != nil {
		return nil, s.storeError("Vector index unavailable", err)
	}
	if err := s.manager.ClearVectors(ctx, idx); err != nil {
		return nil, s.storeError("Failed to clear previous video", err)
	}

	stored, err := s.manager.UpsertVectors(ctx, idx, videoId, embedded.Texts, embedded.Vectors, embedded.MetadataMaps())
	if err != nil {
		// Partial writes are not a loaded video, and the previous one is gone.
		previous, _ := s.videos.Current()
		s.videos.Clear()
		s.publisher.PublishVideoCleared(ctx, previous.VideoId)
		return nil, s.storeError("Failed to store video chunks", err)
	}

	if s.handoff != nil {
		s.handoff.SetIndex(idx)
	}

	now := time.Now()
	s.videos.Set(entity.LoadedVideo{
		VideoId:    videoId,
		Url:        url,
		Chunks:     len(embedded.Texts),
		Stored:     stored,
		IngestedAt: now,
	})
	s.publisher.PublishVideoIngested(ctx, videoId, len(embedded.Texts))

	s.logger.Info("INGEST", "Ingestion finished", map[string]interface{}{
		"video_id":          videoId,
		"transcript_chars":  len([]rune(transcript)),
		"chunks":            len(embedded.Texts),
		"stored":            stored,
		"transcript_cached": cached,
		"duration_ms":       time.Since(start).Milliseconds(),
	})

	return &dto.IngestVideoResponse{
		VideoId:    videoId,
		Chunks:     len(embedded.Texts),
		Stored:     stored,
		Cached:     cached,
		IngestedAt: now,
	}, nil
}

// transcript reads through the cache. Only successful fetches are cached
// and cache trouble never fails the ingestion.
func (s *ingestionService) transcript(ctx context.Context, videoId string) (string, bool, error) {
	if s.cache != nil {
		text, found, err := s.cache.Get(ctx, videoId)
		if err != nil {
			s.logger.Warn("INGEST", "Transcript cache read failed", map[string]interface{}{"video_id": videoId, "error": err.Error()})
		} else if found {
			return text, true, nil
		}
	}

	text, err := s.fetcher.Fetch(ctx, videoId)
	if err != nil {
		var tErr *youtube.TranscriptError
		if errors.As(err, &tErr) {
			s.logger.Warn("INGEST", "Transcript not usable", map[string]interface{}{
				"video_id": videoId,
				"kind":     tErr.Kind.String(),
				"error":    tErr.Error(),
			})
			switch tErr.Kind {
			case youtube.TranscriptUnavailable:
				return "", false, serverutils.NewAppError(http.StatusNotFound, tErr.Error(), err)
			default:
				return "", false, serverutils.NewAppError(http.StatusBadGateway, tErr.Error(), err)
			}
		}
		return "", false, serverutils.NewAppError(http.StatusBadGateway, fmt.Sprintf("Error fetching transcript: %v", err), err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, videoId, text); err != nil {
			s.logger.Warn("INGEST", "Transcript cache write failed", map[string]interface{}{"video_id": videoId, "error": err.Error()})
		}
	}
	return text, false, nil
}

func (s *ingestionService) storeError(message string, err error) error {
	s.logger.Error("INGEST", message, map[string]interface{}{"error": err.Error()})
	return serverutils.NewAppError(http.StatusBadGateway, fmt.Sprintf("%s: %v", message, err), err)
}

func (s *ingestionService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, _ := s.videos.Current()

	idx, err := s.manager.OpenIndex(ctx)
	switch {
	case errors.Is(err, vectorstore.ErrIndexNotFound):
		// Nothing was ever stored.
	case err != nil:
		return s.storeError("Vector index unavailable", err)
	default:
		if err := s.manager.ClearVectors(ctx, idx); err != nil {
			return s.storeError("Failed to clear video", err)
		}
	}

	s.videos.Clear()
	s.publisher.PublishVideoCleared(ctx, previous.VideoId)

	s.logger.Info("INGEST", "Video cleared", map[string]interface{}{"video_id": previous.VideoId})
	return nil
}

func (s *ingestionService) Current() *dto.CurrentVideoResponse {
	v, ok := s.videos.Current()
	if !ok {
		return &dto.CurrentVideoResponse{Loaded: false}
	}
	at := v.IngestedAt
	return &dto.CurrentVideoResponse{
		Loaded:     true,
		VideoId:    v.VideoId,
		Url:        v.Url,
		Chunks:     v.Chunks,
		IngestedAt: &at,
	}
}
