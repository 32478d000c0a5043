package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"yt-chatbot-be/internal/dto"
	"yt-chatbot-be/internal/entity"
	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/internal/pkg/serverutils"
	"yt-chatbot-be/internal/repository/memory"
	"yt-chatbot-be/pkg/rag"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateSession(ctx context.Context) *dto.CreateSessionResponse
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
	History(ctx context.Context, sessionId uuid.UUID) (*dto.HistoryResponse, error)
	ClearHistory(ctx context.Context, sessionId uuid.UUID) error
	// ResetConversations empties every conversation after the loaded video changed.
	ResetConversations(videoId string) int
}

type Answerer interface {
	Answer(ctx context.Context, query string) *rag.Answer
}

type chatService struct {
	answerer Answerer
	sessions *memory.SessionRepository
	videos   *memory.VideoRepository
	logger   logger.ILogger

	mu sync.Mutex
}

func NewChatService(answerer Answerer, sessions *memory.SessionRepository, videos *memory.VideoRepository, log logger.ILogger) IChatService {
	return &chatService{
		answerer: answerer,
		sessions: sessions,
		videos:   videos,
		logger:   log,
	}
}

func (s *chatService) CreateSession(ctx context.Context) *dto.CreateSessionResponse {
	now := time.Now()
	conv := &entity.Conversation{
		Id:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if v, ok := s.videos.Current(); ok {
		conv.VideoId = v.VideoId
	}
	s.sessions.Save(conv)

	return &dto.CreateSessionResponse{
		Id:        conv.Id,
		VideoId:   conv.VideoId,
		CreatedAt: conv.CreatedAt,
	}
}

func (s *chatService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, serverutils.BadRequest("Question is required")
	}

	video, loaded := s.videos.Current()
	if !loaded {
		return nil, serverutils.Conflict("Please load a YouTube video first")
	}

	if _, ok := s.sessions.Get(req.SessionId); !ok {
		return nil, serverutils.NotFound("Chat session not found")
	}

	ans := s.answerer.Answer(ctx, question)

	s.mu.Lock()
	conv, ok := s.sessions.Get(req.SessionId)
	if ok {
		if conv.VideoId != video.VideoId {
			conv.Reset(video.VideoId)
		}
		conv.Append(entity.RoleUser, question)
		conv.Append(entity.RoleAssistant, ans.Text)
		s.sessions.Save(conv)
	}
	s.mu.Unlock()

	if ans.Err != nil {
		s.logger.Warn("CHAT", "Answer degraded to error message", map[string]interface{}{
			"session_id": req.SessionId.String(),
			"error":      ans.Err.Error(),
		})
	}

	sources := make([]dto.SourceChunk, 0, len(ans.Sources))
	for _, m := range ans.Sources {
		sources = append(sources, dto.SourceChunk{
			Id:      m.Id,
			ChunkId: chunkId(m.Metadata["chunk_id"]),
			Score:   m.Score,
		})
	}

	return &dto.AskResponse{
		SessionId: req.SessionId,
		VideoId:   video.VideoId,
		Answer:    ans.Text,
		Sources:   sources,
	}, nil
}

func (s *chatService) History(ctx context.Context, sessionId uuid.UUID) (*dto.HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil, serverutils.NotFound("Chat session not found")
	}

	turns := make([]dto.TurnResponse, len(conv.Turns))
	for i, t := range conv.Turns {
		turns[i] = dto.TurnResponse{Role: t.Role, Content: t.Content, CreatedAt: t.CreatedAt}
	}
	return &dto.HistoryResponse{
		SessionId: conv.Id,
		VideoId:   conv.VideoId,
		Turns:     turns,
	}, nil
}

func (s *chatService) ClearHistory(ctx context.Context, sessionId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.sessions.Get(sessionId)
	if !ok {
		return serverutils.NotFound("Chat session not found")
	}
	conv.Reset(conv.VideoId)
	s.sessions.Save(conv)
	return nil
}

func (s *chatService) ResetConversations(videoId string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.ResetAll(videoId)
}

// chunkId reads chunk_id from metadata, which JSON backends return as float64.
func chunkId(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return -1
	}
}
