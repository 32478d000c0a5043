package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"yt-chatbot-be/internal/dto"
	"yt-chatbot-be/internal/entity"
	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/internal/repository/memory"
	"yt-chatbot-be/pkg/rag"
	"yt-chatbot-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnswerer struct {
	answer   *rag.Answer
	question string
}

func (s *stubAnswerer) Answer(ctx context.Context, query string) *rag.Answer {
	s.question = query
	return s.answer
}

func newChatFixture(answer *rag.Answer) (IChatService, *memory.VideoRepository, *stubAnswerer) {
	videos := memory.NewVideoRepository()
	answerer := &stubAnswerer{answer: answer}
	svc := NewChatService(answerer, memory.NewSessionRepository(time.Hour), videos, logger.NewNopLogger())
	return svc, videos, answerer
}

func TestAskBeforeIngestion(t *testing.T) {
	svc, _, _ := newChatFixture(&rag.Answer{Text: "x"})
	sess := svc.CreateSession(context.Background())

	_, err := svc.Ask(context.Background(), &dto.AskRequest{SessionId: sess.Id, Question: "hi"})
	assert.Equal(t, 409, appErrorCode(t, err))
}

func TestAskUnknownSession(t *testing.T) {
	svc, videos, _ := newChatFixture(&rag.Answer{Text: "x"})
	videos.Set(entity.LoadedVideo{VideoId: "abc12345678"})

	_, err := svc.Ask(context.Background(), &dto.AskRequest{SessionId: uuid.New(), Question: "hi"})
	assert.Equal(t, 404, appErrorCode(t, err))
}

func TestAskRecordsTurns(t *testing.T) {
	svc, videos, answerer := newChatFixture(&rag.Answer{
		Text: "Yeh video cats ke baare mein hai.",
		Sources: []vectorstore.Match{
			{Id: "abc12345678::0", Score: 0.8, Metadata: map[string]interface{}{"chunk_id": float64(0)}},
		},
	})
	videos.Set(entity.LoadedVideo{VideoId: "abc12345678"})
	ctx := context.Background()
	sess := svc.CreateSession(ctx)
	assert.Equal(t, "abc12345678", sess.VideoId)

	res, err := svc.Ask(ctx, &dto.AskRequest{SessionId: sess.Id, Question: "  What is this about?  "})
	require.NoError(t, err)

	assert.Equal(t, "What is this about?", answerer.question)
	assert.Equal(t, "Yeh video cats ke baare mein hai.", res.Answer)
	assert.Equal(t, []dto.SourceChunk{{Id: "abc12345678::0", ChunkId: 0, Score: 0.8}}, res.Sources)

	hist, err := svc.History(ctx, sess.Id)
	require.NoError(t, err)
	require.Len(t, hist.Turns, 2)
	assert.Equal(t, entity.RoleUser, hist.Turns[0].Role)
	assert.Equal(t, entity.RoleAssistant, hist.Turns[1].Role)

	require.NoError(t, svc.ClearHistory(ctx, sess.Id))
	hist, err = svc.History(ctx, sess.Id)
	require.NoError(t, err)
	assert.Empty(t, hist.Turns)
}

func TestAskKeepsErrorAnswers(t *testing.T) {
	svc, videos, _ := newChatFixture(&rag.Answer{
		Text: "Sorry, I encountered an error while processing your question: timeout",
		Err:  errors.New("timeout"),
	})
	videos.Set(entity.LoadedVideo{VideoId: "abc12345678"})
	sess := svc.CreateSession(context.Background())

	res, err := svc.Ask(context.Background(), &dto.AskRequest{SessionId: sess.Id, Question: "q"})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Sorry, I encountered an error")
}

func TestConversationFollowsVideoChange(t *testing.T) {
	svc, videos, _ := newChatFixture(&rag.Answer{Text: "a"})
	ctx := context.Background()
	videos.Set(entity.LoadedVideo{VideoId: "abc12345678"})
	sess := svc.CreateSession(ctx)
	_, err := svc.Ask(ctx, &dto.AskRequest{SessionId: sess.Id, Question: "q1"})
	require.NoError(t, err)

	videos.Set(entity.LoadedVideo{VideoId: "xyz98765432"})
	_, err = svc.Ask(ctx, &dto.AskRequest{SessionId: sess.Id, Question: "q2"})
	require.NoError(t, err)

	hist, _ := svc.History(ctx, sess.Id)
	assert.Equal(t, "xyz98765432", hist.VideoId)
	require.Len(t, hist.Turns, 2)
	assert.Equal(t, "q2", hist.Turns[0].Content)
}

func TestHistoryUnknownSession(t *testing.T) {
	svc, _, _ := newChatFixture(nil)
	_, err := svc.History(context.Background(), uuid.New())
	assert.Equal(t, 404, appErrorCode(t, err))
	assert.Equal(t, 404, appErrorCode(t, svc.ClearHistory(context.Background(), uuid.New())))
}
