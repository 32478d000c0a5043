package service

import (
	"context"
	"time"

	"yt-chatbot-be/internal/entity"
	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/internal/repository/memory"
	"yt-chatbot-be/pkg/events"
	pktNats "yt-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService reacts to video events: local ones from the in-process
// bus, remote ones from NATS. Remote events also move this instance's
// loaded video, since the vector partition is shared.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	nats       *pktNats.Subscriber
	origin     string
	chat       IChatService
	videos     *memory.VideoRepository
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	natsSub *pktNats.Subscriber,
	origin string,
	chat IChatService,
	videos *memory.VideoRepository,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		nats:       natsSub,
		origin:     origin,
		chat:       chat,
		videos:     videos,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	if cs.nats != nil {
		err := cs.nats.Subscribe(ctx, ">", "yt-chatbot-"+cs.origin, cs.handleRemote)
		if err != nil {
			cs.logger.Warn("CONSUMER", "NATS subscription failed, remote events ignored", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	evt, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to decode event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}
	cs.apply(evt)
	msg.Ack()
}

func (cs *consumerService) handleRemote(ctx context.Context, evt events.BaseEvent) error {
	if evt.String("origin") == cs.origin {
		return nil
	}

	switch evt.EventType() {
	case events.VideoIngested:
		chunks := 0
		if n, ok := evt.Payload()["chunks"].(float64); ok {
			chunks = int(n)
		}
		cs.videos.Set(entity.LoadedVideo{
			VideoId:    evt.String("video_id"),
			Chunks:     chunks,
			Stored:     chunks,
			IngestedAt: evt.Timestamp(),
		})
	case events.VideoCleared:
		cs.videos.Clear()
	}
	cs.apply(evt)
	return nil
}

func (cs *consumerService) apply(evt events.BaseEvent) {
	switch evt.EventType() {
	case events.VideoIngested:
		n := cs.chat.ResetConversations(evt.String("video_id"))
		cs.logger.Info("CONSUMER", "Conversations reset for new video", map[string]interface{}{
			"video_id":      evt.String("video_id"),
			"conversations": n,
			"lag_ms":        time.Since(evt.Timestamp()).Milliseconds(),
		})
	case events.VideoCleared:
		n := cs.chat.ResetConversations("")
		cs.logger.Info("CONSUMER", "Conversations reset after clear", map[string]interface{}{
			"conversations": n,
		})
	default:
		cs.logger.Debug("CONSUMER", "Ignoring event", map[string]interface{}{"type": evt.EventType()})
	}
}
