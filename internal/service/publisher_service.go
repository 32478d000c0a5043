package service

import (
	"context"
	"time"

	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/pkg/events"
	pktNats "yt-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	PublishVideoIngested(ctx context.Context, videoId string, chunks int)
	PublishVideoCleared(ctx context.Context, videoId string)
}

// publisherService delivers events to in-process subscribers and, when a
// NATS publisher is present, to other instances.
type publisherService struct {
	topicName string
	publisher message.Publisher
	nats      *pktNats.Publisher
	origin    string
	logger    logger.ILogger
}

func NewPublisherService(topicName string, publisher message.Publisher, natsPub *pktNats.Publisher, origin string, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
		nats:      natsPub,
		origin:    origin,
		logger:    log,
	}
}

func (p *publisherService) PublishVideoIngested(ctx context.Context, videoId string, chunks int) {
	p.publish(ctx, events.VideoIngested, map[string]interface{}{
		"video_id": videoId,
		"chunks":   chunks,
	})
}

func (p *publisherService) PublishVideoCleared(ctx context.Context, videoId string) {
	p.publish(ctx, events.VideoCleared, map[string]interface{}{
		"video_id": videoId,
	})
}

func (p *publisherService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	data["origin"] = p.origin
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}

	payload, err := events.Encode(evt)
	if err != nil {
		p.logger.Error("EVENTS", "Failed to encode event", map[string]interface{}{"type": eventType, "error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		p.logger.Error("EVENTS", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}

	if p.nats == nil {
		return
	}
	if err := p.nats.Publish(ctx, evt); err != nil {
		p.logger.Warn("EVENTS", "Failed to forward event to NATS", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
