package service

import (
	"context"

	"ai-docreview-be/internal/pkg/logger"
	"ai-docreview-be/pkg/events"
	pktNats "ai-docreview-be/pkg/nats"
)

// IEventRelayService bridges the durable event bus to live client
// connections: every review event published to NATS is pushed to the
// owning user's websocket sessions.
type IEventRelayService interface {
	Start()
}

type eventRelayService struct {
	subscriber *pktNats.Subscriber
	delivery   EventPublisher
	logger     logger.ILogger
}

func NewEventRelayService(sub *pktNats.Subscriber, delivery EventPublisher, log logger.ILogger) IEventRelayService {
	return &eventRelayService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

func (s *eventRelayService) Start() {
	err := s.subscriber.Subscribe("events.>", "review-event-relay", s.handleEvent)
	if err != nil {
		s.logger.Error("relay", "failed to start event relay subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("relay", "event relay started, listening to events.>", nil)
}

func (s *eventRelayService) handleEvent(ctx context.Context, event events.Event) error {
	if s.delivery == nil {
		return nil
	}
	if err := s.delivery.Publish(ctx, event); err != nil {
		s.logger.Warn("relay", "failed to deliver event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
	return nil
}
