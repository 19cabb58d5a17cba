package service

import (
	"context"
	"encoding/json"

	"ai-docreview-be/internal/dto"
	"ai-docreview-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the learning-capture queue: every completed
// session is exported to learning entries in the background so the
// author never waits on the export call.
type consumerService struct {
	pubSub          *gochannel.GoChannel
	topicName       string
	learningService ILearningService
	log             logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	learningService ILearningService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:          pubSub,
		topicName:       topicName,
		learningService: learningService,
		log:             log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.LearningCaptureMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "failed to unmarshal learning capture message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads are never going to parse; drop them
		return
	}

	cs.log.Info("consumer", "exporting learning for completed session", map[string]interface{}{
		"session": payload.SessionId.String(),
	})

	_, err := cs.learningService.ExportLearning(ctx, payload.UserId, &dto.ExportLearningRequest{
		SessionId: payload.SessionId,
	})
	if err != nil {
		cs.log.Error("consumer", "learning export failed", map[string]interface{}{
			"session": payload.SessionId.String(),
			"error":   err.Error(),
		})
		// Export is best-effort; the author can re-export from the API.
		msg.Ack()
		return
	}

	msg.Ack()
}
