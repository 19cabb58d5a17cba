package bootstrap

import (
	"context"
	"log"

	"ai-docreview-be/internal/config"
	"ai-docreview-be/internal/controller"
	"ai-docreview-be/internal/handler"
	"ai-docreview-be/internal/pkg/logger"
	"ai-docreview-be/internal/repository/memory"
	"ai-docreview-be/internal/repository/unitofwork"
	"ai-docreview-be/internal/service"
	"ai-docreview-be/internal/websocket"
	"ai-docreview-be/pkg/llm/factory"
	"ai-docreview-be/pkg/reasoning"
	"ai-docreview-be/pkg/retry"
	"ai-docreview-be/pkg/review/discussion"

	pktNats "ai-docreview-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ReviewController   controller.IReviewController
	LearningController controller.ILearningController

	// Background services main.go runs
	ConsumerService   service.IConsumerService
	EventRelayService service.IEventRelayService

	// Live event push
	EventsHandler *handler.EventsHandler
	WebSocketHub  *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	retryPolicy := retry.DefaultPolicy()
	retryPolicy.MaxAttempts = cfg.Reasoning.MaxRetries
	txRunner := unitofwork.NewTransactionRunner(uowFactory, retryPolicy)

	// In-process queue for learning capture
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// Reasoning backend
	llmProvider, err := factory.NewLLMProvider(
		cfg.Reasoning.Provider,
		cfg.Reasoning.Model,
		cfg.Reasoning.BaseURL,
		cfg.Reasoning.APIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Reasoning.Provider, cfg.Reasoning.Model)

	reasoningClient := reasoning.NewClient(llmProvider, reasoning.Config{
		Model:       cfg.Reasoning.Model,
		CallTimeout: cfg.Reasoning.CallTimeout,
		Retry:       retryPolicy,
	})

	// NATS event bus
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS subscriber: %v", err)
	}

	// Redis for cross-instance websocket fanout
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Per-session navigation cursor cache
	navRepo := memory.NewNavStateRepository()

	orchestrator := discussion.NewOrchestrator(reasoningClient, cfg.Review.StreamTimeout)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	reviewService := service.NewReviewService(
		uowFactory,
		txRunner,
		reasoningClient,
		orchestrator,
		navRepo,
		eventPublisher,
		pubSub,
		sysLogger,
	)

	learningService := service.NewLearningService(
		uowFactory,
		txRunner,
		reasoningClient,
		eventPublisher,
		sysLogger,
	)

	consumerService := service.NewConsumerService(
		pubSub,
		service.LearningCaptureTopic,
		learningService,
		sysLogger,
	)

	var relayService service.IEventRelayService
	if natsSub != nil {
		relayService = service.NewEventRelayService(natsSub, wsHub, wsLogger)
	}

	return &Container{
		ReviewController:   controller.NewReviewController(reviewService),
		LearningController: controller.NewLearningController(learningService),

		ConsumerService:   consumerService,
		EventRelayService: relayService,

		EventsHandler: handler.NewEventsHandler(wsHub, wsLogger),
		WebSocketHub:  wsHub,

		Logger: sysLogger,
	}
}
