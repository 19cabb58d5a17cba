package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-docreview-be/internal/pkg/logger"
	"ai-docreview-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// fanoutChannel is the redis pub/sub channel that carries events between
// instances so a client connected to any node sees its session's events.
const fanoutChannel = "review_events"

// Hub pushes review lifecycle events to connected clients. A user can be
// connected from several devices at once; every device gets every event.
type Hub struct {
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fanout; nil means single node.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("hub", "client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish implements the event publisher the services use: serialize the
// event, deliver to the owning user's local connections, then fan out
// over redis for clients attached to other instances.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	data, err := json.Marshal(map[string]interface{}{
		"type":      event.EventType(),
		"timestamp": event.Timestamp(),
		"data":      payload,
	})
	if err != nil {
		return err
	}

	targetUser, _ := payload["user_id"].(string)

	// With redis the message loops back through the subscriber, which
	// also covers local clients; deliver directly only on a single node.
	if h.rdb != nil {
		wire, err := json.Marshal(fanoutPayload{TargetUserID: targetUser, Message: data})
		if err != nil {
			return err
		}
		return h.rdb.Publish(ctx, fanoutChannel, wire).Err()
	}

	userId, err := uuid.Parse(targetUser)
	if err != nil {
		// Events without an owner go to everyone.
		h.deliverAll(data)
		return nil
	}
	h.deliver(userId, data)
	return nil
}

type fanoutPayload struct {
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

func (h *Hub) deliver(userId uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := h.clients[userId]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("hub", "client send buffer full, dropping connection", map[string]interface{}{"user_id": userId})
			h.unregister <- client
		}
	}
}

func (h *Hub) deliverAll(data []byte) {
	h.mu.RLock()
	var all []*Client
	for _, clients := range h.clients {
		all = append(all, clients...)
	}
	h.mu.RUnlock()

	for _, client := range all {
		select {
		case client.Send <- data:
		default:
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, fanoutChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload fanoutPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("hub", "malformed fanout payload", map[string]interface{}{"error": err.Error()})
			continue
		}

		userId, err := uuid.Parse(payload.TargetUserID)
		if err != nil {
			h.deliverAll(payload.Message)
			continue
		}
		h.deliver(userId, payload.Message)
	}
}
