// Package notify fans chat state changes out to connected browser clients
// over websockets.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chatdesk/internal/models"
)

const (
	// Per-client send buffer. Slow consumers past this point are dropped.
	clientBufferSize = 32

	writeTimeout = 5 * time.Second
)

// Outbound event type tags.
const (
	eventNewMessage       = "message:new"
	eventChatChanged      = "chat:changed"
	eventMessageChanged   = "message:changed"
	eventReactionsChanged = "reactions:changed"
	eventPresence         = "presence"
)

type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type client struct {
	id   string
	send chan []byte
}

// Hub tracks connected websocket clients and broadcasts pipeline events to
// all of them. It is safe for concurrent use.
type Hub struct {
	logger *logrus.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the request to a websocket and streams broadcast events
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browser clients connect from the dashboard origin; the reverse
		// proxy enforces origin policy.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.WithError(err).Warn("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	c := &client{
		id:   uuid.New().String(),
		send: make(chan []byte, clientBufferSize),
	}
	h.register(c)
	defer h.unregister(c.id)

	h.logger.WithField("client_id", c.id).Debug("Websocket client connected")

	// Inbound frames are not part of the protocol; CloseRead surfaces
	// disconnects through ctx.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case payload := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusPolicyViolation, "write failed")
				return
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

func (h *Hub) broadcast(eventType string, data interface{}) {
	payload, err := json.Marshal(envelope{Type: eventType, Data: data})
	if err != nil {
		h.logger.WithError(err).WithField("event", eventType).Error("Failed to encode broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Client buffer full; drop the event rather than block the
			// ingestion path.
			h.logger.WithField("client_id", c.id).Debug("Dropping event for slow client")
		}
	}
}

func (h *Hub) NotifyNewMessage(msg *models.Message) {
	h.broadcast(eventNewMessage, msg)
}

func (h *Hub) NotifyChatChanged(chat *models.Chat) {
	h.broadcast(eventChatChanged, chat)
}

func (h *Hub) NotifyMessageChanged(msg *models.Message) {
	h.broadcast(eventMessageChanged, msg)
}

func (h *Hub) NotifyReactionsChanged(chatID, messageID string, reactions []models.Reaction) {
	h.broadcast(eventReactionsChanged, map[string]interface{}{
		"chatId":    chatID,
		"messageId": messageID,
		"reactions": reactions,
	})
}

func (h *Hub) NotifyPresence(chatID, userID string, isOnline, isTyping bool) {
	h.broadcast(eventPresence, map[string]interface{}{
		"chatId":   chatID,
		"userId":   userID,
		"isOnline": isOnline,
		"isTyping": isTyping,
	})
}
