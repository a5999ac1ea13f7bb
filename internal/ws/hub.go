package ws

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"movie-quiz/internal/logger"
)

const sendBuffer = 256

// Client is one player connection to a session
type Client struct {
	SessionID string
	Username  string
	send      chan []byte
}

func NewClient(sessionID, username string) *Client {
	return &Client{
		SessionID: sessionID,
		Username:  username,
		send:      make(chan []byte, sendBuffer),
	}
}

// Messages yields outgoing frames; it is closed when the hub drops the client
func (c *Client) Messages() <-chan []byte {
	return c.send
}

type envelope struct {
	sessionID string
	client    *Client // nil means every client of the session
	data      []byte
}

// Hub fans session messages out to connected players. All maps are owned
// by the Run goroutine.
type Hub struct {
	rooms map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	outgoing   chan envelope
	done       chan struct{}
}

// NewHub creates a hub; call Run to start delivering messages
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outgoing:   make(chan envelope, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run delivers messages until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for _, clients := range h.rooms {
			for client := range clients {
				close(client.send)
			}
		}
		h.rooms = nil
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			clients, ok := h.rooms[client.SessionID]
			if !ok {
				clients = make(map[*Client]struct{})
				h.rooms[client.SessionID] = clients
			}
			clients[client] = struct{}{}
			logger.Get().Debug("Hub: client registered",
				zap.String("session_id", client.SessionID),
				zap.String("username", client.Username),
				zap.Int("connections", len(clients)),
			)

		case client := <-h.unregister:
			clients := h.rooms[client.SessionID]
			if _, ok := clients[client]; !ok {
				continue
			}
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.rooms, client.SessionID)
			}

		case msg := <-h.outgoing:
			if msg.client != nil {
				if _, ok := h.rooms[msg.sessionID][msg.client]; ok {
					h.deliver(msg.client, msg.data)
				}
				continue
			}
			for client := range h.rooms[msg.sessionID] {
				h.deliver(client, msg.data)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		logger.Get().Warn("Hub: dropping message for slow client",
			zap.String("session_id", client.SessionID),
			zap.String("username", client.Username),
		)
	}
}

// Register adds a client; it is a no-op once the hub stopped
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends message to every client of the session
func (h *Hub) Broadcast(sessionID string, message interface{}) {
	h.enqueue(envelope{sessionID: sessionID}, message)
}

// Send sends message to one client
func (h *Hub) Send(client *Client, message interface{}) {
	h.enqueue(envelope{sessionID: client.SessionID, client: client}, message)
}

func (h *Hub) enqueue(msg envelope, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Get().Error("Hub: failed to encode message", zap.String("session_id", msg.sessionID), zap.Error(err))
		return
	}
	msg.data = data

	select {
	case h.outgoing <- msg:
	case <-h.done:
	}
}
