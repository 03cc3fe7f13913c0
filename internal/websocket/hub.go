// Package websocket pushes notification events to connected clients.
// The hub serializes all registry access through its run loop; services
// talk to it only via the Notifier interface.
package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"gigpay/internal/services/notification"
)

type directMessage struct {
	userID  uint
	payload []byte
}

// Hub tracks active connections per user. A user may hold several
// connections (multiple tabs or devices); events go to all of them.
type Hub struct {
	clients    map[uint]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage
	log        zerolog.Logger
}

// NewHub creates a hub. Call Run in its own goroutine before serving
// connections.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		direct:     make(chan directMessage, 256),
		log:        log.With().Str("component", "websocket").Logger(),
	}
}

// Run owns the client registry. It is the only goroutine that touches
// h.clients.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			conns := h.clients[client.userID]
			if conns == nil {
				conns = make(map[*Client]bool)
				h.clients[client.userID] = conns
			}
			conns[client] = true
			h.log.Debug().Uint("user_id", client.userID).Int("connections", len(conns)).Msg("client registered")

		case client := <-h.unregister:
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			h.log.Debug().Uint("user_id", client.userID).Msg("client unregistered")

		case msg := <-h.direct:
			for client := range h.clients[msg.userID] {
				client.trySend(msg.payload)
			}

		case payload := <-h.broadcast:
			for _, conns := range h.clients {
				for client := range conns {
					client.trySend(payload)
				}
			}
		}
	}
}

// NotifyUser implements notification.Notifier. Events to users without
// an open connection are dropped.
func (h *Hub) NotifyUser(userID uint, event notification.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Type).Msg("failed to marshal event")
		return
	}
	select {
	case h.direct <- directMessage{userID: userID, payload: payload}:
	default:
		h.log.Warn().Uint("user_id", userID).Str("event", event.Type).Msg("hub busy, event dropped")
	}
}

// Broadcast implements notification.Notifier.
func (h *Hub) Broadcast(event notification.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Type).Msg("failed to marshal event")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn().Str("event", event.Type).Msg("hub busy, broadcast dropped")
	}
}
