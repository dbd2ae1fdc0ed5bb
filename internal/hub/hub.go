package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

// Hub tracks live websocket clients and delivers frames to them.
//
// Delivery never blocks: frames are queued on each client's send buffer, and
// a client whose buffer is full is dropped instead of stalling the sender.
// A dropped client's write pump closes the connection, which makes its read
// pump exit and run the normal disconnect path.
type Hub struct {
	clients map[string]*Client // clientID -> client
	mu      sync.RWMutex
	config  config.WebSocketConfig
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		config:  cfg,
	}
}

// Run blocks until ctx is done, then closes every client's send buffer so
// their write pumps send a close frame.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
	}
	h.mu.Unlock()

	l := log.L()
	l.Info().Msg("hub stopped")
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Msg("client registered")
}

// Unregister removes client and closes its send buffer. It reports false if
// the client was already gone.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	current, ok := h.clients[client.ID]
	if ok && current == client {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.mu.Unlock()

	if ok && current == client {
		l := log.L()
		l.Debug().Str(log.FieldConnID, client.ID).Msg("client unregistered")
		return true
	}
	return false
}

// Send delivers event to one client. It reports false when the client is
// absent or was dropped for falling behind.
func (h *Hub) Send(connID, event string, payload any) bool {
	data, err := encode(domain.OutFrame{Type: event, Data: payload})
	if err != nil {
		return false
	}
	return h.SendRaw(connID, data)
}

// Reply delivers the acknowledgement for the inbound frame tagged ackID.
func (h *Hub) Reply(connID, ackID string, payload any) bool {
	data, err := encode(domain.OutFrame{Type: domain.EventAck, Ack: ackID, Data: payload})
	if err != nil {
		return false
	}
	return h.SendRaw(connID, data)
}

// SendRaw queues an already encoded frame for one client.
func (h *Hub) SendRaw(connID string, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connID]
	if !ok {
		return false
	}
	return h.enqueue(client, data)
}

// Broadcast delivers event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := encode(domain.OutFrame{Type: event, Data: payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.enqueue(client, data)
	}
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(client *Client, data []byte) bool {
	if client.dropped.Load() {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		if client.dropped.CompareAndSwap(false, true) {
			l := log.L()
			l.Warn().Str(log.FieldConnID, client.ID).Msg("send buffer full, dropping client")
			go h.Unregister(client)
		}
		return false
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(frame domain.OutFrame) ([]byte, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldEvent, frame.Type).Msg("failed to encode frame")
		return nil, err
	}
	return data, nil
}
