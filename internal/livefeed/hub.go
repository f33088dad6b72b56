// Package livefeed broadcasts due events to dashboard subscribers over
// WebSocket. It is a Register/Unregister/broadcast channel hub — the
// same shape as a chat-room or notification fan-out — fed by a
// Schedule callback rather than any inbound client message. Clients
// only ever receive; nothing they send is dispatched back into the
// scheduling core.
package livefeed

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/neevany/timingsrc/internal/logging"
)

// ShutdownReason identifies why the hub's run loop returned.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

const (
	MessageTypeDueEvents = "due_events"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Message is the envelope written to every connected client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of connected dashboard clients and fans due
// events out to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub's dispatch loop until ctx is canceled.
// Designed for supervised operation: a cancellation returns ctx.Err()
// after gracefully closing every connected client, so a supervisor can
// restart the hub without leaving orphaned connections behind.
//
// Priority-selects in order: shutdown, then client lifecycle events,
// then broadcasts — so client bookkeeping is never stale when a
// broadcast is processed immediately afterward.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.dropClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.dropClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	logging.Info().Int("total_clients", h.GetClientCount()).Msg("livefeed client connected")
}

func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	logging.Info().Int("total_clients", h.GetClientCount()).Msg("livefeed client disconnected")
}

func (h *Hub) logShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()
	reason := shutdownReason(ctx)
	logging.Info().
		Str("component", "livefeed-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("livefeed hub stopped")
}

func shutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients fans message out to every client's send channel in
// deterministic (ID-ascending) order, dropping (and unregistering) any
// client whose send buffer is full rather than blocking the hub.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, client := range clients {
		if !client.limiter.Allow() {
			continue
		}
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	logging.Info().Msg("closed all livefeed clients during shutdown")
}

// BroadcastDueEvents sends a batch of due-event payloads to every
// connected client. Non-blocking: if the hub's internal broadcast
// channel is saturated the batch is dropped and logged rather than
// stalling the Schedule callback that produced it.
func (h *Hub) BroadcastDueEvents(payloads []DueEventPayload) {
	message := Message{Type: MessageTypeDueEvents, Data: payloads}
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Int("count", len(payloads)).Msg("livefeed broadcast channel full, dropping due-event batch")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON, for use by handlers that
// need to inspect an outgoing frame outside the normal write pump.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
