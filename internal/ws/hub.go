package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is one entry on the live activity feed consumed by admin dashboards.
type Event struct {
	Type       string      `json:"type"` // points.earned, points.spent, points.adjusted, reward.redeemed, referral.rewarded
	CustomerID uint        `json:"customer_id,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	At         time.Time   `json:"at"`
}

type client struct {
	send chan []byte
}

// Hub fans events out to connected feed clients. Slow clients are dropped rather
// than blocking the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast sends an event to every connected client. Safe to call with a nil hub.
func (h *Hub) Broadcast(eventType string, customerID uint, payload interface{}) {
	if h == nil {
		return
	}
	data, err := json.Marshal(Event{Type: eventType, CustomerID: customerID, Payload: payload, At: time.Now()})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// client is not keeping up; it will be dropped by its write pump
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
