package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60

	// EventRegistrationCount is the event name of the live counter message.
	EventRegistrationCount = "registration_count"
)

// CountMessage is sent to every connected client when the registration count changes.
type CountMessage struct {
	Event string `json:"event"`
	Count int    `json:"count"`
}

// Hub keeps the connected websocket clients and fans out the registration count.
type Hub struct {
	clients map[string]*Client
	last    int
	mu      sync.RWMutex
	updates chan int
	logger  *zap.Logger
}

// NewHub creates a hub. Call Run to start broadcasting.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		updates: make(chan int, 1),
		logger:  logger,
	}
}

// PublishCount queues a new count for broadcast. It never blocks: when an
// update is already pending it is replaced by the newer one.
func (h *Hub) PublishCount(n int) {
	for {
		select {
		case h.updates <- n:
			return
		default:
		}
		select {
		case <-h.updates:
		default:
		}
	}
}

// Run broadcasts queued counts until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case n := <-h.updates:
			h.mu.Lock()
			h.last = n
			h.mu.Unlock()
			h.broadcast(CountMessage{Event: EventRegistrationCount, Count: n})
		}
	}
}

// Register adds a client and sends it the current count.
func (h *Hub) Register(c *Client, current int) {
	h.mu.Lock()
	h.clients[c.ID] = c
	if current > h.last {
		h.last = current
	}
	c.enqueue(CountMessage{Event: EventRegistrationCount, Count: h.last})
	h.mu.Unlock()
	h.logger.Debug("counter client connected", zap.String("client_id", c.ID))
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Debug("counter client disconnected", zap.String("client_id", c.ID))
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Last returns the most recently broadcast count.
func (h *Hub) Last() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

func (h *Hub) broadcast(msg CountMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(msg)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}
