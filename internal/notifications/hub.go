package notifications

import (
	"context"
	"errors"
	"sync"

	"github.com/00xu00/blog/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	hubName         = "notifications"
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

var (
	ErrUserConnLimit  = errors.New("user connection limit reached")
	ErrTotalConnLimit = errors.New("server connection limit reached")
	ErrHubClosed      = errors.New("hub is shut down")
)

// Hub maps user ids to their open connections.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uint]map[*Client]struct{}
	total  int
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID. conn may be nil in tests.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxTotalConns {
		return nil, ErrTotalConnLimit
	}
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.conns[userID] = set
	}
	if len(set) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	c := newClient(h, conn, userID)
	set[c] = struct{}{}
	h.total++
	observability.WebSocketConnections.Set(float64(h.total))
	return c, nil
}

// Unregister removes c and closes its send channel. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.UserID]
	if !ok {
		return
	}
	if _, exists := set[c]; !exists {
		return
	}
	delete(set, c)
	close(c.send)
	h.total--
	if len(set) == 0 {
		delete(h.conns, c.UserID)
	}
	observability.WebSocketConnections.Set(float64(h.total))
}

// Deliver queues payload on every connection of userID and returns how
// many connections accepted it.
func (h *Hub) Deliver(userID uint, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.conns[userID] {
		if c.trySend(payload) {
			n++
		}
	}
	return n
}

// Connections returns the number of open connections of userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Start forwards every published user event to local connections.
func (h *Hub) Start(ctx context.Context, n *Notifier) error {
	return n.Subscribe(ctx, func(userID uint, payload string) {
		h.Deliver(userID, []byte(payload))
	})
}

// Shutdown closes every send channel; each WritePump then sends a close
// frame and exits.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for _, set := range h.conns {
		for c := range set {
			close(c.send)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	observability.WebSocketConnections.Set(0)
	return nil
}
