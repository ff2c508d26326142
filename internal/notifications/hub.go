package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"conduit/internal/middleware"
	"conduit/internal/observability"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrHubClosed       = errors.New("notification hub is shut down")
)

// Hub maps userID -> connected websocket clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "activity hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send queue. Calling it twice is harmless.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	client.closeQueue()
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast sends message to all connections for userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	if !ok {
		return
	}
	data := []byte(message)
	for c := range clients {
		if c.TrySend(data) {
			observability.WebSocketEventsTotal.WithLabelValues("activity").Inc()
		}
	}
}

// Connections returns the number of live clients for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring subscribes the hub to every user channel of n.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		var userID uint
		if !strings.HasPrefix(channel, "notifications:user:") {
			middleware.Logger.Warn("invalid notification channel", "channel", channel)
			return
		}
		if _, err := fmt.Sscanf(channel, "notifications:user:%d", &userID); err != nil {
			middleware.Logger.Warn("invalid notification channel", "channel", channel)
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every websocket connection and refuses new ones.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	// Closing the queue makes each writer send a going-away frame and
	// release its connection.
	for _, userConns := range h.conns {
		for client := range userConns {
			observability.WebSocketConnectionsTotal.Dec()
			client.closeQueue()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
