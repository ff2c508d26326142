package notifications

import (
	"sync"
	"time"

	"conduit/internal/middleware"
	"conduit/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Conn is the subset of a websocket connection a Client drives.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one subscriber's activity stream. Frames queued with TrySend
// are written by Serve; the queue is closed exactly once by the hub.
type Client struct {
	UserID uint
	Send   chan []byte

	hub  *Hub
	conn Conn

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn Conn, userID uint) *Client {
	return &Client{
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
		hub:    hub,
		conn:   conn,
	}
}

// TrySend queues message without blocking. It reports false when the
// message was dropped because the queue is full or already closed.
func (c *Client) TrySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "closed").Inc()
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "full").Inc()
		middleware.Logger.Warn("activity queue full, dropped frame", "user_id", c.UserID)
		return false
	}
}

// closeQueue ends the stream; the writer sends a close frame once drained.
func (c *Client) closeQueue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.Send)
	return true
}

// Serve streams queued frames to the connection until the peer goes away or
// the hub closes the queue. It returns only after the writer has stopped
// touching the connection.
func (c *Client) Serve() {
	written := make(chan struct{})
	go func() {
		defer close(written)
		c.writeLoop()
	}()
	c.readLoop()
	<-written
}

// readLoop services pongs and close frames; the stream is push-only so any
// inbound payload is discarded.
func (c *Client) readLoop() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			middleware.Logger.Warn("activity stream read", "user_id", c.UserID, "error", err)
		}
		return
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		var (
			kind = websocket.PingMessage
			data []byte
		)
		select {
		case frame, ok := <-c.Send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			kind, data = websocket.TextMessage, frame
		case <-ping.C:
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}
