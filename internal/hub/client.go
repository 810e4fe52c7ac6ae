package hub

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/config"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// Client is one realtime connection. Outbound frames go through a bounded
// queue drained by WritePump; a full queue drops the frame.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Session *domain.Session

	send   chan []byte
	done   chan struct{}
	closed bool
	mu     sync.Mutex
	config config.WebSocketConfig
}

func NewClient(id string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	return &Client{
		ID:      id,
		Hub:     hub,
		Conn:    conn,
		Session: domain.NewSession(id),
		send:    make(chan []byte, cfg.SendBuffer),
		done:    make(chan struct{}),
		config:  cfg,
	}
}

// ConnID identifies the connection in logs and the registry.
func (c *Client) ConnID() string {
	return c.ID
}

// ReadPump reads frames in arrival order and hands each to handler. When
// the connection ends it closes the client, leaves the hub and calls
// onClose exactly once.
func (c *Client) ReadPump(ctx context.Context, handler func(context.Context, *Client, []byte), onClose func(context.Context, *Client)) {
	l := log.Ctx(ctx)
	defer func() {
		c.Close()
		c.Hub.Unregister(c)
		c.Conn.Close()
		if onClose != nil {
			onClose(ctx, c)
		}
	}()

	if c.config.MaxMessageSize > 0 {
		c.Conn.SetReadLimit(c.config.MaxMessageSize)
	}
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				l.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		handler(ctx, c, message)
	}
}

// WritePump drains the outbound queue and keeps the connection alive with
// pings until the client is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send queues data without blocking. It reports false when the client is
// closed or its queue is full.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close marks the client closed and stops WritePump. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// IsOpen reports whether the client still accepts frames.
func (c *Client) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Done is closed when the client closes.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
