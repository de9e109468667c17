// Package realtime pushes the live registration count to browsers over websocket.
package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the counter is public
	},
}

// Counter reports the current number of registrations.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Client is a single websocket connection watching the counter.
type Client struct {
	ID     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan CountMessage
	logger *zap.Logger
}

// ServeWs upgrades the request and streams count updates until the peer goes away.
func ServeWs(hub *Hub, counter Counter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		current, err := counter.Count(c.Request.Context())
		if err != nil {
			logger.Warn("count unavailable for websocket client", zap.Error(err))
			current = hub.Last()
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			hub:    hub,
			conn:   conn,
			send:   make(chan CountMessage, 16),
			logger: logger,
		}
		hub.Register(client, current)
		go client.writePump()
		client.readPump()
	}
}

// enqueue drops the message when the client is too slow; the next update supersedes it.
func (c *Client) enqueue(msg CountMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

// readPump only services control frames; clients have nothing to say.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
