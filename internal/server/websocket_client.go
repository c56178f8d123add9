package server

import (
	"bytes"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// WebSocketClient wraps a streaming generation session.
type WebSocketClient struct {
	conn *websocket.Conn
	ip   string

	writeMu sync.Mutex
}

// NewWebSocketClient wraps conn and applies the message size limit.
func NewWebSocketClient(conn *websocket.Conn, ip string, maxMessageSize int64) *WebSocketClient {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &WebSocketClient{conn: conn, ip: ip}
}

// ReadMessage blocks until the next non-blank text message.
func (c *WebSocketClient) ReadMessage() ([]byte, error) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if trimmed := bytes.TrimSpace(msg); len(trimmed) > 0 {
			return trimmed, nil
		}
	}
}

// WriteJSON sends v as a text message. Safe for concurrent use.
func (c *WebSocketClient) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(v)
}

// CloseWith sends a close frame and closes the connection.
func (c *WebSocketClient) CloseWith(code int, reason string) error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}

// Close closes the connection without a close frame.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// IP returns the client IP the session was admitted under.
func (c *WebSocketClient) IP() string {
	return c.ip
}
