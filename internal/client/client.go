// Package client talks to a running map server over its WebSocket endpoint.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/openhexmap/internal/hexmap"
)

// DefaultTimeout bounds a single request when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// ErrClosed is returned for requests on a closed or broken session. A session
// breaks when a request times out or fails to send.
var ErrClosed = errors.New("client: session closed")

// Client is one WebSocket session. Requests are answered in order, so
// Generate serializes them.
type Client struct {
	conn    *websocket.Conn
	replies chan hexmap.Result
	readErr error

	reqMu sync.Mutex
	done  chan struct{}
	once  sync.Once
}

// Dial opens a session. url is the ws:// or wss:// address of the /ws endpoint;
// header may carry an Origin.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: %w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{
		conn:    conn,
		replies: make(chan hexmap.Result),
		done:    make(chan struct{}),
	}
	go c.readMessages()
	return c, nil
}

// readMessages hands each reply to the waiting request until the session ends.
func (c *Client) readMessages() {
	defer close(c.replies)
	for {
		var res hexmap.Result
		if err := c.conn.ReadJSON(&res); err != nil {
			c.readErr = err
			return
		}
		select {
		case c.replies <- res:
		case <-c.done:
			return
		}
	}
}

// Generate sends one request and waits for its result. A result with
// Success false is returned as is, not as an error.
//
// Replies carry no request id, so a request abandoned by its context would
// leave its reply to be read by the next one. The session is closed instead
// and later calls return ErrClosed.
func (c *Client) Generate(ctx context.Context, req hexmap.Request) (hexmap.Result, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	select {
	case <-c.done:
		return hexmap.Result{}, ErrClosed
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	}
	if err := c.conn.WriteJSON(req); err != nil {
		c.Close()
		return hexmap.Result{}, fmt.Errorf("send request: %w", err)
	}

	select {
	case res, ok := <-c.replies:
		if !ok {
			if c.readErr != nil {
				return hexmap.Result{}, fmt.Errorf("%w: %v", ErrClosed, c.readErr)
			}
			return hexmap.Result{}, ErrClosed
		}
		return res, nil
	case <-ctx.Done():
		c.Close()
		return hexmap.Result{}, ctx.Err()
	case <-c.done:
		return hexmap.Result{}, ErrClosed
	}
}

// Close ends the session with a normal close frame. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}
