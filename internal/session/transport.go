package session

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

const defaultReadLimit = 4 << 20

// Conn is one established, message-oriented connection.
//
// Read is only called from a single goroutine; Write, Ping and Close may be called concurrently with it.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Dialer establishes a [Conn].
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialFunc adapts a function to [Dialer].
type DialFunc func(ctx context.Context) (Conn, error)

func (f DialFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

// WebSocketDialer dials the backend's websocket endpoint.
type WebSocketDialer struct {
	URL       string
	Header    http.Header
	ReadLimit int64
}

// NewWebSocketDialer creates a dialer for url.
func NewWebSocketDialer(url string) *WebSocketDialer {
	return &WebSocketDialer{URL: url, Header: http.Header{}, ReadLimit: defaultReadLimit}
}

// Dial opens the websocket. Rejected handshakes report [shared.ErrNotAuthenticated]; other failures report [shared.ErrServiceUnavailable].
func (d *WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	conn, resp, err := websocket.Dial(ctx, d.URL, &websocket.DialOptions{HTTPHeader: d.Header})
	if err != nil {
		return nil, formatDialError(resp, err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	return NewWebSocketConn(conn), nil
}

func formatDialError(resp *http.Response, err error) error {
	if resp == nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if resp.Body != nil {
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: websocket handshake rejected (%s)", shared.ErrNotAuthenticated, resp.Status)
	}
	return fmt.Errorf("%w: websocket connection failed (%s): %v", shared.ErrServiceUnavailable, resp.Status, err)
}

type wsConn struct {
	conn *websocket.Conn
}

// NewWebSocketConn adapts an accepted or dialed [websocket.Conn] to [Conn].
func NewWebSocketConn(c *websocket.Conn) Conn {
	return &wsConn{conn: c}
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	return data, err
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.conn.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Ping(ctx context.Context) error {
	return w.conn.Ping(ctx)
}

func (w *wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "client closed")
}
