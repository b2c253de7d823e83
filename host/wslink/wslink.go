// Package wslink carries the firmware's byte stream over a WebSocket,
// for boards reached through a network serial bridge
package wslink

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned when reading from a failed or closed connection
var ErrClosed = errors.New("websocket connection closed")

// Conn adapts a WebSocket to a byte stream. Each binary message is one
// chunk of the stream; other message types are skipped.
type Conn struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

// New wraps an established WebSocket connection
func New(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

func (c *Conn) Read(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}

	if c.bufOffset < len(c.buf) {
		n := copy(p, c.buf[c.bufOffset:])
		c.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.closed = true
			return 0, fmt.Errorf("%w: %v", ErrClosed, err)
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		c.buf = data
		n := copy(p, c.buf)
		c.bufOffset = n
		return n, nil
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// Options configures Dial
type Options struct {
	Username      string
	Password      string
	SkipSSLVerify bool // wss:// only
}

// Dial opens a ws:// or wss:// connection with optional HTTP Basic auth
func Dial(ctx context.Context, wsURL string, opts Options) (*Conn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}
	return New(conn), nil
}
