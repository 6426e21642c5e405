package net

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Dialer opens the byte stream to a login or game server.
type Dialer interface {
	DialContext(ctx context.Context, addr string) (net.Conn, error)
}

const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// NewDialer returns the dialer for a configured transport name.
func NewDialer(transport string, timeout time.Duration) (Dialer, error) {
	switch transport {
	case "", TransportTCP:
		return &TCPDialer{Timeout: timeout}, nil
	case TransportWebSocket:
		return &WebSocketDialer{Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

// TCPDialer dials plain TCP.
type TCPDialer struct {
	Timeout time.Duration
}

func (d *TCPDialer) DialContext(ctx context.Context, addr string) (net.Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
	}
	return conn, nil
}

// WebSocketDialer tunnels the stream through binary websocket messages, for
// shards reachable only through a websocket gateway.
type WebSocketDialer struct {
	Timeout time.Duration
	Path    string
}

func (d *WebSocketDialer) DialContext(ctx context.Context, addr string) (net.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.Timeout}
	path := d.Path
	if path == "" {
		path = "/"
	}
	ws, _, err := dialer.DialContext(ctx, "ws://"+addr+path, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", addr, err)
	}
	return &wsConn{ws: ws}, nil
}

// wsConn presents a websocket connection as a byte stream. Message
// boundaries carry no meaning; frames may span messages.
type wsConn struct {
	ws      *websocket.Conn
	r       io.Reader
	writeMu sync.Mutex
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			mt, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			c.r = r
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error                       { return c.ws.Close() }
func (c *wsConn) LocalAddr() net.Addr                { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr               { return c.ws.RemoteAddr() }
func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}
