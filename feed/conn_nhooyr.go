package feed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"nhooyr.io/websocket"
)

type nhooyrWebsocketConn struct {
	conn *websocket.Conn
}

const (
	dialTimeout = 10 * time.Second
	readLimit   = 1024 * 1024
)

// newNhooyrWebsocketConn dials u and returns a binary-message conn.
func newNhooyrWebsocketConn(ctx context.Context, u url.URL) (conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	c, _, err := websocket.Dial(dialCtx, u.String(), &websocket.DialOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", u.String(), err)
	}
	c.SetReadLimit(readLimit)

	return &nhooyrWebsocketConn{conn: c}, nil
}

func (c *nhooyrWebsocketConn) close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

func (c *nhooyrWebsocketConn) ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *nhooyrWebsocketConn) readMessage(ctx context.Context) ([]byte, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageBinary {
		return nil, fmt.Errorf("unexpected message type: %d", typ)
	}
	return data, nil
}

func (c *nhooyrWebsocketConn) writeMessage(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageBinary, data)
}
