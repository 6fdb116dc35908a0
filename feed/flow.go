package feed

import (
	"context"
	"errors"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const initializeTimeout = 3 * time.Second

// initialize runs the session handshake on a fresh connection:
// connected greeting, auth, subscribe.
func (c *client) initialize(ctx context.Context) error {
	if err := c.readConnected(ctx); err != nil {
		return err
	}
	if err := c.writeAuth(ctx); err != nil {
		return err
	}
	if err := c.readAuthResponse(ctx); err != nil {
		return err
	}
	if err := c.writeSub(ctx); err != nil {
		return err
	}
	return c.readSubResponse(ctx)
}

// controlMessage is a handshake reply. Replies arrive as single
// element arrays.
type controlMessage struct {
	Type   string   `msgpack:"T"`
	Msg    string   `msgpack:"msg"`
	Code   int      `msgpack:"code"`
	Trades []string `msgpack:"trades"`
	Quotes []string `msgpack:"quotes"`
}

func (c *client) readControl(ctx context.Context) (controlMessage, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	b, err := c.conn.readMessage(ctxWithTimeout)
	if err != nil {
		return controlMessage{}, err
	}
	var msgs []controlMessage
	if err := msgpack.Unmarshal(b, &msgs); err != nil {
		return controlMessage{}, err
	}
	if len(msgs) == 0 {
		return controlMessage{}, errors.New("feed: empty control message")
	}
	return msgs[0], nil
}

func (c *client) write(ctx context.Context, msg interface{}) error {
	b, err := msgpack.Marshal(msg)
	if err != nil {
		return err
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()
	return c.conn.writeMessage(ctxWithTimeout, b)
}

func (c *client) readConnected(ctx context.Context) error {
	m, err := c.readControl(ctx)
	if err != nil {
		return err
	}
	if m.Type != "success" || m.Msg != "connected" {
		return ErrNoConnected
	}
	return nil
}

func (c *client) writeAuth(ctx context.Context) error {
	return c.write(ctx, map[string]string{
		"action": "auth",
		"key":    c.key,
		"secret": c.secret,
	})
}

func (c *client) readAuthResponse(ctx context.Context) error {
	m, err := c.readControl(ctx)
	if err != nil {
		return err
	}
	switch {
	case m.Type == "error":
		if m.Code == errCodeInvalidCredentials {
			return ErrInvalidCredentials
		}
		return errorMessage{msg: m.Msg, code: m.Code}
	case m.Type != "success" || m.Msg != "authenticated":
		return ErrBadAuthResponse
	}
	return nil
}

func (c *client) writeSub(ctx context.Context) error {
	return c.write(ctx, map[string]interface{}{
		"action": "subscribe",
		"trades": c.trades,
		"quotes": c.quotes,
	})
}

func (c *client) readSubResponse(ctx context.Context) error {
	m, err := c.readControl(ctx)
	if err != nil {
		return err
	}
	if m.Type == "error" {
		return errorMessage{msg: m.Msg, code: m.Code}
	}
	if m.Type != "subscription" {
		return ErrBadSubResponse
	}
	c.logger.Infof("feed: subscribed to trades %v, quotes %v", m.Trades, m.Quotes)
	return nil
}
