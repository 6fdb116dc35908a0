package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tapesonic/tapesonic/tape"
)

func control(msgs ...controlMessage) []byte {
	b, err := msgpack.Marshal(msgs)
	if err != nil {
		panic(err)
	}
	return b
}

func handshakeClient(conn *mockConn) *client {
	c := NewClient(
		WithLogger(noopLogger{}),
		WithCredentials("key", "secret"),
		WithTrades(func(tape.Trade) {}, "TSLA"),
		WithQuotes(func(tape.Quote) {}, "TSLA"),
	).(*client)
	c.conn = conn
	return c
}

func TestInitializeSuccess(t *testing.T) {
	conn := newMockConn()
	conn.in <- control(controlMessage{Type: "success", Msg: "connected"})
	conn.in <- control(controlMessage{Type: "success", Msg: "authenticated"})
	conn.in <- control(controlMessage{Type: "subscription", Trades: []string{"TSLA"}, Quotes: []string{"TSLA"}})

	c := handshakeClient(conn)
	require.NoError(t, c.initialize(context.Background()))

	require.Len(t, conn.writes, 2)
	var auth map[string]string
	require.NoError(t, msgpack.Unmarshal(conn.writes[0], &auth))
	assert.Equal(t, map[string]string{"action": "auth", "key": "key", "secret": "secret"}, auth)

	var sub struct {
		Action string   `msgpack:"action"`
		Trades []string `msgpack:"trades"`
		Quotes []string `msgpack:"quotes"`
	}
	require.NoError(t, msgpack.Unmarshal(conn.writes[1], &sub))
	assert.Equal(t, "subscribe", sub.Action)
	assert.Equal(t, []string{"TSLA"}, sub.Trades)
	assert.Equal(t, []string{"TSLA"}, sub.Quotes)
}

func TestInitializeNoConnectedGreeting(t *testing.T) {
	conn := newMockConn()
	conn.in <- control(controlMessage{Type: "success", Msg: "authenticated"})

	c := handshakeClient(conn)
	assert.ErrorIs(t, c.initialize(context.Background()), ErrNoConnected)
}

func TestInitializeInvalidCredentials(t *testing.T) {
	conn := newMockConn()
	conn.in <- control(controlMessage{Type: "success", Msg: "connected"})
	conn.in <- control(controlMessage{Type: "error", Msg: "auth failed", Code: 402})

	c := handshakeClient(conn)
	assert.ErrorIs(t, c.initialize(context.Background()), ErrInvalidCredentials)
}

func TestInitializeOtherAuthError(t *testing.T) {
	conn := newMockConn()
	conn.in <- control(controlMessage{Type: "success", Msg: "connected"})
	conn.in <- control(controlMessage{Type: "error", Msg: "connection limit exceeded", Code: 406})

	c := handshakeClient(conn)
	err := c.initialize(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials, "a non-credential error must stay retriable")
}

func TestInitializeBadSubResponse(t *testing.T) {
	conn := newMockConn()
	conn.in <- control(controlMessage{Type: "success", Msg: "connected"})
	conn.in <- control(controlMessage{Type: "success", Msg: "authenticated"})
	conn.in <- control(controlMessage{Type: "success", Msg: "something else"})

	c := handshakeClient(conn)
	assert.ErrorIs(t, c.initialize(context.Background()), ErrBadSubResponse)
}
