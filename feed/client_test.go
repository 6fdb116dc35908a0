package feed

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tapesonic/tapesonic/tape"
)

type noopLogger struct{}

func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

type mockConn struct {
	in        chan []byte
	writesMu  sync.Mutex
	writes    [][]byte
	closeOnce sync.Once
	done      chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{
		in:   make(chan []byte, 16),
		done: make(chan struct{}),
	}
}

func (c *mockConn) close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *mockConn) ping(ctx context.Context) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (c *mockConn) readMessage(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, errors.New("connection closed")
	case b := <-c.in:
		return b, nil
	}
}

func (c *mockConn) writeMessage(ctx context.Context, data []byte) error {
	c.writesMu.Lock()
	c.writes = append(c.writes, data)
	c.writesMu.Unlock()
	return nil
}

func (c *mockConn) queueHandshake() {
	c.in <- control(controlMessage{Type: "success", Msg: "connected"})
	c.in <- control(controlMessage{Type: "success", Msg: "authenticated"})
	c.in <- control(controlMessage{Type: "subscription", Trades: []string{"TSLA"}, Quotes: []string{"TSLA"}})
}

func TestConnectAndShutdown(t *testing.T) {
	mc := newMockConn()
	mc.queueHandshake()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(
		WithLogger(noopLogger{}),
		WithCredentials("key", "secret"),
		withConnCreator(func(ctx context.Context, u url.URL) (conn, error) {
			return mc, nil
		}),
	)

	require.NoError(t, c.Connect(ctx))
	assert.ErrorIs(t, c.Connect(ctx), ErrConnectCalledMultipleTimes)

	cancel()
	select {
	case err := <-c.Terminated():
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("client did not terminate after cancellation")
	}
}

func TestConnectExhaustsRetries(t *testing.T) {
	var attempts int32
	dialErr := errors.New("dial refused")

	c := NewClient(
		WithLogger(noopLogger{}),
		WithCredentials("key", "secret"),
		WithReconnectSettings(3, time.Millisecond),
		withConnCreator(func(ctx context.Context, u url.URL) (conn, error) {
			atomic.AddInt32(&attempts, 1)
			return nil, dialErr
		}),
	)

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, dialErr)
	assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))
}

func TestConnectInvalidCredentialsIsTerminal(t *testing.T) {
	var attempts int32
	c := NewClient(
		WithLogger(noopLogger{}),
		WithCredentials("key", "wrong"),
		WithReconnectSettings(10, time.Millisecond),
		withConnCreator(func(ctx context.Context, u url.URL) (conn, error) {
			atomic.AddInt32(&attempts, 1)
			mc := newMockConn()
			mc.in <- control(controlMessage{Type: "success", Msg: "connected"})
			mc.in <- control(controlMessage{Type: "error", Msg: "auth failed", Code: 402})
			return mc, nil
		}),
	)

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.EqualValues(t, 1, atomic.LoadInt32(&attempts), "bad credentials must not be retried")
}

func TestReconnectAfterConnectionLoss(t *testing.T) {
	var mu sync.Mutex
	var conns []*mockConn

	creator := func(ctx context.Context, u url.URL) (conn, error) {
		mc := newMockConn()
		mc.queueHandshake()
		mu.Lock()
		conns = append(conns, mc)
		mu.Unlock()
		return mc, nil
	}

	received := make(chan tape.Trade, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewClient(
		WithLogger(noopLogger{}),
		WithCredentials("key", "secret"),
		WithReconnectSettings(5, time.Millisecond),
		WithTrades(func(tr tape.Trade) { received <- tr }, "TSLA"),
		withConnCreator(creator),
	)
	require.NoError(t, c.Connect(ctx))

	// kill the first connection and wait for the redial
	mu.Lock()
	first := conns[0]
	mu.Unlock()
	first.close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(conns) >= 2
	}, time.Second, time.Millisecond)

	// the new connection must be live end to end
	ts := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	b, err := msgpack.Marshal([]tradeMsg{{Type: "t", Symbol: "TSLA", Price: 100.05, Size: 500, Timestamp: ts}})
	require.NoError(t, err)
	mu.Lock()
	second := conns[1]
	mu.Unlock()
	second.in <- b

	select {
	case tr := <-received:
		assert.Equal(t, 100.05, tr.Price)
	case <-time.After(time.Second):
		t.Fatal("trade was not delivered after reconnect")
	}
}

func TestConstructURL(t *testing.T) {
	for _, tt := range []struct {
		baseURL  string
		expected string
	}{
		{baseURL: "https://stream.data.example.com/v2", expected: "wss://stream.data.example.com/v2/sip"},
		{baseURL: "http://localhost:8080/v2", expected: "ws://localhost:8080/v2/sip"},
	} {
		c := NewClient(WithLogger(noopLogger{}), WithBaseURL(tt.baseURL)).(*client)
		u, err := c.constructURL()
		require.NoError(t, err)
		assert.Equal(t, tt.expected, u.String())
	}
}
