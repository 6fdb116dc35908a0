// Package feed streams live trades and quotes over a websocket.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/tapesonic/tapesonic/tape"
)

// Client is a live stream client. Connect establishes the connection
// and keeps it alive in the background; Terminated fires when the
// client gives up for good.
type Client interface {
	Connect(ctx context.Context) error
	Terminated() <-chan error
}

type client struct {
	logger         tape.Logger
	baseURL        string
	feed           string
	key            string
	secret         string
	reconnectLimit int
	reconnectDelay time.Duration
	bufferSize     int
	trades         []string
	quotes         []string
	tradeHandler   func(tape.Trade)
	quoteHandler   func(tape.Quote)
	connCreator    func(ctx context.Context, u url.URL) (conn, error)

	connectOnce sync.Once
	terminated  chan error
	conn        conn
	in          chan []byte
}

var _ Client = (*client)(nil)

// NewClient creates a stream client configured by opts.
func NewClient(opts ...Option) Client {
	o := defaultOptions()
	o.applyAll(opts...)
	return &client{
		logger:         o.logger,
		baseURL:        o.baseURL,
		feed:           o.feed,
		key:            o.key,
		secret:         o.secret,
		reconnectLimit: o.reconnectLimit,
		reconnectDelay: o.reconnectDelay,
		bufferSize:     o.bufferSize,
		trades:         o.trades,
		quotes:         o.quotes,
		tradeHandler:   o.tradeHandler,
		quoteHandler:   o.quoteHandler,
		connCreator:    o.connCreator,
		terminated:     make(chan error, 1),
	}
}

// Connect dials the stream, authenticates, subscribes and starts the
// background goroutines that keep the connection alive. It blocks
// until the first connection attempt settles.
func (c *client) Connect(ctx context.Context) error {
	u, err := c.constructURL()
	if err != nil {
		return err
	}
	err = ErrConnectCalledMultipleTimes
	c.connectOnce.Do(func() {
		initialResult := make(chan error)
		go c.maintainConnection(ctx, u, initialResult)
		err = <-initialResult
	})
	return err
}

// Terminated returns a channel that receives once: the error the
// client died with, or nil on a clean context-driven shutdown.
func (c *client) Terminated() <-chan error {
	return c.terminated
}

func (c *client) constructURL() (url.URL, error) {
	u, err := url.Parse(c.baseURL + "/" + c.feed)
	if err != nil {
		return url.URL{}, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return *u, nil
}

// maintainConnection dials, initializes and babysits the connection,
// redialing after failures until the consecutive-failure limit is
// exhausted. The counter resets on every successful connection.
func (c *client) maintainConnection(ctx context.Context, u url.URL, initialResult chan<- error) {
	connectedAtLeastOnce := false
	failedAttemptsInARow := 0
	var connError error

	sendError := func(err error) {
		if connectedAtLeastOnce {
			c.terminated <- err
		} else {
			initialResult <- err
		}
	}

	for {
		select {
		case <-ctx.Done():
			if connectedAtLeastOnce {
				c.terminated <- nil
			} else {
				initialResult <- fmt.Errorf(
					"feed: cancelled before connection could be established, last error: %w", connError)
			}
			return
		default:
		}

		if c.reconnectLimit != 0 && failedAttemptsInARow >= c.reconnectLimit {
			sendError(fmt.Errorf("feed: exhausted %d connection attempts, last error: %w",
				failedAttemptsInARow, connError))
			return
		}
		if failedAttemptsInARow > 0 {
			c.logger.Warnf("feed: connection attempt %d/%d failed, retrying in %s",
				failedAttemptsInARow, c.reconnectLimit, c.reconnectDelay)
			sleepFor(ctx, c.reconnectDelay)
		}
		failedAttemptsInARow++

		conn, err := c.connCreator(ctx, u)
		if err != nil {
			connError = err
			continue
		}
		c.conn = conn

		if err := c.initialize(ctx); err != nil {
			connError = err
			c.conn.close()
			if errors.Is(err, ErrInvalidCredentials) {
				sendError(err)
				return
			}
			continue
		}

		connError = nil
		failedAttemptsInARow = 0
		if connectedAtLeastOnce {
			c.logger.Infof("feed: reconnected")
		} else {
			initialResult <- nil
			connectedAtLeastOnce = true
		}

		c.in = make(chan []byte, c.bufferSize)
		wg := sync.WaitGroup{}
		wg.Add(3)
		pingerDone := make(chan struct{})
		go c.connPinger(ctx, &wg, pingerDone)
		go c.connReader(ctx, &wg, pingerDone)
		go c.messageProcessor(&wg)
		wg.Wait()

		if ctx.Err() != nil {
			c.terminated <- nil
			return
		}
		c.logger.Warnf("feed: connection lost, reconnecting")
	}
}

const pingPeriod = 5 * time.Second

// connPinger pings periodically and kills the connection when a ping
// fails, which unblocks the reader.
func (c *client) connPinger(ctx context.Context, wg *sync.WaitGroup, done <-chan struct{}) {
	defer wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := c.conn.ping(ctx); err != nil {
				if ctx.Err() == nil {
					c.logger.Warnf("feed: ping failed: %v", err)
				}
				c.conn.close()
				return
			}
		}
	}
}

// connReader reads raw messages into the buffer. On exit it tears the
// connection down and closes the buffer so the processor drains out.
func (c *client) connReader(ctx context.Context, wg *sync.WaitGroup, pingerDone chan struct{}) {
	defer func() {
		close(pingerDone)
		close(c.in)
		c.conn.close()
		wg.Done()
	}()
	for {
		msg, err := c.conn.readMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warnf("feed: reading from conn failed: %v", err)
			}
			return
		}
		c.in <- msg
	}
}

// messageProcessor is the single goroutine decoding and dispatching
// messages, which keeps handler invocations in arrival order.
func (c *client) messageProcessor(wg *sync.WaitGroup) {
	defer wg.Done()
	for msg := range c.in {
		if err := c.handleMessage(msg); err != nil {
			c.logger.Errorf("feed: could not handle message: %v", err)
		}
	}
}

func sleepFor(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
