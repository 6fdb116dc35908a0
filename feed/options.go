package feed

import (
	"context"
	"net/url"
	"os"
	"time"

	"github.com/tapesonic/tapesonic/tape"
)

// Option configures the stream client.
type Option interface {
	apply(*options)
}

type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{f: f}
}

type options struct {
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
}

func defaultOptions() *options {
	baseURL := "https://stream.data.alpaca.markets/v2"
	if s := os.Getenv("DATA_PROXY_WS"); s != "" {
		baseURL = s
	}
	return &options{
		logger:         tape.DefaultLogger(),
		baseURL:        baseURL,
		feed:           "sip",
		key:            os.Getenv("APCA_API_KEY_ID"),
		secret:         os.Getenv("APCA_API_SECRET_KEY"),
		reconnectLimit: 20,
		reconnectDelay: 150 * time.Millisecond,
		bufferSize:     4096,
		connCreator:    newNhooyrWebsocketConn,
	}
}

func (o *options) applyAll(opts ...Option) {
	for _, opt := range opts {
		opt.apply(o)
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(logger tape.Logger) Option {
	return newFuncOption(func(o *options) {
		o.logger = logger
	})
}

// WithBaseURL overrides the stream endpoint.
func WithBaseURL(baseURL string) Option {
	return newFuncOption(func(o *options) {
		o.baseURL = baseURL
	})
}

// WithFeed selects the data feed, e.g. "sip" or "iex".
func WithFeed(feed string) Option {
	return newFuncOption(func(o *options) {
		o.feed = feed
	})
}

// WithCredentials overrides the environment credentials.
func WithCredentials(key, secret string) Option {
	return newFuncOption(func(o *options) {
		o.key = key
		o.secret = secret
	})
}

// WithReconnectSettings bounds the reconnect loop: limit consecutive
// failed attempts (0 means unlimited) with a fixed delay between them.
func WithReconnectSettings(limit int, delay time.Duration) Option {
	return newFuncOption(func(o *options) {
		o.reconnectLimit = limit
		o.reconnectDelay = delay
	})
}

// WithBufferSize sets the decoded message buffer size.
func WithBufferSize(size int) Option {
	return newFuncOption(func(o *options) {
		o.bufferSize = size
	})
}

// WithTrades subscribes to trades for the given symbols.
func WithTrades(handler func(tape.Trade), symbols ...string) Option {
	return newFuncOption(func(o *options) {
		o.tradeHandler = handler
		o.trades = symbols
	})
}

// WithQuotes subscribes to quotes for the given symbols.
func WithQuotes(handler func(tape.Quote), symbols ...string) Option {
	return newFuncOption(func(o *options) {
		o.quoteHandler = handler
		o.quotes = symbols
	})
}

// withConnCreator swaps the transport, used in tests.
func withConnCreator(creator func(ctx context.Context, u url.URL) (conn, error)) Option {
	return newFuncOption(func(o *options) {
		o.connCreator = creator
	})
}
