// Package hist fetches recorded trades and quotes over REST.
package hist

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/tapesonic/tapesonic/tape"
)

// ClientOpts are the REST client settings. Zero values fall back to
// environment variables and defaults.
type ClientOpts struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	Timeout    time.Duration
	RetryLimit int
	RetryDelay time.Duration
	// Feed is the data feed to query, e.g. "sip" or "iex".
	Feed string
}

// Client fetches historical market data for a symbol.
type Client interface {
	GetTrades(symbol string, params Params) ([]tape.Trade, error)
	GetTradesAsync(symbol string, params Params) <-chan TradeItem
	GetQuotes(symbol string, params Params) ([]tape.Quote, error)
	GetQuotesAsync(symbol string, params Params) <-chan QuoteItem
	GetTape(symbol string, params Params) ([]tape.Event, error)
}

type client struct {
	opts ClientOpts

	do func(c *client, req *http.Request) (*http.Response, error)
}

var _ Client = (*client)(nil)

// NewClient creates a REST client with the given options.
func NewClient(opts ClientOpts) Client {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("APCA_API_KEY_ID")
	}
	if opts.APISecret == "" {
		opts.APISecret = os.Getenv("APCA_API_SECRET_KEY")
	}
	if opts.BaseURL == "" {
		if s := os.Getenv("APCA_API_DATA_URL"); s != "" {
			opts.BaseURL = s
		} else {
			opts.BaseURL = "https://data.alpaca.markets"
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryLimit == 0 {
		opts.RetryLimit = 10
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Feed == "" {
		opts.Feed = "sip"
	}
	return &client{opts: opts, do: defaultDo}
}

func defaultDo(c *client, req *http.Request) (*http.Response, error) {
	req.Header.Set("APCA-API-KEY-ID", c.opts.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.opts.APISecret)

	httpClient := &http.Client{Timeout: c.opts.Timeout}
	var resp *http.Response
	var err error
	for i := 0; ; i++ {
		resp, err = httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || i >= c.opts.RetryLimit {
			break
		}
		resp.Body.Close()
		time.Sleep(c.opts.RetryDelay)
	}
	if err = verify(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *client) get(u *url.URL) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return c.do(c, req)
}

// APIError is a structured error returned by the data API.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

func verify(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	apiErr := APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return &apiErr
}

func unmarshal(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}
	return json.NewDecoder(reader).Decode(v)
}

// Params select the records to fetch.
type Params struct {
	Start time.Time
	End   time.Time
	// TotalLimit caps the total number of records. Zero means all.
	TotalLimit int
	// PageLimit caps a single page. Zero uses the server maximum.
	PageLimit int
	// Feed overrides the client's configured feed.
	Feed string
}

const maxPageLimit = 10000

func (c *client) setBaseQuery(q url.Values, params Params) {
	if !params.Start.IsZero() {
		q.Set("start", params.Start.Format(time.RFC3339Nano))
	}
	if !params.End.IsZero() {
		q.Set("end", params.End.Format(time.RFC3339Nano))
	}
	feed := params.Feed
	if feed == "" {
		feed = c.opts.Feed
	}
	q.Set("feed", feed)
}

func setQueryLimit(q url.Values, totalLimit, pageLimit, received int) {
	limit := maxPageLimit
	if pageLimit != 0 && pageLimit < limit {
		limit = pageLimit
	}
	if totalLimit != 0 {
		remaining := totalLimit - received
		if remaining <= 0 {
			return
		}
		if remaining < limit {
			limit = remaining
		}
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
}

// GetTradesAsync streams the trades for symbol between params.Start
// and params.End, following page tokens.
func (c *client) GetTradesAsync(symbol string, params Params) <-chan TradeItem {
	ch := make(chan TradeItem)

	go func() {
		defer close(ch)

		u, err := url.Parse(fmt.Sprintf("%s/v2/stocks/%s/trades", c.opts.BaseURL, symbol))
		if err != nil {
			ch <- TradeItem{Error: err}
			return
		}
		q := u.Query()
		c.setBaseQuery(q, params)

		received := 0
		for {
			setQueryLimit(q, params.TotalLimit, params.PageLimit, received)
			u.RawQuery = q.Encode()

			resp, err := c.get(u)
			if err != nil {
				ch <- TradeItem{Error: err}
				return
			}
			var page tradeResponse
			if err := unmarshal(resp, &page); err != nil {
				ch <- TradeItem{Error: err}
				return
			}
			for _, w := range page.Trades {
				ch <- TradeItem{Trade: w.toTrade(symbol)}
			}
			received += len(page.Trades)
			if page.NextPageToken == nil {
				return
			}
			if params.TotalLimit != 0 && received >= params.TotalLimit {
				return
			}
			q.Set("page_token", *page.NextPageToken)
		}
	}()

	return ch
}

// GetTrades collects the result of GetTradesAsync.
func (c *client) GetTrades(symbol string, params Params) ([]tape.Trade, error) {
	var trades []tape.Trade
	for item := range c.GetTradesAsync(symbol, params) {
		if item.Error != nil {
			return nil, item.Error
		}
		trades = append(trades, item.Trade)
	}
	return trades, nil
}

// GetQuotesAsync streams the quotes for symbol between params.Start
// and params.End, following page tokens.
func (c *client) GetQuotesAsync(symbol string, params Params) <-chan QuoteItem {
	ch := make(chan QuoteItem)

	go func() {
		defer close(ch)

		u, err := url.Parse(fmt.Sprintf("%s/v2/stocks/%s/quotes", c.opts.BaseURL, symbol))
		if err != nil {
			ch <- QuoteItem{Error: err}
			return
		}
		q := u.Query()
		c.setBaseQuery(q, params)

		received := 0
		for {
			setQueryLimit(q, params.TotalLimit, params.PageLimit, received)
			u.RawQuery = q.Encode()

			resp, err := c.get(u)
			if err != nil {
				ch <- QuoteItem{Error: err}
				return
			}
			var page quoteResponse
			if err := unmarshal(resp, &page); err != nil {
				ch <- QuoteItem{Error: err}
				return
			}
			for _, w := range page.Quotes {
				ch <- QuoteItem{Quote: w.toQuote(symbol)}
			}
			received += len(page.Quotes)
			if page.NextPageToken == nil {
				return
			}
			if params.TotalLimit != 0 && received >= params.TotalLimit {
				return
			}
			q.Set("page_token", *page.NextPageToken)
		}
	}()

	return ch
}

// GetQuotes collects the result of GetQuotesAsync.
func (c *client) GetQuotes(symbol string, params Params) ([]tape.Quote, error) {
	var quotes []tape.Quote
	for item := range c.GetQuotesAsync(symbol, params) {
		if item.Error != nil {
			return nil, item.Error
		}
		quotes = append(quotes, item.Quote)
	}
	return quotes, nil
}
