package hist

import (
	"time"

	"github.com/tapesonic/tapesonic/tape"
)

// tradeWire is a historical trade as it appears on the wire.
type tradeWire struct {
	ID        int64     `json:"i"`
	Exchange  string    `json:"x"`
	Price     float64   `json:"p"`
	Size      uint32    `json:"s"`
	Timestamp time.Time `json:"t"`
	Tape      string    `json:"z"`
}

// quoteWire is a historical NBBO quote as it appears on the wire.
type quoteWire struct {
	BidExchange string    `json:"bx"`
	BidPrice    float64   `json:"bp"`
	BidSize     uint32    `json:"bs"`
	AskExchange string    `json:"ax"`
	AskPrice    float64   `json:"ap"`
	AskSize     uint32    `json:"as"`
	Timestamp   time.Time `json:"t"`
}

type tradeResponse struct {
	Trades        []tradeWire `json:"trades"`
	Symbol        string      `json:"symbol"`
	NextPageToken *string     `json:"next_page_token"`
}

type quoteResponse struct {
	Quotes        []quoteWire `json:"quotes"`
	Symbol        string      `json:"symbol"`
	NextPageToken *string     `json:"next_page_token"`
}

func (w tradeWire) toTrade(symbol string) tape.Trade {
	return tape.Trade{
		Symbol:    symbol,
		Price:     w.Price,
		Size:      w.Size,
		Timestamp: w.Timestamp,
	}
}

func (w quoteWire) toQuote(symbol string) tape.Quote {
	return tape.Quote{
		Symbol:    symbol,
		BidPrice:  w.BidPrice,
		BidSize:   w.BidSize,
		AskPrice:  w.AskPrice,
		AskSize:   w.AskSize,
		Timestamp: w.Timestamp,
	}
}

// TradeItem is one item in a paginated trade stream: either a trade or
// the error that ended the stream.
type TradeItem struct {
	Trade tape.Trade
	Error error
}

// QuoteItem is one item in a paginated quote stream.
type QuoteItem struct {
	Quote tape.Quote
	Error error
}
