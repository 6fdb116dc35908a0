package hist

import (
	"context"

	"github.com/tapesonic/tapesonic/replay"
	"github.com/tapesonic/tapesonic/tape"
)

// GetTape fetches the trades and quotes for symbol in one window and
// merges them into a single timestamp-ordered event list. At equal
// timestamps the quote sorts first, so a trade is always classified
// against the book that was standing when it printed.
func (c *client) GetTape(symbol string, params Params) ([]tape.Event, error) {
	trades, err := c.GetTrades(symbol, params)
	if err != nil {
		return nil, err
	}
	quotes, err := c.GetQuotes(symbol, params)
	if err != nil {
		return nil, err
	}
	return mergeTape(trades, quotes), nil
}

func mergeTape(trades []tape.Trade, quotes []tape.Quote) []tape.Event {
	events := make([]tape.Event, 0, len(trades)+len(quotes))
	i, j := 0, 0
	for i < len(trades) || j < len(quotes) {
		takeQuote := j < len(quotes) &&
			(i >= len(trades) || !quotes[j].Timestamp.After(trades[i].Timestamp))
		if takeQuote {
			q := quotes[j]
			events = append(events, tape.Event{Quote: &q})
			j++
		} else {
			t := trades[i]
			events = append(events, tape.Event{Trade: &t})
			i++
		}
	}
	return events
}

// WindowSource adapts a Client to the replay scheduler's Source.
type WindowSource struct {
	Client Client
	Symbol string
	Feed   string
}

func (s *WindowSource) FetchWindow(_ context.Context, w replay.Window) ([]tape.Event, error) {
	return s.Client.GetTape(s.Symbol, Params{Start: w.Start, End: w.End, Feed: s.Feed})
}
