package tape

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a single trade print.
type Trade struct {
	Symbol    string
	Price     float64
	Size      uint32
	Timestamp time.Time
}

// Notional returns the dollar value of the print (price × size).
func (t Trade) Notional() decimal.Decimal {
	return decimal.NewFromFloat(t.Price).Mul(decimal.NewFromInt(int64(t.Size)))
}

// Quote is a top-of-book bid/ask pair.
type Quote struct {
	Symbol    string
	BidPrice  float64
	BidSize   uint32
	AskPrice  float64
	AskSize   uint32
	Timestamp time.Time
}

// Valid reports whether both sides of the quote are known. A quote with
// only one side populated carries no usable market and is treated as
// entirely unknown.
func (q Quote) Valid() bool {
	return q.BidPrice > 0 && q.AskPrice > 0
}

// Event is a single decoded feed record. Either field may be nil; a
// combined record carries both, and the quote side is always applied
// before the trade side.
type Event struct {
	Quote *Quote
	Trade *Trade
}

// Time returns the event's timestamp, preferring the trade side of a
// combined record.
func (e Event) Time() time.Time {
	if e.Trade != nil {
		return e.Trade.Timestamp
	}
	if e.Quote != nil {
		return e.Quote.Timestamp
	}
	return time.Time{}
}

// Thresholds are the notional cutoffs for emitting a cue. They are
// validated once at startup and never change during a run.
type Thresholds struct {
	// Min is the smallest notional worth reporting at all.
	Min decimal.Decimal
	// Big is the notional at which a trade gets the emphasized cue.
	Big decimal.Decimal
}

var (
	ErrNegativeThreshold = errors.New("thresholds must not be negative")
	ErrThresholdOrder    = errors.New("big threshold must not be below the minimum threshold")
)

func (t Thresholds) Validate() error {
	if t.Min.IsNegative() || t.Big.IsNegative() {
		return ErrNegativeThreshold
	}
	if t.Big.LessThan(t.Min) {
		return ErrThresholdOrder
	}
	return nil
}
