package tape

import (
	"math"

	"github.com/shopspring/decimal"
)

// Category says where a trade printed relative to the prevailing quote.
type Category int

const (
	AtAsk Category = iota
	AtBid
	AboveAsk
	BelowBid
	MidpointUnknownQuote
	MidpointEquidistant
	MidpointCloserToAsk
	MidpointCloserToBid
)

func (c Category) String() string {
	switch c {
	case AtAsk:
		return "at ask"
	case AtBid:
		return "at bid"
	case AboveAsk:
		return "above ask"
	case BelowBid:
		return "below bid"
	case MidpointUnknownQuote:
		return "midpoint (unknown quote)"
	case MidpointEquidistant:
		return "midpoint (equidistant)"
	case MidpointCloserToAsk:
		return "midpoint (closer to ask)"
	case MidpointCloserToBid:
		return "midpoint (closer to bid)"
	}
	return "unknown"
}

const (
	// Epsilon is the price tolerance for matching a trade to a quote side.
	Epsilon = 0.001
	// distanceEpsilon decides when a midpoint print counts as exactly
	// equidistant from both sides.
	distanceEpsilon = 1e-9
)

// The bands overlap at their edges, so rule order matters: the exact
// at-ask/at-bid matches are narrower than the above/below ranges and
// have to run first. First match wins.
var rules = []struct {
	match    func(price, bid, ask float64) bool
	category Category
}{
	{func(p, b, a float64) bool { return math.Abs(p-a) < Epsilon }, AtAsk},
	{func(p, b, a float64) bool { return math.Abs(p-b) < Epsilon }, AtBid},
	{func(p, b, a float64) bool { return p > a+Epsilon }, AboveAsk},
	{func(p, b, a float64) bool { return p < b-Epsilon }, BelowBid},
	{func(p, b, a float64) bool {
		return math.Abs(math.Abs(p-a)-math.Abs(p-b)) < distanceEpsilon
	}, MidpointEquidistant},
	{func(p, b, a float64) bool { return math.Abs(p-a) < math.Abs(p-b) }, MidpointCloserToAsk},
	{func(p, b, a float64) bool { return true }, MidpointCloserToBid},
}

// Classify places a trade price relative to the given quote. A nil or
// one-sided quote always yields MidpointUnknownQuote.
func Classify(price float64, q *Quote) Category {
	if q == nil || !q.Valid() {
		return MidpointUnknownQuote
	}
	for _, r := range rules {
		if r.match(price, q.BidPrice, q.AskPrice) {
			return r.category
		}
	}
	// unreachable, the last rule always matches
	return MidpointCloserToBid
}

// Classification is the outcome for a trade that cleared the minimum
// notional threshold.
type Classification struct {
	Category Category
	Big      bool
	Notional decimal.Decimal
}

// Evaluate classifies a trade against the prevailing quote and the
// notional thresholds. The second return is false when the trade is
// below the minimum notional and produces no cue at all.
func Evaluate(t Trade, q *Quote, th Thresholds) (Classification, bool) {
	notional := t.Notional()
	if notional.LessThan(th.Min) {
		return Classification{}, false
	}
	return Classification{
		Category: Classify(t.Price, q),
		Big:      notional.GreaterThanOrEqual(th.Big),
		Notional: notional,
	}, true
}
