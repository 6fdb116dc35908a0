package tape

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Sonifier plays the audio cue for a classified trade. Implementations
// must not block the caller.
type Sonifier interface {
	Play(category Category, big bool)
}

// Processor routes decoded feed events: quotes into the cache, trades
// through classification and out to the sonifier and console.
type Processor struct {
	thresholds Thresholds
	quotes     *QuoteCache
	sonifier   Sonifier
	logger     Logger
	out        io.Writer
	loc        *time.Location
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

func WithLogger(logger Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

// WithOutput redirects the console lines, mainly for tests.
func WithOutput(w io.Writer) ProcessorOption {
	return func(p *Processor) { p.out = w }
}

// WithLocation sets the timezone trade timestamps are rendered in.
func WithLocation(loc *time.Location) ProcessorOption {
	return func(p *Processor) { p.loc = loc }
}

func NewProcessor(th Thresholds, quotes *QuoteCache, sonifier Sonifier, opts ...ProcessorOption) *Processor {
	p := &Processor{
		thresholds: th,
		quotes:     quotes,
		sonifier:   sonifier,
		logger:     DefaultLogger(),
		out:        color.Output,
		loc:        displayLocation(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func displayLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// HandleQuote stores a two-sided quote in the cache. One-sided quotes
// carry no usable market and are dropped.
func (p *Processor) HandleQuote(q Quote) {
	if !q.Valid() {
		p.logger.Infof("tape: dropping one-sided quote for %s (bid=%g ask=%g)",
			q.Symbol, q.BidPrice, q.AskPrice)
		return
	}
	p.quotes.Update(q)
}

// HandleTrade classifies a trade against the latest cached quote and,
// if it clears the minimum notional, plays its cue and prints a line.
func (p *Processor) HandleTrade(t Trade) {
	if t.Price <= 0 || t.Size == 0 {
		p.logger.Infof("tape: dropping trade for %s with missing price or size", t.Symbol)
		return
	}
	var quote *Quote
	if q, ok := p.quotes.Get(t.Symbol); ok {
		quote = &q
	}
	res, ok := Evaluate(t, quote, p.thresholds)
	if !ok {
		return
	}
	p.sonifier.Play(res.Category, res.Big)
	p.print(t, res)
}

// Process handles a single event. A combined record applies its quote
// side first so the trade is judged against the book it printed into.
func (p *Processor) Process(e Event) {
	if e.Quote != nil {
		p.HandleQuote(*e.Quote)
	}
	if e.Trade != nil {
		p.HandleTrade(*e.Trade)
	}
}

var categoryColors = map[Category]color.Attribute{
	AtAsk:    color.FgGreen,
	AtBid:    color.FgRed,
	AboveAsk: color.FgYellow,
	BelowBid: color.FgMagenta,
}

func (p *Processor) print(t Trade, res Classification) {
	attr, ok := categoryColors[res.Category]
	if !ok {
		attr = color.FgWhite
	}
	attrs := []color.Attribute{attr}
	if res.Big {
		attrs = append(attrs, color.Bold)
	}
	line := fmt.Sprintf("Price: %s | Amount: $%s | Time: %s | Ticker: %s",
		humanize.FormatFloat("#,###.##", t.Price),
		FormatAmount(res.Notional.InexactFloat64()),
		t.Timestamp.In(p.loc).Format("2006-01-02 15:04:05"),
		t.Symbol)
	color.New(attrs...).Fprintln(p.out, line)
}
