package tape

import "sync"

// QuoteCache keeps the most recent quote per symbol. Updates replace
// the stored quote wholesale, so a reader can never observe the bid of
// one quote paired with the ask of another.
type QuoteCache struct {
	mu     sync.RWMutex
	latest map[string]Quote
}

func NewQuoteCache() *QuoteCache {
	return &QuoteCache{latest: make(map[string]Quote)}
}

// Update stores q as the latest quote for its symbol.
func (c *QuoteCache) Update(q Quote) {
	c.mu.Lock()
	c.latest[q.Symbol] = q
	c.mu.Unlock()
}

// Get returns the latest quote for symbol, if any has arrived yet.
func (c *QuoteCache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	q, ok := c.latest[symbol]
	c.mu.RUnlock()
	return q, ok
}
