package core

import (
	"sort"
	"sync"
	"time"
)

// MarketCache holds the markets loaded from an exchange, indexed by id and by
// symbol. It is safe for concurrent use: readers share it while Replace swaps
// the whole set at once.
type MarketCache struct {
	mu       sync.RWMutex
	byID     map[string]Market
	bySymbol map[string]Market
	loadedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewMarketCache creates an empty cache. A zero ttl keeps markets until the
// next Replace.
func NewMarketCache(ttl time.Duration) *MarketCache {
	return &MarketCache{
		byID:     make(map[string]Market),
		bySymbol: make(map[string]Market),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Replace installs a new market set, dropping the previous one.
func (c *MarketCache) Replace(markets []Market) {
	byID := make(map[string]Market, len(markets))
	bySymbol := make(map[string]Market, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
		bySymbol[m.Symbol] = m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = byID
	c.bySymbol = bySymbol
	c.loadedAt = c.now()
}

// MarketByID implements MarketResolver.
func (c *MarketCache) MarketByID(id string) (Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byID[id]
	return m, ok
}

// MarketBySymbol implements MarketResolver.
func (c *MarketCache) MarketBySymbol(symbol string) (Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.bySymbol[symbol]
	return m, ok
}

// All returns the cached markets sorted by symbol.
func (c *MarketCache) All() []Market {
	c.mu.RLock()
	out := make([]Market, 0, len(c.byID))
	for _, m := range c.byID {
		out = append(out, m)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len returns the number of cached markets.
func (c *MarketCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Loaded reports whether markets were loaded and have not expired.
func (c *MarketCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() {
		return false
	}
	if c.ttl > 0 && c.now().After(c.loadedAt.Add(c.ttl)) {
		return false
	}
	return true
}
