package exchange

import (
	"fmt"
	"sync"
)

// MarketIndex is the load-once market cache: lookups by unified symbol and
// by exchange-native id. Safe for concurrent readers; adapters build it
// once in LoadMarkets and never mutate it afterwards.
type MarketIndex struct {
	markets  []Market
	bySymbol map[string]*Market
	byID     map[string]*Market
}

// NewMarketIndex indexes a parsed market list.
func NewMarketIndex(markets []Market) *MarketIndex {
	idx := &MarketIndex{
		markets:  markets,
		bySymbol: make(map[string]*Market, len(markets)),
		byID:     make(map[string]*Market, len(markets)),
	}
	for i := range markets {
		m := &markets[i]
		idx.bySymbol[m.Symbol] = m
		idx.byID[m.ID] = m
	}
	return idx
}

// All returns the indexed markets.
func (idx *MarketIndex) All() []Market { return idx.markets }

// BySymbol resolves a unified "BASE/QUOTE" symbol.
func (idx *MarketIndex) BySymbol(symbol string) (*Market, error) {
	if m, ok := idx.bySymbol[symbol]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: unknown symbol %s", ErrBadSymbol, symbol)
}

// ByID resolves an exchange-native market id.
func (idx *MarketIndex) ByID(id string) (*Market, error) {
	if m, ok := idx.byID[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: unknown market id %s", ErrBadSymbol, id)
}

// MarketCache wraps MarketIndex with the load-once behavior adapters embed.
type MarketCache struct {
	mu  sync.Mutex
	idx *MarketIndex
}

// Load returns the cached index, fetching through fn on first use.
func (c *MarketCache) Load(fetch func() ([]Market, error)) (*MarketIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idx != nil {
		return c.idx, nil
	}
	markets, err := fetch()
	if err != nil {
		return nil, err
	}
	c.idx = NewMarketIndex(markets)
	return c.idx, nil
}
