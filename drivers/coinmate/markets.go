package coinmate

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchMarkets lists tradable pairs. firstCurrency is the base and
// secondCurrency the quote; the decimal counts become tick sizes.
//
// GET /api/tradingPairs
//
//	{"error":false,"errorMessage":null,"data":[
//	  {"name":"BTC_EUR","firstCurrency":"BTC","secondCurrency":"EUR",
//	   "priceDecimals":2,"lotDecimals":8,"minAmount":0.0002}]}
func (c *Coinmate) FetchMarkets(ctx context.Context) ([]exchange.Market, error) {
	response, err := c.publicGet(ctx, "/tradingPairs", nil)
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "data")
	markets := make([]exchange.Market, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		markets = append(markets, parseMarket(raw))
	}
	return markets, nil
}

func parseMarket(raw map[string]any) exchange.Market {
	baseID := safe.String(raw, "firstCurrency")
	quoteID := safe.String(raw, "secondCurrency")
	base := exchange.CurrencyCode(baseID, currencyAliases)
	quote := exchange.CurrencyCode(quoteID, currencyAliases)
	return exchange.Market{
		ID:      safe.String(raw, "name"),
		Symbol:  base + "/" + quote,
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Active:  true,
		// Tick-size mode.
		Precision: exchange.Precision{
			Amount: decimalsToTick(raw, "lotDecimals"),
			Price:  decimalsToTick(raw, "priceDecimals"),
		},
		Limits: exchange.MarketLimits{
			Amount: exchange.MinMax{Min: safe.Decimal(raw, "minAmount")},
		},
		Info: raw,
	}
}

// decimalsToTick converts a decimal-place count ("priceDecimals":2) into
// the tick it implies (0.01).
func decimalsToTick(raw map[string]any, key string) *decimal.Decimal {
	places, ok := safe.IntegerOK(raw, key)
	if !ok {
		return nil
	}
	tick := decimal.New(1, -int32(places))
	return &tick
}
