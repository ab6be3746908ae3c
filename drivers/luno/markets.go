package luno

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchMarkets lists all tradable pairs.
//
// GET /api/exchange/1/markets
//
//	{"markets":[{"market_id":"BCHXBT","trading_status":"ACTIVE",
//	  "base_currency":"BCH","counter_currency":"XBT",
//	  "min_volume":"0.01","max_volume":"100.00","volume_scale":2,
//	  "min_price":"0.0001","max_price":"1.00","price_scale":6}]}
func (l *Luno) FetchMarkets(ctx context.Context) ([]exchange.Market, error) {
	response, err := l.publicGet(ctx, exchangePrefix+"/markets", nil)
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "markets")
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
	baseID := safe.String(raw, "base_currency")
	quoteID := safe.String(raw, "counter_currency")
	base := exchange.CurrencyCode(baseID, currencyAliases)
	quote := exchange.CurrencyCode(quoteID, currencyAliases)
	return exchange.Market{
		ID:      safe.String(raw, "market_id"),
		Symbol:  base + "/" + quote,
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Active:  safe.String(raw, "trading_status") == "ACTIVE",
		Precision: exchange.Precision{
			Amount: scaleToTick(raw, "volume_scale"),
			Price:  scaleToTick(raw, "price_scale"),
		},
		Limits: exchange.MarketLimits{
			Amount: exchange.MinMax{
				Min: safe.Decimal(raw, "min_volume"),
				Max: safe.Decimal(raw, "max_volume"),
			},
			Price: exchange.MinMax{
				Min: safe.Decimal(raw, "min_price"),
				Max: safe.Decimal(raw, "max_price"),
			},
		},
		Info: raw,
	}
}

// scaleToTick converts a decimal-place count ("price_scale":6) into the
// tick size the precision mode of this adapter expects (0.000001).
func scaleToTick(raw map[string]any, key string) *decimal.Decimal {
	scale, ok := safe.IntegerOK(raw, key)
	if !ok {
		return nil
	}
	tick := decimal.New(1, -int32(scale))
	return &tick
}
