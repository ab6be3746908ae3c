package indodax

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

var oneHundred = decimal.NewFromInt(100)

// FetchMarkets lists all tradable pairs. The traded_currency is the base
// and the confusingly named base_currency is the quote.
//
// GET /api/pairs
//
//	[{"id":"btcidr","symbol":"BTCIDR","base_currency":"idr",
//	  "traded_currency":"btc","traded_currency_unit":"BTC",
//	  "ticker_id":"btc_idr","price_round":8,"volume_precision":0,
//	  "trade_min_base_currency":10000,
//	  "trade_min_traded_currency":0.00007457,
//	  "trade_fee_percent":0.3,"is_maintenance":0}]
func (i *Indodax) FetchMarkets(ctx context.Context) ([]exchange.Market, error) {
	response, err := i.publicGet(ctx, "/api/pairs")
	if err != nil {
		return nil, err
	}
	rows, _ := response.([]any)
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
	baseID := safe.String(raw, "traded_currency")
	quoteID := safe.String(raw, "base_currency")
	base := exchange.CurrencyCode(baseID, currencyAliases)
	quote := exchange.CurrencyCode(quoteID, currencyAliases)

	// The fee is quoted as a percentage.
	var taker *decimal.Decimal
	if pct := safe.Decimal(raw, "trade_fee_percent"); pct != nil {
		rate := pct.Div(oneHundred)
		taker = &rate
	}
	// Amounts always quantize to 8 places; prices to price_round places.
	// This adapter runs in decimal-places mode.
	amountPrecision := decimal.NewFromInt(8)
	var pricePrecision *decimal.Decimal
	if places, ok := safe.IntegerOK(raw, "price_round"); ok {
		p := decimal.NewFromInt(places)
		pricePrecision = &p
	}
	return exchange.Market{
		ID:      safe.String(raw, "ticker_id"),
		Symbol:  base + "/" + quote,
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Active:  safe.Integer(raw, "is_maintenance") == 0,
		Taker:   taker,
		Precision: exchange.Precision{
			Amount: &amountPrecision,
			Price:  pricePrecision,
		},
		Limits: exchange.MarketLimits{
			Amount: exchange.MinMax{Min: safe.Decimal(raw, "trade_min_traded_currency")},
			Cost:   exchange.MinMax{Min: safe.Decimal(raw, "trade_min_base_currency")},
		},
		Info: raw,
	}
}
