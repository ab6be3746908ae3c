package aofex

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

var oneThousand = decimal.NewFromInt(1000)

// FetchMarkets lists tradable pairs, cross-referencing the precision
// endpoint for the decimal places the order endpoints accept.
//
// GET /openApi/market/symbols
//
//	{"errno":0,"errmsg":"success","result":[
//	  {"id":2,"symbol":"BTC-USDT","base_currency":"BTC",
//	   "quote_currency":"USDT","min_size":0.00008,"max_size":1300,
//	   "min_price":1000,"max_price":110000,"maker_fee":1,"taker_fee":1}]}
//
// GET /openApi/market/precision
//
//	{"errno":0,"errmsg":"success","result":{
//	  "MANA-USDT":{"amount":"2","minQuantity":"32","maxQuantity":"46000000",
//	               "price":"4","minPrice":"0.003","maxPrice":"0.35"}}}
func (a *Aofex) FetchMarkets(ctx context.Context) ([]exchange.Market, error) {
	symbols, err := a.publicGet(ctx, "/market/symbols", nil)
	if err != nil {
		return nil, err
	}
	precisions, err := a.publicGet(ctx, "/market/precision", nil)
	if err != nil {
		return nil, err
	}
	byID := safe.Map(precisions, "result")
	rows := safe.List(symbols, "result")
	markets := make([]exchange.Market, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		markets = append(markets, parseMarket(raw, safe.Map(byID, safe.String(raw, "symbol"))))
	}
	return markets, nil
}

func parseMarket(raw, precision map[string]any) exchange.Market {
	baseID := safe.String(raw, "base_currency")
	quoteID := safe.String(raw, "quote_currency")
	base := exchange.CurrencyCode(baseID, currencyAliases)
	quote := exchange.CurrencyCode(quoteID, currencyAliases)

	// Fees are quoted in tenths of a percent, so 0.8 means 8 bps.
	var maker, taker *decimal.Decimal
	if fee := safe.Decimal(raw, "maker_fee"); fee != nil {
		rate := fee.Div(oneThousand)
		maker = &rate
	}
	if fee := safe.Decimal(raw, "taker_fee"); fee != nil {
		rate := fee.Div(oneThousand)
		taker = &rate
	}
	// Some listings carry the minimum as a [amount, currency] tuple
	// instead of min_size.
	amountMin := safe.Decimal(raw, "min_size")
	if amountMin == nil {
		amountMin = safe.IndexDecimal(safe.List(raw, "minimum_order_amount"), 0)
	}
	return exchange.Market{
		ID:      safe.String(raw, "symbol"),
		Symbol:  base + "/" + quote,
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Active:  true,
		Maker:   maker,
		Taker:   taker,
		// Decimal-places mode, both counts from the precision endpoint.
		Precision: exchange.Precision{
			Amount: safe.Decimal(precision, "amount"),
			Price:  safe.Decimal(precision, "price"),
		},
		Limits: exchange.MarketLimits{
			Amount: exchange.MinMax{
				Min: amountMin,
				Max: safe.Decimal(raw, "max_size"),
			},
			Price: exchange.MinMax{
				Min: safe.Decimal(raw, "min_price"),
				Max: safe.Decimal(raw, "max_price"),
			},
		},
		Info: raw,
	}
}
