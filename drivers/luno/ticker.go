package luno

import (
	"context"
	"net/url"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchTicker returns the latest price summary for one market.
//
// GET /api/1/ticker?pair=XBTAUD
//
//	{"pair":"XBTAUD","timestamp":1642201439301,"bid":"59972.30000000",
//	 "ask":"59997.99000000","last_trade":"59997.99000000",
//	 "rolling_24_hour_volume":"1.89510000","status":"ACTIVE"}
func (l *Luno) FetchTicker(ctx context.Context, symbol string) (*exchange.Ticker, error) {
	market, err := l.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{"pair": {market.ID}}
	response, err := l.publicGet(ctx, apiPrefix+"/ticker", query)
	if err != nil {
		return nil, err
	}
	return l.parseTicker(ctx, response), nil
}

// FetchTickers returns price summaries for every market.
func (l *Luno) FetchTickers(ctx context.Context) (map[string]*exchange.Ticker, error) {
	response, err := l.publicGet(ctx, apiPrefix+"/tickers", nil)
	if err != nil {
		return nil, err
	}
	out := map[string]*exchange.Ticker{}
	for _, row := range safe.List(response, "tickers") {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		ticker := l.parseTicker(ctx, raw)
		out[ticker.Symbol] = ticker
	}
	return out, nil
}

func (l *Luno) parseTicker(ctx context.Context, raw map[string]any) *exchange.Ticker {
	ticker := &exchange.Ticker{
		Symbol:     l.symbolForID(ctx, safe.String(raw, "pair")),
		Timestamp:  safe.Integer(raw, "timestamp"),
		Bid:        safe.Decimal(raw, "bid"),
		Ask:        safe.Decimal(raw, "ask"),
		Last:       safe.Decimal(raw, "last_trade"),
		BaseVolume: safe.Decimal(raw, "rolling_24_hour_volume"),
		Info:       raw,
	}
	return exchange.FinalizeTicker(ticker)
}
