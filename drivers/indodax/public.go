package indodax

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchTicker returns the 24h summary for one market.
//
// GET /api/ticker/{pair}
//
//	{"ticker":{"high":"0.01951","low":"0.01877","vol_eth":"39.38839319",
//	  "vol_btc":"0.75320886","last":"0.01896","buy":"0.01896",
//	  "sell":"0.019","server_time":1565248908}}
func (i *Indodax) FetchTicker(ctx context.Context, symbol string) (*exchange.Ticker, error) {
	market, err := i.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := i.publicGet(ctx, "/api/ticker/"+market.BaseID+market.QuoteID)
	if err != nil {
		return nil, err
	}
	m, _ := response.(map[string]any)
	return parseTicker(safe.Map(m, "ticker"), market), nil
}

// FetchTickers returns summaries for every market.
//
// GET /api/ticker_all -> {"tickers":{"btc_idr":{...}}}
func (i *Indodax) FetchTickers(ctx context.Context) (map[string]*exchange.Ticker, error) {
	idx, err := i.LoadMarkets(ctx)
	if err != nil {
		return nil, err
	}
	response, err := i.publicGet(ctx, "/api/ticker_all")
	if err != nil {
		return nil, err
	}
	m, _ := response.(map[string]any)
	out := map[string]*exchange.Ticker{}
	for id, row := range safe.Map(m, "tickers") {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		market, err := idx.ByID(id)
		if err != nil {
			continue
		}
		out[market.Symbol] = parseTicker(raw, market)
	}
	return out, nil
}

func parseTicker(raw map[string]any, market *exchange.Market) *exchange.Ticker {
	last := safe.Decimal(raw, "last")
	ticker := &exchange.Ticker{
		Symbol:      market.Symbol,
		Timestamp:   safe.Timestamp(raw, "server_time"),
		High:        safe.Decimal(raw, "high"),
		Low:         safe.Decimal(raw, "low"),
		Bid:         safe.Decimal(raw, "buy"),
		Ask:         safe.Decimal(raw, "sell"),
		Last:        last,
		BaseVolume:  safe.Decimal(raw, "vol_"+strings.ToLower(market.BaseID)),
		QuoteVolume: safe.Decimal(raw, "vol_"+strings.ToLower(market.QuoteID)),
		Info:        raw,
	}
	return exchange.FinalizeTicker(ticker)
}

// FetchOrderBook returns a depth snapshot; the sides arrive under the
// "buy" and "sell" keys as [price, amount] rows.
//
// GET /api/depth/{pair}
func (i *Indodax) FetchOrderBook(ctx context.Context, symbol string, limit int) (*exchange.OrderBook, error) {
	market, err := i.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := i.publicGet(ctx, "/api/depth/"+market.BaseID+market.QuoteID)
	if err != nil {
		return nil, err
	}
	m, _ := response.(map[string]any)
	book := &exchange.OrderBook{
		Symbol: market.Symbol,
		Bids:   parseBookSide(safe.List(m, "buy"), limit),
		Asks:   parseBookSide(safe.List(m, "sell"), limit),
	}
	return exchange.SortOrderBook(book), nil
}

func parseBookSide(rows []any, limit int) []exchange.PriceLevel {
	levels := make([]exchange.PriceLevel, 0, len(rows))
	for _, row := range rows {
		entry, ok := row.([]any)
		if !ok {
			continue
		}
		price := safe.IndexDecimal(entry, 0)
		amount := safe.IndexDecimal(entry, 1)
		if price == nil || amount == nil {
			continue
		}
		levels = append(levels, exchange.PriceLevel{Price: *price, Amount: *amount})
		if limit > 0 && len(levels) >= limit {
			break
		}
	}
	return levels
}

// FetchTrades returns recent public trades.
//
// GET /api/trades/{pair}
//
//	[{"date":"1709366195","price":"968456000","amount":"0.00117150",
//	  "tid":"34824253","type":"sell"}]
func (i *Indodax) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Trade, error) {
	market, err := i.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := i.publicGet(ctx, "/api/trades/"+market.BaseID+market.QuoteID)
	if err != nil {
		return nil, err
	}
	rows, _ := response.([]any)
	trades := make([]exchange.Trade, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		trade := exchange.Trade{
			ID:        safe.String(raw, "tid"),
			Symbol:    market.Symbol,
			Timestamp: safe.Timestamp(raw, "date"),
			Side:      safe.String(raw, "type"),
			Price:     safe.Decimal(raw, "price"),
			Amount:    safe.Decimal(raw, "amount"),
			Info:      raw,
		}
		if since > 0 && trade.Timestamp < since {
			continue
		}
		trades = append(trades, *exchange.FinalizeTrade(&trade))
		if limit > 0 && len(trades) >= limit {
			break
		}
	}
	return trades, nil
}

// FetchOHLCV returns candles from the tradingview endpoint.
//
// GET /tradingview/history_v2?from=...&to=...&tf=15&symbol=BTCIDR
//
//	[{"Time":1708416900,"Open":96000000,"High":96036500,
//	  "Low":95954000,"Close":95954000,"Volume":"0.00167568"}]
func (i *Indodax) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]exchange.OHLCV, error) {
	market, err := i.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	tf, ok := timeframes[timeframe]
	if !ok {
		return nil, fmt.Errorf("%w: timeframe %s", exchange.ErrNotSupported, timeframe)
	}
	if limit <= 0 {
		limit = 1000
	}
	to := time.Now().Unix()
	from := since / 1000
	if since <= 0 {
		from = to - perCandleSeconds(timeframe)*int64(limit)
	}
	path := "/tradingview/history_v2?from=" + strconv.FormatInt(from, 10) +
		"&to=" + strconv.FormatInt(to, 10) +
		"&tf=" + tf +
		"&symbol=" + strings.ToUpper(market.BaseID+market.QuoteID)
	response, err := i.publicGet(ctx, path)
	if err != nil {
		return nil, err
	}
	rows, _ := response.([]any)
	candles := make([]exchange.OHLCV, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		open := safe.Decimal(raw, "Open")
		high := safe.Decimal(raw, "High")
		low := safe.Decimal(raw, "Low")
		closePrice := safe.Decimal(raw, "Close")
		volume := safe.Decimal(raw, "Volume")
		if open == nil || high == nil || low == nil || closePrice == nil || volume == nil {
			continue
		}
		candles = append(candles, exchange.OHLCV{
			Timestamp: safe.Timestamp(raw, "Time"),
			Open:      *open,
			High:      *high,
			Low:       *low,
			Close:     *closePrice,
			Volume:    *volume,
		})
		if len(candles) >= limit {
			break
		}
	}
	return candles, nil
}

func perCandleSeconds(timeframe string) int64 {
	switch timeframe {
	case "1m":
		return 60
	case "15m":
		return 900
	case "30m":
		return 1800
	case "1h":
		return 3600
	case "4h":
		return 14400
	case "1d":
		return 86400
	case "1w":
		return 604800
	}
	return 60
}
