package aofex

import (
	"context"
	"net/url"
	"strconv"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchTicker returns 24h stats for one market. The feed carries no
// bid/ask; change, average, percentage and vwap are derived.
//
// GET /openApi/market/detail?symbol=ETH-BTC
//
//	{"errno":0,"errmsg":"success","result":{
//	  "id":1584890087,"amount":"150032.919","count":134538,
//	  "open":"0.021394","close":"0.021177","low":"0.021053",
//	  "high":"0.021595","vol":"3201.72451442"}}
func (a *Aofex) FetchTicker(ctx context.Context, symbol string) (*exchange.Ticker, error) {
	market, err := a.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := a.publicGet(ctx, "/market/detail", url.Values{"symbol": {market.ID}})
	if err != nil {
		return nil, err
	}
	return parseTicker(safe.Map(response, "result"), market.Symbol), nil
}

// FetchTickers returns 24h stats for every market.
//
// GET /openApi/market/24kline
func (a *Aofex) FetchTickers(ctx context.Context) (map[string]*exchange.Ticker, error) {
	response, err := a.publicGet(ctx, "/market/24kline", nil)
	if err != nil {
		return nil, err
	}
	tickers := make(map[string]*exchange.Ticker)
	for _, row := range safe.List(response, "result") {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		symbol := a.symbolForID(ctx, safe.String(raw, "symbol"))
		tickers[symbol] = parseTicker(safe.Map(raw, "data"), symbol)
	}
	return tickers, nil
}

// parseTicker maps a stats block. The id is a second-granularity
// timestamp, amount is base volume and vol is quote volume.
func parseTicker(raw map[string]any, symbol string) *exchange.Ticker {
	last := safe.Decimal(raw, "close")
	ticker := &exchange.Ticker{
		Symbol:      symbol,
		Timestamp:   safe.Timestamp(raw, "id"),
		High:        safe.Decimal(raw, "high"),
		Low:         safe.Decimal(raw, "low"),
		Open:        safe.Decimal(raw, "open"),
		Close:       last,
		Last:        last,
		BaseVolume:  safe.Decimal(raw, "amount"),
		QuoteVolume: safe.Decimal(raw, "vol"),
		Info:        raw,
	}
	return exchange.FinalizeTicker(ticker)
}

// FetchOrderBook returns a depth snapshot.
//
// GET /openApi/market/depth?symbol=ETH-BTC
//
//	{"errno":0,"errmsg":"success","result":{
//	  "ts":1584950701050,"symbol":"ETH-BTC",
//	  "asks":[["0.021227","0.182"],["0.021249","0.035"]],
//	  "bids":[["0.021207","0.039"],["0.021203","0.051"]]}}
func (a *Aofex) FetchOrderBook(ctx context.Context, symbol string, limit int) (*exchange.OrderBook, error) {
	market, err := a.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := a.publicGet(ctx, "/market/depth", url.Values{"symbol": {market.ID}})
	if err != nil {
		return nil, err
	}
	result := safe.Map(response, "result")
	book := &exchange.OrderBook{
		Symbol:    market.Symbol,
		Timestamp: safe.Integer(result, "ts"),
		Bids:      parseBookSide(safe.List(result, "bids"), limit),
		Asks:      parseBookSide(safe.List(result, "asks"), limit),
	}
	return exchange.SortOrderBook(book), nil
}

// parseBookSide maps [["price","amount"], ...] rows.
func parseBookSide(rows []any, limit int) []exchange.PriceLevel {
	levels := make([]exchange.PriceLevel, 0, len(rows))
	for _, row := range rows {
		pair, ok := row.([]any)
		if !ok {
			continue
		}
		price := safe.IndexDecimal(pair, 0)
		amount := safe.IndexDecimal(pair, 1)
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
// GET /openApi/market/trade?symbol=ETH-BTC
//
//	{"errno":0,"errmsg":"success","result":{
//	  "symbol":"ETH-BTC","ts":1584948805439,
//	  "data":[{"id":1584948803300883,"amount":"0.583","price":"0.021209",
//	           "direction":"buy","ts":1584948803}]}}
func (a *Aofex) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Trade, error) {
	market, err := a.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := a.publicGet(ctx, "/market/trade", url.Values{"symbol": {market.ID}})
	if err != nil {
		return nil, err
	}
	rows := safe.List(safe.Map(response, "result"), "data")
	trades := make([]exchange.Trade, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		trade := parseTrade(raw, market)
		if since > 0 && trade.Timestamp < since {
			continue
		}
		trades = append(trades, *trade)
		if limit > 0 && len(trades) >= limit {
			break
		}
	}
	return trades, nil
}

// parseTrade maps a public trade or a private fill. Public rows have an
// id, direction and a second-granularity ts; fills have a ctime datetime,
// a total_price and a fee instead.
func parseTrade(raw map[string]any, market *exchange.Market) *exchange.Trade {
	timestamp := safe.Timestamp(raw, "ts")
	if timestamp == 0 {
		timestamp = parseCTime(safe.String(raw, "ctime"))
	}
	side := safe.String(raw, "direction")
	trade := &exchange.Trade{
		ID:        safe.String(raw, "id"),
		Symbol:    market.Symbol,
		Timestamp: timestamp,
		Side:      side,
		Price:     safe.Decimal(raw, "price"),
		Amount:    safe.Decimal2(raw, "amount", "number"),
		Cost:      safe.Decimal(raw, "total_price"),
		Info:      raw,
	}
	if feeCost := safe.Decimal(raw, "fee"); feeCost != nil {
		currency := market.Quote
		if side == exchange.SideBuy {
			currency = market.Base
		}
		trade.Fee = &exchange.TradeFee{Cost: feeCost, Currency: currency}
	}
	return exchange.FinalizeTrade(trade)
}

// FetchOHLCV returns candles, newest first as the API serves them.
//
// GET /openApi/market/kline?symbol=ETH-BTC&period=1min&size=150
//
//	{"errno":0,"errmsg":"success","result":{
//	  "ts":1584950139003,"symbol":"ETH-BTC","period":"1min",
//	  "data":[{"id":1584950100,"amount":"329.196","open":"0.021155",
//	           "close":"0.021158","low":"0.021144","high":"0.021161",
//	           "vol":"6.963557767"}]}}
func (a *Aofex) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]exchange.OHLCV, error) {
	market, err := a.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	period, ok := timeframes[timeframe]
	if !ok {
		return nil, exchange.ErrNotSupported
	}
	if limit <= 0 {
		limit = 150 // default 150, max 2000
	}
	query := url.Values{
		"symbol": {market.ID},
		"period": {period},
		"size":   {strconv.Itoa(limit)},
	}
	response, err := a.publicGet(ctx, "/market/kline", query)
	if err != nil {
		return nil, err
	}
	rows := safe.List(safe.Map(response, "result"), "data")
	candles := make([]exchange.OHLCV, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		open := safe.Decimal(raw, "open")
		high := safe.Decimal(raw, "high")
		low := safe.Decimal(raw, "low")
		closing := safe.Decimal(raw, "close")
		volume := safe.Decimal(raw, "amount")
		if open == nil || high == nil || low == nil || closing == nil || volume == nil {
			continue
		}
		ts := safe.Timestamp(raw, "id")
		if since > 0 && ts < since {
			continue
		}
		candles = append(candles, exchange.OHLCV{
			Timestamp: ts,
			Open:      *open,
			High:      *high,
			Low:       *low,
			Close:     *closing,
			Volume:    *volume,
		})
	}
	return candles, nil
}
