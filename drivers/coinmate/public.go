package coinmate

import (
	"context"
	"net/url"
	"strings"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchTicker returns 24h stats for one market.
//
// GET /api/ticker?currencyPair=BTC_EUR
//
//	{"error":false,"errorMessage":null,"data":{
//	  "last":37190.95,"high":38088.65,"low":36500.0,"amount":3.25222771,
//	  "bid":37186.01,"ask":37190.95,"change":1.39,"open":36681.01,
//	  "timestamp":1643290921}}
func (c *Coinmate) FetchTicker(ctx context.Context, symbol string) (*exchange.Ticker, error) {
	market, err := c.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := c.publicGet(ctx, "/ticker", url.Values{"currencyPair": {market.ID}})
	if err != nil {
		return nil, err
	}
	raw := safe.Map(response, "data")
	last := safe.Decimal(raw, "last")
	ticker := &exchange.Ticker{
		Symbol:     market.Symbol,
		Timestamp:  safe.Timestamp(raw, "timestamp"),
		High:       safe.Decimal(raw, "high"),
		Low:        safe.Decimal(raw, "low"),
		Bid:        safe.Decimal(raw, "bid"),
		Ask:        safe.Decimal(raw, "ask"),
		Open:       safe.Decimal(raw, "open"),
		Close:      last,
		Last:       last,
		BaseVolume: safe.Decimal(raw, "amount"),
		Info:       raw,
	}
	return exchange.FinalizeTicker(ticker), nil
}

// FetchOrderBook returns an ungrouped depth snapshot. The feed's
// timestamp is in seconds.
//
// GET /api/orderBook?currencyPair=BTC_EUR&groupByPriceLimit=False
//
//	{"error":false,"errorMessage":null,"data":{
//	  "timestamp":1643291096,
//	  "asks":[{"price":37194.85,"amount":0.27117952}],
//	  "bids":[{"price":37186.01,"amount":0.0672}]}}
func (c *Coinmate) FetchOrderBook(ctx context.Context, symbol string, limit int) (*exchange.OrderBook, error) {
	market, err := c.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{
		"currencyPair":      {market.ID},
		"groupByPriceLimit": {"False"},
	}
	response, err := c.publicGet(ctx, "/orderBook", query)
	if err != nil {
		return nil, err
	}
	raw := safe.Map(response, "data")
	book := &exchange.OrderBook{
		Symbol:    market.Symbol,
		Timestamp: safe.Timestamp(raw, "timestamp"),
		Bids:      parseBookSide(safe.List(raw, "bids"), limit),
		Asks:      parseBookSide(safe.List(raw, "asks"), limit),
	}
	return exchange.SortOrderBook(book), nil
}

func parseBookSide(rows []any, limit int) []exchange.PriceLevel {
	levels := make([]exchange.PriceLevel, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		price := safe.Decimal(raw, "price")
		amount := safe.Decimal(raw, "amount")
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

// FetchTrades returns the last ten minutes of public trades.
//
// GET /api/transactions?currencyPair=BTC_EUR&minutesIntoHistory=10
//
//	{"error":false,"errorMessage":null,"data":[
//	  {"timestamp":1561598833416,"transactionId":"4156303",
//	   "price":10950.41,"amount":0.004,"currencyPair":"BTC_EUR",
//	   "tradeType":"BUY"}]}
func (c *Coinmate) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Trade, error) {
	market, err := c.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{
		"currencyPair":       {market.ID},
		"minutesIntoHistory": {"10"},
	}
	response, err := c.publicGet(ctx, "/transactions", query)
	if err != nil {
		return nil, err
	}
	return c.parseTrades(ctx, safe.List(response, "data"), since, limit), nil
}

// FetchMyTrades returns the account's fills, newest first.
//
// POST /api/tradeHistory
func (c *Coinmate) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Trade, error) {
	if limit <= 0 {
		limit = 1000
	}
	params := url.Values{"limit": {safe.Stringify(limit)}}
	if symbol != "" {
		market, err := c.marketBySymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		params.Set("currencyPair", market.ID)
	}
	if since > 0 {
		params.Set("timestampFrom", safe.Stringify(since))
	}
	response, err := c.privatePost(ctx, "/tradeHistory", params)
	if err != nil {
		return nil, err
	}
	return c.parseTrades(ctx, safe.List(response, "data"), since, limit), nil
}

func (c *Coinmate) parseTrades(ctx context.Context, rows []any, since int64, limit int) []exchange.Trade {
	trades := make([]exchange.Trade, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		trade := c.parseTrade(ctx, raw)
		if since > 0 && trade.Timestamp < since {
			continue
		}
		trades = append(trades, *trade)
		if limit > 0 && len(trades) >= limit {
			break
		}
	}
	return trades
}

// parseTrade maps a public trade or a private fill. Public rows carry
// tradeType and timestamp; fills carry type, createdTimestamp, orderId
// and a feeType of MAKER or TAKER.
//
//	{"transactionId":2671819,"createdTimestamp":1529649127605,
//	 "currencyPair":"LTC_BTC","type":"BUY","orderType":"LIMIT",
//	 "orderId":101810227,"amount":0.01,"price":0.01406,"fee":0,
//	 "feeType":"MAKER"}
func (c *Coinmate) parseTrade(ctx context.Context, raw map[string]any) *exchange.Trade {
	symbol := c.symbolForID(ctx, safe.String(raw, "currencyPair"))
	trade := &exchange.Trade{
		ID:        safe.String(raw, "transactionId"),
		OrderID:   safe.String(raw, "orderId"),
		Symbol:    symbol,
		Timestamp: safe.Integer2(raw, "timestamp", "createdTimestamp"),
		Type:      safe.StringLower(raw, "orderType"),
		Side:      strings.ToLower(safe.StringN(raw, "type", "tradeType")),
		Price:     safe.Decimal(raw, "price"),
		Amount:    safe.Decimal(raw, "amount"),
		Info:      raw,
	}
	if feeType := safe.String(raw, "feeType"); feeType != "" {
		if feeType == "MAKER" {
			trade.TakerOrMaker = "maker"
		} else {
			trade.TakerOrMaker = "taker"
		}
	}
	if feeCost := safe.Decimal(raw, "fee"); feeCost != nil {
		_, quote, found := strings.Cut(symbol, "/")
		if found {
			trade.Fee = &exchange.TradeFee{Cost: feeCost, Currency: quote}
		}
	}
	return exchange.FinalizeTrade(trade)
}
