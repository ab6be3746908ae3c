package luno

import (
	"context"
	"net/url"
	"strconv"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchTrades returns recent public trades for one market.
//
// GET /api/1/trades?pair=XBTZAR&since=...
//
//	{"trades":[{"sequence":276989,"timestamp":1648651276949,
//	  "price":"35773.20000000","volume":"0.00300000","is_buy":false}]}
func (l *Luno) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Trade, error) {
	market, err := l.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{"pair": {market.ID}}
	if since > 0 {
		query.Set("since", strconv.FormatInt(since, 10))
	}
	response, err := l.publicGet(ctx, apiPrefix+"/trades", query)
	if err != nil {
		return nil, err
	}
	return l.parseTrades(response, market, limit), nil
}

// FetchMyTrades returns the account's fills for one market.
//
// GET /api/1/listtrades?pair=...&since=...
func (l *Luno) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Trade, error) {
	market, err := l.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{"pair": {market.ID}}
	if since > 0 {
		query.Set("since", strconv.FormatInt(since, 10))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	response, err := l.privateGet(ctx, apiPrefix+"/listtrades", query)
	if err != nil {
		return nil, err
	}
	return l.parseTrades(response, market, limit), nil
}

func (l *Luno) parseTrades(response map[string]any, market *exchange.Market, limit int) []exchange.Trade {
	rows := safe.List(response, "trades")
	trades := make([]exchange.Trade, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		trades = append(trades, *parseTrade(raw, market))
		if limit > 0 && len(trades) >= limit {
			break
		}
	}
	return trades
}

// parseTrade handles both public and private rows. Public rows signal the
// side with is_buy; private rows carry an order_id and type ASK|BID, with
// is_buy marking whether the account's order was the maker side.
func parseTrade(raw map[string]any, market *exchange.Market) *exchange.Trade {
	orderID := safe.String(raw, "order_id")
	isBuy := safe.Bool(raw, "is_buy")
	var side, takerOrMaker string
	if orderID != "" {
		switch safe.String(raw, "type") {
		case "ASK", "SELL":
			side = exchange.SideSell
		case "BID", "BUY":
			side = exchange.SideBuy
		}
		takerOrMaker = "taker"
		if (side == exchange.SideSell && isBuy) || (side == exchange.SideBuy && !isBuy) {
			takerOrMaker = "maker"
		}
	} else if isBuy {
		side = exchange.SideBuy
	} else {
		side = exchange.SideSell
	}

	var fee *exchange.TradeFee
	if cost := safe.Decimal(raw, "fee_base"); cost != nil && !cost.IsZero() {
		fee = &exchange.TradeFee{Currency: market.Base, Cost: cost}
	} else if cost := safe.Decimal(raw, "fee_counter"); cost != nil && !cost.IsZero() {
		fee = &exchange.TradeFee{Currency: market.Quote, Cost: cost}
	}

	trade := &exchange.Trade{
		ID:           safe.String(raw, "sequence"),
		OrderID:      orderID,
		Symbol:       market.Symbol,
		Timestamp:    safe.Integer(raw, "timestamp"),
		Side:         side,
		TakerOrMaker: takerOrMaker,
		Price:        safe.Decimal(raw, "price"),
		Amount:       safe.Decimal2(raw, "volume", "base"),
		Cost:         safe.Decimal(raw, "counter"),
		Fee:          fee,
		Info:         raw,
	}
	return exchange.FinalizeTrade(trade)
}
