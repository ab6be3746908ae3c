package luno

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/number"
	"github.com/navid-fn/uniex/safe"
)

// CreateOrder places an order. Market orders go through marketorder with
// counter_volume (buys, quote units) or base_volume (sells); limit orders
// go through postorder with type BID or ASK.
func (l *Luno) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price *decimal.Decimal, params exchange.Params) (*exchange.Order, error) {
	market, err := l.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	form := url.Values{"pair": {market.ID}}
	var path string
	switch orderType {
	case exchange.OrderTypeMarket:
		path = apiPrefix + "/marketorder"
		form.Set("type", strings.ToUpper(side))
		volume, err := formatAmount(market, amount)
		if err != nil {
			return nil, err
		}
		if side == exchange.SideBuy {
			form.Set("counter_volume", volume)
		} else {
			form.Set("base_volume", volume)
		}
	case exchange.OrderTypeLimit:
		if price == nil {
			return nil, fmt.Errorf("%w: limit orders need a price", exchange.ErrArgumentsRequired)
		}
		path = apiPrefix + "/postorder"
		volume, err := formatAmount(market, amount)
		if err != nil {
			return nil, err
		}
		limitPrice, err := formatPrice(market, *price)
		if err != nil {
			return nil, err
		}
		form.Set("volume", volume)
		form.Set("price", limitPrice)
		if side == exchange.SideBuy {
			form.Set("type", "BID")
		} else {
			form.Set("type", "ASK")
		}
	default:
		return nil, fmt.Errorf("%w: order type %s", exchange.ErrInvalidOrder, orderType)
	}
	for key, value := range params {
		form.Set(key, safe.Stringify(value))
	}
	response, err := l.privatePost(ctx, path, form)
	if err != nil {
		return nil, err
	}
	order := &exchange.Order{
		ID:     safe.String(response, "order_id"),
		Symbol: market.Symbol,
		Type:   orderType,
		Side:   side,
		Info:   response,
	}
	return exchange.FinalizeOrder(order), nil
}

// CancelOrder stops an open order.
//
// POST /api/1/stoporder -> {"success":true}
func (l *Luno) CancelOrder(ctx context.Context, id, symbol string) error {
	response, err := l.privatePost(ctx, apiPrefix+"/stoporder", url.Values{"order_id": {id}})
	if err != nil {
		return err
	}
	if !safe.Bool(response, "success") {
		return exchange.NewAPIError(Name, exchange.ErrOrderNotFound, "stoporder did not succeed for "+id)
	}
	return nil
}

// FetchOrder returns a single order by id.
func (l *Luno) FetchOrder(ctx context.Context, id, symbol string) (*exchange.Order, error) {
	response, err := l.privateGet(ctx, apiPrefix+"/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return l.parseOrder(ctx, response), nil
}

// FetchOpenOrders lists pending orders, optionally for one market.
func (l *Luno) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Order, error) {
	return l.fetchOrdersByState(ctx, "PENDING", symbol, limit)
}

// FetchClosedOrders lists completed orders, optionally for one market.
func (l *Luno) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Order, error) {
	return l.fetchOrdersByState(ctx, "COMPLETE", symbol, limit)
}

func (l *Luno) fetchOrdersByState(ctx context.Context, state, symbol string, limit int) ([]exchange.Order, error) {
	query := url.Values{"state": {state}}
	if symbol != "" {
		market, err := l.marketBySymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		query.Set("pair", market.ID)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	response, err := l.privateGet(ctx, apiPrefix+"/listorders", query)
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "orders")
	orders := make([]exchange.Order, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		orders = append(orders, *l.parseOrder(ctx, raw))
	}
	return orders, nil
}

// parseOrder maps a raw order row.
//
//	{"base":"0.1","counter":"5.0","creation_timestamp":1642202000000,
//	 "fee_base":"0.0001","fee_counter":"0.00","limit_price":"50.0",
//	 "limit_volume":"0.1","order_id":"BXMC2CJ7HNB88U4",
//	 "pair":"XBTZAR","state":"PENDING","type":"BID"}
func (l *Luno) parseOrder(ctx context.Context, raw map[string]any) *exchange.Order {
	symbol := l.symbolForID(ctx, safe.String(raw, "pair"))
	status := exchange.OrderStatusClosed
	if safe.String(raw, "state") == "PENDING" {
		status = exchange.OrderStatusOpen
	}
	var side string
	switch safe.String(raw, "type") {
	case "ASK", "SELL":
		side = exchange.SideSell
	case "BID", "BUY":
		side = exchange.SideBuy
	}
	var fee *exchange.TradeFee
	base, quote := splitSymbol(symbol)
	if cost := safe.Decimal(raw, "fee_counter"); cost != nil && !cost.IsZero() {
		fee = &exchange.TradeFee{Currency: quote, Cost: cost}
	} else if cost := safe.Decimal(raw, "fee_base"); cost != nil && !cost.IsZero() {
		fee = &exchange.TradeFee{Currency: base, Cost: cost}
	}
	order := &exchange.Order{
		ID:        safe.String(raw, "order_id"),
		Symbol:    symbol,
		Timestamp: safe.Integer(raw, "creation_timestamp"),
		Side:      side,
		Price:     safe.Decimal(raw, "limit_price"),
		Amount:    safe.Decimal(raw, "limit_volume"),
		Filled:    safe.Decimal(raw, "base"),
		Cost:      safe.Decimal(raw, "counter"),
		Status:    status,
		Fee:       fee,
		Info:      raw,
	}
	return exchange.FinalizeOrder(order)
}

func splitSymbol(symbol string) (base, quote string) {
	if i := strings.IndexByte(symbol, '/'); i > 0 {
		return symbol[:i], symbol[i+1:]
	}
	return symbol, ""
}

// Luno publishes precision as decimal scales, converted to tick sizes at
// parse time, so formatting runs in tick-size mode.
func formatAmount(m *exchange.Market, d decimal.Decimal) (string, error) {
	if m.Precision.Amount == nil {
		return d.String(), nil
	}
	return number.Apply(d, number.Truncate, *m.Precision.Amount, number.TickSize)
}

func formatPrice(m *exchange.Market, d decimal.Decimal) (string, error) {
	if m.Precision.Price == nil {
		return d.String(), nil
	}
	return number.Apply(d, number.Round, *m.Precision.Price, number.TickSize)
}
