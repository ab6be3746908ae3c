package aofex

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/number"
	"github.com/navid-fn/uniex/safe"
)

// CreateOrder places an order. The wire type joins side and type with a
// dash ("buy-limit"); market buys state the quote amount to spend, so a
// price is needed to turn the base amount into a cost.
//
// POST /openApi/entrust/add
//
//	{"errno":0,"errmsg":"success","result":{"order_sn":"BM7442641584965237751ZMAKJ5"}}
func (a *Aofex) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price *decimal.Decimal, params exchange.Params) (*exchange.Order, error) {
	market, err := a.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	form := url.Values{
		"symbol": {market.ID},
		"type":   {side + "-" + orderType},
	}
	switch {
	case orderType == exchange.OrderTypeLimit:
		if price == nil {
			return nil, fmt.Errorf("%w: limit orders need a price", exchange.ErrArgumentsRequired)
		}
		volume, err := formatAmount(market, amount)
		if err != nil {
			return nil, err
		}
		limitPrice, err := formatPrice(market, *price)
		if err != nil {
			return nil, err
		}
		form.Set("amount", volume)
		form.Set("price", limitPrice)
	case side == exchange.SideBuy:
		// Market buys spend quote currency, truncated to the price
		// precision.
		if price == nil {
			return nil, fmt.Errorf("%w: market buys need a price to compute the cost to spend", exchange.ErrArgumentsRequired)
		}
		cost := amount.Mul(*price)
		if market.Precision.Price != nil {
			quantized, err := number.Apply(cost, number.Truncate, *market.Precision.Price, number.DecimalPlaces)
			if err != nil {
				return nil, err
			}
			form.Set("amount", quantized)
		} else {
			form.Set("amount", cost.String())
		}
	default:
		volume, err := formatAmount(market, amount)
		if err != nil {
			return nil, err
		}
		form.Set("amount", volume)
	}
	for key, value := range params {
		form.Set(key, safe.Stringify(value))
	}
	response, err := a.privatePost(ctx, "/entrust/add", form)
	if err != nil {
		return nil, err
	}
	order := &exchange.Order{
		ID:        safe.String(safe.Map(response, "result"), "order_sn"),
		Symbol:    market.Symbol,
		Timestamp: time.Now().UnixMilli(),
		Type:      orderType,
		Side:      side,
		Amount:    &amount,
		Price:     price,
		Status:    exchange.OrderStatusOpen,
		Info:      response,
	}
	return exchange.FinalizeOrder(order), nil
}

// CancelOrder cancels by order_sn. The endpoint takes a batch and reports
// which ids it could cancel; an id missing from the success list was not
// an open order.
//
// POST /openApi/entrust/cancel
//
//	{"errno":0,"errmsg":"success","result":{
//	  "success":["avl12121"],"failed":["sd24564"]}}
func (a *Aofex) CancelOrder(ctx context.Context, id, symbol string) error {
	response, err := a.privatePost(ctx, "/entrust/cancel", url.Values{"order_ids": {id}})
	if err != nil {
		return err
	}
	for _, canceled := range safe.List(safe.Map(response, "result"), "success") {
		if s, ok := canceled.(string); ok && s == id {
			return nil
		}
	}
	return exchange.NewAPIError(Name, exchange.ErrOrderNotFound, "order "+id+" not among canceled ids")
}

// FetchOrder returns one order with its fills folded in by the API.
//
// GET /openApi/entrust/detail?order_sn=...
//
//	{"errno":0,"errmsg":"success","result":{
//	  "trades":[...],
//	  "entrust":{"order_sn":"BM7442641584965237751ZMAKJ5","symbol":"ETH-USDT",
//	             "ctime":"2020-03-23 20:07:17","type":1,"side":"buy",
//	             "price":"0","number":"10","total_price":"0",
//	             "deal_number":"0.0807","deal_price":"123.89","status":3}}}
func (a *Aofex) FetchOrder(ctx context.Context, id, symbol string) (*exchange.Order, error) {
	response, err := a.privateGet(ctx, "/entrust/detail", url.Values{"order_sn": {id}})
	if err != nil {
		return nil, err
	}
	raw := safe.Map(safe.Map(response, "result"), "entrust")
	if raw == nil {
		return nil, exchange.NewAPIError(Name, exchange.ErrOrderNotFound, "no order "+id)
	}
	return a.parseOrder(ctx, raw), nil
}

// FetchOpenOrders lists pending and partially filled orders.
//
// GET /openApi/entrust/currentList
func (a *Aofex) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Order, error) {
	return a.fetchOrderList(ctx, "/entrust/currentList", symbol, since, limit)
}

// FetchClosedOrders lists filled and canceled orders.
//
// GET /openApi/entrust/historyList
func (a *Aofex) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Order, error) {
	return a.fetchOrderList(ctx, "/entrust/historyList", symbol, since, limit)
}

func (a *Aofex) fetchOrderList(ctx context.Context, path, symbol string, since int64, limit int) ([]exchange.Order, error) {
	params := url.Values{}
	if symbol != "" {
		market, err := a.marketBySymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		params.Set("symbol", market.ID)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit)) // default 20, max 100
	}
	response, err := a.privateGet(ctx, path, params)
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "result")
	orders := make([]exchange.Order, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		order := a.parseOrder(ctx, raw)
		if since > 0 && order.Timestamp < since {
			continue
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// parseOrder maps a raw order. Type 2 is a limit order, anything else a
// market one; number is the requested amount, deal_number the filled part
// and deal_price the average fill price.
//
//	{"order_sn":"BL74426415849672087836G48N1","symbol":"ETH-USDT",
//	 "ctime":"2020-03-23 20:40:08","type":2,"side":"buy","price":"90",
//	 "number":"0.1","total_price":"9.0","deal_number":null,
//	 "deal_price":null,"status":1}
func (a *Aofex) parseOrder(ctx context.Context, raw map[string]any) *exchange.Order {
	orderType := exchange.OrderTypeMarket
	if safe.String(raw, "type") == "2" {
		orderType = exchange.OrderTypeLimit
	}
	order := &exchange.Order{
		ID:        safe.String(raw, "order_sn"),
		Symbol:    a.symbolForID(ctx, safe.String(raw, "symbol")),
		Timestamp: parseCTime(safe.String(raw, "ctime")),
		Type:      orderType,
		Side:      safe.String(raw, "side"),
		Price:     safe.Decimal(raw, "price"),
		Amount:    safe.Decimal(raw, "number"),
		Cost:      safe.Decimal(raw, "total_price"),
		Filled:    safe.Decimal(raw, "deal_number"),
		Average:   safe.Decimal(raw, "deal_price"),
		Status:    parseOrderStatus(safe.String(raw, "status")),
		Info:      raw,
	}
	return exchange.FinalizeOrder(order)
}

func parseOrderStatus(status string) string {
	switch status {
	case "1", "2": // pending, partially filled
		return exchange.OrderStatusOpen
	case "3":
		return exchange.OrderStatusClosed
	case "4", "5", "6": // canceling, partially canceled, canceled
		return exchange.OrderStatusCanceled
	}
	return status
}

// parseCTime converts the API's "2006-01-02 15:04:05" datetimes to
// millisecond timestamps.
func parseCTime(s string) int64 {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// AOFEX quantizes by decimal places.
func formatAmount(m *exchange.Market, d decimal.Decimal) (string, error) {
	if m.Precision.Amount == nil {
		return d.String(), nil
	}
	return number.Apply(d, number.Truncate, *m.Precision.Amount, number.DecimalPlaces)
}

func formatPrice(m *exchange.Market, d decimal.Decimal) (string, error) {
	if m.Precision.Price == nil {
		return d.String(), nil
	}
	return number.Apply(d, number.Round, *m.Precision.Price, number.DecimalPlaces)
}
