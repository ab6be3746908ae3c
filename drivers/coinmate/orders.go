package coinmate

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/number"
	"github.com/navid-fn/uniex/safe"
)

// CreateOrder places an order through the per-shape endpoints: buyLimit,
// sellLimit, buyInstant or sellInstant. Instant buys state the quote
// total to spend instead of a base amount. A clientOrderId is attached
// when the caller does not bring one.
//
// POST /api/buyLimit
//
//	{"error":false,"errorMessage":null,"data":102}
func (c *Coinmate) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price *decimal.Decimal, params exchange.Params) (*exchange.Order, error) {
	market, err := c.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	form := url.Values{"currencyPair": {market.ID}}
	var path string
	if orderType == exchange.OrderTypeMarket {
		quantized, err := formatAmount(market, amount)
		if err != nil {
			return nil, err
		}
		if side == exchange.SideBuy {
			form.Set("total", quantized) // quote currency to spend
			path = "/buyInstant"
		} else {
			form.Set("amount", quantized)
			path = "/sellInstant"
		}
	} else {
		if price == nil {
			return nil, fmt.Errorf("%w: limit orders need a price", exchange.ErrArgumentsRequired)
		}
		quantized, err := formatAmount(market, amount)
		if err != nil {
			return nil, err
		}
		limitPrice, err := formatPrice(market, *price)
		if err != nil {
			return nil, err
		}
		form.Set("amount", quantized)
		form.Set("price", limitPrice)
		if side == exchange.SideBuy {
			path = "/buyLimit"
		} else {
			path = "/sellLimit"
		}
	}
	for key, value := range params {
		form.Set(key, safe.Stringify(value))
	}
	if form.Get("clientOrderId") == "" {
		form.Set("clientOrderId", uuid.NewString())
	}
	response, err := c.privatePost(ctx, path, form)
	if err != nil {
		return nil, err
	}
	order := &exchange.Order{
		ID:            safe.String(response, "data"),
		ClientOrderID: form.Get("clientOrderId"),
		Symbol:        market.Symbol,
		Timestamp:     time.Now().UnixMilli(),
		Type:          orderType,
		Side:          side,
		Amount:        &amount,
		Price:         price,
		Status:        exchange.OrderStatusOpen,
		Info:          response,
	}
	return exchange.FinalizeOrder(order), nil
}

// CancelOrder cancels by id; the symbol is not needed.
//
// POST /api/cancelOrderWithInfo
//
//	{"error":false,"errorMessage":null,"data":{"success":true,"remainingAmount":0.01}}
func (c *Coinmate) CancelOrder(ctx context.Context, id, symbol string) error {
	response, err := c.privatePost(ctx, "/cancelOrderWithInfo", url.Values{"orderId": {id}})
	if err != nil {
		return err
	}
	if !safe.Bool(safe.Map(response, "data"), "success") {
		return exchange.NewAPIError(Name, exchange.ErrOrderNotFound, "order "+id+" was not canceled")
	}
	return nil
}

// FetchOrder returns one order by id.
//
// POST /api/orderById
func (c *Coinmate) FetchOrder(ctx context.Context, id, symbol string) (*exchange.Order, error) {
	response, err := c.privatePost(ctx, "/orderById", url.Values{"orderId": {id}})
	if err != nil {
		return nil, err
	}
	raw := safe.Map(response, "data")
	if raw == nil {
		return nil, exchange.NewAPIError(Name, exchange.ErrOrderNotFound, "no order "+id)
	}
	return c.parseOrder(ctx, raw, ""), nil
}

// FetchOpenOrders lists resting orders across all markets. The endpoint
// reports no status field, so open is implied.
//
// POST /api/openOrders
func (c *Coinmate) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Order, error) {
	response, err := c.privatePost(ctx, "/openOrders", url.Values{})
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "data")
	orders := make([]exchange.Order, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		order := c.parseOrder(ctx, raw, exchange.OrderStatusOpen)
		if symbol != "" && order.Symbol != symbol {
			continue
		}
		if since > 0 && order.Timestamp < since {
			continue
		}
		orders = append(orders, *order)
		if limit > 0 && len(orders) >= limit {
			break
		}
	}
	return orders, nil
}

// FetchClosedOrders lists filled or canceled orders for one market.
//
// POST /api/orderHistory
func (c *Coinmate) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Order, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: fetchClosedOrders needs a symbol", exchange.ErrArgumentsRequired)
	}
	market, err := c.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	params := url.Values{"currencyPair": {market.ID}}
	if limit > 0 {
		params.Set("limit", safe.Stringify(limit))
	}
	response, err := c.privatePost(ctx, "/orderHistory", params)
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "data")
	orders := make([]exchange.Order, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		order := c.parseOrder(ctx, raw, "")
		if order.Status == exchange.OrderStatusOpen {
			continue
		}
		if since > 0 && order.Timestamp < since {
			continue
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// parseOrder maps a raw order. originalAmount is the requested size;
// open-order rows report the remainder under a bare amount key.
//
//	{"id":67527001,"timestamp":1517931722613,"type":"BUY","price":5897.24,
//	 "remainingAmount":0.002367,"originalAmount":0.1,"status":"CANCELLED",
//	 "orderTradeType":"LIMIT","avgPrice":null,"clientOrderId":null}
func (c *Coinmate) parseOrder(ctx context.Context, raw map[string]any, forcedStatus string) *exchange.Order {
	status := forcedStatus
	if status == "" {
		status = parseOrderStatus(safe.String(raw, "status"))
	}
	order := &exchange.Order{
		ID:            safe.String(raw, "id"),
		ClientOrderID: safe.String(raw, "clientOrderId"),
		Symbol:        c.symbolForID(ctx, safe.String(raw, "currencyPair")),
		Timestamp:     safe.Integer(raw, "timestamp"),
		Type:          safe.StringLower(raw, "orderTradeType"),
		Side:          safe.StringLower(raw, "type"),
		Price:         safe.Decimal(raw, "price"),
		StopPrice:     safe.Decimal(raw, "stopPrice"),
		Amount:        safe.Decimal(raw, "originalAmount"),
		Remaining:     safe.Decimal2(raw, "remainingAmount", "amount"),
		Average:       safe.Decimal(raw, "avgPrice"),
		Status:        status,
		Info:          raw,
	}
	return exchange.FinalizeOrder(order)
}

func parseOrderStatus(status string) string {
	switch status {
	case "FILLED":
		return exchange.OrderStatusClosed
	case "CANCELLED":
		return exchange.OrderStatusCanceled
	case "OPEN", "PARTIALLY_FILLED":
		return exchange.OrderStatusOpen
	}
	return status
}

// Coinmate quantizes by tick size.
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
