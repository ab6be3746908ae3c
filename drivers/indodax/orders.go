package indodax

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/number"
	"github.com/navid-fn/uniex/safe"
)

// CreateOrder places a limit order; the API offers nothing else. The
// amount parameter is keyed by currency: the quote id (cost) for buys and
// the base id for sells.
//
// POST /tapi method=trade
func (i *Indodax) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price *decimal.Decimal, params exchange.Params) (*exchange.Order, error) {
	if orderType != exchange.OrderTypeLimit {
		return nil, fmt.Errorf("%w: only limit orders", exchange.ErrNotSupported)
	}
	if price == nil {
		return nil, fmt.Errorf("%w: limit orders need a price", exchange.ErrArgumentsRequired)
	}
	market, err := i.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	limitPrice, err := formatPrice(market, *price)
	if err != nil {
		return nil, err
	}
	form := url.Values{
		"pair":  {market.ID},
		"type":  {side},
		"price": {limitPrice},
	}
	if side == exchange.SideBuy {
		form.Set(market.QuoteID, amount.Mul(*price).String())
	} else {
		volume, err := formatAmount(market, amount)
		if err != nil {
			return nil, err
		}
		form.Set(market.BaseID, volume)
	}
	for key, value := range params {
		form.Set(key, safe.Stringify(value))
	}
	response, err := i.privatePost(ctx, "trade", form)
	if err != nil {
		return nil, err
	}
	data := safe.Map(response, "return")
	order := &exchange.Order{
		ID:     safe.String(data, "order_id"),
		Symbol: market.Symbol,
		Type:   exchange.OrderTypeLimit,
		Side:   side,
		Price:  price,
		Info:   response,
	}
	return exchange.FinalizeOrder(order), nil
}

// CancelOrder cancels an open order; the API needs the side as well, so it
// is looked up first when not supplied.
//
// POST /tapi method=cancelOrder
func (i *Indodax) CancelOrder(ctx context.Context, id, symbol string) error {
	order, err := i.FetchOrder(ctx, id, symbol)
	if err != nil {
		return err
	}
	market, err := i.marketBySymbol(ctx, symbol)
	if err != nil {
		return err
	}
	form := url.Values{
		"order_id": {id},
		"pair":     {market.ID},
		"type":     {order.Side},
	}
	_, err = i.privatePost(ctx, "cancelOrder", form)
	return err
}

// FetchOrder returns one order by id.
//
// POST /tapi method=getOrder
func (i *Indodax) FetchOrder(ctx context.Context, id, symbol string) (*exchange.Order, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: fetchOrder needs a symbol", exchange.ErrArgumentsRequired)
	}
	market, err := i.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	form := url.Values{
		"pair":     {market.ID},
		"order_id": {id},
	}
	response, err := i.privatePost(ctx, "getOrder", form)
	if err != nil {
		return nil, err
	}
	raw := safe.Map(safe.Map(response, "return"), "order")
	if raw == nil {
		return nil, exchange.NewAPIError(Name, exchange.ErrOrderNotFound, "no order "+id)
	}
	return parseOrder(raw, market), nil
}

// FetchOpenOrders lists pending orders.
//
// POST /tapi method=openOrders
func (i *Indodax) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Order, error) {
	idx, err := i.LoadMarkets(ctx)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	var market *exchange.Market
	if symbol != "" {
		market, err = idx.BySymbol(symbol)
		if err != nil {
			return nil, err
		}
		form.Set("pair", market.ID)
	}
	response, err := i.privatePost(ctx, "openOrders", form)
	if err != nil {
		return nil, err
	}
	data := safe.Map(response, "return")
	var orders []exchange.Order
	if market != nil {
		orders = parseOrders(safe.List(data, "orders"), market, limit)
	} else {
		// Without a pair filter the orders come grouped by market id.
		for id, group := range safe.Map(data, "orders") {
			rows, ok := group.([]any)
			if !ok {
				continue
			}
			m, err := idx.ByID(id)
			if err != nil {
				continue
			}
			orders = append(orders, parseOrders(rows, m, 0)...)
		}
	}
	return orders, nil
}

// FetchClosedOrders lists filled or cancelled orders for one market.
//
// POST /tapi method=orderHistory
func (i *Indodax) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Order, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: fetchClosedOrders needs a symbol", exchange.ErrArgumentsRequired)
	}
	market, err := i.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := i.privatePost(ctx, "orderHistory", url.Values{"pair": {market.ID}})
	if err != nil {
		return nil, err
	}
	rows := safe.List(safe.Map(response, "return"), "orders")
	orders := make([]exchange.Order, 0, len(rows))
	for _, o := range parseOrders(rows, market, limit) {
		if o.Status != exchange.OrderStatusOpen {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func parseOrders(rows []any, market *exchange.Market, limit int) []exchange.Order {
	orders := make([]exchange.Order, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		orders = append(orders, *parseOrder(raw, market))
		if limit > 0 && len(orders) >= limit {
			break
		}
	}
	return orders
}

// parseOrder maps a raw order. The amount keys embed the currency id
// (order_btc, remain_btc); when the currency is idr the key uses rp
// instead.
//
//	{"order_id":"12345","submit_time":"1392228122","price":"8000000",
//	 "type":"sell","order_ltc":"1.00000000","remain_ltc":"0.50000000"}
func parseOrder(raw map[string]any, market *exchange.Market) *exchange.Order {
	status := exchange.OrderStatusOpen
	switch safe.String(raw, "status") {
	case "filled":
		status = exchange.OrderStatusClosed
	case "cancelled":
		status = exchange.OrderStatusCanceled
	}
	quoteID := market.QuoteID
	if quoteID == "idr" {
		if _, ok := raw["order_rp"]; ok {
			quoteID = "rp"
		}
	}
	baseID := market.BaseID
	if baseID == "idr" {
		if _, ok := raw["remain_rp"]; ok {
			baseID = "rp"
		}
	}
	order := &exchange.Order{
		ID:        safe.String(raw, "order_id"),
		Symbol:    market.Symbol,
		Timestamp: safe.Timestamp(raw, "submit_time"),
		Type:      exchange.OrderTypeLimit,
		Side:      safe.String(raw, "type"),
		Price:     safe.Decimal(raw, "price"),
		Status:    status,
		Info:      raw,
	}
	// Buy orders state their size in quote units, sells in base units.
	if cost := safe.Decimal(raw, "order_"+quoteID); cost != nil {
		order.Cost = cost
	} else {
		order.Amount = safe.Decimal(raw, "order_"+baseID)
		order.Remaining = safe.Decimal(raw, "remain_"+baseID)
	}
	return exchange.FinalizeOrder(order)
}

// Indodax quantizes by decimal places.
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
