package luno

import (
	"context"
	"net/url"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchOrderBook returns a depth snapshot. Limits of 100 or fewer use the
// cheaper orderbook_top endpoint.
//
// GET /api/1/orderbook?pair=XBTZAR
//
//	{"timestamp":1642201994564,
//	 "bids":[{"price":"59970.00","volume":"0.005"}, ...],
//	 "asks":[{"price":"59997.99","volume":"0.287"}, ...]}
func (l *Luno) FetchOrderBook(ctx context.Context, symbol string, limit int) (*exchange.OrderBook, error) {
	market, err := l.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	path := apiPrefix + "/orderbook"
	if limit > 0 && limit <= 100 {
		path = apiPrefix + "/orderbook_top"
	}
	query := url.Values{"pair": {market.ID}}
	response, err := l.publicGet(ctx, path, query)
	if err != nil {
		return nil, err
	}
	book := &exchange.OrderBook{
		Symbol:    market.Symbol,
		Timestamp: safe.Integer(response, "timestamp"),
		Bids:      parseBookSide(safe.List(response, "bids")),
		Asks:      parseBookSide(safe.List(response, "asks")),
	}
	return exchange.SortOrderBook(book), nil
}

func parseBookSide(rows []any) []exchange.PriceLevel {
	levels := make([]exchange.PriceLevel, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		price := safe.Decimal(raw, "price")
		volume := safe.Decimal(raw, "volume")
		if price == nil || volume == nil {
			continue
		}
		levels = append(levels, exchange.PriceLevel{Price: *price, Amount: *volume})
	}
	return levels
}
