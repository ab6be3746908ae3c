package luno

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchOHLCV returns candles. The endpoint requires a start time; when the
// caller omits it the window defaults to the last 1000 candles.
//
// GET /api/exchange/1/candles?pair=...&since=...&duration=60
//
//	{"candles":[{"timestamp":1664055240000,"open":"19612.65",
//	  "close":"19612.65","high":"19612.65","low":"19612.65","volume":"0.00"}]}
func (l *Luno) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]exchange.OHLCV, error) {
	market, err := l.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	duration, ok := timeframes[timeframe]
	if !ok {
		return nil, fmt.Errorf("%w: timeframe %s", exchange.ErrNotSupported, timeframe)
	}
	if since <= 0 {
		since = time.Now().UnixMilli() - duration*1000*1000
	}
	query := url.Values{
		"pair":     {market.ID},
		"since":    {strconv.FormatInt(since, 10)},
		"duration": {strconv.FormatInt(duration, 10)},
	}
	response, err := l.privateGet(ctx, exchangePrefix+"/candles", query)
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "candles")
	candles := make([]exchange.OHLCV, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		open := safe.Decimal(raw, "open")
		high := safe.Decimal(raw, "high")
		low := safe.Decimal(raw, "low")
		closePrice := safe.Decimal(raw, "close")
		volume := safe.Decimal(raw, "volume")
		if open == nil || high == nil || low == nil || closePrice == nil || volume == nil {
			continue
		}
		candles = append(candles, exchange.OHLCV{
			Timestamp: safe.Integer(raw, "timestamp"),
			Open:      *open,
			High:      *high,
			Low:       *low,
			Close:     *closePrice,
			Volume:    *volume,
		})
		if limit > 0 && len(candles) >= limit {
			break
		}
	}
	return candles, nil
}
