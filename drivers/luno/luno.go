// Package luno adapts the Luno REST API (api.luno.com) to the unified
// schema. Private endpoints use HTTP Basic auth with the API key id and
// secret.
package luno

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
	"github.com/navid-fn/uniex/transport"
)

const (
	Name = "luno"

	baseURL        = "https://api.luno.com"
	apiPrefix      = "/api/1"
	exchangePrefix = "/api/exchange/1"
	requestsPerSec = 5.0
)

var capabilities = map[string]bool{
	exchange.CapFetchMarkets:        true,
	exchange.CapFetchTicker:         true,
	exchange.CapFetchTickers:        true,
	exchange.CapFetchOrderBook:      true,
	exchange.CapFetchTrades:         true,
	exchange.CapFetchOHLCV:          true,
	exchange.CapFetchBalance:        true,
	exchange.CapCreateOrder:         true,
	exchange.CapCancelOrder:         true,
	exchange.CapFetchOrder:          true,
	exchange.CapFetchOpenOrders:     true,
	exchange.CapFetchMyTrades:       true,
	exchange.CapFetchTradingFee:     true,
	exchange.CapFetchDepositAddress: true,
	exchange.CapWithdraw:            true,
}

// Candle durations in seconds, keyed by unified timeframe.
var timeframes = map[string]int64{
	"1m": 60, "5m": 300, "15m": 900, "30m": 1800,
	"1h": 3600, "3h": 10800, "4h": 14400, "8h": 28800,
	"1d": 86400, "3d": 259200, "1w": 604800,
}

// Luno has no colliding tickers; XBT stays XBT.
var currencyAliases = map[string]string{}

var errorMapper = exchange.NewErrorMapper(
	map[string]error{
		"ErrInsufficientBalance": exchange.ErrInsufficientFunds,
		"ErrAPIKeyNotFound":      exchange.ErrAuthentication,
		"ErrAPIKeyRevoked":       exchange.ErrAuthentication,
	},
	map[string]error{
		"invalid pair":         exchange.ErrBadSymbol,
		"would exceed balance": exchange.ErrInsufficientFunds,
	},
)

// Luno is the adapter. Zero credentials restrict it to public endpoints.
type Luno struct {
	client *transport.Client
	creds  exchange.Credentials
	log    *logrus.Entry
	cache  exchange.MarketCache

	// stream endpoint, overridable in tests
	streamURL string
}

// New builds a Luno adapter.
func New(creds exchange.Credentials, logger *logrus.Logger, opts ...transport.Option) *Luno {
	l := &Luno{
		creds:     creds,
		log:       logger.WithField("exchange", Name),
		streamURL: streamURL,
	}
	opts = append([]transport.Option{transport.WithHandleErrors(handleErrors)}, opts...)
	l.client = transport.New(Name, requestsPerSec, logger, opts...)
	return l
}

func (l *Luno) Name() string { return Name }

func (l *Luno) Has() map[string]bool {
	out := make(map[string]bool, len(capabilities))
	for k, v := range capabilities {
		out[k] = v
	}
	return out
}

// LoadMarkets fetches the market list once and serves the index from cache.
func (l *Luno) LoadMarkets(ctx context.Context) (*exchange.MarketIndex, error) {
	return l.cache.Load(func() ([]exchange.Market, error) {
		return l.FetchMarkets(ctx)
	})
}

// handleErrors maps Luno error bodies. Any response carrying an "error"
// key is a failure regardless of HTTP status.
func handleErrors(status int, body []byte, decoded any) error {
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil
	}
	message := safe.String(m, "error")
	if message == "" {
		return nil
	}
	code := safe.String(m, "error_code")
	return exchange.NewAPIError(Name, errorMapper.Map(code, message), string(body))
}

func (l *Luno) publicGet(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	req := &transport.Request{Method: http.MethodGet, URL: baseURL + path, Query: query}
	return l.do(ctx, req)
}

func (l *Luno) privateGet(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	if err := l.creds.Require(Name, false); err != nil {
		return nil, err
	}
	req := &transport.Request{Method: http.MethodGet, URL: baseURL + path, Query: query}
	l.sign(req)
	return l.do(ctx, req)
}

func (l *Luno) privatePost(ctx context.Context, path string, form url.Values) (map[string]any, error) {
	if err := l.creds.Require(Name, false); err != nil {
		return nil, err
	}
	req := &transport.Request{
		Method: http.MethodPost,
		URL:    baseURL + path,
		Body:   []byte(form.Encode()),
	}
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	l.sign(req)
	return l.do(ctx, req)
}

// sign attaches HTTP Basic auth built from the key id and secret.
func (l *Luno) sign(req *transport.Request) {
	token := base64.StdEncoding.EncodeToString([]byte(l.creds.APIKey + ":" + l.creds.Secret))
	req.SetHeader("Authorization", "Basic "+token)
}

func (l *Luno) do(ctx context.Context, req *transport.Request) (map[string]any, error) {
	decoded, err := l.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, exchange.NewAPIError(Name, exchange.ErrExchange, "unexpected response shape")
	}
	return m, nil
}

func (l *Luno) marketBySymbol(ctx context.Context, symbol string) (*exchange.Market, error) {
	idx, err := l.LoadMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return idx.BySymbol(symbol)
}

// symbolForID resolves a native pair id like "XBTAUD" to "XBT/AUD", through
// the market index when loaded, falling back to the fixed 3+3 split Luno
// pair ids follow.
func (l *Luno) symbolForID(ctx context.Context, id string) string {
	if idx, err := l.LoadMarkets(ctx); err == nil {
		if m, err := idx.ByID(id); err == nil {
			return m.Symbol
		}
	}
	if len(id) == 6 {
		base := exchange.CurrencyCode(id[:3], currencyAliases)
		quote := exchange.CurrencyCode(id[3:], currencyAliases)
		return base + "/" + quote
	}
	return strings.ToUpper(id)
}
