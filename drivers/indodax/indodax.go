// Package indodax adapts the Indodax REST API (indodax.com) to the unified
// schema. Public endpoints are plain GETs; every private call is a POST to
// /tapi with an HMAC-SHA512 signed form body.
package indodax

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
	"github.com/navid-fn/uniex/transport"
)

const (
	Name = "indodax"

	baseURL        = "https://indodax.com"
	tapiPath       = "/tapi"
	recvWindow     = "5000"
	requestsPerSec = 10.0
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
	exchange.CapFetchClosedOrders:   true,
	exchange.CapFetchTransactions:   true,
	exchange.CapWithdraw:            true,
	exchange.CapFetchDepositAddress: true,
}

// Tickers that collide with different assets elsewhere.
var currencyAliases = map[string]string{
	"STR":    "XLM",
	"BCHABC": "BCH",
	"BCHSV":  "BSV",
	"DRK":    "DASH",
	"NEM":    "XEM",
}

var timeframes = map[string]string{
	"1m": "1", "15m": "15", "30m": "30",
	"1h": "60", "4h": "240", "1d": "1D", "1w": "1W",
}

var errorMapper = exchange.NewErrorMapper(
	map[string]error{
		"invalid_pair":                   exchange.ErrBadSymbol,
		"Insufficient balance.":          exchange.ErrInsufficientFunds,
		"invalid order.":                 exchange.ErrOrderNotFound,
		"Invalid credentials. Bad sign.": exchange.ErrAuthentication,
		"Invalid credentials. API not found or session has expired.": exchange.ErrAuthentication,
	},
	map[string]error{
		"Minimum price": exchange.ErrInvalidOrder,
		"Minimum order": exchange.ErrInvalidOrder,
	},
)

// Indodax is the adapter.
type Indodax struct {
	client *transport.Client
	creds  exchange.Credentials
	log    *logrus.Entry
	cache  exchange.MarketCache

	// nonce source, overridable in tests
	now func() time.Time
}

// New builds an Indodax adapter.
func New(creds exchange.Credentials, logger *logrus.Logger, opts ...transport.Option) *Indodax {
	i := &Indodax{
		creds: creds,
		log:   logger.WithField("exchange", Name),
		now:   time.Now,
	}
	opts = append([]transport.Option{transport.WithHandleErrors(handleErrors)}, opts...)
	i.client = transport.New(Name, requestsPerSec, logger, opts...)
	return i
}

func (i *Indodax) Name() string { return Name }

func (i *Indodax) Has() map[string]bool {
	out := make(map[string]bool, len(capabilities))
	for k, v := range capabilities {
		out[k] = v
	}
	return out
}

func (i *Indodax) LoadMarkets(ctx context.Context) (*exchange.MarketIndex, error) {
	return i.cache.Load(func() ([]exchange.Market, error) {
		return i.FetchMarkets(ctx)
	})
}

// handleErrors follows the API's success flag. Array bodies are public data
// and always pass; objects pass when they carry no error and either no
// success flag (public) or success == 1 with a return payload.
func handleErrors(status int, body []byte, decoded any) error {
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil
	}
	message := safe.String(m, "error")
	_, hasSuccess := m["success"]
	if !hasSuccess && message == "" {
		return nil
	}
	if safe.Integer(m, "success") == 1 {
		if _, ok := m["return"]; !ok {
			return exchange.NewAPIError(Name, exchange.ErrExchange, "malformed response: "+string(body))
		}
		return nil
	}
	return exchange.NewAPIError(Name, errorMapper.Map("", message), string(body))
}

func (i *Indodax) publicGet(ctx context.Context, path string) (any, error) {
	req := &transport.Request{Method: http.MethodGet, URL: baseURL + path}
	return i.client.Do(ctx, req)
}

// privatePost signs a /tapi call: the form body carries the method name, a
// millisecond timestamp and recvWindow, and the Sign header is the
// HMAC-SHA512 of the encoded body.
func (i *Indodax) privatePost(ctx context.Context, method string, params url.Values) (map[string]any, error) {
	if err := i.creds.Require(Name, false); err != nil {
		return nil, err
	}
	form := url.Values{}
	for key, values := range params {
		for _, v := range values {
			form.Add(key, v)
		}
	}
	form.Set("method", method)
	form.Set("timestamp", strconv.FormatInt(i.now().UnixMilli(), 10))
	form.Set("recvWindow", recvWindow)
	body := form.Encode()

	mac := hmac.New(sha512.New, []byte(i.creds.Secret))
	mac.Write([]byte(body))
	signature := hex.EncodeToString(mac.Sum(nil))

	req := &transport.Request{
		Method: http.MethodPost,
		URL:    baseURL + tapiPath,
		Body:   []byte(body),
	}
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	req.SetHeader("Key", i.creds.APIKey)
	req.SetHeader("Sign", signature)

	decoded, err := i.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected %s response shape", Name, method)
	}
	return m, nil
}

func (i *Indodax) marketBySymbol(ctx context.Context, symbol string) (*exchange.Market, error) {
	idx, err := i.LoadMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return idx.BySymbol(symbol)
}
