// Package coinmate adapts the Coinmate REST API (coinmate.io) to the
// unified schema. Private calls POST a form carrying the client id, a
// millisecond nonce and an HMAC-SHA256 signature over nonce+clientId+apiKey.
package coinmate

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
	"github.com/navid-fn/uniex/transport"
)

const (
	Name = "coinmate"

	baseURL        = "https://coinmate.io/api"
	requestsPerSec = 1.0
)

var capabilities = map[string]bool{
	exchange.CapFetchMarkets:        true,
	exchange.CapFetchTicker:         true,
	exchange.CapFetchOrderBook:      true,
	exchange.CapFetchTrades:         true,
	exchange.CapFetchMyTrades:       true,
	exchange.CapFetchBalance:        true,
	exchange.CapCreateOrder:         true,
	exchange.CapCancelOrder:         true,
	exchange.CapFetchOrder:          true,
	exchange.CapFetchOpenOrders:     true,
	exchange.CapFetchClosedOrders:   true,
	exchange.CapFetchTransactions:   true,
	exchange.CapFetchTradingFee:     true,
	exchange.CapWithdraw:            true,
	exchange.CapFetchDepositAddress: true,
}

var currencyAliases = map[string]string{}

var errorMapper = exchange.NewErrorMapper(
	map[string]error{
		"No order with given ID": exchange.ErrOrderNotFound,
	},
	map[string]error{
		"Not enough account balance available": exchange.ErrInsufficientFunds,
		"Incorrect order ID":                   exchange.ErrInvalidOrder,
		"Minimum Order Size ":                  exchange.ErrInvalidOrder,
		"max allowed precision":                exchange.ErrInvalidOrder,
		"TOO MANY REQUESTS":                    exchange.ErrRateLimitExceeded,
		"Access denied.":                       exchange.ErrAuthentication,
	},
)

// Coinmate is the adapter.
type Coinmate struct {
	client *transport.Client
	creds  exchange.Credentials
	log    *logrus.Entry
	cache  exchange.MarketCache

	// nonce source, overridable in tests
	now func() time.Time
}

// New builds a Coinmate adapter. The uid credential is the numeric
// client id the signature covers.
func New(creds exchange.Credentials, logger *logrus.Logger, opts ...transport.Option) *Coinmate {
	c := &Coinmate{
		creds: creds,
		log:   logger.WithField("exchange", Name),
		now:   time.Now,
	}
	opts = append([]transport.Option{transport.WithHandleErrors(handleErrors)}, opts...)
	c.client = transport.New(Name, requestsPerSec, logger, opts...)
	return c
}

func (c *Coinmate) Name() string { return Name }

func (c *Coinmate) Has() map[string]bool {
	out := make(map[string]bool, len(capabilities))
	for k, v := range capabilities {
		out[k] = v
	}
	return out
}

func (c *Coinmate) LoadMarkets(ctx context.Context) (*exchange.MarketIndex, error) {
	return c.cache.Load(func() ([]exchange.Market, error) {
		return c.FetchMarkets(ctx)
	})
}

// handleErrors maps the error envelope every response carries.
//
//	{"error":true,"errorMessage":"Minimum Order Size 0.01 ETH","data":null}
func handleErrors(status int, body []byte, decoded any) error {
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil
	}
	if _, present := m["error"]; !present || !safe.Bool(m, "error") {
		return nil
	}
	message := safe.String(m, "errorMessage")
	return exchange.NewAPIError(Name, errorMapper.Map(message, message), string(body))
}

func (c *Coinmate) publicGet(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	req := &transport.Request{Method: http.MethodGet, URL: baseURL + path, Query: query}
	return c.do(ctx, req)
}

// privatePost signs a call: the signature is the uppercase hex
// HMAC-SHA256 of nonce+clientId+publicKey, and rides in the form body
// next to the params.
func (c *Coinmate) privatePost(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	if err := c.creds.Require(Name, true); err != nil {
		return nil, err
	}
	nonce := strconv.FormatInt(c.now().UnixMilli(), 10)
	mac := hmac.New(sha256.New, []byte(c.creds.Secret))
	mac.Write([]byte(nonce + c.creds.UID + c.creds.APIKey))
	signature := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))

	form := url.Values{}
	for key, values := range params {
		for _, v := range values {
			form.Add(key, v)
		}
	}
	form.Set("clientId", c.creds.UID)
	form.Set("nonce", nonce)
	form.Set("publicKey", c.creds.APIKey)
	form.Set("signature", signature)

	req := &transport.Request{
		Method: http.MethodPost,
		URL:    baseURL + path,
		Body:   []byte(form.Encode()),
	}
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, req)
}

func (c *Coinmate) do(ctx context.Context, req *transport.Request) (map[string]any, error) {
	decoded, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected response shape", Name)
	}
	return m, nil
}

func (c *Coinmate) marketBySymbol(ctx context.Context, symbol string) (*exchange.Market, error) {
	idx, err := c.LoadMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return idx.BySymbol(symbol)
}

// symbolForID resolves a native pair id like "BTC_EUR" to "BTC/EUR".
func (c *Coinmate) symbolForID(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	if idx, err := c.LoadMarkets(ctx); err == nil {
		if m, err := idx.ByID(id); err == nil {
			return m.Symbol
		}
	}
	baseID, quoteID, ok := strings.Cut(id, "_")
	if !ok {
		return id
	}
	return exchange.CurrencyCode(baseID, currencyAliases) + "/" + exchange.CurrencyCode(quoteID, currencyAliases)
}
