// Package aofex adapts the AOFEX REST API (openapi.aofex.com) to the
// unified schema. Private calls are signed with a plain SHA1 over the
// sorted credentials, nonce and request params.
package aofex

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
	"github.com/navid-fn/uniex/transport"
)

const (
	Name = "aofex"

	baseURL        = "https://openapi.aofex.com/openApi"
	requestsPerSec = 1.0
)

var capabilities = map[string]bool{
	exchange.CapFetchMarkets:      true,
	exchange.CapFetchTicker:       true,
	exchange.CapFetchTickers:      true,
	exchange.CapFetchOrderBook:    true,
	exchange.CapFetchTrades:       true,
	exchange.CapFetchOHLCV:        true,
	exchange.CapFetchBalance:      true,
	exchange.CapCreateOrder:       true,
	exchange.CapCancelOrder:       true,
	exchange.CapFetchOrder:        true,
	exchange.CapFetchOpenOrders:   true,
	exchange.CapFetchClosedOrders: true,
}

var currencyAliases = map[string]string{}

var timeframes = map[string]string{
	"1m": "1min", "5m": "5min", "15m": "15min", "30m": "30min",
	"1h": "1hour", "6h": "6hour", "12h": "12hour",
	"1d": "1day", "1w": "1week",
}

// The errno space groups by hundreds only loosely, so every code is
// mapped individually.
var errorMapper = exchange.NewErrorMapper(
	map[string]error{
		"20001": exchange.ErrExchange,          // request failure
		"20401": exchange.ErrPermissionDenied,  // no permission
		"20500": exchange.ErrExchange,          // system error
		"20501": exchange.ErrBadSymbol,         // base symbol error
		"20502": exchange.ErrExchange,          // base currency error
		"20503": exchange.ErrExchange,          // base date error
		"20504": exchange.ErrInsufficientFunds, // frozen balance insufficient
		"20505": exchange.ErrBadRequest,        // bad argument
		"20506": exchange.ErrAuthentication,    // api signature not valid
		"20507": exchange.ErrExchange,          // gateway internal error
		"20508": exchange.ErrInvalidAddress,    // bad ethereum address
		"20509": exchange.ErrInsufficientFunds, // order account balance error
		"20510": exchange.ErrInvalidOrder,      // limit order price error
		"20511": exchange.ErrInvalidOrder,      // limit order amount error
		"20512": exchange.ErrInvalidOrder,      // order price precision error
		"20513": exchange.ErrInvalidOrder,      // order amount precision error
		"20514": exchange.ErrInvalidOrder,      // market order amount error
		"20515": exchange.ErrInvalidOrder,      // query order invalid
		"20516": exchange.ErrInvalidOrder,      // order state error
		"20517": exchange.ErrInvalidOrder,      // order date limit error
		"50518": exchange.ErrInvalidOrder,      // order update error
		"20519": exchange.ErrInvalidNonce,      // the nonce has been used
		"20520": exchange.ErrInvalidNonce,      // nonce expired, verify server time
		"20521": exchange.ErrBadRequest,        // incomplete header parameters
		"20522": exchange.ErrExchange,          // not getting the current user
		"20523": exchange.ErrAuthentication,    // please authenticate
		"20524": exchange.ErrPermissionDenied,  // btc account lockout
		"20525": exchange.ErrAuthentication,    // get api key error
		"20526": exchange.ErrPermissionDenied,  // no query permission
		"20527": exchange.ErrPermissionDenied,  // no deal permission
		"20528": exchange.ErrPermissionDenied,  // no withdrawal permission
		"20529": exchange.ErrAuthentication,    // api key expired
		"20530": exchange.ErrPermissionDenied,  // no permission
	},
	nil,
)

// Aofex is the adapter.
type Aofex struct {
	client *transport.Client
	creds  exchange.Credentials
	log    *logrus.Entry
	cache  exchange.MarketCache

	// nonce source, overridable in tests
	nonce func() string
}

// New builds an Aofex adapter.
func New(creds exchange.Credentials, logger *logrus.Logger, opts ...transport.Option) *Aofex {
	a := &Aofex{
		creds: creds,
		log:   logger.WithField("exchange", Name),
		nonce: newNonce,
	}
	opts = append([]transport.Option{transport.WithHandleErrors(handleErrors)}, opts...)
	a.client = transport.New(Name, requestsPerSec, logger, opts...)
	return a
}

func (a *Aofex) Name() string { return Name }

func (a *Aofex) Has() map[string]bool {
	out := make(map[string]bool, len(capabilities))
	for k, v := range capabilities {
		out[k] = v
	}
	return out
}

func (a *Aofex) LoadMarkets(ctx context.Context) (*exchange.MarketIndex, error) {
	return a.cache.Load(func() ([]exchange.Market, error) {
		return a.FetchMarkets(ctx)
	})
}

// newNonce makes a nonce string from the current millisecond clock and a
// short random suffix, as the signing scheme requires.
func newNonce() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + uuid.NewString()[:5]
}

// handleErrors rejects any body whose errno is non-zero.
//
//	{"errno":20501,"errmsg":"base symbol error"}
func handleErrors(status int, body []byte, decoded any) error {
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil
	}
	errno, ok := safe.IntegerOK(m, "errno")
	if !ok || errno == 0 {
		return nil
	}
	code := strconv.FormatInt(errno, 10)
	message := safe.String(m, "errmsg")
	return exchange.NewAPIError(Name, errorMapper.Map(code, message), string(body))
}

func (a *Aofex) publicGet(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	req := &transport.Request{Method: http.MethodGet, URL: baseURL + path, Query: query}
	return a.do(ctx, req)
}

func (a *Aofex) privateGet(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	if err := a.creds.Require(Name, false); err != nil {
		return nil, err
	}
	req := &transport.Request{Method: http.MethodGet, URL: baseURL + path, Query: params}
	a.sign(req, params)
	return a.do(ctx, req)
}

func (a *Aofex) privatePost(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	if err := a.creds.Require(Name, false); err != nil {
		return nil, err
	}
	req := &transport.Request{
		Method: http.MethodPost,
		URL:    baseURL + path,
		Body:   []byte(params.Encode()),
	}
	a.sign(req, params)
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	return a.do(ctx, req)
}

// sign computes the request signature: the api key, secret, nonce and each
// param rendered as "key=value" are sorted as whole strings, concatenated
// and hashed with SHA1.
func (a *Aofex) sign(req *transport.Request, params url.Values) {
	nonce := a.nonce()
	parts := []string{a.creds.APIKey, a.creds.Secret, nonce}
	for key := range params {
		parts = append(parts, key+"="+params.Get(key))
	}
	sort.Strings(parts)
	digest := sha1.Sum([]byte(strings.Join(parts, "")))

	req.SetHeader("Nonce", nonce)
	req.SetHeader("Token", a.creds.APIKey)
	req.SetHeader("Signature", hex.EncodeToString(digest[:]))
}

func (a *Aofex) do(ctx context.Context, req *transport.Request) (map[string]any, error) {
	decoded, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected response shape", Name)
	}
	return m, nil
}

func (a *Aofex) marketBySymbol(ctx context.Context, symbol string) (*exchange.Market, error) {
	idx, err := a.LoadMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return idx.BySymbol(symbol)
}

// symbolForID resolves a native id like "ETH-BTC" to "ETH/BTC", preferring
// the loaded market table and falling back to splitting on the dash.
func (a *Aofex) symbolForID(ctx context.Context, id string) string {
	if idx, err := a.LoadMarkets(ctx); err == nil {
		if m, err := idx.ByID(id); err == nil {
			return m.Symbol
		}
	}
	baseID, quoteID, ok := strings.Cut(id, "-")
	if !ok {
		return id
	}
	return exchange.CurrencyCode(baseID, currencyAliases) + "/" + exchange.CurrencyCode(quoteID, currencyAliases)
}
