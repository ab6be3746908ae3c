package exchange

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Params carries exchange-specific overrides for a single call, merged into
// the outgoing request after the unified arguments.
type Params map[string]any

// Credentials holds the API secrets an adapter signs with. UID is the
// numeric client/account id some exchanges require in the signature.
type Credentials struct {
	APIKey string
	Secret string
	UID    string
}

// Require errs when the key or secret (or the uid, when the signature
// covers one) is missing, so private calls fail before anything goes on
// the wire instead of with whatever the server answers.
func (c Credentials) Require(exchangeName string, withUID bool) error {
	if c.APIKey == "" || c.Secret == "" || (withUID && c.UID == "") {
		return NewAPIError(exchangeName, ErrAuthentication, "api credentials not configured")
	}
	return nil
}

// Capability names for the Has map.
const (
	CapFetchMarkets        = "fetchMarkets"
	CapFetchCurrencies     = "fetchCurrencies"
	CapFetchTicker         = "fetchTicker"
	CapFetchTickers        = "fetchTickers"
	CapFetchOrderBook      = "fetchOrderBook"
	CapFetchTrades         = "fetchTrades"
	CapFetchOHLCV          = "fetchOHLCV"
	CapFetchBalance        = "fetchBalance"
	CapCreateOrder         = "createOrder"
	CapCancelOrder         = "cancelOrder"
	CapFetchOrder          = "fetchOrder"
	CapFetchOpenOrders     = "fetchOpenOrders"
	CapFetchClosedOrders   = "fetchClosedOrders"
	CapFetchMyTrades       = "fetchMyTrades"
	CapFetchTradingFee     = "fetchTradingFee"
	CapFetchTradingFees    = "fetchTradingFees"
	CapFetchDepositAddress = "fetchDepositAddress"
	CapFetchTransactions   = "fetchTransactions"
	CapWithdraw            = "withdraw"
)

// Exchange is the read surface every adapter implements. Operations an
// exchange cannot serve are reported false in Has and are simply not part
// of the adapter's method set beyond this interface; callers discover the
// richer surfaces with type assertions on the optional interfaces below.
type Exchange interface {
	// Name returns the lowercase exchange id ("luno", "indodax", ...).
	Name() string

	// Has reports the adapter's capability map. The returned map is a copy.
	Has() map[string]bool

	// LoadMarkets fetches and caches the market list on first use and
	// returns the cached index afterwards.
	LoadMarkets(ctx context.Context) (*MarketIndex, error)

	FetchMarkets(ctx context.Context) ([]Market, error)
	FetchTicker(ctx context.Context, symbol string) (*Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string, limit int) (*OrderBook, error)
	FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]Trade, error)
}

// Trader is the order-management surface.
type Trader interface {
	CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price *decimal.Decimal, params Params) (*Order, error)
	CancelOrder(ctx context.Context, id, symbol string) error
	FetchBalance(ctx context.Context) (*Balances, error)
	FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int) ([]Order, error)
}

// Funder is the deposit/withdrawal surface.
type Funder interface {
	FetchDepositAddress(ctx context.Context, code string) (*DepositAddress, error)
	Withdraw(ctx context.Context, code string, amount decimal.Decimal, address, tag string, params Params) (*Transaction, error)
}

// CandleFetcher is implemented by adapters whose exchange serves OHLCV data.
type CandleFetcher interface {
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]OHLCV, error)
}

// CurrencyCode canonicalizes a native ticker: uppercase, then remapped
// through the adapter's alias table when the exchange's ticker collides
// with a different asset elsewhere.
func CurrencyCode(native string, aliases map[string]string) string {
	code := strings.ToUpper(native)
	if mapped, ok := aliases[code]; ok {
		return mapped
	}
	return code
}
