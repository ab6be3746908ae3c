// Package exchange defines the unified schema shared by every adapter:
// markets, tickers, order books, trades, orders, balances and transactions,
// plus the error taxonomy and the capability surface adapters expose.
package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fractional fields are decimal pointers: nil means the exchange did not
// report the value. Values are parsed from the raw payload strings so no
// float64 round-trip ever touches them.

// MinMax bounds a numeric field. Either side may be nil (unbounded).
type MinMax struct {
	Min *decimal.Decimal `json:"min"`
	Max *decimal.Decimal `json:"max"`
}

// Precision describes how finely an exchange quantizes amounts and prices.
// Depending on the adapter's precision mode the values are decimal-place
// counts (e.g. 8) or tick sizes (e.g. 0.00000001).
type Precision struct {
	Amount *decimal.Decimal `json:"amount"`
	Price  *decimal.Decimal `json:"price"`
}

// MarketLimits groups the order-size bounds of a market.
type MarketLimits struct {
	Amount MinMax `json:"amount"`
	Price  MinMax `json:"price"`
	Cost   MinMax `json:"cost"`
}

// Market identifies a tradable pair.
// ID is exchange-native and must be used for all outgoing requests
// referencing this market; Symbol is always derived from Base+Quote.
type Market struct {
	ID        string           `json:"id"`
	Symbol    string           `json:"symbol"`
	Base      string           `json:"base"`
	Quote     string           `json:"quote"`
	BaseID    string           `json:"baseId"`
	QuoteID   string           `json:"quoteId"`
	Active    bool             `json:"active"`
	Taker     *decimal.Decimal `json:"taker"`
	Maker     *decimal.Decimal `json:"maker"`
	Precision Precision        `json:"precision"`
	Limits    MarketLimits     `json:"limits"`
	Info      map[string]any   `json:"-"`
}

// CurrencyLimits bounds deposits and withdrawals of a currency.
type CurrencyLimits struct {
	Withdraw MinMax `json:"withdraw"`
	Deposit  MinMax `json:"deposit"`
}

// Currency is a tradable or transferable asset. Code is the canonical
// uppercase ticker after alias mapping; ID is the exchange-native one.
type Currency struct {
	ID        string           `json:"id"`
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Active    bool             `json:"active"`
	Deposit   bool             `json:"deposit"`
	Withdraw  bool             `json:"withdraw"`
	Precision *decimal.Decimal `json:"precision"`
	Fee       *decimal.Decimal `json:"fee"`
	Limits    CurrencyLimits   `json:"limits"`
	Info      map[string]any   `json:"-"`
}

// Ticker is a point-in-time price summary for one market.
type Ticker struct {
	Symbol        string           `json:"symbol"`
	Timestamp     int64            `json:"timestamp"`
	Datetime      string           `json:"datetime"`
	High          *decimal.Decimal `json:"high"`
	Low           *decimal.Decimal `json:"low"`
	Bid           *decimal.Decimal `json:"bid"`
	BidVolume     *decimal.Decimal `json:"bidVolume"`
	Ask           *decimal.Decimal `json:"ask"`
	AskVolume     *decimal.Decimal `json:"askVolume"`
	VWAP          *decimal.Decimal `json:"vwap"`
	Open          *decimal.Decimal `json:"open"`
	Close         *decimal.Decimal `json:"close"`
	Last          *decimal.Decimal `json:"last"`
	PreviousClose *decimal.Decimal `json:"previousClose"`
	Change        *decimal.Decimal `json:"change"`
	Percentage    *decimal.Decimal `json:"percentage"`
	Average       *decimal.Decimal `json:"average"`
	BaseVolume    *decimal.Decimal `json:"baseVolume"`
	QuoteVolume   *decimal.Decimal `json:"quoteVolume"`
	Info          map[string]any   `json:"-"`
}

// PriceLevel is one row of an order book side.
type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// OrderBook is a depth snapshot. Bids are sorted by price descending and
// asks ascending, regardless of how the exchange returned them.
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
	Datetime  string       `json:"datetime"`
	Nonce     int64        `json:"nonce"`
}

// TradeFee is the fee charged on a single fill.
type TradeFee struct {
	Currency string           `json:"currency"`
	Cost     *decimal.Decimal `json:"cost"`
	Rate     *decimal.Decimal `json:"rate"`
}

// Trade is one execution, public or private.
type Trade struct {
	ID           string           `json:"id"`
	OrderID      string           `json:"order"`
	Symbol       string           `json:"symbol"`
	Timestamp    int64            `json:"timestamp"`
	Datetime     string           `json:"datetime"`
	Type         string           `json:"type"`
	Side         string           `json:"side"`
	TakerOrMaker string           `json:"takerOrMaker"`
	Price        *decimal.Decimal `json:"price"`
	Amount       *decimal.Decimal `json:"amount"`
	Cost         *decimal.Decimal `json:"cost"`
	Fee          *TradeFee        `json:"fee"`
	Info         map[string]any   `json:"-"`
}

// Order statuses after normalization.
const (
	OrderStatusOpen     = "open"
	OrderStatusClosed   = "closed"
	OrderStatusCanceled = "canceled"
)

// Order sides and types after normalization.
const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"
)

// Order is a normalized exchange order.
type Order struct {
	ID                 string           `json:"id"`
	ClientOrderID      string           `json:"clientOrderId"`
	Symbol             string           `json:"symbol"`
	Timestamp          int64            `json:"timestamp"`
	Datetime           string           `json:"datetime"`
	LastTradeTimestamp int64            `json:"lastTradeTimestamp"`
	Type               string           `json:"type"`
	Side               string           `json:"side"`
	Price              *decimal.Decimal `json:"price"`
	StopPrice          *decimal.Decimal `json:"stopPrice"`
	Amount             *decimal.Decimal `json:"amount"`
	Filled             *decimal.Decimal `json:"filled"`
	Remaining          *decimal.Decimal `json:"remaining"`
	Cost               *decimal.Decimal `json:"cost"`
	Average            *decimal.Decimal `json:"average"`
	Status             string           `json:"status"`
	Fee                *TradeFee        `json:"fee"`
	Trades             []Trade          `json:"trades"`
	Info               map[string]any   `json:"-"`
}

// Balance is the per-currency account state.
type Balance struct {
	Free  *decimal.Decimal `json:"free"`
	Used  *decimal.Decimal `json:"used"`
	Total *decimal.Decimal `json:"total"`
}

// Balances maps canonical currency codes to balances.
type Balances struct {
	Accounts map[string]Balance `json:"accounts"`
	Info     map[string]any     `json:"-"`
}

// Transaction statuses and types after normalization.
const (
	TransactionStatusPending  = "pending"
	TransactionStatusOK       = "ok"
	TransactionStatusFailed   = "failed"
	TransactionStatusCanceled = "canceled"

	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
)

// Transaction is a deposit or withdrawal record.
type Transaction struct {
	ID        string           `json:"id"`
	TxID      string           `json:"txid"`
	Timestamp int64            `json:"timestamp"`
	Datetime  string           `json:"datetime"`
	Currency  string           `json:"currency"`
	Amount    *decimal.Decimal `json:"amount"`
	Address   string           `json:"address"`
	Tag       string           `json:"tag"`
	Type      string           `json:"type"`
	Status    string           `json:"status"`
	Updated   int64            `json:"updated"`
	Fee       *TradeFee        `json:"fee"`
	Info      map[string]any   `json:"-"`
}

// DepositAddress is a funding address for one currency.
type DepositAddress struct {
	Currency string         `json:"currency"`
	Address  string         `json:"address"`
	Tag      string         `json:"tag"`
	Info     map[string]any `json:"-"`
}

// TradingFee holds the maker/taker rates for one market.
type TradingFee struct {
	Symbol string           `json:"symbol"`
	Maker  *decimal.Decimal `json:"maker"`
	Taker  *decimal.Decimal `json:"taker"`
	Info   map[string]any   `json:"-"`
}

// OHLCV is one candle.
type OHLCV struct {
	Timestamp int64           `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// ISO8601 renders a millisecond timestamp as an RFC3339 string with
// millisecond precision, or "" for zero.
func ISO8601(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
