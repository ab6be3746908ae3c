package coinmate

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

var oneHundred = decimal.NewFromInt(100)

// Crypto funding goes through per-currency endpoints.
var withdrawalPaths = map[string]string{
	"BTC":  "/bitcoinWithdrawal",
	"LTC":  "/litecoinWithdrawal",
	"BCH":  "/bitcoinCashWithdrawal",
	"ETH":  "/ethereumWithdrawal",
	"XRP":  "/rippleWithdrawal",
	"DASH": "/dashWithdrawal",
}

var depositAddressPaths = map[string]string{
	"BTC":  "/bitcoinDepositAddresses",
	"LTC":  "/litecoinDepositAddresses",
	"BCH":  "/bitcoinCashDepositAddresses",
	"ETH":  "/ethereumDepositAddresses",
	"XRP":  "/rippleDepositAddresses",
	"DASH": "/dashDepositAddresses",
}

// FetchBalance returns per-currency balances keyed by code.
//
// POST /api/balances
//
//	{"error":false,"errorMessage":null,"data":{
//	  "BTC":{"currency":"BTC","balance":0.1,"reserved":0.02,"available":0.08}}}
func (c *Coinmate) FetchBalance(ctx context.Context) (*exchange.Balances, error) {
	response, err := c.privatePost(ctx, "/balances", url.Values{})
	if err != nil {
		return nil, err
	}
	balances := &exchange.Balances{
		Accounts: make(map[string]exchange.Balance),
		Info:     response,
	}
	for currencyID, value := range safe.Map(response, "data") {
		raw, ok := value.(map[string]any)
		if !ok {
			continue
		}
		code := exchange.CurrencyCode(currencyID, currencyAliases)
		balances.Accounts[code] = exchange.Balance{
			Free:  safe.Decimal(raw, "available"),
			Used:  safe.Decimal(raw, "reserved"),
			Total: safe.Decimal(raw, "balance"),
		}
	}
	return exchange.FinalizeBalance(balances), nil
}

// FetchTradingFee returns the account's fee tier for a market. The API
// quotes percentages.
//
// POST /api/traderFees
//
//	{"error":false,"errorMessage":null,
//	 "data":{"maker":"0.3","taker":"0.35","timestamp":"1646253217815"}}
func (c *Coinmate) FetchTradingFee(ctx context.Context, symbol string) (*exchange.TradingFee, error) {
	market, err := c.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := c.privatePost(ctx, "/traderFees", url.Values{"currencyPair": {market.ID}})
	if err != nil {
		return nil, err
	}
	raw := safe.Map(response, "data")
	fee := &exchange.TradingFee{Symbol: market.Symbol, Info: raw}
	if maker := safe.Decimal(raw, "maker"); maker != nil {
		rate := maker.Div(oneHundred)
		fee.Maker = &rate
	}
	if taker := safe.Decimal(raw, "taker"); taker != nil {
		rate := taker.Div(oneHundred)
		fee.Taker = &rate
	}
	return fee, nil
}

// FetchTransactions returns the deposit and withdrawal history.
//
// POST /api/transferHistory
//
//	{"error":false,"errorMessage":null,"data":[
//	  {"transactionId":1862815,"timestamp":1516803982388,
//	   "amountCurrency":"LTC","amount":1,"fee":0,"walletType":"LTC",
//	   "transferType":"DEPOSIT","transferStatus":"COMPLETED",
//	   "txid":"ccb9...245","destination":"LQrt...","destinationTag":null}]}
func (c *Coinmate) FetchTransactions(ctx context.Context, code string, since int64, limit int) ([]exchange.Transaction, error) {
	if limit <= 0 {
		limit = 1000
	}
	params := url.Values{"limit": {safe.Stringify(limit)}}
	if since > 0 {
		params.Set("timestampFrom", safe.Stringify(since))
	}
	if code != "" {
		params.Set("currency", code)
	}
	response, err := c.privatePost(ctx, "/transferHistory", params)
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "data")
	transactions := make([]exchange.Transaction, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		transactions = append(transactions, *parseTransaction(raw))
	}
	return transactions, nil
}

func parseTransaction(raw map[string]any) *exchange.Transaction {
	code := exchange.CurrencyCode(safe.String(raw, "amountCurrency"), currencyAliases)
	tx := &exchange.Transaction{
		ID:        safe.String2(raw, "transactionId", "id"),
		TxID:      safe.String(raw, "txid"),
		Timestamp: safe.Integer(raw, "timestamp"),
		Currency:  code,
		Amount:    safe.Decimal(raw, "amount"),
		Address:   safe.String(raw, "destination"),
		Tag:       safe.String(raw, "destinationTag"),
		Type:      safe.StringLower(raw, "transferType"),
		Status:    parseTransactionStatus(safe.String(raw, "transferStatus")),
		Info:      raw,
	}
	if feeCost := safe.Decimal(raw, "fee"); feeCost != nil {
		tx.Fee = &exchange.TradeFee{Cost: feeCost, Currency: code}
	}
	return exchange.FinalizeTransaction(tx)
}

func parseTransactionStatus(status string) string {
	switch status {
	case "COMPLETED", "OK":
		return exchange.TransactionStatusOK
	case "WAITING", "SENT", "CREATED", "NEW":
		return exchange.TransactionStatusPending
	case "CANCELED":
		return exchange.TransactionStatusCanceled
	}
	return status
}

// Withdraw sends funds out through the currency's own endpoint.
//
// POST /api/bitcoinWithdrawal
//
//	{"error":false,"errorMessage":null,"data":{"id":2132583}}
func (c *Coinmate) Withdraw(ctx context.Context, code string, amount decimal.Decimal, address, tag string, params exchange.Params) (*exchange.Transaction, error) {
	path, ok := withdrawalPaths[code]
	if !ok {
		return nil, fmt.Errorf("%w: withdrawals are limited to %s", exchange.ErrNotSupported, strings.Join(supportedCodes(withdrawalPaths), ", "))
	}
	form := url.Values{
		"amount":  {amount.String()},
		"address": {address},
	}
	if tag != "" {
		form.Set("destinationTag", tag)
	}
	for key, value := range params {
		form.Set(key, safe.Stringify(value))
	}
	response, err := c.privatePost(ctx, path, form)
	if err != nil {
		return nil, err
	}
	tx := &exchange.Transaction{
		ID:       safe.String(safe.Map(response, "data"), "id"),
		Currency: code,
		Amount:   &amount,
		Address:  address,
		Tag:      tag,
		Type:     exchange.TransactionTypeWithdrawal,
		Status:   exchange.TransactionStatusPending,
		Info:     response,
	}
	return exchange.FinalizeTransaction(tx), nil
}

// FetchDepositAddress returns the first funding address on file for a
// currency.
//
// POST /api/bitcoinDepositAddresses
//
//	{"error":false,"errorMessage":null,"data":["3NukK6..."]}
func (c *Coinmate) FetchDepositAddress(ctx context.Context, code string) (*exchange.DepositAddress, error) {
	path, ok := depositAddressPaths[code]
	if !ok {
		return nil, fmt.Errorf("%w: deposit addresses are limited to %s", exchange.ErrNotSupported, strings.Join(supportedCodes(depositAddressPaths), ", "))
	}
	response, err := c.privatePost(ctx, path, url.Values{})
	if err != nil {
		return nil, err
	}
	address := safe.IndexString(safe.List(response, "data"), 0)
	if address == "" {
		return nil, exchange.NewAPIError(Name, exchange.ErrExchange, "no deposit address for "+code)
	}
	// Ripple addresses embed the destination tag as a query suffix.
	address, tag, _ := strings.Cut(address, "?dt=")
	return &exchange.DepositAddress{
		Currency: code,
		Address:  address,
		Tag:      tag,
		Info:     response,
	}, nil
}

func supportedCodes(paths map[string]string) []string {
	codes := make([]string, 0, len(paths))
	for code := range paths {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
