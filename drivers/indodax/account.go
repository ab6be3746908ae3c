package indodax

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchBalance returns per-currency account state. Free and held funds
// arrive as two maps keyed by lowercase native currency id.
//
// POST /tapi method=getInfo
//
//	{"success":1,"return":{"server_time":1560588352,
//	  "balance":{"idr":130419,"btc":"0.00000000"},
//	  "balance_hold":{"idr":0,"btc":"0.00000000"},
//	  "address":{"btc":"1abc..."}}}
func (i *Indodax) FetchBalance(ctx context.Context) (*exchange.Balances, error) {
	response, err := i.privatePost(ctx, "getInfo", nil)
	if err != nil {
		return nil, err
	}
	data := safe.Map(response, "return")
	free := safe.Map(data, "balance")
	hold := safe.Map(data, "balance_hold")
	balances := &exchange.Balances{
		Accounts: map[string]exchange.Balance{},
		Info:     response,
	}
	for id := range free {
		code := exchange.CurrencyCode(id, currencyAliases)
		balances.Accounts[code] = exchange.Balance{
			Free: safe.Decimal(free, id),
			Used: safe.Decimal(hold, id),
		}
	}
	return exchange.FinalizeBalance(balances), nil
}

// FetchDepositAddress reads the address map returned by getInfo.
func (i *Indodax) FetchDepositAddress(ctx context.Context, code string) (*exchange.DepositAddress, error) {
	response, err := i.privatePost(ctx, "getInfo", nil)
	if err != nil {
		return nil, err
	}
	addresses := safe.Map(safe.Map(response, "return"), "address")
	for id := range addresses {
		if exchange.CurrencyCode(id, currencyAliases) != code {
			continue
		}
		return &exchange.DepositAddress{
			Currency: code,
			Address:  safe.String(addresses, id),
			Info:     addresses,
		}, nil
	}
	return nil, exchange.NewAPIError(Name, exchange.ErrInvalidAddress, "no deposit address for "+code)
}

// Withdraw requests a coin withdrawal. The API requires an idempotency
// key; a random one is generated when the caller does not pass request_id.
//
// POST /tapi method=withdrawCoin
//
//	{"success":1,"status":"approved","withdraw_currency":"xrp",
//	 "withdraw_address":"rwWr7KUZ3ZFwzgaDGjKBysADByzxvohQ3C",
//	 "withdraw_amount":"10000.00000000","fee":"2.00000000",
//	 "submit_time":"1509469200","withdraw_id":"xrp-12345","txid":""}
func (i *Indodax) Withdraw(ctx context.Context, code string, amount decimal.Decimal, address, tag string, params exchange.Params) (*exchange.Transaction, error) {
	form := url.Values{
		"currency":         {strings.ToLower(code)},
		"withdraw_amount":  {amount.String()},
		"withdraw_address": {address},
		"request_id":       {uuid.NewString()},
	}
	if tag != "" {
		form.Set("withdraw_memo", tag)
	}
	for key, value := range params {
		form.Set(key, safe.Stringify(value))
	}
	response, err := i.privatePost(ctx, "withdrawCoin", form)
	if err != nil {
		return nil, err
	}
	return parseTransaction(response, code), nil
}

// FetchTransactions lists deposits and withdrawals, grouped per currency
// in the response.
//
// POST /tapi method=transHistory
//
//	{"success":1,"return":{"withdraw":{"idr":[{...}],"btc":[...]},
//	  "deposit":{"idr":[{...}]}}}
func (i *Indodax) FetchTransactions(ctx context.Context, code string, since int64, limit int) ([]exchange.Transaction, error) {
	response, err := i.privatePost(ctx, "transHistory", nil)
	if err != nil {
		return nil, err
	}
	data := safe.Map(response, "return")
	var out []exchange.Transaction
	for _, section := range []string{"withdraw", "deposit"} {
		for id, group := range safe.Map(data, section) {
			currency := exchange.CurrencyCode(id, currencyAliases)
			if code != "" && currency != code {
				continue
			}
			rows, ok := group.([]any)
			if !ok {
				continue
			}
			for _, row := range rows {
				raw, ok := row.(map[string]any)
				if !ok {
					continue
				}
				tx := parseTransaction(raw, currency)
				if since > 0 && tx.Timestamp < since {
					continue
				}
				out = append(out, *tx)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func parseTransaction(raw map[string]any, currency string) *exchange.Transaction {
	txType := exchange.TransactionTypeWithdrawal
	if safe.String(raw, "deposit_id") != "" {
		txType = exchange.TransactionTypeDeposit
	}
	status := exchange.TransactionStatusPending
	switch safe.String(raw, "status") {
	case "success", "approved":
		status = exchange.TransactionStatusOK
	case "failed":
		status = exchange.TransactionStatusFailed
	case "cancelled":
		status = exchange.TransactionStatusCanceled
	}
	var fee *exchange.TradeFee
	if cost := safe.Decimal(raw, "fee"); cost != nil {
		fee = &exchange.TradeFee{Currency: currency, Cost: cost}
	}
	tx := &exchange.Transaction{
		ID:        safe.String2(raw, "withdraw_id", "deposit_id"),
		TxID:      safe.String2(raw, "txid", "tx"),
		Timestamp: safe.IntegerProduct(raw, "success_time", 1000),
		Currency:  currency,
		Amount:    safe.DecimalN(raw, "amount", "withdraw_amount", "deposit_amount"),
		Address:   safe.String(raw, "withdraw_address"),
		Type:      txType,
		Status:    status,
		Fee:       fee,
		Info:      raw,
	}
	if tx.Timestamp == 0 {
		tx.Timestamp = safe.Timestamp(raw, "submit_time")
	}
	return exchange.FinalizeTransaction(tx)
}
