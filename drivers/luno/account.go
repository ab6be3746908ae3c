package luno

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchBalance returns per-currency account state. Luno splits funds into
// balance/reserved/unconfirmed per wallet, possibly several wallets per
// asset: used = reserved + unconfirmed, total = balance + unconfirmed,
// summed across wallets of the same asset.
//
// GET /api/1/balance
//
//	{"balance":[{"account_id":"119","asset":"XBT","balance":"0.05",
//	  "reserved":"0.01","unconfirmed":"0.00"}]}
func (l *Luno) FetchBalance(ctx context.Context) (*exchange.Balances, error) {
	response, err := l.privateGet(ctx, apiPrefix+"/balance", nil)
	if err != nil {
		return nil, err
	}
	balances := &exchange.Balances{
		Accounts: map[string]exchange.Balance{},
		Info:     response,
	}
	for _, row := range safe.List(response, "balance") {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		code := exchange.CurrencyCode(safe.String(raw, "asset"), currencyAliases)
		reserved := decimalOrZero(safe.Decimal(raw, "reserved"))
		unconfirmed := decimalOrZero(safe.Decimal(raw, "unconfirmed"))
		balance := decimalOrZero(safe.Decimal(raw, "balance"))
		used := reserved.Add(unconfirmed)
		total := balance.Add(unconfirmed)
		if prev, ok := balances.Accounts[code]; ok {
			used = used.Add(*prev.Used)
			total = total.Add(*prev.Total)
		}
		balances.Accounts[code] = exchange.Balance{Used: &used, Total: &total}
	}
	return exchange.FinalizeBalance(balances), nil
}

// FetchTradingFee returns the account's maker/taker rates for a market.
//
// GET /api/1/fee_info?pair=...
//
//	{"maker_fee":"0.00250000","taker_fee":"0.00500000","thirty_day_volume":"0"}
func (l *Luno) FetchTradingFee(ctx context.Context, symbol string) (*exchange.TradingFee, error) {
	market, err := l.marketBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	response, err := l.privateGet(ctx, apiPrefix+"/fee_info", url.Values{"pair": {market.ID}})
	if err != nil {
		return nil, err
	}
	return &exchange.TradingFee{
		Symbol: market.Symbol,
		Maker:  safe.Decimal(response, "maker_fee"),
		Taker:  safe.Decimal(response, "taker_fee"),
		Info:   response,
	}, nil
}

// FetchDepositAddress returns the default funding address for a currency.
//
// GET /api/1/funding_address?asset=XBT
func (l *Luno) FetchDepositAddress(ctx context.Context, code string) (*exchange.DepositAddress, error) {
	response, err := l.privateGet(ctx, apiPrefix+"/funding_address", url.Values{"asset": {code}})
	if err != nil {
		return nil, err
	}
	return &exchange.DepositAddress{
		Currency: exchange.CurrencyCode(safe.String2(response, "asset", "currency"), currencyAliases),
		Address:  safe.String(response, "address"),
		Tag:      safe.String(response, "name"),
		Info:     response,
	}, nil
}

// Withdraw requests a withdrawal.
//
// POST /api/1/withdrawals
func (l *Luno) Withdraw(ctx context.Context, code string, amount decimal.Decimal, address, tag string, params exchange.Params) (*exchange.Transaction, error) {
	form := url.Values{
		"type":   {code},
		"amount": {amount.String()},
	}
	if address != "" {
		form.Set("beneficiary_id", address)
	}
	for key, value := range params {
		form.Set(key, safe.Stringify(value))
	}
	response, err := l.privatePost(ctx, apiPrefix+"/withdrawals", form)
	if err != nil {
		return nil, err
	}
	tx := &exchange.Transaction{
		ID:        safe.String(response, "id"),
		Timestamp: safe.Integer(response, "created_at"),
		Currency:  code,
		Amount:    safe.Decimal(response, "amount"),
		Type:      exchange.TransactionTypeWithdrawal,
		Status:    parseWithdrawalStatus(safe.String(response, "status")),
		Info:      response,
	}
	return exchange.FinalizeTransaction(tx), nil
}

// FetchWithdrawals lists the account's withdrawal requests.
//
// GET /api/1/withdrawals
func (l *Luno) FetchWithdrawals(ctx context.Context, code string, since int64, limit int) ([]exchange.Transaction, error) {
	response, err := l.privateGet(ctx, apiPrefix+"/withdrawals", nil)
	if err != nil {
		return nil, err
	}
	rows := safe.List(response, "withdrawals")
	out := make([]exchange.Transaction, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		currency := exchange.CurrencyCode(safe.String2(raw, "currency", "type"), currencyAliases)
		if code != "" && currency != code {
			continue
		}
		ts := safe.Integer(raw, "created_at")
		if since > 0 && ts < since {
			continue
		}
		tx := exchange.Transaction{
			ID:        safe.String(raw, "id"),
			Timestamp: ts,
			Currency:  currency,
			Amount:    safe.Decimal(raw, "amount"),
			Fee:       withdrawalFee(raw, currency),
			Type:      exchange.TransactionTypeWithdrawal,
			Status:    parseWithdrawalStatus(safe.String(raw, "status")),
			Info:      raw,
		}
		out = append(out, *exchange.FinalizeTransaction(&tx))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func withdrawalFee(raw map[string]any, currency string) *exchange.TradeFee {
	cost := safe.Decimal(raw, "fee")
	if cost == nil {
		return nil
	}
	return &exchange.TradeFee{Currency: currency, Cost: cost}
}

func parseWithdrawalStatus(status string) string {
	switch status {
	case "COMPLETED":
		return exchange.TransactionStatusOK
	case "CANCELLED":
		return exchange.TransactionStatusCanceled
	case "FAILED":
		return exchange.TransactionStatusFailed
	default:
		return exchange.TransactionStatusPending
	}
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
