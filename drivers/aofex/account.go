package aofex

import (
	"context"
	"net/url"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

// FetchBalance returns per-currency balances. show_all=1 would include
// zero balances.
//
// GET /openApi/wallet/list
//
//	{"errno":0,"errmsg":"success","result":[
//	  {"available":"0.123","frozen":"0","currency":"BTC"}]}
func (a *Aofex) FetchBalance(ctx context.Context) (*exchange.Balances, error) {
	response, err := a.privateGet(ctx, "/wallet/list", url.Values{"show_all": {"0"}})
	if err != nil {
		return nil, err
	}
	balances := &exchange.Balances{
		Accounts: make(map[string]exchange.Balance),
		Info:     response,
	}
	for _, row := range safe.List(response, "result") {
		raw, ok := row.(map[string]any)
		if !ok {
			continue
		}
		code := exchange.CurrencyCode(safe.String(raw, "currency"), currencyAliases)
		balances.Accounts[code] = exchange.Balance{
			Free: safe.Decimal(raw, "available"),
			Used: safe.Decimal(raw, "frozen"),
		}
	}
	return exchange.FinalizeBalance(balances), nil
}
