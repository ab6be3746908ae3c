package exchange

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Parse-time finishing helpers. Adapters fill in whatever fields the raw
// payload carries and call these to derive the rest. Exchange-provided
// values are never overwritten.

// FinalizeTicker fills Datetime and the derivable statistics fields.
func FinalizeTicker(t *Ticker) *Ticker {
	if t.Datetime == "" {
		t.Datetime = ISO8601(t.Timestamp)
	}
	if t.Close == nil {
		t.Close = t.Last
	}
	if t.Last == nil {
		t.Last = t.Close
	}
	open, last := t.Open, t.Last
	if open != nil && last != nil {
		if t.Change == nil {
			d := last.Sub(*open)
			t.Change = &d
		}
		if t.Average == nil {
			d := open.Add(*last).Div(decimal.NewFromInt(2))
			t.Average = &d
		}
		if t.Percentage == nil && !open.IsZero() {
			d := last.Sub(*open).Div(*open).Mul(decimal.NewFromInt(100))
			t.Percentage = &d
		}
	}
	if t.VWAP == nil && t.BaseVolume != nil && t.QuoteVolume != nil && !t.BaseVolume.IsZero() {
		d := t.QuoteVolume.Div(*t.BaseVolume)
		t.VWAP = &d
	}
	return t
}

// SortOrderBook enforces the depth ordering invariant: bids descending by
// price, asks ascending. Applied after every order book parse.
func SortOrderBook(ob *OrderBook) *OrderBook {
	sort.SliceStable(ob.Bids, func(i, j int) bool {
		return ob.Bids[i].Price.GreaterThan(ob.Bids[j].Price)
	})
	sort.SliceStable(ob.Asks, func(i, j int) bool {
		return ob.Asks[i].Price.LessThan(ob.Asks[j].Price)
	})
	if ob.Datetime == "" {
		ob.Datetime = ISO8601(ob.Timestamp)
	}
	return ob
}

// FinalizeTrade derives cost from price and amount when the payload lacks
// it, and fills Datetime.
func FinalizeTrade(t *Trade) *Trade {
	if t.Datetime == "" {
		t.Datetime = ISO8601(t.Timestamp)
	}
	if t.Cost == nil && t.Price != nil && t.Amount != nil {
		d := t.Price.Mul(*t.Amount)
		t.Cost = &d
	}
	return t
}

// FinalizeOrder reconciles the amount/filled/remaining/cost/average
// accounting, deriving each missing side from the ones present.
// Filled and remaining are floored at zero.
func FinalizeOrder(o *Order) *Order {
	if o.Datetime == "" {
		o.Datetime = ISO8601(o.Timestamp)
	}
	if o.Remaining == nil && o.Amount != nil && o.Filled != nil {
		d := clampZero(o.Amount.Sub(*o.Filled))
		o.Remaining = &d
	}
	if o.Filled == nil && o.Amount != nil && o.Remaining != nil {
		d := clampZero(o.Amount.Sub(*o.Remaining))
		o.Filled = &d
	}
	if o.Amount == nil && o.Filled != nil && o.Remaining != nil {
		d := o.Filled.Add(*o.Remaining)
		o.Amount = &d
	}
	if o.Average == nil && o.Cost != nil && o.Filled != nil && !o.Filled.IsZero() {
		d := o.Cost.Div(*o.Filled)
		o.Average = &d
	}
	if o.Cost == nil && o.Filled != nil {
		if o.Average != nil {
			d := o.Average.Mul(*o.Filled)
			o.Cost = &d
		} else if o.Price != nil {
			d := o.Price.Mul(*o.Filled)
			o.Cost = &d
		}
	}
	return o
}

// FinalizeBalance fills total = free + used (or the missing one of the
// three) per account.
func FinalizeBalance(b *Balances) *Balances {
	for code, acct := range b.Accounts {
		switch {
		case acct.Total == nil && acct.Free != nil && acct.Used != nil:
			d := acct.Free.Add(*acct.Used)
			acct.Total = &d
		case acct.Free == nil && acct.Total != nil && acct.Used != nil:
			d := clampZero(acct.Total.Sub(*acct.Used))
			acct.Free = &d
		case acct.Used == nil && acct.Total != nil && acct.Free != nil:
			d := clampZero(acct.Total.Sub(*acct.Free))
			acct.Used = &d
		}
		b.Accounts[code] = acct
	}
	return b
}

// FinalizeTransaction fills Datetime fields.
func FinalizeTransaction(t *Transaction) *Transaction {
	if t.Datetime == "" {
		t.Datetime = ISO8601(t.Timestamp)
	}
	return t
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
