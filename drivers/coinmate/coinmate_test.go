package coinmate

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/transport"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

const tradingPairsBody = `{"error":false,"errorMessage":null,"data":[
	{"name":"BTC_EUR","firstCurrency":"BTC","secondCurrency":"EUR",
	 "priceDecimals":2,"lotDecimals":8,"minAmount":0.0002}]}`

func newTestAdapter(t *testing.T, responses map[string]string, onRequest func(*http.Request)) *Coinmate {
	t.Helper()
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if onRequest != nil {
			onRequest(r)
		}
		body, ok := responses[r.URL.Path]
		if !ok {
			t.Fatalf("unexpected request path %s", r.URL.Path)
		}
		return jsonResponse(body), nil
	})
	creds := exchange.Credentials{APIKey: "publickey", Secret: "privatekey", UID: "12345"}
	return New(creds, testLogger(), transport.WithHTTPClient(&http.Client{Transport: rt}))
}

func TestFetchMarkets(t *testing.T) {
	c := newTestAdapter(t, map[string]string{"/api/tradingPairs": tradingPairsBody}, nil)

	markets, err := c.FetchMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchMarkets: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1", len(markets))
	}

	m := markets[0]
	if m.ID != "BTC_EUR" || m.Symbol != "BTC/EUR" || m.Base != "BTC" || m.Quote != "EUR" {
		t.Errorf("unexpected identity: %+v", m)
	}
	if m.Precision.Price == nil || !m.Precision.Price.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("price tick = %v, want 0.01", m.Precision.Price)
	}
	if m.Precision.Amount == nil || !m.Precision.Amount.Equal(decimal.RequireFromString("0.00000001")) {
		t.Errorf("amount tick = %v, want 0.00000001", m.Precision.Amount)
	}
	if m.Limits.Amount.Min == nil || !m.Limits.Amount.Min.Equal(decimal.RequireFromString("0.0002")) {
		t.Errorf("min amount = %v", m.Limits.Amount.Min)
	}
}

func TestFetchTicker(t *testing.T) {
	c := newTestAdapter(t, map[string]string{
		"/api/tradingPairs": tradingPairsBody,
		"/api/ticker": `{"error":false,"errorMessage":null,"data":{
			"last":37278.71,"high":37640.56,"low":36130.41,"amount":4.46,
			"bid":37250.53,"ask":37278.71,"change":1.06,"open":36886.6,
			"timestamp":1643288200}}`,
	}, nil)

	ticker, err := c.FetchTicker(context.Background(), "BTC/EUR")
	if err != nil {
		t.Fatalf("FetchTicker: %v", err)
	}
	if ticker.Symbol != "BTC/EUR" {
		t.Errorf("Symbol = %q", ticker.Symbol)
	}
	if ticker.Timestamp != 1643288200000 {
		t.Errorf("Timestamp = %d, want milliseconds", ticker.Timestamp)
	}
	if ticker.Bid == nil || !ticker.Bid.Equal(decimal.RequireFromString("37250.53")) {
		t.Errorf("Bid = %v", ticker.Bid)
	}
	if ticker.Change == nil || !ticker.Change.Equal(decimal.RequireFromString("392.11")) {
		t.Errorf("Change = %v, want last-open", ticker.Change)
	}
}

func TestPrivatePostSignature(t *testing.T) {
	var gotBody string
	fixed := time.UnixMilli(1643288200123)

	c := newTestAdapter(t, map[string]string{
		"/api/balances": `{"error":false,"errorMessage":null,"data":{
			"BTC":{"currency":"BTC","balance":0.5,"reserved":0.1,"available":0.4}}}`,
	}, func(r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
	})
	c.now = func() time.Time { return fixed }

	balances, err := c.FetchBalance(context.Background())
	if err != nil {
		t.Fatalf("FetchBalance: %v", err)
	}

	form, err := url.ParseQuery(gotBody)
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if form.Get("clientId") != "12345" {
		t.Errorf("clientId = %q", form.Get("clientId"))
	}
	if form.Get("publicKey") != "publickey" {
		t.Errorf("publicKey = %q", form.Get("publicKey"))
	}
	if form.Get("nonce") != "1643288200123" {
		t.Errorf("nonce = %q", form.Get("nonce"))
	}

	mac := hmac.New(sha256.New, []byte("privatekey"))
	mac.Write([]byte("1643288200123" + "12345" + "publickey"))
	want := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
	if form.Get("signature") != want {
		t.Errorf("signature = %q, want %q", form.Get("signature"), want)
	}

	btc := balances.Accounts["BTC"]
	if btc.Free == nil || !btc.Free.Equal(decimal.RequireFromString("0.4")) {
		t.Errorf("Free = %v", btc.Free)
	}
	if btc.Total == nil || !btc.Total.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("Total = %v", btc.Total)
	}
}

func TestPrivateRequiresCredentials(t *testing.T) {
	// The signature covers the client id too, so a missing UID is just as
	// fatal as a missing key.
	creds := exchange.Credentials{APIKey: "publickey", Secret: "privatekey"}
	c := New(creds, testLogger(), transport.WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Fatal("no request should be sent without a client id")
			return nil, nil
		}),
	}))
	if _, err := c.FetchBalance(context.Background()); !errors.Is(err, exchange.ErrAuthentication) {
		t.Errorf("err = %v, want ErrAuthentication", err)
	}
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"order not found", `{"error":true,"errorMessage":"No order with given ID","data":null}`, exchange.ErrOrderNotFound},
		{"min order size", `{"error":true,"errorMessage":"Minimum Order Size 0.01 ETH","data":null}`, exchange.ErrInvalidOrder},
		{"balance", `{"error":true,"errorMessage":"Not enough account balance available (Currency: BTC)","data":null}`, exchange.ErrInsufficientFunds},
		{"access denied", `{"error":true,"errorMessage":"Access denied.","data":null}`, exchange.ErrAuthentication},
		{"unknown", `{"error":true,"errorMessage":"weird","data":null}`, exchange.ErrExchange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestAdapter(t, map[string]string{"/api/ticker": tt.body}, nil)
			_, err := c.publicGet(context.Background(), "/ticker", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("error false passes", func(t *testing.T) {
		decoded := map[string]any{"error": false, "data": map[string]any{}}
		if err := handleErrors(200, []byte(`{}`), decoded); err != nil {
			t.Errorf("err = %v, want nil", err)
		}
	})
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FILLED", exchange.OrderStatusClosed},
		{"CANCELLED", exchange.OrderStatusCanceled},
		{"OPEN", exchange.OrderStatusOpen},
		{"PARTIALLY_FILLED", exchange.OrderStatusOpen},
		{"ODD", "ODD"},
	}
	for _, tt := range tests {
		if got := parseOrderStatus(tt.in); got != tt.want {
			t.Errorf("parseOrderStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTransaction(t *testing.T) {
	raw := map[string]any{
		"transactionId":  float64(1862815),
		"timestamp":      float64(1516803982388),
		"amountCurrency": "LTC",
		"amount":         float64(1),
		"fee":            float64(0),
		"walletType":     "LTC",
		"transferType":   "DEPOSIT",
		"transferStatus": "COMPLETED",
		"txid":           "ccb9255dfa874e6c28f1a64179769164025329d65e5201f6097523cc073e9c87",
		"destination":    "LQrtSKA6LGhgsPqP889xZxhdPmwyjCvPfB",
	}
	tx := parseTransaction(raw)

	if tx.ID != "1862815" {
		t.Errorf("ID = %q", tx.ID)
	}
	if tx.Currency != "LTC" {
		t.Errorf("Currency = %q", tx.Currency)
	}
	if tx.Type != exchange.TransactionTypeDeposit {
		t.Errorf("Type = %q", tx.Type)
	}
	if tx.Status != exchange.TransactionStatusOK {
		t.Errorf("Status = %q", tx.Status)
	}
	if tx.Timestamp != 1516803982388 {
		t.Errorf("Timestamp = %d", tx.Timestamp)
	}
	if tx.Fee == nil || tx.Fee.Cost == nil || !tx.Fee.Cost.IsZero() || tx.Fee.Currency != "LTC" {
		t.Errorf("Fee = %+v", tx.Fee)
	}
}

func TestParseTransactionStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"COMPLETED", exchange.TransactionStatusOK},
		{"OK", exchange.TransactionStatusOK},
		{"WAITING", exchange.TransactionStatusPending},
		{"SENT", exchange.TransactionStatusPending},
		{"CREATED", exchange.TransactionStatusPending},
		{"NEW", exchange.TransactionStatusPending},
		{"CANCELED", exchange.TransactionStatusCanceled},
		{"ODD", "ODD"},
	}
	for _, tt := range tests {
		if got := parseTransactionStatus(tt.in); got != tt.want {
			t.Errorf("parseTransactionStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithdrawUnsupportedCurrency(t *testing.T) {
	c := newTestAdapter(t, map[string]string{}, nil)
	_, err := c.Withdraw(context.Background(), "DOGE", decimal.NewFromInt(1), "addr", "", nil)
	if !errors.Is(err, exchange.ErrNotSupported) {
		t.Errorf("err = %v, want ErrNotSupported", err)
	}
}

func TestFetchDepositAddressRippleTag(t *testing.T) {
	c := newTestAdapter(t, map[string]string{
		"/api/rippleDepositAddresses": `{"error":false,"errorMessage":null,
			"data":["rLW9gnQo7BQhU6igk5keqYnH3TVrCxGRzm?dt=12345"]}`,
	}, nil)

	addr, err := c.FetchDepositAddress(context.Background(), "XRP")
	if err != nil {
		t.Fatalf("FetchDepositAddress: %v", err)
	}
	if addr.Address != "rLW9gnQo7BQhU6igk5keqYnH3TVrCxGRzm" {
		t.Errorf("Address = %q", addr.Address)
	}
	if addr.Tag != "12345" {
		t.Errorf("Tag = %q", addr.Tag)
	}
	if addr.Currency != "XRP" {
		t.Errorf("Currency = %q", addr.Currency)
	}
}
