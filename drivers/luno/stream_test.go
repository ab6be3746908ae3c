package luno

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/transport"
)

// newStreamServer runs a websocket server that hands each accepted
// connection to handle after reading the auth message.
func newStreamServer(t *testing.T, handle func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		var auth map[string]string
		if err := conn.ReadJSON(&auth); err != nil {
			t.Errorf("read auth: %v", err)
			return
		}
		if auth["api_key_id"] != "keyid" {
			t.Errorf("api_key_id = %q, want keyid", auth["api_key_id"])
		}
		handle(conn)
	}))
}

func newStreamAdapter(srv *httptest.Server) *Luno {
	creds := exchange.Credentials{APIKey: "keyid", Secret: "keysecret"}
	l := New(creds, testLogger(), transport.WithHTTPClient(srv.Client()))
	l.streamURL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	return l
}

func TestStreamOnceDeliversTrades(t *testing.T) {
	srv := newStreamServer(t, func(conn *websocket.Conn) {
		msg := `{"timestamp":1642201439301,"trade_updates":[
			{"sequence":"24352","base":"0.1","counter":"5000","maker_order_id":"m1"}]}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Errorf("write: %v", err)
		}
	})
	defer srv.Close()

	l := newStreamAdapter(srv)
	market := &exchange.Market{ID: "XBTZAR", Symbol: "XBT/ZAR"}

	var trades []exchange.Trade
	// The connection ends when the server hangs up, so streamOnce returns
	// a read error after delivering the update.
	if err := l.streamOnce(context.Background(), market, func(tr exchange.Trade) {
		trades = append(trades, tr)
	}); err == nil {
		t.Error("expected a read error after the server hung up")
	}

	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	tr := trades[0]
	if tr.ID != "24352" || tr.Symbol != "XBT/ZAR" || tr.Timestamp != 1642201439301 {
		t.Errorf("unexpected trade identity: %+v", tr)
	}
	if tr.Price == nil || !tr.Price.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("Price = %v, want 50000", tr.Price)
	}
	if tr.Amount == nil || !tr.Amount.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("Amount = %v, want 0.1", tr.Amount)
	}
}

func TestStreamOnceWatchdogExits(t *testing.T) {
	srv := newStreamServer(t, func(conn *websocket.Conn) {})
	defer srv.Close()

	l := newStreamAdapter(srv)
	market := &exchange.Market{ID: "XBTZAR", Symbol: "XBT/ZAR"}
	ctx := context.Background()

	before := runtime.NumGoroutine()
	for i := 0; i < 30; i++ {
		l.streamOnce(ctx, market, func(exchange.Trade) {})
	}
	time.Sleep(100 * time.Millisecond)
	after := runtime.NumGoroutine()

	// Each reconnect must release its connection watchdog.
	if grown := after - before; grown > 10 {
		t.Errorf("goroutines grew by %d over 30 reconnects", grown)
	}
}
