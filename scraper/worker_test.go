package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/navid-fn/uniex/exchange"
)

// fakeExchange serves canned trades and cancels the run context once its
// fixtures are drained.
type fakeExchange struct {
	mu      sync.Mutex
	markets []exchange.Market
	trades  map[string][][]exchange.Trade
	sinces  []int64
	done    context.CancelFunc

	// when set, every FetchTrades fails with it after signaling done
	err error
}

func (f *fakeExchange) Name() string         { return "fake" }
func (f *fakeExchange) Has() map[string]bool { return map[string]bool{} }

func (f *fakeExchange) LoadMarkets(ctx context.Context) (*exchange.MarketIndex, error) {
	return exchange.NewMarketIndex(f.markets), nil
}

func (f *fakeExchange) FetchMarkets(ctx context.Context) ([]exchange.Market, error) {
	return f.markets, nil
}

func (f *fakeExchange) FetchTicker(ctx context.Context, symbol string) (*exchange.Ticker, error) {
	return nil, exchange.ErrNotSupported
}

func (f *fakeExchange) FetchOrderBook(ctx context.Context, symbol string, limit int) (*exchange.OrderBook, error) {
	return nil, exchange.ErrNotSupported
}

func (f *fakeExchange) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]exchange.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinces = append(f.sinces, since)
	if f.err != nil {
		f.done()
		return nil, f.err
	}
	batches := f.trades[symbol]
	if len(batches) == 0 {
		f.done()
		return nil, nil
	}
	batch := batches[0]
	f.trades[symbol] = batches[1:]
	return batch, nil
}

func tradeAt(id string, ts int64) exchange.Trade {
	price := decimal.NewFromInt(100)
	amount := decimal.NewFromInt(1)
	return exchange.Trade{
		ID:        id,
		Symbol:    "BTC/EUR",
		Timestamp: ts,
		Side:      "buy",
		Price:     &price,
		Amount:    &amount,
	}
}

func TestTradeWorkerPublishesNewTradesOnly(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fake := &fakeExchange{
		markets: []exchange.Market{
			{ID: "BTC_EUR", Symbol: "BTC/EUR", Active: true},
			{ID: "OLD_EUR", Symbol: "OLD/EUR", Active: false},
		},
		trades: map[string][][]exchange.Trade{
			"BTC/EUR": {
				{tradeAt("a", 1000), tradeAt("b", 2000)},
				// The second batch overlaps the first; only "c" is new.
				{tradeAt("b", 2000), tradeAt("c", 3000)},
			},
		},
		done: cancel,
	}
	writer := &fakeWriter{}
	worker := NewTradeWorker(fake, NewSender(writer, testLogger()), testLogger(), nil, 1000)

	if err := worker.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(writer.messages) != 3 {
		t.Fatalf("published %d trades, want 3", len(writer.messages))
	}
	var ids []string
	for _, m := range writer.messages {
		var msg TradeMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		ids = append(ids, msg.ID)
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}

	// Inactive markets are skipped, so only BTC/EUR was polled, and the
	// second poll carried the newest seen timestamp.
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.sinces) < 2 {
		t.Fatalf("polled %d times, want at least 2", len(fake.sinces))
	}
	if fake.sinces[0] != 0 {
		t.Errorf("first since = %d, want 0", fake.sinces[0])
	}
	if fake.sinces[1] != 2000 {
		t.Errorf("second since = %d, want 2000", fake.sinces[1])
	}
}

func TestTradeWorkerErrorBackoffHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeExchange{
		markets: []exchange.Market{{ID: "BTC_EUR", Symbol: "BTC/EUR", Active: true}},
		err:     errors.New("exchange down"),
		// The first failed poll schedules a cancel that lands while the
		// worker sits in its error backoff.
		done: func() { time.AfterFunc(50*time.Millisecond, cancel) },
	}
	worker := NewTradeWorker(fake, NewSender(&fakeWriter{}, testLogger()), testLogger(), nil, 1000)

	start := time.Now()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > errorPause {
		t.Errorf("Run took %v, a canceled context should cut the backoff short", elapsed)
	}
}

func TestTradeWorkerNoSymbols(t *testing.T) {
	fake := &fakeExchange{done: func() {}}
	worker := NewTradeWorker(fake, NewSender(&fakeWriter{}, testLogger()), testLogger(), nil, 10)

	if err := worker.Run(context.Background()); err == nil {
		t.Error("a worker with nothing to track should refuse to run")
	}
}
