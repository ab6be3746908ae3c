package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/exchange"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func sampleTrade() *exchange.Trade {
	price := decimal.RequireFromString("59000.5")
	amount := decimal.RequireFromString("0.02")
	cost := price.Mul(amount)
	return &exchange.Trade{
		ID:        "t-1001",
		Symbol:    "BTC/EUR",
		Timestamp: 1716213903000,
		Side:      "buy",
		Price:     &price,
		Amount:    &amount,
		Cost:      &cost,
	}
}

func TestNewTradeMessage(t *testing.T) {
	msg := NewTradeMessage("coinmate", sampleTrade())

	if msg.ID != "t-1001" {
		t.Errorf("ID = %q, native id should stick", msg.ID)
	}
	if msg.Exchange != "coinmate" || msg.Symbol != "BTC/EUR" || msg.Side != "buy" {
		t.Errorf("unexpected fields: %+v", msg)
	}
	if msg.Time != "2024-05-20T14:05:03.000Z" {
		t.Errorf("Time = %q", msg.Time)
	}
}

func TestNewTradeMessageDigestID(t *testing.T) {
	trade := sampleTrade()
	trade.ID = ""
	first := NewTradeMessage("coinmate", trade)
	second := NewTradeMessage("coinmate", trade)

	if first.ID == "" {
		t.Fatal("missing native id should get a digest id")
	}
	if first.ID != second.ID {
		t.Error("digest id should be stable across calls")
	}

	other := sampleTrade()
	other.ID = ""
	other.Side = "sell"
	if NewTradeMessage("coinmate", other).ID == first.ID {
		t.Error("different trades should not collide")
	}
}

func TestSendTrade(t *testing.T) {
	writer := &fakeWriter{}
	sender := NewSender(writer, testLogger())

	msg := NewTradeMessage("luno", sampleTrade())
	if err := sender.SendTrade(context.Background(), msg); err != nil {
		t.Fatalf("SendTrade: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(writer.messages))
	}

	var decoded TradeMessage
	if err := json.Unmarshal(writer.messages[0].Value, &decoded); err != nil {
		t.Fatalf("unmarshal published message: %v", err)
	}
	if decoded.ID != "t-1001" || decoded.Exchange != "luno" {
		t.Errorf("published %+v", decoded)
	}
	if decoded.Price == nil || !decoded.Price.Equal(decimal.RequireFromString("59000.5")) {
		t.Errorf("Price = %v", decoded.Price)
	}
}

func TestSendReportsWriteErrors(t *testing.T) {
	sender := NewSender(&fakeWriter{err: errors.New("broker down")}, testLogger())

	if err := sender.Send(context.Background(), []byte("x")); err == nil {
		t.Error("write failure should surface while running")
	}
}

func TestSendSwallowsShutdownErrors(t *testing.T) {
	sender := NewSender(&fakeWriter{err: errors.New("closed")}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sender.Send(ctx, []byte("x")); err != nil {
		t.Errorf("err = %v, want nil after shutdown", err)
	}
}

func TestChunkSlice(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		size  int
		want  [][]string
	}{
		{"even split", []string{"a", "b", "c", "d"}, 2, [][]string{{"a", "b"}, {"c", "d"}}},
		{"remainder", []string{"a", "b", "c"}, 2, [][]string{{"a", "b"}, {"c"}}},
		{"oversized chunk", []string{"a"}, 5, [][]string{{"a"}}},
		{"empty input", nil, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkSlice(tt.items, tt.size)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkSlice = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("invalid size panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("size 0 should panic")
			}
		}()
		ChunkSlice([]int{1}, 0)
	})
}
