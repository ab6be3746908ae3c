// Package scraper polls exchange adapters and publishes their trades to
// Kafka as JSON messages.
package scraper

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/exchange"
)

const writeTimeout = 5 * time.Second

// MessageWriter is the part of kafka.Writer the sender needs; debug
// writers satisfy it too.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// TradeMessage is the wire shape published for every trade.
type TradeMessage struct {
	ID       string           `json:"id"`
	Exchange string           `json:"exchange"`
	Symbol   string           `json:"symbol"`
	Price    *decimal.Decimal `json:"price"`
	Amount   *decimal.Decimal `json:"amount"`
	Cost     *decimal.Decimal `json:"cost"`
	Side     string           `json:"side"`
	Time     string           `json:"time"`
}

// NewTradeMessage normalizes a unified trade for publishing. Trades with
// no native id get a digest id so replays dedupe downstream.
func NewTradeMessage(exchangeName string, t *exchange.Trade) *TradeMessage {
	msg := &TradeMessage{
		ID:       t.ID,
		Exchange: exchangeName,
		Symbol:   t.Symbol,
		Price:    t.Price,
		Amount:   t.Amount,
		Cost:     t.Cost,
		Side:     t.Side,
		Time:     exchange.ISO8601(t.Timestamp),
	}
	if msg.ID == "" {
		msg.ID = TradeID(msg)
	}
	return msg
}

// TradeID derives a stable id from the trade's properties.
func TradeID(msg *TradeMessage) string {
	unique := fmt.Sprintf("%s-%s-%s-%s-%s-%s",
		msg.Exchange, msg.Symbol, msg.Time, msg.Price, msg.Amount, msg.Side)
	hash := sha1.Sum([]byte(unique))
	return hex.EncodeToString(hash[:])
}

// Sender publishes messages to Kafka.
type Sender struct {
	writer MessageWriter
	log    *logrus.Entry
}

func NewSender(writer MessageWriter, logger *logrus.Logger) *Sender {
	return &Sender{writer: writer, log: logger.WithField("component", "sender")}
}

// Send writes raw bytes. Write errors during shutdown are swallowed.
func (s *Sender) Send(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err := s.writer.WriteMessages(writeCtx, kafka.Message{Value: data})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

// SendTrade serializes and sends one trade.
func (s *Sender) SendTrade(ctx context.Context, msg *TradeMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serialize failed: %w", err)
	}
	return s.Send(ctx, data)
}

// ChunkSlice splits a slice into chunks of the given size; useful for
// spreading symbols across workers.
func ChunkSlice[T any](items []T, size int) [][]T {
	if size < 1 {
		panic("ChunkSlice: size must be greater than 0")
	}
	length := len(items)
	if length == 0 {
		return nil
	}
	chunks := make([][]T, 0, (length+size-1)/size)
	for i := 0; i < length; i += size {
		end := min(i+size, length)
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

// RunWithGracefulShutdown starts the workers and blocks until they drain
// after SIGINT or SIGTERM.
func RunWithGracefulShutdown(
	logger *logrus.Logger,
	startWorkers func(ctx context.Context, wg *sync.WaitGroup),
) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	startWorkers(ctx, &wg)
	logger.Info("all workers started")

	<-ctx.Done()
	logger.Warn("shutdown signal received, stopping workers...")
	wg.Wait()
	return nil
}
