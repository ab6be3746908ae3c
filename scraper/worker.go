package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/navid-fn/uniex/exchange"
)

const (
	// Floor for the computed polling rate.
	minPollRate = 0.1
	// Back off briefly after a failed fetch so one bad symbol does not
	// spin the loop.
	errorPause = 2 * time.Second
)

// TradeWorker polls one exchange's public trades and publishes anything
// it has not seen yet.
type TradeWorker struct {
	adapter exchange.Exchange
	sender  *Sender
	log     *logrus.Entry

	symbols []string
	limiter *rate.Limiter

	// newest published trade timestamp per symbol
	lastSeen map[string]int64
}

// NewTradeWorker builds a worker. With no symbols it tracks every active
// market; requestsPerSec paces the polling across all of them.
func NewTradeWorker(adapter exchange.Exchange, sender *Sender, logger *logrus.Logger, symbols []string, requestsPerSec float64) *TradeWorker {
	if requestsPerSec < minPollRate {
		requestsPerSec = minPollRate
	}
	return &TradeWorker{
		adapter:  adapter,
		sender:   sender,
		log:      logger.WithField("worker", adapter.Name()),
		symbols:  symbols,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		lastSeen: make(map[string]int64),
	}
}

func (w *TradeWorker) Name() string { return w.adapter.Name() }

// Run polls until the context is canceled.
func (w *TradeWorker) Run(ctx context.Context) error {
	symbols := w.symbols
	if len(symbols) == 0 {
		idx, err := w.adapter.LoadMarkets(ctx)
		if err != nil {
			return fmt.Errorf("could not load markets: %w", err)
		}
		for _, market := range idx.All() {
			if market.Active {
				symbols = append(symbols, market.Symbol)
			}
		}
	}
	if len(symbols) == 0 {
		return fmt.Errorf("%s: no symbols to track", w.adapter.Name())
	}
	w.log.WithField("symbols", len(symbols)).Info("starting trade worker")

	for {
		for _, symbol := range symbols {
			if err := w.limiter.Wait(ctx); err != nil {
				return nil
			}
			if err := w.poll(ctx, symbol); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.log.WithField("symbol", symbol).WithError(err).Error("poll failed")
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(errorPause):
				}
			}
		}
	}
}

func (w *TradeWorker) poll(ctx context.Context, symbol string) error {
	since := w.lastSeen[symbol]
	trades, err := w.adapter.FetchTrades(ctx, symbol, since, 0)
	if err != nil {
		return err
	}
	sent := 0
	for i := range trades {
		trade := &trades[i]
		if trade.Timestamp <= since && since > 0 {
			continue
		}
		if err := w.sender.SendTrade(ctx, NewTradeMessage(w.adapter.Name(), trade)); err != nil {
			w.log.WithField("symbol", symbol).WithError(err).Error("failed to publish trade")
			continue
		}
		if trade.Timestamp > w.lastSeen[symbol] {
			w.lastSeen[symbol] = trade.Timestamp
		}
		sent++
	}
	if sent > 0 {
		w.log.WithFields(logrus.Fields{"symbol": symbol, "count": sent}).Debug("published trades")
	}
	return nil
}
