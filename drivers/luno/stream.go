package luno

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/safe"
)

const (
	streamURL          = "wss://ws.luno.com/api/1/stream/"
	wsHandshakeTimeout = 10 * time.Second
	wsReadTimeout      = 60 * time.Second
	wsReconnectMin     = 1 * time.Second
	wsReconnectMax     = 30 * time.Second
)

// StreamTrades subscribes to the market stream for one symbol and delivers
// each executed trade to out. The stream sends a full order book snapshot
// first, then sequenced updates; only trade updates are surfaced here.
// Reconnects with exponential backoff until the context is cancelled.
func (l *Luno) StreamTrades(ctx context.Context, symbol string, out func(exchange.Trade)) error {
	if err := l.creds.Require(Name, false); err != nil {
		return err
	}
	market, err := l.marketBySymbol(ctx, symbol)
	if err != nil {
		return err
	}

	reconnectDelay := wsReconnectMin
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := l.streamOnce(ctx, market, out)
		if ctx.Err() != nil {
			return nil
		}
		l.log.WithField("symbol", symbol).WithError(err).Warn("stream disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
		reconnectDelay *= 2
		if reconnectDelay > wsReconnectMax {
			reconnectDelay = wsReconnectMax
		}
	}
}

func (l *Luno) streamOnce(ctx context.Context, market *exchange.Market, out func(exchange.Trade)) error {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, l.streamURL+market.ID, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	// The server expects credentials as the first message.
	auth := map[string]string{
		"api_key_id":     l.creds.APIKey,
		"api_key_secret": l.creds.Secret,
	}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("auth failed: %w", err)
	}
	l.log.WithField("pair", market.ID).Info("stream connected")

	// The watchdog must not outlive this connection, or every reconnect
	// leaks a goroutine until the outer context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		// Keepalives are empty messages.
		if len(raw) == 0 || string(raw) == `""` {
			continue
		}
		var msg map[string]any
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		for _, row := range safe.List(msg, "trade_updates") {
			update, ok := row.(map[string]any)
			if !ok {
				continue
			}
			if trade := parseStreamTrade(update, msg, market); trade != nil {
				out(*trade)
			}
		}
	}
}

// parseStreamTrade maps a stream trade update. Updates carry base and
// counter amounts rather than a price, so price = counter / base.
func parseStreamTrade(update, envelope map[string]any, market *exchange.Market) *exchange.Trade {
	base := safe.Decimal(update, "base")
	counter := safe.Decimal(update, "counter")
	if base == nil || counter == nil || base.IsZero() {
		return nil
	}
	price := counter.DivRound(*base, 16)
	trade := &exchange.Trade{
		ID:        safe.String(update, "sequence"),
		OrderID:   safe.String2(update, "maker_order_id", "order_id"),
		Symbol:    market.Symbol,
		Timestamp: safe.Integer(envelope, "timestamp"),
		Price:     &price,
		Amount:    base,
		Cost:      counter,
		Info:      update,
	}
	return exchange.FinalizeTrade(trade)
}
