// The uniex command runs one unified operation against one exchange and
// prints the result as JSON. It is a debugging aid:
//
//	uniex -exchange luno -op ticker -symbol XBT/AUD
//	uniex -exchange coinmate -op orderbook -symbol BTC/EUR -limit 5
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/configs"
	"github.com/navid-fn/uniex/drivers/aofex"
	"github.com/navid-fn/uniex/drivers/coinmate"
	"github.com/navid-fn/uniex/drivers/indodax"
	"github.com/navid-fn/uniex/drivers/luno"
	"github.com/navid-fn/uniex/exchange"
)

var validExchanges = []string{"luno", "indodax", "aofex", "coinmate"}

var validOps = []string{"markets", "ticker", "orderbook", "trades", "balance", "openorders"}

func main() {
	exchangeName := flag.String("exchange", "", "exchange to query ("+strings.Join(validExchanges, ", ")+")")
	op := flag.String("op", "ticker", "operation ("+strings.Join(validOps, ", ")+")")
	symbol := flag.String("symbol", "", "unified symbol, e.g. BTC/EUR")
	limit := flag.Int("limit", 0, "row limit where the operation takes one")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)

	adapter := buildAdapter(*exchangeName, logger)
	if adapter == nil {
		fmt.Fprintf(os.Stderr, "unknown exchange %q, want one of: %s\n", *exchangeName, strings.Join(validExchanges, ", "))
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := runOp(ctx, adapter, *op, *symbol, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s failed: %v\n", adapter.Name(), *op, err)
		os.Exit(1)
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}

func buildAdapter(name string, logger *logrus.Logger) exchange.Exchange {
	creds := configs.AppLoad().Credentials[name]
	switch name {
	case "luno":
		return luno.New(creds, logger)
	case "indodax":
		return indodax.New(creds, logger)
	case "aofex":
		return aofex.New(creds, logger)
	case "coinmate":
		return coinmate.New(creds, logger)
	}
	return nil
}

func runOp(ctx context.Context, adapter exchange.Exchange, op, symbol string, limit int) (any, error) {
	switch op {
	case "markets":
		return adapter.FetchMarkets(ctx)
	case "ticker":
		return adapter.FetchTicker(ctx, symbol)
	case "orderbook":
		return adapter.FetchOrderBook(ctx, symbol, limit)
	case "trades":
		return adapter.FetchTrades(ctx, symbol, 0, limit)
	case "balance":
		trader, ok := adapter.(exchange.Trader)
		if !ok {
			return nil, fmt.Errorf("%s: %w", adapter.Name(), exchange.ErrNotSupported)
		}
		return trader.FetchBalance(ctx)
	case "openorders":
		trader, ok := adapter.(exchange.Trader)
		if !ok {
			return nil, fmt.Errorf("%s: %w", adapter.Name(), exchange.ErrNotSupported)
		}
		return trader.FetchOpenOrders(ctx, symbol, 0, limit)
	}
	return nil, fmt.Errorf("unknown op %q, want one of: %s", op, strings.Join(validOps, ", "))
}
