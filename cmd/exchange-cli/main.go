// exchange-cli inspects a trading venue through the unified exchange
// contract: catalog, market data, balances, orders, and trade exports.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ducminhle1904/exchange-gateway/internal/config"
	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/internal/exchange/metrics"
	"github.com/ducminhle1904/exchange-gateway/internal/export"
	"github.com/ducminhle1904/exchange-gateway/pkg/types"

	_ "github.com/ducminhle1904/exchange-gateway/internal/exchange/binance"
	_ "github.com/ducminhle1904/exchange-gateway/internal/exchange/bybit"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	ex, err := exchange.New(cfg.Exchange, cfg.ExchangeSettings(os.Getenv))
	if err != nil {
		logger.Fatal("connecting exchange", zap.String("exchange", cfg.Exchange), zap.Error(err))
	}
	defer ex.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, ex, os.Args[1], os.Args[2:]); err != nil {
		logger.Fatal("command failed",
			zap.String("command", os.Args[1]),
			zap.String("kind", string(exchange.KindOf(err))),
			zap.Error(err),
		)
	}
}

func run(ctx context.Context, cfg *config.Config, ex exchange.Exchange, command string, args []string) error {
	switch command {
	case "symbols":
		return cmdSymbols(ctx, ex)
	case "time":
		return cmdTime(ctx, ex)
	case "ticker":
		return cmdTicker(ctx, ex, args)
	case "candles":
		return cmdCandles(ctx, ex, args)
	case "balances":
		return cmdBalances(ctx, ex)
	case "orders":
		return cmdOrders(ctx, ex, args)
	case "trades":
		return cmdTrades(ctx, ex, args)
	case "export":
		return cmdExport(ctx, cfg, ex, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdSymbols(ctx context.Context, ex exchange.Exchange) error {
	infos, err := ex.ListSymbols(ctx)
	if err != nil {
		return err
	}

	t := newTable(fmt.Sprintf("%s SYMBOLS", ex.Name()))
	t.AppendHeader(table.Row{"Symbol", "Native", "Min Qty", "Qty Step", "Price Step", "Min Notional"})
	for _, info := range infos {
		t.AppendRow(table.Row{
			info.Symbol.String(),
			info.Native,
			decimalOrDash(info.Rules.MinQty),
			decimalOrDash(info.Rules.QtyStep),
			decimalOrDash(info.Rules.PriceStep),
			decimalOrDash(info.Rules.MinNotional),
		})
	}
	t.Render()
	return nil
}

func cmdTime(ctx context.Context, ex exchange.Exchange) error {
	serverTime, err := ex.ServerTime(ctx)
	if err != nil {
		return err
	}
	drift := time.Since(serverTime).Round(time.Millisecond)
	fmt.Printf("%s server time: %s (local drift %s)\n", ex.Name(), serverTime.Format(time.RFC3339Nano), drift)
	return nil
}

func cmdTicker(ctx context.Context, ex exchange.Exchange, args []string) error {
	symbol, err := symbolArg(args, 0)
	if err != nil {
		return err
	}

	ticker, err := ex.GetTicker(ctx, symbol)
	if err != nil {
		return err
	}

	t := newTable(fmt.Sprintf("%s %s", ex.Name(), symbol))
	t.AppendRows([]table.Row{
		{"Bid", ticker.Bid.String()},
		{"Ask", ticker.Ask.String()},
		{"Last", ticker.Last.String()},
		{"Time", ticker.Time.Format(time.RFC3339)},
	})
	t.Render()
	return nil
}

func cmdCandles(ctx context.Context, ex exchange.Exchange, args []string) error {
	symbol, err := symbolArg(args, 0)
	if err != nil {
		return err
	}
	interval, err := intervalArg(args, 1)
	if err != nil {
		return err
	}

	opts := exchange.CandleOptions{Limit: 20}
	if len(args) > 2 {
		if opts.Limit, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("limit must be an integer: %w", err)
		}
	}

	candles, err := ex.GetCandles(ctx, symbol, interval, opts)
	if err != nil {
		return err
	}

	t := newTable(fmt.Sprintf("%s %s candles", symbol, args[1]))
	t.AppendHeader(table.Row{"Open Time", "Open", "High", "Low", "Close", "Volume"})
	for _, c := range candles {
		t.AppendRow(table.Row{
			c.OpenTime.Format("2006-01-02 15:04"),
			c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume.String(),
		})
	}
	t.Render()
	return nil
}

func cmdBalances(ctx context.Context, ex exchange.Exchange) error {
	balances, err := ex.GetBalances(ctx)
	if err != nil {
		return err
	}

	t := newTable(fmt.Sprintf("%s BALANCES", ex.Name()))
	t.AppendHeader(table.Row{"Asset", "Available", "Locked", "Total"})
	for _, balance := range balances {
		t.AppendRow(table.Row{
			balance.Asset,
			balance.Available.String(),
			balance.Locked.String(),
			balance.Total().String(),
		})
	}
	t.Render()
	return nil
}

func cmdOrders(ctx context.Context, ex exchange.Exchange, args []string) error {
	var symbol types.Symbol
	if len(args) > 0 {
		var err error
		if symbol, err = types.ParseSymbol(args[0]); err != nil {
			return err
		}
	}

	orders, err := ex.ListOpenOrders(ctx, symbol)
	if err != nil {
		return err
	}

	t := newTable(fmt.Sprintf("%s OPEN ORDERS", ex.Name()))
	t.AppendHeader(table.Row{"ID", "Symbol", "Side", "Type", "Qty", "Price", "Filled", "Status"})
	for _, o := range orders {
		t.AppendRow(table.Row{
			o.ID, o.Symbol.String(), string(o.Side), string(o.Type),
			o.Quantity.String(), o.Price.String(), o.FilledQuantity.String(), string(o.Status),
		})
	}
	t.Render()
	return nil
}

func cmdTrades(ctx context.Context, ex exchange.Exchange, args []string) error {
	symbol, err := symbolArg(args, 0)
	if err != nil {
		return err
	}

	var since time.Time
	if len(args) > 1 {
		if since, err = time.Parse(time.RFC3339, args[1]); err != nil {
			return fmt.Errorf("since must be RFC3339: %w", err)
		}
	}

	trades, err := ex.ListTrades(ctx, symbol, since)
	if err != nil {
		return err
	}

	t := newTable(fmt.Sprintf("%s %s TRADES", ex.Name(), symbol))
	t.AppendHeader(table.Row{"ID", "Order", "Side", "Qty", "Price", "Fee", "Time"})
	for _, trade := range trades {
		t.AppendRow(table.Row{
			trade.ID, trade.OrderID, string(trade.Side),
			trade.Quantity.String(), trade.Price.String(),
			fmt.Sprintf("%s %s", trade.Fee.String(), trade.FeeAsset),
			trade.Time.Format(time.RFC3339),
		})
	}
	t.Render()
	return nil
}

func cmdExport(ctx context.Context, cfg *config.Config, ex exchange.Exchange, args []string) error {
	symbol, err := symbolArg(args, 0)
	if err != nil {
		return err
	}

	trades, err := ex.ListTrades(ctx, symbol, time.Time{})
	if err != nil {
		return err
	}
	balances, err := ex.GetBalances(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.ExportDir, fmt.Sprintf("%s_%s_%s.xlsx",
		ex.Name(), symbol.Base+symbol.Quote, time.Now().Format("20060102_150405")))
	if err := export.NewExcelReporter().WriteTradesXLSX(ex.Name(), trades, balances, path); err != nil {
		return err
	}
	fmt.Printf("wrote %d trades to %s\n", len(trades), path)
	return nil
}

func symbolArg(args []string, i int) (types.Symbol, error) {
	if len(args) <= i {
		return types.Symbol{}, fmt.Errorf("symbol argument required, e.g. BTC/USDT")
	}
	return types.ParseSymbol(args[i])
}

func intervalArg(args []string, i int) (types.CandleInterval, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("interval argument required, e.g. 1h")
	}
	d, err := time.ParseDuration(args[i])
	if err != nil {
		return 0, fmt.Errorf("interval must be a duration like 1m, 1h: %w", err)
	}
	return types.CandleInterval(d), nil
}

func decimalOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
	})
	return t
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: exchange-cli <command> [args]

Commands:
  symbols                      list tradable instruments and their rules
  time                         show venue server time and local drift
  ticker BASE/QUOTE            show the market snapshot for one symbol
  candles BASE/QUOTE 1h [n]    show recent candles for one symbol
  balances                     show non-zero account balances
  orders [BASE/QUOTE]          list open orders, optionally for one symbol
  trades BASE/QUOTE [since]    list account fills, oldest first
  export BASE/QUOTE            write trades and balances to an Excel workbook

The venue and credentials come from the environment (or .env):
  GATEWAY_EXCHANGE             binance | bybit (default binance)
  GATEWAY_<VENUE>_API_KEY      venue API key
  GATEWAY_<VENUE>_API_SECRET   venue API secret
  GATEWAY_<VENUE>_TESTNET      "true" to use the venue's test environment
  GATEWAY_METRICS_ADDR         optional address for Prometheus metrics
`)
}
