package bybit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

const (
	defaultCandleLimit = 200
	maxCandleLimit     = 1000
)

var intervalNames = map[types.CandleInterval]string{
	types.Interval1m:  "1",
	types.Interval5m:  "5",
	types.Interval15m: "15",
	types.Interval30m: "30",
	types.Interval1h:  "60",
	types.Interval4h:  "240",
	types.Interval1d:  "D",
}

// ServerTime returns the venue clock.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	resp, err := c.callRetried(ctx, "serverTime", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceNoParams().GetServerTime(ctx)
	})
	if err != nil {
		return time.Time{}, err
	}
	return msToTime(resp.Time), nil
}

// ListSymbols returns every Trading instrument with its rules.
func (c *Client) ListSymbols(ctx context.Context) ([]types.SymbolInfo, error) {
	return c.symbols.all(ctx)
}

// GetTicker returns the ticker snapshot for one symbol.
func (c *Client) GetTicker(ctx context.Context, symbol types.Symbol) (*types.Ticker, error) {
	info, err := c.symbols.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   info.Native,
	}
	resp, err := c.callRetried(ctx, "tickers", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	})
	if err != nil {
		return nil, err
	}
	return parseTicker(resp, symbol)
}

func parseTicker(resp *bybit_api.ServerResponse, symbol types.Symbol) (*types.Ticker, error) {
	var res struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			Bid1Price string `json:"bid1Price"`
			Ask1Price string `json:"ask1Price"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := decodeResult("tickers", resp, &res); err != nil {
		return nil, err
	}
	if len(res.List) == 0 {
		return nil, exchange.NewError(exchange.KindUnknown, Name, "venue returned no ticker data")
	}

	item := res.List[0]
	ticker := &types.Ticker{Symbol: symbol, Time: msToTime(resp.Time)}
	var err error
	if ticker.Bid, err = parseDecimal("bid1Price", item.Bid1Price); err != nil {
		return nil, err
	}
	if ticker.Ask, err = parseDecimal("ask1Price", item.Ask1Price); err != nil {
		return nil, err
	}
	if ticker.Last, err = parseDecimal("lastPrice", item.LastPrice); err != nil {
		return nil, err
	}
	return ticker, nil
}

// GetCandles returns one page of klines, oldest first. The venue caps a page
// at 1000.
func (c *Client) GetCandles(ctx context.Context, symbol types.Symbol, interval types.CandleInterval, opts exchange.CandleOptions) ([]types.Candle, error) {
	name, ok := intervalNames[interval]
	if !ok {
		return nil, exchange.NewError(exchange.KindNotSupported, Name,
			fmt.Sprintf("candle interval %s is not supported by this venue", interval.Duration()))
	}
	info, err := c.symbols.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultCandleLimit
	}
	if limit > maxCandleLimit {
		limit = maxCandleLimit
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   info.Native,
		"interval": name,
		"limit":    limit,
	}
	if !opts.Start.IsZero() {
		params["start"] = opts.Start.UnixMilli()
	}
	if !opts.End.IsZero() {
		params["end"] = opts.End.UnixMilli()
	}

	resp, err := c.callRetried(ctx, "kline", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	})
	if err != nil {
		return nil, err
	}
	return parseKlines(resp, interval)
}

// parseKlines converts the venue's newest-first rows into oldest-first
// candles, deriving close time from the interval.
func parseKlines(resp *bybit_api.ServerResponse, interval types.CandleInterval) ([]types.Candle, error) {
	var res struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}
	if err := decodeResult("kline", resp, &res); err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(res.List))
	for i := len(res.List) - 1; i >= 0; i-- {
		row := res.List[i]
		// Rows carry start time, OHLC, volume, turnover.
		if len(row) < 7 {
			return nil, parseError("kline", fmt.Errorf("kline row has %d fields, want at least 7", len(row)))
		}

		startMs, err := parseInt("startTime", row[0])
		if err != nil {
			return nil, err
		}
		candle := types.Candle{
			OpenTime:  msToTime(startMs),
			CloseTime: msToTime(startMs).Add(interval.Duration()),
		}

		fields := []struct {
			name string
			raw  string
			dst  *decimal.Decimal
		}{
			{"open", row[1], &candle.Open},
			{"high", row[2], &candle.High},
			{"low", row[3], &candle.Low},
			{"close", row[4], &candle.Close},
			{"volume", row[5], &candle.Volume},
		}
		for _, f := range fields {
			if *f.dst, err = parseDecimal(f.name, f.raw); err != nil {
				return nil, err
			}
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func parseInt(field, raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, parseError(field, err)
	}
	return n, nil
}

// parseDecimal converts a venue numeric string, surfacing malformed values
// as unknown-kind taxonomy errors rather than zeroing them.
func parseDecimal(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, parseError(field, err)
	}
	return d, nil
}
