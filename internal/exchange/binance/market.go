package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

const (
	defaultCandleLimit = 500
	maxCandleLimit     = 1000
)

var intervalNames = map[types.CandleInterval]string{
	types.Interval1m:  "1m",
	types.Interval5m:  "5m",
	types.Interval15m: "15m",
	types.Interval30m: "30m",
	types.Interval1h:  "1h",
	types.Interval4h:  "4h",
	types.Interval1d:  "1d",
}

// ServerTime returns the venue clock from /api/v3/time.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	payload, err := c.getRetried(ctx, "/api/v3/time", nil, false)
	if err != nil {
		return time.Time{}, err
	}

	var res struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(payload, &res); err != nil {
		return time.Time{}, parseError("serverTime", err)
	}
	return msToTime(res.ServerTime), nil
}

// ListSymbols returns every TRADING instrument with its rules.
func (c *Client) ListSymbols(ctx context.Context) ([]types.SymbolInfo, error) {
	return c.symbols.all(ctx)
}

// GetTicker returns the 24hr ticker snapshot for one symbol.
func (c *Client) GetTicker(ctx context.Context, symbol types.Symbol) (*types.Ticker, error) {
	info, err := c.symbols.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", info.Native)
	payload, err := c.getRetried(ctx, "/api/v3/ticker/24hr", params, false)
	if err != nil {
		return nil, err
	}

	var res struct {
		BidPrice  string `json:"bidPrice"`
		AskPrice  string `json:"askPrice"`
		LastPrice string `json:"lastPrice"`
		CloseTime int64  `json:"closeTime"`
	}
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, parseError("ticker", err)
	}

	ticker := &types.Ticker{Symbol: symbol, Time: msToTime(res.CloseTime)}
	if ticker.Bid, err = parseDecimal("bidPrice", res.BidPrice); err != nil {
		return nil, err
	}
	if ticker.Ask, err = parseDecimal("askPrice", res.AskPrice); err != nil {
		return nil, err
	}
	if ticker.Last, err = parseDecimal("lastPrice", res.LastPrice); err != nil {
		return nil, err
	}
	return ticker, nil
}

// GetCandles returns one page of klines. The venue caps a page at 1000.
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

	params := url.Values{}
	params.Set("symbol", info.Native)
	params.Set("interval", name)
	params.Set("limit", strconv.Itoa(limit))
	if !opts.Start.IsZero() {
		params.Set("startTime", strconv.FormatInt(opts.Start.UnixMilli(), 10))
	}
	if !opts.End.IsZero() {
		params.Set("endTime", strconv.FormatInt(opts.End.UnixMilli(), 10))
	}

	payload, err := c.getRetried(ctx, "/api/v3/klines", params, false)
	if err != nil {
		return nil, err
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, parseError("klines", err)
	}

	candles := make([]types.Candle, 0, len(rows))
	for _, row := range rows {
		// Kline rows carry open time, OHLC, volume, close time and fields
		// this layer does not surface.
		if len(row) < 7 {
			return nil, parseError("klines", fmt.Errorf("kline row has %d fields, want at least 7", len(row)))
		}

		var candle types.Candle
		var openMs, closeMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			return nil, parseError("klines", err)
		}
		if err := json.Unmarshal(row[6], &closeMs); err != nil {
			return nil, parseError("klines", err)
		}
		candle.OpenTime = msToTime(openMs)
		candle.CloseTime = msToTime(closeMs)

		fields := []struct {
			name string
			raw  json.RawMessage
			dst  *decimal.Decimal
		}{
			{"open", row[1], &candle.Open},
			{"high", row[2], &candle.High},
			{"low", row[3], &candle.Low},
			{"close", row[4], &candle.Close},
			{"volume", row[5], &candle.Volume},
		}
		for _, f := range fields {
			var s string
			if err := json.Unmarshal(f.raw, &s); err != nil {
				return nil, parseError("klines", err)
			}
			if *f.dst, err = parseDecimal(f.name, s); err != nil {
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
