// Package exchange defines the unified contract every venue adapter
// implements: the Exchange interface, the closed error taxonomy, and the
// settings plumbing shared by adapters. Callers depend only on this package
// and pkg/types; everything venue-specific lives in the adapter packages.
package exchange

import (
	"context"
	"time"

	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

// Exchange is the contract each venue adapter must satisfy. All methods are
// synchronous: a call issues the request and returns the response or a
// taxonomy error, never a partial result. Pagination on list-style calls is
// drained inside the adapter.
//
// Adapters may return a not-supported error for a capability their venue
// lacks, but must never silently no-op. Venue-native failures of any origin
// (HTTP status, error payload, transport fault, parse fault) surface as
// *Error; no venue-specific error type escapes this boundary.
//
// Order identifiers are adapter-assigned opaque strings; callers pass them
// back verbatim and must not parse them.
type Exchange interface {
	// Name identifies the venue ("binance", "bybit").
	Name() string

	// ServerTime returns the venue's clock, useful for drift diagnostics.
	ServerTime(ctx context.Context) (time.Time, error)

	// ListSymbols returns every tradable instrument with its native
	// spelling and trading rules.
	ListSymbols(ctx context.Context) ([]types.SymbolInfo, error)

	// GetTicker returns the current market snapshot for one symbol.
	GetTicker(ctx context.Context, symbol types.Symbol) (*types.Ticker, error)

	// GetCandles returns up to the venue's page limit of candlesticks.
	// Use CandleRange to drain an arbitrary time span.
	GetCandles(ctx context.Context, symbol types.Symbol, interval types.CandleInterval, opts CandleOptions) ([]types.Candle, error)

	// GetBalances returns all non-zero asset balances keyed by asset.
	GetBalances(ctx context.Context) (map[string]types.Balance, error)

	// PlaceOrder submits an order and returns the venue's view of it.
	// A cancelled context does not guarantee the order was not placed;
	// callers needing idempotence should set OrderRequest.ClientOrderID.
	PlaceOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error)

	// CancelOrder cancels an open order and returns its final state.
	// Cancelling an already-terminal order is an invalid-request error.
	CancelOrder(ctx context.Context, orderID string) (*types.Order, error)

	// GetOrder returns the current state of an order.
	GetOrder(ctx context.Context, orderID string) (*types.Order, error)

	// ListOpenOrders returns all open orders, optionally filtered by
	// symbol. A zero Symbol selects every symbol.
	ListOpenOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error)

	// ListTrades returns the account's fills for a symbol, oldest first.
	// A zero since returns the venue's full retained history.
	ListTrades(ctx context.Context, symbol types.Symbol, since time.Time) ([]types.Trade, error)

	// Close releases the adapter's connection resources. The adapter is
	// unusable afterwards.
	Close() error
}

// CandleOptions narrows a GetCandles call. Zero values mean "latest candles,
// venue default page size".
type CandleOptions struct {
	Limit int
	Start time.Time
	End   time.Time
}

// CandleRange retrieves every candle between start and end by chaining
// GetCandles pages, throttled to stay inside venue rate limits. Pages are
// keyed off the last candle's close time, so the sequence is gap-free even
// when the span exceeds the venue's page limit.
func CandleRange(ctx context.Context, ex Exchange, symbol types.Symbol, interval types.CandleInterval, start, end time.Time, throttle time.Duration) ([]types.Candle, error) {
	var all []types.Candle

	for {
		page, err := ex.GetCandles(ctx, symbol, interval, CandleOptions{Start: start, End: end})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return all, nil
		}

		all = append(all, page...)

		last := page[len(page)-1]
		if !last.CloseTime.Before(end) {
			return all, nil
		}
		// A page that makes no forward progress would loop forever.
		if !last.CloseTime.After(start) {
			return all, nil
		}
		start = last.CloseTime

		if throttle > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(throttle):
			}
		}
	}
}
