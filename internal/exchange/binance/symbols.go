package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

// symbolCacheTTL bounds how long exchangeInfo is reused before a refresh.
// Binance changes listings and filters rarely; an order against a stale
// filter is still rejected server-side.
const symbolCacheTTL = 10 * time.Minute

// symbolCache owns the bidirectional mapping between normalized symbols and
// Binance's native spelling, together with the per-instrument trading rules.
type symbolCache struct {
	client *Client

	mu       sync.RWMutex
	fetched  time.Time
	byNative map[string]types.SymbolInfo
	byName   map[string]types.SymbolInfo
}

func newSymbolCache(client *Client) *symbolCache {
	return &symbolCache{
		client:   client,
		byNative: make(map[string]types.SymbolInfo),
		byName:   make(map[string]types.SymbolInfo),
	}
}

// all returns every tradable instrument, refreshing the cache when stale.
func (sc *symbolCache) all(ctx context.Context) ([]types.SymbolInfo, error) {
	if err := sc.ensureFresh(ctx); err != nil {
		return nil, err
	}

	sc.mu.RLock()
	defer sc.mu.RUnlock()
	infos := make([]types.SymbolInfo, 0, len(sc.byName))
	for _, info := range sc.byName {
		infos = append(infos, info)
	}
	return infos, nil
}

// resolve translates a normalized Symbol to its native spelling and rules.
// An unresolvable symbol is an invalid request, never a guess.
func (sc *symbolCache) resolve(ctx context.Context, symbol types.Symbol) (types.SymbolInfo, error) {
	if err := symbol.Validate(); err != nil {
		return types.SymbolInfo{}, exchange.WrapError(exchange.KindInvalidRequest, Name, "invalid symbol", err)
	}
	if err := sc.ensureFresh(ctx); err != nil {
		return types.SymbolInfo{}, err
	}

	sc.mu.RLock()
	info, ok := sc.byName[symbol.String()]
	sc.mu.RUnlock()
	if !ok {
		return types.SymbolInfo{}, exchange.NewError(exchange.KindInvalidRequest, Name,
			fmt.Sprintf("symbol %s is not tradable on this venue", symbol))
	}
	return info, nil
}

// normalize translates a native spelling back to the normalized Symbol.
func (sc *symbolCache) normalize(ctx context.Context, native string) (types.Symbol, error) {
	if err := sc.ensureFresh(ctx); err != nil {
		return types.Symbol{}, err
	}

	sc.mu.RLock()
	info, ok := sc.byNative[native]
	sc.mu.RUnlock()
	if !ok {
		return types.Symbol{}, exchange.NewError(exchange.KindUnknown, Name,
			fmt.Sprintf("venue returned unknown symbol %q", native))
	}
	return info.Symbol, nil
}

func (sc *symbolCache) ensureFresh(ctx context.Context) error {
	sc.mu.RLock()
	fresh := !sc.fetched.IsZero() && time.Since(sc.fetched) < symbolCacheTTL
	sc.mu.RUnlock()
	if fresh {
		return nil
	}
	return sc.refresh(ctx)
}

func (sc *symbolCache) refresh(ctx context.Context) error {
	payload, err := sc.client.getRetried(ctx, "/api/v3/exchangeInfo", nil, false)
	if err != nil {
		return err
	}

	var res struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			Status     string `json:"status"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
			Filters    []struct {
				FilterType  string `json:"filterType"`
				MinQty      string `json:"minQty"`
				MaxQty      string `json:"maxQty"`
				StepSize    string `json:"stepSize"`
				MinPrice    string `json:"minPrice"`
				MaxPrice    string `json:"maxPrice"`
				TickSize    string `json:"tickSize"`
				MinNotional string `json:"minNotional"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(payload, &res); err != nil {
		return parseError("exchangeInfo", err)
	}

	byNative := make(map[string]types.SymbolInfo, len(res.Symbols))
	byName := make(map[string]types.SymbolInfo, len(res.Symbols))
	for _, s := range res.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		symbol, err := types.NewSymbol(s.BaseAsset, s.QuoteAsset)
		if err != nil {
			// A listing the normalized model cannot express is skipped
			// rather than failing the whole catalog.
			continue
		}

		var rules types.SymbolRules
		for _, f := range s.Filters {
			switch f.FilterType {
			case "LOT_SIZE":
				rules.MinQty = decimalField(f.MinQty)
				rules.MaxQty = decimalField(f.MaxQty)
				rules.QtyStep = decimalField(f.StepSize)
			case "PRICE_FILTER":
				rules.MinPrice = decimalField(f.MinPrice)
				rules.MaxPrice = decimalField(f.MaxPrice)
				rules.PriceStep = decimalField(f.TickSize)
			case "NOTIONAL", "MIN_NOTIONAL":
				rules.MinNotional = decimalField(f.MinNotional)
			}
		}

		info := types.SymbolInfo{Symbol: symbol, Native: s.Symbol, Rules: rules}
		byNative[s.Symbol] = info
		byName[symbol.String()] = info
	}

	sc.mu.Lock()
	sc.byNative = byNative
	sc.byName = byName
	sc.fetched = time.Now()
	sc.mu.Unlock()
	return nil
}

// decimalField parses an optional filter value, treating zero as unset the
// way Binance uses it ("0.00000000" means no bound).
func decimalField(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsZero() {
		return nil
	}
	return &d
}
