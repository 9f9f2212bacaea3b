package bybit

import (
	"context"
	"fmt"
	"sync"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

const symbolCacheTTL = time.Hour

// instrumentResult is the v5 instruments-info shape for spot.
type instrumentResult struct {
	Category string `json:"category"`
	List     []struct {
		Symbol        string `json:"symbol"`
		Status        string `json:"status"`
		BaseCoin      string `json:"baseCoin"`
		QuoteCoin     string `json:"quoteCoin"`
		LotSizeFilter struct {
			BasePrecision    string `json:"basePrecision"`
			QtyStep          string `json:"qtyStep"`
			MinOrderQty      string `json:"minOrderQty"`
			MaxOrderQty      string `json:"maxOrderQty"`
			MinOrderAmt      string `json:"minOrderAmt"`
			MinNotionalValue string `json:"minNotionalValue"`
		} `json:"lotSizeFilter"`
		PriceFilter struct {
			MinPrice string `json:"minPrice"`
			MaxPrice string `json:"maxPrice"`
			TickSize string `json:"tickSize"`
		} `json:"priceFilter"`
	} `json:"list"`
}

// symbolCache owns the bidirectional mapping between normalized symbols and
// Bybit's native spelling, together with the per-instrument trading rules.
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
	params := map[string]interface{}{
		"category": category,
		"limit":    1000,
	}
	resp, err := sc.client.callRetried(ctx, "instrumentsInfo", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return sc.client.api.NewUtaBybitServiceWithParams(params).GetInstrumentInfo(ctx)
	})
	if err != nil {
		return err
	}

	var res instrumentResult
	if err := decodeResult("instrumentsInfo", resp, &res); err != nil {
		return err
	}

	byNative := make(map[string]types.SymbolInfo, len(res.List))
	byName := make(map[string]types.SymbolInfo, len(res.List))
	for _, item := range res.List {
		if item.Status != "Trading" {
			continue
		}
		symbol, err := types.NewSymbol(item.BaseCoin, item.QuoteCoin)
		if err != nil {
			continue
		}

		rules := types.SymbolRules{
			MinQty:    decimalField(item.LotSizeFilter.MinOrderQty),
			MaxQty:    decimalField(item.LotSizeFilter.MaxOrderQty),
			QtyStep:   decimalField(item.LotSizeFilter.QtyStep),
			MinPrice:  decimalField(item.PriceFilter.MinPrice),
			MaxPrice:  decimalField(item.PriceFilter.MaxPrice),
			PriceStep: decimalField(item.PriceFilter.TickSize),
		}
		// Spot instruments state the quantity step as a base precision.
		if rules.QtyStep == nil {
			rules.QtyStep = decimalField(item.LotSizeFilter.BasePrecision)
		}
		rules.MinNotional = decimalField(item.LotSizeFilter.MinOrderAmt)
		if rules.MinNotional == nil {
			rules.MinNotional = decimalField(item.LotSizeFilter.MinNotionalValue)
		}

		info := types.SymbolInfo{Symbol: symbol, Native: item.Symbol, Rules: rules}
		byNative[item.Symbol] = info
		byName[symbol.String()] = info
	}

	sc.mu.Lock()
	sc.byNative = byNative
	sc.byName = byName
	sc.fetched = time.Now()
	sc.mu.Unlock()
	return nil
}

// decimalField parses an optional filter value, treating zero and absent
// values as unset.
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
