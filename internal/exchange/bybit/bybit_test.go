package bybit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

func mustSymbol(t *testing.T, base, quote string) types.Symbol {
	t.Helper()
	s, err := types.NewSymbol(base, quote)
	require.NoError(t, err)
	return s
}

// newSeededClient returns a client whose symbol cache is pre-populated, so
// mapping paths run without any network call.
func newSeededClient(t *testing.T) *Client {
	t.Helper()

	settings, err := SettingsFromMap(map[string]string{
		"api_key":    "K",
		"api_secret": "S",
		"testnet":    "true",
	})
	require.NoError(t, err)

	client := New(settings)
	step := decimal.RequireFromString("0.001")
	info := types.SymbolInfo{
		Symbol: mustSymbol(t, "BTC", "USDT"),
		Native: "BTCUSDT",
		Rules:  types.SymbolRules{QtyStep: &step},
	}
	client.symbols.byNative["BTCUSDT"] = info
	client.symbols.byName[info.Symbol.String()] = info
	client.symbols.fetched = time.Now()
	return client
}

func TestSettingsFromMap_Environments(t *testing.T) {
	mainnet, err := SettingsFromMap(map[string]string{"api_key": "K", "api_secret": "S"})
	require.NoError(t, err)
	assert.Equal(t, bybit_api.MAINNET, mainnet.BaseURL)

	testnet, err := SettingsFromMap(map[string]string{"api_key": "K", "api_secret": "S", "testnet": "true"})
	require.NoError(t, err)
	assert.Equal(t, bybit_api.TESTNET, testnet.BaseURL)

	demo, err := SettingsFromMap(map[string]string{"api_key": "K", "api_secret": "super-secret", "demo": "true"})
	require.NoError(t, err)
	assert.Equal(t, demoBaseURL, demo.BaseURL)
	assert.NotContains(t, demo.String(), "super-secret")
}

// TestSettingsFromMap_TestnetDemoExclusive checks the two environments
// cannot be combined.
func TestSettingsFromMap_TestnetDemoExclusive(t *testing.T) {
	_, err := SettingsFromMap(map[string]string{
		"api_key":    "K",
		"api_secret": "S",
		"testnet":    "true",
		"demo":       "true",
	})
	assert.True(t, exchange.IsConfiguration(err))
}

func TestSettingsFromMap_MissingKey(t *testing.T) {
	_, err := SettingsFromMap(map[string]string{"api_secret": "S"})
	assert.True(t, exchange.IsConfiguration(err))
}

// TestNew_AppliesTimeout checks the configured timeout bounds the SDK's
// transport, not just the caller's context.
func TestNew_AppliesTimeout(t *testing.T) {
	settings, err := SettingsFromMap(map[string]string{
		"api_key":    "K",
		"api_secret": "S",
		"timeout":    "7s",
	})
	require.NoError(t, err)

	client := New(settings)
	require.NotNil(t, client.api.HTTPClient)
	assert.Equal(t, 7*time.Second, client.api.HTTPClient.Timeout)
}

// TestServerTime checks the clock comes from the dedicated time endpoint.
func TestServerTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v5/market/time", r.URL.Path)
		fmt.Fprint(w, `{
			"retCode": 0,
			"retMsg": "OK",
			"result": {"timeSecond": "1700000000", "timeNano": "1700000000123456789"},
			"retExtInfo": {},
			"time": 1700000000123
		}`)
	}))
	defer server.Close()

	settings, err := SettingsFromMap(map[string]string{
		"api_key":    "K",
		"api_secret": "S",
		"base_url":   server.URL,
	})
	require.NoError(t, err)

	ts, err := New(settings).ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000123).UTC(), ts)
}

// TestSymbolRoundTrip checks every listed symbol maps to its native
// spelling and back without loss.
func TestSymbolRoundTrip(t *testing.T) {
	client := newSeededClient(t)
	ctx := context.Background()

	infos, err := client.symbols.all(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, infos)

	for _, info := range infos {
		resolved, err := client.symbols.resolve(ctx, info.Symbol)
		require.NoError(t, err)
		assert.Equal(t, info.Native, resolved.Native)

		back, err := client.symbols.normalize(ctx, info.Native)
		require.NoError(t, err)
		assert.Equal(t, info.Symbol, back)
	}
}

func TestResponseError_KindMapping(t *testing.T) {
	cases := []struct {
		code int
		kind exchange.Kind
	}{
		{codeInvalidAPIKey, exchange.KindAuthentication},
		{codeInvalidSignature, exchange.KindAuthentication},
		{codeRateLimitExceeded, exchange.KindRateLimited},
		{codeIPRateLimit, exchange.KindRateLimited},
		{codeInsufficientBalance, exchange.KindInsufficientFunds},
		{codeOrderNotFound, exchange.KindInvalidRequest},
		{codeInvalidQuantity, exchange.KindInvalidRequest},
		{codeServerError, exchange.KindUnavailable},
		{999999, exchange.KindUnknown},
	}
	for _, tc := range cases {
		apiErr := responseError(&bybit_api.ServerResponse{RetCode: tc.code, RetMsg: "native message"})
		require.NotNil(t, apiErr, "code %d", tc.code)
		assert.Equal(t, tc.kind, apiErr.Kind, "code %d", tc.code)
		assert.Equal(t, "native message", apiErr.Message)
	}

	assert.Nil(t, responseError(&bybit_api.ServerResponse{RetCode: 0}))
}

func TestParseTicker(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"category": "spot",
			"list": []interface{}{
				map[string]interface{}{
					"symbol":    "BTCUSDT",
					"bid1Price": "100.0",
					"ask1Price": "100.5",
					"lastPrice": "100.2",
				},
			},
		},
		Time: 1700000000000,
	}

	ticker, err := parseTicker(resp, mustSymbol(t, "BTC", "USDT"))
	require.NoError(t, err)
	assert.True(t, ticker.Bid.Equal(decimal.RequireFromString("100.0")))
	assert.True(t, ticker.Ask.Equal(decimal.RequireFromString("100.5")))
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), ticker.Time)
	assert.NoError(t, ticker.Validate())
}

func TestParseTicker_EmptyList(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result:  map[string]interface{}{"category": "spot", "list": []interface{}{}},
	}
	_, err := parseTicker(resp, mustSymbol(t, "BTC", "USDT"))
	apiErr, ok := exchange.AsError(err)
	require.True(t, ok)
	assert.Equal(t, exchange.KindUnknown, apiErr.Kind)
}

// TestParseKlines checks newest-first venue rows come back oldest first with
// derived close times.
func TestParseKlines(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"symbol":   "BTCUSDT",
			"category": "spot",
			"list": []interface{}{
				[]interface{}{"1700003600000", "100.5", "102.0", "100.0", "101.5", "9.1", "920"},
				[]interface{}{"1700000000000", "100.0", "101.0", "99.0", "100.5", "12.5", "1250"},
			},
		},
	}

	candles, err := parseKlines(resp, types.Interval1h)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].OpenTime.Before(candles[1].OpenTime))
	assert.Equal(t, candles[0].OpenTime.Add(time.Hour), candles[0].CloseTime)
	assert.True(t, candles[1].Close.Equal(decimal.RequireFromString("101.5")))
}

// TestParseWalletBalances checks zero wallets are dropped and locked falls
// back to the order margin.
func TestParseWalletBalances(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"list": []interface{}{
				map[string]interface{}{
					"accountType": "UNIFIED",
					"coin": []interface{}{
						map[string]interface{}{
							"coin":             "BTC",
							"walletBalance":    "0.6",
							"availableToTrade": "0.5",
							"locked":           "0.1",
						},
						map[string]interface{}{
							"coin":             "USDT",
							"walletBalance":    "100",
							"availableToTrade": "",
							"locked":           "",
							"totalOrderIM":     "25",
						},
						map[string]interface{}{
							"coin":          "DUST",
							"walletBalance": "0",
						},
					},
				},
			},
		},
	}

	balances, err := parseWalletBalances(resp)
	require.NoError(t, err)
	require.Len(t, balances, 2)

	btc := balances["BTC"]
	assert.True(t, btc.Available.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, btc.Total().Equal(decimal.RequireFromString("0.6")))
	assert.NoError(t, btc.Validate())

	usdt := balances["USDT"]
	assert.True(t, usdt.Locked.Equal(decimal.RequireFromString("25")))
	assert.True(t, usdt.Available.Equal(decimal.RequireFromString("75")))
}

func TestParseExecutions(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"category": "spot",
			"list": []interface{}{
				map[string]interface{}{
					"execId":      "e-2",
					"orderId":     "77",
					"symbol":      "BTCUSDT",
					"side":        "Sell",
					"execQty":     "0.002",
					"execPrice":   "101.0",
					"execFee":     "0.01",
					"feeCurrency": "USDT",
					"execTime":    "1700000001000",
				},
			},
			"nextPageCursor": "cursor-2",
		},
	}

	trades, cursor, err := parseExecutions(resp, mustSymbol(t, "BTC", "USDT"), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "cursor-2", cursor)
	require.Len(t, trades, 1)
	assert.Equal(t, types.SideSell, trades[0].Side)
	assert.Equal(t, "BTCUSDT:77", trades[0].OrderID)
	assert.NoError(t, trades[0].Validate())
}

func TestOrderFromREST(t *testing.T) {
	client := newSeededClient(t)

	order, err := client.orderFromREST(context.Background(), restOrder{
		OrderID:      "12345",
		OrderLinkID:  "my-id",
		Symbol:       "BTCUSDT",
		Side:         "Buy",
		OrderType:    "Limit",
		Qty:          "0.010",
		Price:        "100.00",
		OrderStatus:  "PartiallyFilled",
		CumExecQty:   "0.005",
		CumExecValue: "0.50",
		AvgPrice:     "",
		CreatedTime:  "1700000000000",
		UpdatedTime:  "1700000001000",
	})
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT:12345", order.ID)
	assert.Equal(t, "my-id", order.ClientOrderID)
	assert.Equal(t, types.OrderStatusPartiallyFilled, order.Status)
	assert.True(t, order.AvgFillPrice.Equal(decimal.RequireFromString("100")))
	assert.True(t, order.UpdatedAt.After(order.CreatedAt))
}

func TestOrderFromREST_UnknownSymbol(t *testing.T) {
	client := newSeededClient(t)

	_, err := client.orderFromREST(context.Background(), restOrder{
		OrderID: "1",
		Symbol:  "UNLISTED",
		Side:    "Buy",
	})
	apiErr, ok := exchange.AsError(err)
	require.True(t, ok)
	assert.Equal(t, exchange.KindUnknown, apiErr.Kind)
}

func TestStatusFromNative(t *testing.T) {
	cases := map[string]types.OrderStatus{
		"New":                     types.OrderStatusOpen,
		"PartiallyFilled":         types.OrderStatusPartiallyFilled,
		"Filled":                  types.OrderStatusFilled,
		"Cancelled":               types.OrderStatusCancelled,
		"PartiallyFilledCanceled": types.OrderStatusCancelled,
		"Rejected":                types.OrderStatusRejected,
	}
	for native, want := range cases {
		assert.Equal(t, want, statusFromNative(native), native)
	}
	assert.True(t, statusFromNative("Filled").IsTerminal())
	assert.False(t, statusFromNative("New").IsTerminal())
}

// TestPlaceOrder_OffStepQuantity checks off-step values are rejected
// locally, never rounded and never sent.
func TestPlaceOrder_OffStepQuantity(t *testing.T) {
	client := newSeededClient(t)

	_, err := client.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol:   mustSymbol(t, "BTC", "USDT"),
		Side:     types.SideBuy,
		Type:     types.OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.0105"),
		Price:    decimal.RequireFromString("100.00"),
	})
	assert.True(t, exchange.IsInvalidRequest(err))
}

func TestSplitOrderID(t *testing.T) {
	native, id, err := splitOrderID("BTCUSDT:12345")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", native)
	assert.Equal(t, "12345", id)

	_, _, err = splitOrderID("no-separator")
	assert.True(t, exchange.IsInvalidRequest(err))
}

var _ exchange.Exchange = (*Client)(nil)
