package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewSymbol_Normalizes tests that symbols are upper-cased and trimmed
func TestNewSymbol_Normalizes(t *testing.T) {
	s, err := NewSymbol(" btc ", "usdt")
	require.NoError(t, err)
	assert.Equal(t, "BTC", s.Base)
	assert.Equal(t, "USDT", s.Quote)
	assert.Equal(t, "BTC/USDT", s.String())
}

// TestNewSymbol_RejectsSameAsset tests the base != quote invariant
func TestNewSymbol_RejectsSameAsset(t *testing.T) {
	_, err := NewSymbol("BTC", "btc")
	assert.Error(t, err)
}

// TestNewSymbol_RejectsEmpty tests that both assets are required
func TestNewSymbol_RejectsEmpty(t *testing.T) {
	_, err := NewSymbol("", "USDT")
	assert.Error(t, err)

	_, err = NewSymbol("BTC", "")
	assert.Error(t, err)
}

// TestParseSymbol_RoundTrip tests String/ParseSymbol round-tripping
func TestParseSymbol_RoundTrip(t *testing.T) {
	s, err := ParseSymbol("ETH/USDT")
	require.NoError(t, err)

	back, err := ParseSymbol(s.String())
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

// TestParseSymbol_RejectsMalformed tests malformed symbol strings
func TestParseSymbol_RejectsMalformed(t *testing.T) {
	for _, input := range []string{"BTCUSDT", "BTC/USDT/EXTRA", "/", ""} {
		_, err := ParseSymbol(input)
		assert.Error(t, err, "input %q", input)
	}
}

// TestSymbol_IsZero tests the unspecified-symbol convention
func TestSymbol_IsZero(t *testing.T) {
	assert.True(t, Symbol{}.IsZero())

	s, _ := NewSymbol("BTC", "USDT")
	assert.False(t, s.IsZero())
}

// TestBalance_TotalInvariant tests available + locked == total
func TestBalance_TotalInvariant(t *testing.T) {
	b := Balance{
		Asset:     "USDT",
		Available: decimal.RequireFromString("100.5"),
		Locked:    decimal.RequireFromString("24.5"),
	}
	require.NoError(t, b.Validate())
	assert.True(t, b.Total().Equal(decimal.RequireFromString("125")))
}

// TestBalance_RejectsNegativeComponents tests the non-negative invariant
func TestBalance_RejectsNegativeComponents(t *testing.T) {
	b := Balance{Asset: "BTC", Available: decimal.NewFromInt(-1)}
	assert.Error(t, b.Validate())

	b = Balance{Asset: "BTC", Locked: decimal.NewFromInt(-1)}
	assert.Error(t, b.Validate())
}

// TestTicker_BidAskInvariant tests bid <= ask when both are present
func TestTicker_BidAskInvariant(t *testing.T) {
	sym, _ := NewSymbol("BTC", "USDT")

	ok := Ticker{
		Symbol: sym,
		Bid:    decimal.RequireFromString("100.0"),
		Ask:    decimal.RequireFromString("100.5"),
		Time:   time.Now(),
	}
	assert.NoError(t, ok.Validate())

	crossed := Ticker{
		Symbol: sym,
		Bid:    decimal.RequireFromString("101"),
		Ask:    decimal.RequireFromString("100"),
	}
	assert.Error(t, crossed.Validate())
}

// TestOrderStatus_IsTerminal tests the terminal state set
func TestOrderStatus_IsTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), string(s))
	}

	open := []OrderStatus{OrderStatusNew, OrderStatusOpen, OrderStatusPartiallyFilled}
	for _, s := range open {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

// TestOrderRequest_Validate tests local order validation
func TestOrderRequest_Validate(t *testing.T) {
	sym, _ := NewSymbol("BTC", "USDT")

	valid := OrderRequest{
		Symbol:   sym,
		Side:     SideBuy,
		Type:     OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.5"),
		Price:    decimal.RequireFromString("50000"),
	}
	assert.NoError(t, valid.Validate())

	// Market orders do not require a price.
	market := valid
	market.Type = OrderTypeMarket
	market.Price = decimal.Zero
	assert.NoError(t, market.Validate())

	// Limit orders do.
	noPrice := valid
	noPrice.Price = decimal.Zero
	assert.Error(t, noPrice.Validate())

	zeroQty := valid
	zeroQty.Quantity = decimal.Zero
	assert.Error(t, zeroQty.Validate())

	badSide := valid
	badSide.Side = "hold"
	assert.Error(t, badSide.Validate())
}

// TestTrade_Validate tests the strictly-positive quantity/price invariant
func TestTrade_Validate(t *testing.T) {
	sym, _ := NewSymbol("BTC", "USDT")

	valid := Trade{
		ID:       "t1",
		OrderID:  "o1",
		Symbol:   sym,
		Side:     SideBuy,
		Quantity: decimal.RequireFromString("0.1"),
		Price:    decimal.RequireFromString("50000"),
		Time:     time.Now(),
	}
	assert.NoError(t, valid.Validate())

	zeroQty := valid
	zeroQty.Quantity = decimal.Zero
	assert.Error(t, zeroQty.Validate())

	zeroPrice := valid
	zeroPrice.Price = decimal.Zero
	assert.Error(t, zeroPrice.Validate())
}

// TestSymbolRules_ValidateQty tests lot-size rejection semantics
func TestSymbolRules_ValidateQty(t *testing.T) {
	rules := SymbolRules{
		MinQty:  DecimalPtr(decimal.RequireFromString("0.001")),
		MaxQty:  DecimalPtr(decimal.RequireFromString("100")),
		QtyStep: DecimalPtr(decimal.RequireFromString("0.001")),
	}

	assert.NoError(t, rules.ValidateQty(decimal.RequireFromString("0.005")))
	assert.Error(t, rules.ValidateQty(decimal.RequireFromString("0.0005")), "below minimum")
	assert.Error(t, rules.ValidateQty(decimal.RequireFromString("101")), "above maximum")
	// Off-step values are rejected, never truncated.
	assert.Error(t, rules.ValidateQty(decimal.RequireFromString("0.0015")))
	assert.Error(t, rules.ValidateQty(decimal.Zero))
}

// TestSymbolRules_ValidatePrice tests tick-size rejection semantics
func TestSymbolRules_ValidatePrice(t *testing.T) {
	rules := SymbolRules{
		PriceStep: DecimalPtr(decimal.RequireFromString("0.01")),
		MinPrice:  DecimalPtr(decimal.RequireFromString("0.01")),
	}

	assert.NoError(t, rules.ValidatePrice(decimal.RequireFromString("100.25")))
	assert.Error(t, rules.ValidatePrice(decimal.RequireFromString("100.255")))
	assert.Error(t, rules.ValidatePrice(decimal.RequireFromString("0.001")))
}

// TestSymbolRules_ValidateNotional tests the minimum notional check
func TestSymbolRules_ValidateNotional(t *testing.T) {
	rules := SymbolRules{
		MinNotional: DecimalPtr(decimal.RequireFromString("10")),
	}

	assert.NoError(t, rules.ValidateNotional(decimal.RequireFromString("0.001"), decimal.RequireFromString("50000")))
	assert.Error(t, rules.ValidateNotional(decimal.RequireFromString("0.0001"), decimal.RequireFromString("50000")))

	// No minimum published, everything passes.
	assert.NoError(t, SymbolRules{}.ValidateNotional(decimal.Zero, decimal.Zero))
}
