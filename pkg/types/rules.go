package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SymbolRules captures the per-instrument constraints a venue enforces on
// orders. Nil fields mean the venue does not publish that constraint.
type SymbolRules struct {
	// Quantity constraints (base asset).
	MinQty  *decimal.Decimal `json:"min_qty,omitempty"`
	MaxQty  *decimal.Decimal `json:"max_qty,omitempty"`
	QtyStep *decimal.Decimal `json:"qty_step,omitempty"`

	// Price constraints (quote asset).
	MinPrice  *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice  *decimal.Decimal `json:"max_price,omitempty"`
	PriceStep *decimal.Decimal `json:"price_step,omitempty"`

	// Minimum order notional (quantity * price).
	MinNotional *decimal.Decimal `json:"min_notional,omitempty"`
}

// ValidateQty checks a client-supplied quantity against the venue's lot
// rules. Quantities that cannot be represented within the venue's step are
// rejected, never truncated.
func (r SymbolRules) ValidateQty(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("quantity must be positive, got %s", qty)
	}
	if r.MinQty != nil && qty.LessThan(*r.MinQty) {
		return fmt.Errorf("quantity %s below venue minimum %s", qty, r.MinQty)
	}
	if r.MaxQty != nil && qty.GreaterThan(*r.MaxQty) {
		return fmt.Errorf("quantity %s above venue maximum %s", qty, r.MaxQty)
	}
	if r.QtyStep != nil && !r.QtyStep.IsZero() && !qty.Mod(*r.QtyStep).IsZero() {
		return fmt.Errorf("quantity %s not a multiple of lot step %s", qty, r.QtyStep)
	}
	return nil
}

// ValidatePrice checks a client-supplied price against the venue's tick
// rules, with the same reject-don't-truncate policy as ValidateQty.
func (r SymbolRules) ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", price)
	}
	if r.MinPrice != nil && price.LessThan(*r.MinPrice) {
		return fmt.Errorf("price %s below venue minimum %s", price, r.MinPrice)
	}
	if r.MaxPrice != nil && price.GreaterThan(*r.MaxPrice) {
		return fmt.Errorf("price %s above venue maximum %s", price, r.MaxPrice)
	}
	if r.PriceStep != nil && !r.PriceStep.IsZero() && !price.Mod(*r.PriceStep).IsZero() {
		return fmt.Errorf("price %s not a multiple of tick size %s", price, r.PriceStep)
	}
	return nil
}

// ValidateNotional checks the order notional against the venue minimum.
func (r SymbolRules) ValidateNotional(qty, price decimal.Decimal) error {
	if r.MinNotional == nil {
		return nil
	}
	notional := qty.Mul(price)
	if notional.LessThan(*r.MinNotional) {
		return fmt.Errorf("order notional %s below venue minimum %s", notional, r.MinNotional)
	}
	return nil
}

// DecimalPtr is a convenience for building SymbolRules literals.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
