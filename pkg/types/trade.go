package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a single fill against an order. An order accumulates zero or
// more trades over its lifetime.
type Trade struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"order_id"`
	Symbol   Symbol          `json:"symbol"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	FeeAsset string          `json:"fee_asset,omitempty"`
	Time     time.Time       `json:"time"`
}

// Validate checks the trade invariants: executed quantity and price are
// strictly positive.
func (t Trade) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trade requires an identifier")
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("trade %s: quantity %s must be positive", t.ID, t.Quantity)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("trade %s: price %s must be positive", t.ID, t.Price)
	}
	return nil
}
