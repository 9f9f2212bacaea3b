package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Balance is a snapshot of a single asset's holdings.
type Balance struct {
	Asset     string          `json:"asset"`
	Available decimal.Decimal `json:"available"`
	Locked    decimal.Decimal `json:"locked"`
}

// Total returns available + locked.
func (b Balance) Total() decimal.Decimal {
	return b.Available.Add(b.Locked)
}

// Validate checks the balance invariants: both components non-negative.
func (b Balance) Validate() error {
	if b.Asset == "" {
		return fmt.Errorf("balance requires an asset")
	}
	if b.Available.IsNegative() {
		return fmt.Errorf("balance %s: available %s is negative", b.Asset, b.Available)
	}
	if b.Locked.IsNegative() {
		return fmt.Errorf("balance %s: locked %s is negative", b.Asset, b.Locked)
	}
	return nil
}
