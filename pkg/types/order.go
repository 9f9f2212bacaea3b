package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Validate checks the side is one of the known values.
func (s Side) Validate() error {
	switch s {
	case SideBuy, SideSell:
		return nil
	default:
		return fmt.Errorf("unknown order side %q", string(s))
	}
}

// OrderType is the execution type of an order. The set is extensible; every
// adapter documents which types its venue accepts.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderStatus enumerates the normalized order lifecycle.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusOpen            OrderStatus = "open"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// IsTerminal reports whether the status is final. Terminal orders never
// transition back to an open state.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// OrderRequest is the unified payload for order placement.
type OrderRequest struct {
	Symbol   Symbol          `json:"symbol"`
	Side     Side            `json:"side"`
	Type     OrderType       `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	// Price is required for limit orders and ignored for market orders.
	Price decimal.Decimal `json:"price"`
	// ClientOrderID is optional; venues that support it echo it back,
	// which callers can use for idempotent placement.
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// Validate performs local validation before any network call.
func (r OrderRequest) Validate() error {
	if err := r.Symbol.Validate(); err != nil {
		return err
	}
	if err := r.Side.Validate(); err != nil {
		return err
	}
	if r.Type == "" {
		return fmt.Errorf("order type is required")
	}
	if !r.Quantity.IsPositive() {
		return fmt.Errorf("order quantity must be positive, got %s", r.Quantity)
	}
	if r.Type == OrderTypeLimit && !r.Price.IsPositive() {
		return fmt.Errorf("limit orders require a positive price")
	}
	return nil
}

// Order is the normalized view of an exchange order. ID is adapter-assigned
// and opaque; callers must not parse it.
type Order struct {
	ID             string          `json:"id"`
	ClientOrderID  string          `json:"client_order_id,omitempty"`
	Symbol         Symbol          `json:"symbol"`
	Side           Side            `json:"side"`
	Type           OrderType       `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	AvgFillPrice   decimal.Decimal `json:"avg_fill_price"`
	Status         OrderStatus     `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
