package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

const tradePageLimit = 1000

// restOrder is the venue's order payload shared by the order endpoints.
type restOrder struct {
	Symbol             string `json:"symbol"`
	OrderID            int64  `json:"orderId"`
	ClientOrderID      string `json:"clientOrderId"`
	OrigClientOrderID  string `json:"origClientOrderId"`
	Price              string `json:"price"`
	OrigQty            string `json:"origQty"`
	ExecutedQty        string `json:"executedQty"`
	CumulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status             string `json:"status"`
	Type               string `json:"type"`
	Side               string `json:"side"`
	Time               int64  `json:"time"`
	TransactTime       int64  `json:"transactTime"`
	UpdateTime         int64  `json:"updateTime"`
}

// PlaceOrder validates the request against the instrument's rules locally,
// then submits it. Off-step quantities and prices are rejected before any
// network call.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderRequest) (*types.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, exchange.WrapError(exchange.KindInvalidRequest, Name, "invalid order request", err)
	}
	info, err := c.symbols.resolve(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	if err := checkOrderRules(info.Rules, req); err != nil {
		return nil, err
	}

	clientOrderID := req.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = uuid.NewString()
	}

	params := url.Values{}
	params.Set("symbol", info.Native)
	params.Set("side", strings.ToUpper(string(req.Side)))
	params.Set("quantity", req.Quantity.String())
	params.Set("newClientOrderId", clientOrderID)
	switch req.Type {
	case types.OrderTypeMarket:
		params.Set("type", "MARKET")
	case types.OrderTypeLimit:
		params.Set("type", "LIMIT")
		params.Set("timeInForce", "GTC")
		params.Set("price", req.Price.String())
	default:
		return nil, exchange.NewError(exchange.KindNotSupported, Name,
			fmt.Sprintf("order type %q is not supported by this venue", req.Type))
	}

	payload, err := c.signed(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return nil, err
	}

	var res restOrder
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, parseError("placeOrder", err)
	}
	return c.orderFromREST(ctx, res)
}

// CancelOrder cancels an open order and returns its final state. The venue
// reports cancellation of an already-terminal order as an unknown order,
// which surfaces as an invalid-request error.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*types.Order, error) {
	native, nativeID, err := splitOrderID(orderID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", native)
	params.Set("orderId", nativeID)
	payload, err := c.signed(ctx, http.MethodDelete, "/api/v3/order", params)
	if err != nil {
		return nil, err
	}

	var res restOrder
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, parseError("cancelOrder", err)
	}
	return c.orderFromREST(ctx, res)
}

// GetOrder returns the current state of an order by its opaque identifier.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	native, nativeID, err := splitOrderID(orderID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", native)
	params.Set("orderId", nativeID)
	payload, err := c.getRetried(ctx, "/api/v3/order", params, true)
	if err != nil {
		return nil, err
	}

	var res restOrder
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, parseError("getOrder", err)
	}
	return c.orderFromREST(ctx, res)
}

// ListOpenOrders returns every open order, narrowed to one symbol when a
// non-zero symbol is given.
func (c *Client) ListOpenOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error) {
	params := url.Values{}
	if !symbol.IsZero() {
		info, err := c.symbols.resolve(ctx, symbol)
		if err != nil {
			return nil, err
		}
		params.Set("symbol", info.Native)
	}

	payload, err := c.getRetried(ctx, "/api/v3/openOrders", params, true)
	if err != nil {
		return nil, err
	}

	var res []restOrder
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, parseError("openOrders", err)
	}

	orders := make([]types.Order, 0, len(res))
	for _, ro := range res {
		order, err := c.orderFromREST(ctx, ro)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// ListTrades returns the account's fills for one symbol, oldest first,
// draining the venue's pagination by chaining fromId.
func (c *Client) ListTrades(ctx context.Context, symbol types.Symbol, since time.Time) ([]types.Trade, error) {
	if symbol.IsZero() {
		return nil, exchange.NewError(exchange.KindInvalidRequest, Name,
			"trade history requires a symbol on this venue")
	}
	info, err := c.symbols.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var (
		trades []types.Trade
		fromID int64 = -1
	)
	for {
		params := url.Values{}
		params.Set("symbol", info.Native)
		params.Set("limit", strconv.Itoa(tradePageLimit))
		if fromID >= 0 {
			params.Set("fromId", strconv.FormatInt(fromID, 10))
		} else if !since.IsZero() {
			params.Set("startTime", strconv.FormatInt(since.UnixMilli(), 10))
		}

		payload, err := c.getRetried(ctx, "/api/v3/myTrades", params, true)
		if err != nil {
			return nil, err
		}

		var page []struct {
			ID              int64  `json:"id"`
			OrderID         int64  `json:"orderId"`
			Price           string `json:"price"`
			Qty             string `json:"qty"`
			Commission      string `json:"commission"`
			CommissionAsset string `json:"commissionAsset"`
			Time            int64  `json:"time"`
			IsBuyer         bool   `json:"isBuyer"`
		}
		if err := json.Unmarshal(payload, &page); err != nil {
			return nil, parseError("myTrades", err)
		}
		if len(page) == 0 {
			return trades, nil
		}

		for _, t := range page {
			trade := types.Trade{
				ID:       strconv.FormatInt(t.ID, 10),
				OrderID:  joinOrderID(info.Native, t.OrderID),
				Symbol:   symbol,
				Side:     types.SideSell,
				FeeAsset: t.CommissionAsset,
				Time:     msToTime(t.Time),
			}
			if t.IsBuyer {
				trade.Side = types.SideBuy
			}
			if trade.Quantity, err = parseDecimal("qty", t.Qty); err != nil {
				return nil, err
			}
			if trade.Price, err = parseDecimal("price", t.Price); err != nil {
				return nil, err
			}
			if trade.Fee, err = parseDecimal("commission", t.Commission); err != nil {
				return nil, err
			}
			trades = append(trades, trade)
		}

		if len(page) < tradePageLimit {
			return trades, nil
		}
		fromID = page[len(page)-1].ID + 1
	}
}

// checkOrderRules enforces the instrument's filters locally. Values off the
// quantity or price step are rejected, not rounded.
func checkOrderRules(rules types.SymbolRules, req types.OrderRequest) error {
	if err := rules.ValidateQty(req.Quantity); err != nil {
		return exchange.WrapError(exchange.KindInvalidRequest, Name, "order quantity violates instrument rules", err)
	}
	if req.Type == types.OrderTypeLimit {
		if err := rules.ValidatePrice(req.Price); err != nil {
			return exchange.WrapError(exchange.KindInvalidRequest, Name, "order price violates instrument rules", err)
		}
		if err := rules.ValidateNotional(req.Quantity, req.Price); err != nil {
			return exchange.WrapError(exchange.KindInvalidRequest, Name, "order notional violates instrument rules", err)
		}
	}
	return nil
}

// joinOrderID builds the opaque order identifier handed to callers. Encoding
// the native symbol lets cancel and lookup run from the identifier alone.
func joinOrderID(native string, orderID int64) string {
	return native + ":" + strconv.FormatInt(orderID, 10)
}

func splitOrderID(orderID string) (native, nativeID string, err error) {
	native, nativeID, ok := strings.Cut(orderID, ":")
	if !ok || native == "" || nativeID == "" {
		return "", "", exchange.NewError(exchange.KindInvalidRequest, Name,
			fmt.Sprintf("malformed order id %q", orderID))
	}
	return native, nativeID, nil
}

func (c *Client) orderFromREST(ctx context.Context, ro restOrder) (*types.Order, error) {
	symbol, err := c.symbols.normalize(ctx, ro.Symbol)
	if err != nil {
		return nil, err
	}

	clientOrderID := ro.ClientOrderID
	if ro.OrigClientOrderID != "" {
		clientOrderID = ro.OrigClientOrderID
	}

	created := ro.Time
	if created == 0 {
		created = ro.TransactTime
	}
	updated := ro.UpdateTime
	if updated == 0 {
		updated = created
	}

	order := &types.Order{
		ID:            joinOrderID(ro.Symbol, ro.OrderID),
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Status:        statusFromNative(ro.Status),
		CreatedAt:     msToTime(created),
		UpdatedAt:     msToTime(updated),
	}

	switch ro.Side {
	case "BUY":
		order.Side = types.SideBuy
	case "SELL":
		order.Side = types.SideSell
	default:
		return nil, exchange.NewError(exchange.KindUnknown, Name,
			fmt.Sprintf("venue returned unknown order side %q", ro.Side))
	}
	switch ro.Type {
	case "MARKET":
		order.Type = types.OrderTypeMarket
	default:
		// Every non-market native type prices through the limit shape.
		order.Type = types.OrderTypeLimit
	}

	if order.Quantity, err = parseDecimal("origQty", ro.OrigQty); err != nil {
		return nil, err
	}
	if order.Price, err = parseDecimal("price", ro.Price); err != nil {
		return nil, err
	}
	if order.FilledQuantity, err = parseDecimal("executedQty", ro.ExecutedQty); err != nil {
		return nil, err
	}
	quote, err := parseDecimal("cummulativeQuoteQty", ro.CumulativeQuoteQty)
	if err != nil {
		return nil, err
	}
	if order.FilledQuantity.IsPositive() {
		order.AvgFillPrice = quote.Div(order.FilledQuantity)
	} else {
		order.AvgFillPrice = decimal.Zero
	}
	return order, nil
}

func statusFromNative(status string) types.OrderStatus {
	switch status {
	case "NEW":
		return types.OrderStatusOpen
	case "PARTIALLY_FILLED":
		return types.OrderStatusPartiallyFilled
	case "FILLED":
		return types.OrderStatusFilled
	case "CANCELED", "EXPIRED", "EXPIRED_IN_MATCH":
		return types.OrderStatusCancelled
	case "PENDING_CANCEL":
		return types.OrderStatusOpen
	case "REJECTED":
		return types.OrderStatusRejected
	default:
		return types.OrderStatusNew
	}
}
