package bybit

import (
	"context"
	"fmt"
	"strings"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/google/uuid"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
	"github.com/ducminhle1904/exchange-gateway/pkg/types"
)

const tradePageLimit = 100

// restOrder is the v5 order shape shared by the order endpoints.
type restOrder struct {
	OrderID      string `json:"orderId"`
	OrderLinkID  string `json:"orderLinkId"`
	Symbol       string `json:"symbol"`
	Side         string `json:"side"`
	OrderType    string `json:"orderType"`
	Qty          string `json:"qty"`
	Price        string `json:"price"`
	OrderStatus  string `json:"orderStatus"`
	CumExecQty   string `json:"cumExecQty"`
	CumExecValue string `json:"cumExecValue"`
	AvgPrice     string `json:"avgPrice"`
	CreatedTime  string `json:"createdTime"`
	UpdatedTime  string `json:"updatedTime"`
}

type orderListResult struct {
	Category       string      `json:"category"`
	List           []restOrder `json:"list"`
	NextPageCursor string      `json:"nextPageCursor"`
}

// PlaceOrder validates the request against the instrument's rules locally,
// then submits it. The placement response only carries identifiers, so the
// venue's view of the order is fetched right after.
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

	params := map[string]interface{}{
		"category":    category,
		"symbol":      info.Native,
		"side":        nativeSide(req.Side),
		"qty":         req.Quantity.String(),
		"orderLinkId": clientOrderID,
	}
	switch req.Type {
	case types.OrderTypeMarket:
		params["orderType"] = "Market"
		// Spot market buys default to quote-denominated quantity; pin the
		// base coin so Quantity always means base units.
		params["marketUnit"] = "baseCoin"
	case types.OrderTypeLimit:
		params["orderType"] = "Limit"
		params["timeInForce"] = "GTC"
		params["price"] = req.Price.String()
	default:
		return nil, exchange.NewError(exchange.KindNotSupported, Name,
			fmt.Sprintf("order type %q is not supported by this venue", req.Type))
	}

	resp, err := c.call(ctx, "placeOrder", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	})
	if err != nil {
		return nil, err
	}

	var res struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := decodeResult("placeOrder", resp, &res); err != nil {
		return nil, err
	}

	order, err := c.fetchOrder(ctx, info.Native, res.OrderID)
	if err == nil {
		return order, nil
	}
	// The order may have filled and dropped out of the realtime window
	// between placement and lookup; fall back to the submitted view.
	if !exchange.IsInvalidRequest(err) {
		return nil, err
	}
	now := msToTime(resp.Time)
	return &types.Order{
		ID:            joinOrderID(info.Native, res.OrderID),
		ClientOrderID: res.OrderLinkID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Status:        types.OrderStatusNew,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CancelOrder cancels an open order and returns its final state. The venue
// reports cancellation of a terminal order as order-not-exists, which
// surfaces as an invalid-request error.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*types.Order, error) {
	native, nativeID, err := splitOrderID(orderID)
	if err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   native,
		"orderId":  nativeID,
	}
	if _, err := c.call(ctx, "cancelOrder", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceWithParams(params).CancelOrder(ctx)
	}); err != nil {
		return nil, err
	}
	return c.fetchOrder(ctx, native, nativeID)
}

// GetOrder returns the current state of an order by its opaque identifier.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	native, nativeID, err := splitOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return c.fetchOrder(ctx, native, nativeID)
}

// fetchOrder looks the order up in the realtime window first, then in the
// order history once it has gone terminal.
func (c *Client) fetchOrder(ctx context.Context, native, nativeID string) (*types.Order, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   native,
		"orderId":  nativeID,
	}

	open, err := c.callRetried(ctx, "openOrders", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceWithParams(params).GetOpenOrders(ctx)
	})
	if err != nil {
		return nil, err
	}
	if order, found, err := c.firstOrder(ctx, "openOrders", open, nativeID); err != nil || found {
		return order, err
	}

	history, err := c.callRetried(ctx, "orderHistory", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceWithParams(params).GetOrderHistory(ctx)
	})
	if err != nil {
		return nil, err
	}
	if order, found, err := c.firstOrder(ctx, "orderHistory", history, nativeID); err != nil || found {
		return order, err
	}

	return nil, exchange.NewError(exchange.KindInvalidRequest, Name,
		fmt.Sprintf("order %s not found", joinOrderID(native, nativeID)))
}

func (c *Client) firstOrder(ctx context.Context, operation string, resp *bybit_api.ServerResponse, nativeID string) (*types.Order, bool, error) {
	var res orderListResult
	if err := decodeResult(operation, resp, &res); err != nil {
		return nil, false, err
	}
	for _, ro := range res.List {
		if ro.OrderID == nativeID {
			order, err := c.orderFromREST(ctx, ro)
			return order, true, err
		}
	}
	return nil, false, nil
}

// ListOpenOrders returns every open order, narrowed to one symbol when a
// non-zero symbol is given.
func (c *Client) ListOpenOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error) {
	params := map[string]interface{}{
		"category": category,
	}
	if !symbol.IsZero() {
		info, err := c.symbols.resolve(ctx, symbol)
		if err != nil {
			return nil, err
		}
		params["symbol"] = info.Native
	}

	resp, err := c.callRetried(ctx, "openOrders", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
		return c.api.NewUtaBybitServiceWithParams(params).GetOpenOrders(ctx)
	})
	if err != nil {
		return nil, err
	}

	var res orderListResult
	if err := decodeResult("openOrders", resp, &res); err != nil {
		return nil, err
	}

	orders := make([]types.Order, 0, len(res.List))
	for _, ro := range res.List {
		order, err := c.orderFromREST(ctx, ro)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// ListTrades returns the account's fills for one symbol, oldest first,
// draining the venue's cursor pagination.
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
		cursor string
	)
	for {
		params := map[string]interface{}{
			"category": category,
			"symbol":   info.Native,
			"limit":    tradePageLimit,
		}
		if !since.IsZero() {
			params["startTime"] = since.UnixMilli()
		}
		if cursor != "" {
			params["cursor"] = cursor
		}

		resp, err := c.callRetried(ctx, "executions", func(ctx context.Context) (*bybit_api.ServerResponse, error) {
			return c.api.NewUtaBybitServiceWithParams(params).GetTradeHistory(ctx)
		})
		if err != nil {
			return nil, err
		}

		page, next, err := parseExecutions(resp, symbol, info.Native)
		if err != nil {
			return nil, err
		}
		trades = append(trades, page...)

		if next == "" || next == cursor || len(page) == 0 {
			break
		}
		cursor = next
	}

	// The venue pages newest first; flip to the contract's order.
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}
	return trades, nil
}

func parseExecutions(resp *bybit_api.ServerResponse, symbol types.Symbol, native string) ([]types.Trade, string, error) {
	var res struct {
		Category string `json:"category"`
		List     []struct {
			ExecID      string `json:"execId"`
			OrderID     string `json:"orderId"`
			Symbol      string `json:"symbol"`
			Side        string `json:"side"`
			ExecQty     string `json:"execQty"`
			ExecPrice   string `json:"execPrice"`
			ExecFee     string `json:"execFee"`
			FeeCurrency string `json:"feeCurrency"`
			ExecTime    string `json:"execTime"`
		} `json:"list"`
		NextPageCursor string `json:"nextPageCursor"`
	}
	if err := decodeResult("executions", resp, &res); err != nil {
		return nil, "", err
	}

	trades := make([]types.Trade, 0, len(res.List))
	for _, e := range res.List {
		execMs, err := parseInt("execTime", e.ExecTime)
		if err != nil {
			return nil, "", err
		}
		trade := types.Trade{
			ID:       e.ExecID,
			OrderID:  joinOrderID(native, e.OrderID),
			Symbol:   symbol,
			FeeAsset: e.FeeCurrency,
			Time:     msToTime(execMs),
		}
		switch e.Side {
		case "Buy":
			trade.Side = types.SideBuy
		case "Sell":
			trade.Side = types.SideSell
		default:
			return nil, "", exchange.NewError(exchange.KindUnknown, Name,
				fmt.Sprintf("venue returned unknown execution side %q", e.Side))
		}
		if trade.Quantity, err = parseDecimal("execQty", e.ExecQty); err != nil {
			return nil, "", err
		}
		if trade.Price, err = parseDecimal("execPrice", e.ExecPrice); err != nil {
			return nil, "", err
		}
		if trade.Fee, err = parseDecimal("execFee", e.ExecFee); err != nil {
			return nil, "", err
		}
		trades = append(trades, trade)
	}
	return trades, res.NextPageCursor, nil
}

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

func nativeSide(side types.Side) string {
	if side == types.SideSell {
		return "Sell"
	}
	return "Buy"
}

// joinOrderID builds the opaque order identifier handed to callers. Encoding
// the native symbol lets cancel and lookup run from the identifier alone.
func joinOrderID(native, orderID string) string {
	return native + ":" + orderID
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

	order := &types.Order{
		ID:            joinOrderID(ro.Symbol, ro.OrderID),
		ClientOrderID: ro.OrderLinkID,
		Symbol:        symbol,
		Status:        statusFromNative(ro.OrderStatus),
	}

	switch ro.Side {
	case "Buy":
		order.Side = types.SideBuy
	case "Sell":
		order.Side = types.SideSell
	default:
		return nil, exchange.NewError(exchange.KindUnknown, Name,
			fmt.Sprintf("venue returned unknown order side %q", ro.Side))
	}
	if ro.OrderType == "Market" {
		order.Type = types.OrderTypeMarket
	} else {
		order.Type = types.OrderTypeLimit
	}

	if order.Quantity, err = parseDecimal("qty", ro.Qty); err != nil {
		return nil, err
	}
	if order.Price, err = parseDecimal("price", ro.Price); err != nil {
		return nil, err
	}
	if order.FilledQuantity, err = parseDecimal("cumExecQty", ro.CumExecQty); err != nil {
		return nil, err
	}
	if order.AvgFillPrice, err = parseDecimal("avgPrice", ro.AvgPrice); err != nil {
		return nil, err
	}
	if order.AvgFillPrice.IsZero() && order.FilledQuantity.IsPositive() {
		value, err := parseDecimal("cumExecValue", ro.CumExecValue)
		if err != nil {
			return nil, err
		}
		if value.IsPositive() {
			order.AvgFillPrice = value.Div(order.FilledQuantity)
		}
	}

	if ro.CreatedTime != "" {
		createdMs, err := parseInt("createdTime", ro.CreatedTime)
		if err != nil {
			return nil, err
		}
		order.CreatedAt = msToTime(createdMs)
	}
	if ro.UpdatedTime != "" {
		updatedMs, err := parseInt("updatedTime", ro.UpdatedTime)
		if err != nil {
			return nil, err
		}
		order.UpdatedAt = msToTime(updatedMs)
	} else {
		order.UpdatedAt = order.CreatedAt
	}
	return order, nil
}

func statusFromNative(status string) types.OrderStatus {
	switch status {
	case "New", "Untriggered", "Triggered":
		return types.OrderStatusOpen
	case "PartiallyFilled":
		return types.OrderStatusPartiallyFilled
	case "Filled":
		return types.OrderStatusFilled
	case "Cancelled", "PartiallyFilledCanceled", "Deactivated":
		return types.OrderStatusCancelled
	case "Rejected":
		return types.OrderStatusRejected
	default:
		return types.OrderStatusNew
	}
}
