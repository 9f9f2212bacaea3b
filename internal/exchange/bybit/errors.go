package bybit

import (
	"strconv"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
)

// Bybit v5 retCodes this adapter classifies explicitly.
// https://bybit-exchange.github.io/docs/v5/error
const (
	codeParamError          = 10001
	codeInvalidAPIKey       = 10003
	codeInvalidSignature    = 10004
	codePermissionDenied    = 10005
	codeRateLimitExceeded   = 10006
	codeServerError         = 10016
	codeIPRateLimit         = 10018
	codeOrderNotFound       = 110001
	codeInvalidOrderType    = 110004
	codeInsufficientBalance = 110007
	codeSymbolNotFound      = 110009
	codeInvalidQuantity     = 110020
	codeInvalidPrice        = 110021
	codeMarketClosed        = 110043
)

// responseError maps a non-zero retCode onto the taxonomy. The native code
// and message are preserved as diagnostic context.
func responseError(resp *bybit_api.ServerResponse) *exchange.Error {
	if resp == nil {
		return exchange.NewError(exchange.KindUnknown, Name, "empty response")
	}
	if resp.RetCode == 0 {
		return nil
	}
	return &exchange.Error{
		Kind:       kindForRetCode(resp.RetCode),
		Exchange:   Name,
		Message:    resp.RetMsg,
		NativeCode: strconv.Itoa(resp.RetCode),
	}
}

func kindForRetCode(code int) exchange.Kind {
	switch code {
	case codeInvalidAPIKey, codeInvalidSignature, codePermissionDenied:
		return exchange.KindAuthentication
	case codeRateLimitExceeded, codeIPRateLimit:
		return exchange.KindRateLimited
	case codeInsufficientBalance:
		return exchange.KindInsufficientFunds
	case codeParamError, codeOrderNotFound, codeInvalidOrderType,
		codeSymbolNotFound, codeInvalidQuantity, codeInvalidPrice, codeMarketClosed:
		return exchange.KindInvalidRequest
	case codeServerError:
		return exchange.KindUnavailable
	default:
		return exchange.KindUnknown
	}
}

// transportError classifies an SDK-level failure. The SDK surfaces network
// faults and non-2xx statuses as plain errors, so they land as unavailable.
func transportError(operation string, err error) *exchange.Error {
	return exchange.WrapError(exchange.KindUnavailable, Name, operation+": transport failure", err)
}

// parseError wraps a response whose result did not match the documented
// shape. The venue answered retCode 0 but the payload is unusable.
func parseError(operation string, err error) *exchange.Error {
	return exchange.WrapError(exchange.KindUnknown, Name, operation+": unexpected response shape", err)
}
