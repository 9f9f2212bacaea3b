package binance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/exchange-gateway/internal/exchange"
)

// Binance error codes this adapter classifies explicitly.
// https://developers.binance.com/docs/binance-spot-api-docs/errors
const (
	codeTooManyRequests     = -1003
	codeTimestampOutOfRange = -1021
	codeInvalidSignature    = -1022
	codeFilterFailure       = -1013
	codeInvalidSymbol       = -1121
	codeNewOrderRejected    = -2010
	codeCancelRejected      = -2011
	codeOrderNotFound       = -2013
	codeRejectedAPIKey      = -2014
	codeInvalidAPIKey       = -2015
)

// classifyResponse maps a non-200 Binance response onto the taxonomy. The
// native code and message are preserved as diagnostic context; no raw
// payload ever reaches the caller unclassified.
func classifyResponse(resp *http.Response, payload []byte) *exchange.Error {
	var native struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	// A body that is not the documented error shape still classifies by
	// HTTP status below.
	_ = json.Unmarshal(payload, &native)

	apiErr := &exchange.Error{
		Exchange:   Name,
		HTTPStatus: resp.StatusCode,
		Message:    native.Msg,
	}
	if native.Code != 0 {
		apiErr.NativeCode = strconv.Itoa(native.Code)
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot:
		// 418 is Binance's repeat-offender ban; same caller remedy.
		apiErr.Kind = exchange.KindRateLimited
		apiErr.RetryAfter = retryAfter(resp)
	case resp.StatusCode >= 500:
		apiErr.Kind = exchange.KindUnavailable
	case native.Code != 0:
		apiErr.Kind = kindForCode(native.Code, native.Msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr.Kind = exchange.KindAuthentication
	case resp.StatusCode >= 400:
		apiErr.Kind = exchange.KindInvalidRequest
	default:
		apiErr.Kind = exchange.KindUnknown
	}
	return apiErr
}

func kindForCode(code int, msg string) exchange.Kind {
	switch code {
	case codeTooManyRequests:
		return exchange.KindRateLimited
	case codeTimestampOutOfRange, codeInvalidSignature, codeRejectedAPIKey, codeInvalidAPIKey:
		return exchange.KindAuthentication
	case codeInvalidSymbol, codeFilterFailure, codeCancelRejected, codeOrderNotFound:
		return exchange.KindInvalidRequest
	case codeNewOrderRejected:
		// -2010 covers several rejection reasons; the message separates
		// balance shortfalls from the rest.
		if strings.Contains(strings.ToLower(msg), "insufficient balance") {
			return exchange.KindInsufficientFunds
		}
		return exchange.KindInvalidRequest
	default:
		return exchange.KindUnknown
	}
}

func retryAfter(resp *http.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// parseError wraps a malformed success payload. Binance answered 200 but the
// body did not match the documented shape.
func parseError(operation string, err error) *exchange.Error {
	return exchange.WrapError(exchange.KindUnknown, Name, operation+": unexpected response shape", err)
}
