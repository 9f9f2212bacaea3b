package exchange

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure into the closed, exchange-independent taxonomy.
// Adapters must map every venue-native failure onto exactly one Kind; callers
// can branch on kinds exhaustively without understanding venue formats.
type Kind string

const (
	// KindConfiguration: settings invalid at construction time.
	KindConfiguration Kind = "configuration"
	// KindAuthentication: credentials rejected by the venue.
	KindAuthentication Kind = "authentication"
	// KindInvalidRequest: request malformed per venue rules (unknown symbol,
	// precision violation, unsupported order type).
	KindInvalidRequest Kind = "invalid_request"
	// KindInsufficientFunds: account lacks balance for the requested action.
	KindInsufficientFunds Kind = "insufficient_funds"
	// KindRateLimited: the venue throttled the request.
	KindRateLimited Kind = "rate_limited"
	// KindNotSupported: capability not offered by this venue.
	KindNotSupported Kind = "not_supported"
	// KindUnavailable: venue-side outage, maintenance, or transport failure.
	KindUnavailable Kind = "unavailable"
	// KindUnknown: failure that maps to no other kind.
	KindUnknown Kind = "unknown"
)

// Error is the common error type raised across all adapters. It carries the
// minimal structured context needed to act on a failure without parsing
// venue-specific formats.
type Error struct {
	Kind     Kind
	Exchange string
	Message  string

	// NativeCode is the venue's own error code, preserved as diagnostic
	// context. Optional.
	NativeCode string
	// HTTPStatus is the transport status that produced the error. Optional.
	HTTPStatus int
	// RetryAfter is the venue-provided throttle hint for KindRateLimited.
	// Zero when the venue gave none.
	RetryAfter time.Duration

	// Err is the underlying cause, preserved for errors.Is/As chains.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Exchange != "" {
		msg = e.Exchange + ": " + msg
	}
	if e.NativeCode != "" {
		msg = fmt.Sprintf("%s (code %s)", msg, e.NativeCode)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same call can plausibly succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindUnavailable
}

// NewError builds an Error for the given kind.
func NewError(kind Kind, exchangeName, message string) *Error {
	return &Error{Kind: kind, Exchange: exchangeName, Message: message}
}

// WrapError builds an Error wrapping an underlying cause.
func WrapError(kind Kind, exchangeName, message string, err error) *Error {
	return &Error{Kind: kind, Exchange: exchangeName, Message: message, Err: err}
}

// AsError extracts the taxonomy error from an error chain, if present.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the taxonomy kind of err, or KindUnknown for errors that
// did not originate from an adapter.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// IsConfiguration reports whether err is a settings validation failure.
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }

// IsAuthentication reports whether err is a credential rejection.
func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }

// IsInvalidRequest reports whether err is a venue-side request rejection.
func IsInvalidRequest(err error) bool { return KindOf(err) == KindInvalidRequest }

// IsInsufficientFunds reports whether err is a balance shortfall.
func IsInsufficientFunds(err error) bool { return KindOf(err) == KindInsufficientFunds }

// IsRateLimited reports whether err is a throttle response.
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }

// IsNotSupported reports whether err marks a missing venue capability.
func IsNotSupported(err error) bool { return KindOf(err) == KindNotSupported }

// IsUnavailable reports whether err is a venue outage or transport failure.
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }

// RetryAfterHint returns the venue throttle hint attached to err, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	if e, ok := AsError(err); ok && e.RetryAfter > 0 {
		return e.RetryAfter, true
	}
	return 0, false
}
