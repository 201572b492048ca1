package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize errors for proper handling.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates missing, invalid or expired credentials.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates account lacks required balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules.
	ErrorTypeInvalidOrder
	// ErrorTypeArgumentsMissing indicates a required argument was not supplied.
	ErrorTypeArgumentsMissing
	// ErrorTypeExchange is the catch-all for errors the exchange reported
	// without a more specific classification.
	ErrorTypeExchange
	// ErrorTypeAddress indicates a malformed deposit address.
	ErrorTypeAddress
	// ErrorTypeFormat indicates a payload whose shape could not be parsed.
	ErrorTypeFormat
	// ErrorTypeBadSymbol indicates a symbol or market id that cannot be resolved.
	ErrorTypeBadSymbol
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	names := [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
		"ARGUMENTS_MISSING",
		"EXCHANGE",
		"ADDRESS",
		"FORMAT",
		"BAD_SYMBOL",
	}
	if int(t) < 0 || int(t) >= len(names) {
		return "UNKNOWN"
	}
	return names[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrCircuitBreakerOpen is returned when circuit breaker is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	// ErrNoCredentials is returned when no API credentials are configured.
	ErrNoCredentials = errors.New("no credentials configured")
)

// ExchangeError represents a structured error returned from an exchange.
// It provides detailed context for debugging and error handling.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code from the response, zero if none.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// RawError contains the original error response for debugging.
	RawError any `json:"raw_error,omitempty"`
	// Exchange identifies which exchange returned this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for ExchangeError.
func (e *ExchangeError) Error() string {
	prefix := ""
	if e.Exchange != "" {
		prefix = "[" + e.Exchange + "] "
	}
	if e.Code != "" {
		return fmt.Sprintf("%s%s (%d/%s): %s",
			prefix, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s%s (%d): %s",
		prefix, e.Type, e.StatusCode, e.Message)
}

// WithCode sets the error code and returns the error for chaining.
func (e *ExchangeError) WithCode(code ErrorCode) *ExchangeError {
	e.Code = string(code)
	return e
}

// WithRaw attaches the raw exchange response and returns the error for chaining.
func (e *ExchangeError) WithRaw(raw any) *ExchangeError {
	e.RawError = raw
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The timestamp is automatically set to the current time.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// NewExchangeErrorWithCode creates a new ExchangeError including an exchange-specific error code.
func NewExchangeErrorWithCode(exchange string, errorType ErrorType, statusCode int, code, message string) *ExchangeError {
	e := NewExchangeError(exchange, errorType, statusCode, message)
	e.Code = code
	return e
}

// NewArgumentsMissing reports a required argument that was not supplied.
func NewArgumentsMissing(exchange, message string) *ExchangeError {
	return NewExchangeError(exchange, ErrorTypeArgumentsMissing, 0, message).WithCode(ErrCodeArgumentsMissing)
}

// NewFormatError reports a payload whose shape could not be parsed.
func NewFormatError(format string, args ...any) *ExchangeError {
	return NewExchangeError("", ErrorTypeFormat, 0, fmt.Sprintf(format, args...)).WithCode(ErrCodeFormat)
}

// ErrorTypeOf returns the type of the first ExchangeError in err's chain,
// or ErrorTypeUnknown.
func ErrorTypeOf(err error) ErrorType {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Type
	}
	return ErrorTypeUnknown
}

func isType(err error, t ErrorType) bool {
	var exErr *ExchangeError
	return errors.As(err, &exErr) && exErr.Type == t
}

// IsNetworkError returns true if the error is a network connectivity issue.
func IsNetworkError(err error) bool {
	return isType(err, ErrorTypeNetwork)
}

// IsRateLimitError returns true if the error is a rate limit violation.
// Rate limit errors should be retried after a delay.
func IsRateLimitError(err error) bool {
	return isType(err, ErrorTypeRateLimit)
}

// IsAuthenticationError returns true if the error is an authentication failure.
// Authentication errors require credential validation and are not retryable.
func IsAuthenticationError(err error) bool {
	return isType(err, ErrorTypeAuthentication)
}

// IsInvalidOrder returns true if the exchange refused an order on business rules.
func IsInvalidOrder(err error) bool {
	return isType(err, ErrorTypeInvalidOrder)
}

// IsArgumentsMissing returns true if a required argument was absent.
func IsArgumentsMissing(err error) bool {
	return isType(err, ErrorTypeArgumentsMissing)
}

// IsFormatError returns true if a payload could not be parsed.
func IsFormatError(err error) bool {
	return isType(err, ErrorTypeFormat)
}

// IsAddressError returns true if a deposit address was malformed.
func IsAddressError(err error) bool {
	return isType(err, ErrorTypeAddress)
}

// IsExchangeError returns true for the generic exchange error class.
func IsExchangeError(err error) bool {
	return isType(err, ErrorTypeExchange)
}

// IsTerminalError returns true if the error indicates a terminal condition.
// Terminal errors should not be retried as they will not succeed.
func IsTerminalError(err error) bool {
	switch ErrorTypeOf(err) {
	case ErrorTypeInsufficientFunds, ErrorTypeInvalidOrder, ErrorTypeNotFound,
		ErrorTypeArgumentsMissing, ErrorTypeAuthentication, ErrorTypeBadSymbol,
		ErrorTypeAddress, ErrorTypeFormat:
		return true
	}
	return false
}
