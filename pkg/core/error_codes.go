package core

import "errors"

// ErrorCode represents a stable, machine-readable error identifier for
// conditions raised locally rather than by the exchange.
type ErrorCode string

const (
	ErrCodeNetwork      ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeInvalidOrder ErrorCode = "INVALID_ORDER"
	ErrCodeBadSymbol    ErrorCode = "BAD_SYMBOL"

	// Configuration errors
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Client state errors
	ErrCodeClientClosed ErrorCode = "CLIENT_CLOSED"

	// Circuit breaker errors
	ErrCodeCircuitBreaker ErrorCode = "CIRCUIT_BREAKER_OPEN"

	// Argument and payload errors
	ErrCodeArgumentsMissing ErrorCode = "ARGUMENTS_MISSING"
	ErrCodeFormat           ErrorCode = "FORMAT_ERROR"
	ErrCodeInvalidAddress   ErrorCode = "INVALID_ADDRESS"

	// Authentication errors
	ErrCodeNoCredentials ErrorCode = "NO_CREDENTIALS"

	// Unsupported operation
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_METHOD"
)

// IsErrorCode checks if the error matches the specified error code.
// It extracts the exchange error and compares its code field against the provided ErrorCode.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
