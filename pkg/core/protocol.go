package core

import (
	"context"
)

// RateLimitConfig defines rate limiting parameters for an exchange protocol.
type RateLimitConfig struct {
	// RequestsPerSecond is the maximum general requests per second.
	RequestsPerSecond float64 `json:"requests_per_second"`
	// Burst allows temporary exceeding of rate limits.
	Burst int `json:"burst"`
}

// Transport dispatches built requests. Retries, timeouts and cancellation
// belong to the transport; implementations return network failures as errors
// and every HTTP outcome, including 4xx/5xx, as a Response.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// MarketResolver gives read-only access to the loaded markets.
type MarketResolver interface {
	MarketByID(id string) (Market, bool)
	MarketBySymbol(symbol string) (Market, bool)
}

// Protocol defines the interface for exchange-specific protocol implementations.
// Each exchange must implement this interface to handle request building,
// error classification and rate limiting.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "graviex").
	Name() string

	// Version returns the API version being used.
	Version() string

	// BaseURL returns the API base URL.
	BaseURL() string

	// BuildRequest constructs a dispatchable request for the endpoint,
	// signing it with creds when the endpoint is private.
	BuildRequest(ep Endpoint, params Params, creds *Credentials) (*Request, error)

	// HandleErrors inspects a response and returns a typed error when the
	// exchange reported one. It returns nil for successful responses.
	HandleErrors(resp *Response) error

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation

	// RateLimits returns the rate limiting configuration for this exchange.
	RateLimits() RateLimitConfig
}
