// Package transport dispatches built exchange requests over HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"graviex/internal/circuitbreaker"
	"graviex/internal/ratelimit"
	"graviex/pkg/core"
)

// Config controls retries, throttling and failure isolation of a Client.
type Config struct {
	Exchange     string        `validate:"required"`
	Timeout      time.Duration `validate:"min=1ms"`
	MaxRetries   int           `validate:"min=0"`
	RetryWaitMin time.Duration `validate:"min=0"`
	RetryWaitMax time.Duration `validate:"min=0"`

	// RateLimit applies to each access bucket. A zero rate disables
	// throttling.
	RateLimit core.RateLimitConfig

	// CircuitBreaker is nil when the breaker is disabled.
	CircuitBreaker *circuitbreaker.Config `validate:"omitempty"`
}

// ConfigFromCore derives the transport settings from an exchange config.
// limits are the exchange's advertised rate limits, used unless the config
// overrides them.
func ConfigFromCore(cfg *core.Config, limits core.RateLimitConfig) *Config {
	out := &Config{
		Exchange:     cfg.Exchange,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryWaitMin: cfg.RetryWaitMin,
		RetryWaitMax: cfg.RetryWaitMax,
		RateLimit:    cfg.RateLimit(limits),
	}
	if cfg.CircuitBreakerEnabled {
		out.CircuitBreaker = &circuitbreaker.Config{
			FailThreshold:    cfg.CircuitBreakerFailThreshold,
			SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
			Timeout:          cfg.CircuitBreakerTimeout,
		}
	}
	return out
}

// Client implements core.Transport on top of resty. Network failures come
// back as errors; every HTTP status, including 4xx and 5xx, comes back as a
// core.Response for the protocol to classify.
type Client struct {
	client   *resty.Client
	logger   zerolog.Logger
	exchange string
	limiter  *ratelimit.Limiter
	breaker  *circuitbreaker.Breaker

	mu     sync.RWMutex
	closed bool
}

var _ core.Transport = (*Client)(nil)

var validate = validator.New()

// NewClient creates a client with the specified configuration.
func NewClient(config *Config, logger zerolog.Logger) (*Client, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}

	client := resty.New()
	client.SetTimeout(config.Timeout)
	client.SetRetryCount(config.MaxRetries)
	client.SetRetryWaitTime(config.RetryWaitMin)
	client.SetRetryMaxWaitTime(config.RetryWaitMax)
	client.SetHeader("Accept", "application/json")

	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	c := &Client{
		client:   client,
		logger:   logger,
		exchange: config.Exchange,
	}

	if config.RateLimit.RequestsPerSecond > 0 {
		c.limiter = ratelimit.FromConfig(config.RateLimit)
	}

	if config.CircuitBreaker != nil {
		c.breaker = circuitbreaker.New(*config.CircuitBreaker)
		c.breaker.OnStateChange(func(from, to circuitbreaker.State) {
			logger.Warn().
				Str("exchange", config.Exchange).
				Stringer("from", from).
				Stringer("to", to).
				Msg("circuit breaker state change")
		})
	}

	return c, nil
}

// Do sends req and returns the raw response.
func (c *Client) Do(ctx context.Context, req *core.Request) (*core.Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.ErrClientClosed
	}

	if c.limiter != nil {
		if err := c.limiter.WaitN(ctx, bucketOf(req), req.Weight); err != nil {
			return nil, c.networkError(fmt.Errorf("rate limit: %w", err))
		}
	}

	if c.breaker != nil && !c.breaker.Allow() {
		return nil, core.NewExchangeError(c.exchange, core.ErrorTypeNetwork, 0, core.ErrCircuitBreakerOpen.Error()).
			WithCode(core.ErrCodeCircuitBreaker)
	}

	r := c.client.R().SetContext(ctx).SetHeaders(req.Headers)
	if req.RequireAuth {
		// A replay would reuse the signed tonce.
		r.SetRetryCount(0)
	}
	if req.Body != "" {
		r.SetBody(req.Body)
	}

	// The URL carries the signature; only the logical path is logged.
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Bool("auth", req.RequireAuth).
		Msg("http request")

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		c.record(false)
		c.logger.Error().Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("http request failed")
		return nil, c.networkError(err)
	}
	c.record(resp.StatusCode() < 500)

	headers := make(map[string]string, len(resp.Header()))
	for k, v := range resp.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &core.Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Bytes(),
		Headers:    headers,
	}, nil
}

// Close releases idle connections. Later calls to Do fail with core.ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// BreakerState reports the circuit breaker state, or closed when disabled.
func (c *Client) BreakerState() circuitbreaker.State {
	if c.breaker == nil {
		return circuitbreaker.StateClosed
	}
	return c.breaker.State()
}

func (c *Client) record(success bool) {
	if c.breaker != nil {
		c.breaker.Record(success)
	}
}

func (c *Client) networkError(err error) *core.ExchangeError {
	if isTimeout(err) {
		return core.NewExchangeError(c.exchange, core.ErrorTypeTimeout, 0, err.Error()).
			WithCode(core.ErrCodeTimeout).WithRaw(err)
	}
	return core.NewExchangeError(c.exchange, core.ErrorTypeNetwork, 0, err.Error()).
		WithCode(core.ErrCodeNetwork).WithRaw(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func bucketOf(req *core.Request) string {
	if req.RequireAuth {
		return ratelimit.BucketFor(core.AccessPrivate)
	}
	return ratelimit.BucketFor(core.AccessPublic)
}
