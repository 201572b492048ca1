package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graviex/internal/circuitbreaker"
	"graviex/pkg/core"
)

func testConfig() *Config {
	return &Config{
		Exchange: "graviex",
		Timeout:  2 * time.Second,
	}
}

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	client, err := NewClient(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestConfigFromCore(t *testing.T) {
	limits := core.RateLimitConfig{RequestsPerSecond: 1000.0 / 300, Burst: 1}
	cfg := ConfigFromCore(core.DefaultConfig("graviex"), limits)

	assert.Equal(t, "graviex", cfg.Exchange)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, limits, cfg.RateLimit, "exchange limits apply by default")
	require.NotNil(t, cfg.CircuitBreaker)
	assert.Equal(t, 5, cfg.CircuitBreaker.FailThreshold)

	override := ConfigFromCore(core.DefaultConfig("graviex").WithRateLimit(4, time.Second), limits)
	assert.InDelta(t, 4.0, override.RateLimit.RequestsPerSecond, 1e-9)
	assert.Equal(t, 4, override.RateLimit.Burst)

	disabled := core.DefaultConfig("graviex")
	disabled.CircuitBreakerEnabled = false
	assert.Nil(t, ConfigFromCore(disabled, limits).CircuitBreaker)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing_exchange", func(c *Config) { c.Exchange = "" }},
		{"zero_timeout", func(c *Config) { c.Timeout = 0 }},
		{"negative_retries", func(c *Config) { c.MaxRetries = -1 }},
		{"bad_breaker", func(c *Config) { c.CircuitBreaker = &circuitbreaker.Config{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := NewClient(cfg, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/webapi/v3/depth", r.URL.Path)
		assert.Equal(t, "limit=5&market=giobtc", r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Test", "yes")
		_, _ = w.Write([]byte(`{"timestamp":1643721617,"asks":[],"bids":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, testConfig())
	req := core.NewRequest(http.MethodGet, "depth").SetURL(server.URL + "/webapi/v3/depth?limit=5&market=giobtc")

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"timestamp":1643721617,"asks":[],"bids":[]}`, string(resp.Body))
	assert.Equal(t, "yes", resp.Headers["X-Test"])
}

func TestClient_PostForm(t *testing.T) {
	const body = "access_key=key&market=giobtc&tonce=1&signature=abc"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		got, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, body, string(got))
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := newTestClient(t, testConfig())
	req := core.NewRequest(http.MethodPost, "orders").
		SetURL(server.URL + "/webapi/v3/orders").
		SetBody(body).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetRequireAuth(true)

	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(resp.Body))
}

func TestClient_ErrorStatusIsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":2002,"message":"Volume is too small"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, testConfig())
	resp, err := client.Do(context.Background(), core.NewRequest(http.MethodGet, "orders").SetURL(server.URL))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, resp.IsError())
	assert.Contains(t, string(resp.Body), "2002")
}

func TestClient_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, testConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, core.NewRequest(http.MethodGet, "markets").SetURL(server.URL))
	require.Error(t, err)
	assert.Equal(t, core.ErrorTypeTimeout, core.ErrorTypeOf(err))
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newTestClient(t, testConfig())
	_, err := client.Do(context.Background(), core.NewRequest(http.MethodGet, "markets").SetURL(url))
	require.Error(t, err)
	assert.True(t, core.IsNetworkError(err))
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.CircuitBreaker = &circuitbreaker.Config{FailThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute}
	client := newTestClient(t, cfg)
	req := core.NewRequest(http.MethodGet, "markets").SetURL(server.URL)

	for i := 0; i < 2; i++ {
		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}
	assert.Equal(t, circuitbreaker.StateOpen, client.BreakerState())

	_, err := client.Do(context.Background(), req)
	require.Error(t, err)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeCircuitBreaker))
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.CircuitBreaker = &circuitbreaker.Config{FailThreshold: 1, SuccessThreshold: 1, Timeout: time.Minute}
	client := newTestClient(t, cfg)

	for i := 0; i < 3; i++ {
		_, err := client.Do(context.Background(), core.NewRequest(http.MethodGet, "members/me").SetURL(server.URL))
		require.NoError(t, err)
	}
	assert.Equal(t, circuitbreaker.StateClosed, client.BreakerState())
}

func TestClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`1644821226`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RateLimit = core.RateLimitConfig{RequestsPerSecond: 10, Burst: 1}
	client := newTestClient(t, cfg)
	req := core.NewRequest(http.MethodGet, "timestamp").SetURL(server.URL)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Do(context.Background(), req)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}

func TestClient_RateLimitCountsWeight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`1644821226`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RateLimit = core.RateLimitConfig{RequestsPerSecond: 10, Burst: 1}
	client := newTestClient(t, cfg)

	start := time.Now()
	_, err := client.Do(context.Background(), core.NewRequest(http.MethodGet, "timestamp").SetURL(server.URL).SetWeight(3))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}

func TestClient_Closed(t *testing.T) {
	client, err := NewClient(testConfig(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Do(context.Background(), core.NewRequest(http.MethodGet, "markets").SetURL("http://127.0.0.1:1"))
	assert.True(t, errors.Is(err, core.ErrClientClosed))
}
