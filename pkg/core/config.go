package core

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Credentials holds API authentication credentials for an exchange.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key" yaml:"api_key"`
	// SecretKey is the private API key used for signing requests.
	SecretKey string `json:"secret_key" yaml:"secret_key"`
}

// Complete reports whether both the key and the secret are set.
func (c *Credentials) Complete() bool {
	return c != nil && c.APIKey != "" && c.SecretKey != ""
}

// String masks both values so credentials can be logged safely.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey:%s, SecretKey:%s}", maskKey(c.APIKey), maskKey(c.SecretKey))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Config contains all configuration options for an exchange client.
// A Config is built once at startup; clients copy it on construction and
// never mutate it afterwards.
type Config struct {
	Exchange    string       `json:"exchange" yaml:"exchange" validate:"required"`
	// BaseURL overrides the exchange's production endpoint when set.
	BaseURL     string       `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Credentials *Credentials `json:"credentials,omitempty" yaml:"credentials,omitempty"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout      time.Duration `json:"timeout" yaml:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" yaml:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" yaml:"retry_wait_max" validate:"min=0"`

	// RateLimitRequests per RateLimitPeriod override the exchange's advertised
	// limits. Both zero keeps the exchange defaults.
	RateLimitRequests int           `json:"rate_limit_requests" yaml:"rate_limit_requests" validate:"min=0"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" yaml:"rate_limit_period" validate:"min=0"`

	// MarketsTTL is how long loaded markets stay fresh. Zero keeps them until
	// an explicit reload.
	MarketsTTL time.Duration `json:"markets_ttl" yaml:"markets_ttl" validate:"min=0"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled" yaml:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold" yaml:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold" yaml:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout" yaml:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with sensible defaults for the specified exchange.
// Default values: 10s timeout, 3 retries, 100ms-1s retry wait, circuit breaker
// with 5 failures/2 successes/30s timeout. The base URL and rate limits are
// left to the exchange.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange:     exchange,
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if (c.RateLimitRequests > 0) != (c.RateLimitPeriod > 0) {
		return errors.New("RateLimitRequests and RateLimitPeriod must be set together")
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// RateLimit returns the configured request budget, or fallback when the
// config leaves it unset.
func (c *Config) RateLimit(fallback RateLimitConfig) RateLimitConfig {
	if c.RateLimitRequests <= 0 || c.RateLimitPeriod <= 0 {
		return fallback
	}
	return RateLimitConfig{
		RequestsPerSecond: float64(c.RateLimitRequests) / c.RateLimitPeriod.Seconds(),
		Burst:             c.RateLimitRequests,
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	out := *c
	if c.Credentials != nil {
		creds := *c.Credentials
		out.Credentials = &creds
	}
	return &out
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithBaseURL sets the API base URL and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = strings.TrimRight(url, "/")
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}

// WithMarketsTTL sets how long loaded markets stay fresh and returns the config for chaining.
func (c *Config) WithMarketsTTL(ttl time.Duration) *Config {
	c.MarketsTTL = ttl
	return c
}

// LoadConfigFile reads a YAML config file on top of DefaultConfig and validates it.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := DefaultConfig("")
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return config, nil
}

// CredentialsFromEnv reads PREFIX_API_KEY and PREFIX_SECRET_KEY from the
// environment after loading the given dotenv files, if any. Variables that are
// already set take precedence over the files.
func CredentialsFromEnv(prefix string, files ...string) (*Credentials, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	prefix = strings.ToUpper(prefix)
	creds := &Credentials{
		APIKey:    os.Getenv(prefix + "_API_KEY"),
		SecretKey: os.Getenv(prefix + "_SECRET_KEY"),
	}
	if creds.APIKey == "" && creds.SecretKey == "" {
		return nil, ErrNoCredentials
	}
	return creds, nil
}
