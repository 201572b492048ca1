package exchange

import (
	"time"

	"graviex/pkg/core"
)

type Option func(*Options)

type Options struct {
	Limit int
	// Since is an epoch millisecond lower bound; zero means unbounded.
	Since      int64
	Timeframe  string
	MarketType core.MarketType
	Side       core.OrderSide
	// Params are passed to the endpoint verbatim, overriding built values.
	Params core.Params
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithSince(since time.Time) Option {
	return func(o *Options) {
		o.Since = since.UnixMilli()
	}
}

func WithSinceMillis(ms int64) Option {
	return func(o *Options) {
		o.Since = ms
	}
}

func WithTimeframe(timeframe string) Option {
	return func(o *Options) {
		o.Timeframe = timeframe
	}
}

func WithMarketType(mt core.MarketType) Option {
	return func(o *Options) {
		o.MarketType = mt
	}
}

func WithSide(side core.OrderSide) Option {
	return func(o *Options) {
		o.Side = side
	}
}

// WithParams merges extra endpoint parameters. Later calls win on conflicts.
func WithParams(params core.Params) Option {
	return func(o *Options) {
		o.Params = o.Params.Extend(params)
	}
}

// ApplyOptions folds opts over the defaults: spot market, one-minute timeframe.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		Timeframe:  "1m",
		MarketType: core.MarketTypeSpot,
		Params:     core.Params{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
