package exchange

import (
	"context"

	"github.com/cockroachdb/apd/v3"

	"graviex/pkg/core"
)

// Exchange defines the unified interface for interacting with cryptocurrency exchanges.
// Implementations cover market data, account state, deposits and order execution
// over REST. Every method returns canonical core types.
type Exchange interface {
	Name() string
	Version() string
	// Has reports whether the exchange supports the unified operation.
	Has(op core.Operation) bool

	FetchTime(ctx context.Context) (int64, error)
	// LoadMarkets returns the cached markets, fetching them on first use or
	// when reload is set.
	LoadMarkets(ctx context.Context, reload bool) ([]core.Market, error)
	FetchMarkets(ctx context.Context) ([]core.Market, error)

	FetchTicker(ctx context.Context, symbol string, opts ...Option) (*core.Ticker, error)
	FetchTickers(ctx context.Context, symbols []string, opts ...Option) (map[string]core.Ticker, error)
	FetchTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)
	FetchOHLCV(ctx context.Context, symbol string, opts ...Option) ([]core.OHLCV, error)
	FetchOrderBook(ctx context.Context, symbol string, opts ...Option) (*core.OrderBook, error)

	FetchBalance(ctx context.Context, opts ...Option) (core.Balances, error)
	FetchDepositAddress(ctx context.Context, currency string, opts ...Option) (*core.DepositAddress, error)
	CreateDepositAddress(ctx context.Context, currency string, opts ...Option) (*core.DepositAddress, error)
	FetchDeposit(ctx context.Context, id, currency string, opts ...Option) (*core.Transaction, error)
	FetchDeposits(ctx context.Context, currency string, opts ...Option) ([]core.Transaction, error)

	FetchOrder(ctx context.Context, id, symbol string, opts ...Option) (*core.Order, error)
	FetchOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	FetchClosedOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	FetchMyTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)
	FetchTradesHistory(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)

	CreateOrder(ctx context.Context, req *OrderRequest, opts ...Option) (*core.Order, error)
	CancelOrder(ctx context.Context, id, symbol string, opts ...Option) (*core.Order, error)
	CancelAllOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
}

// OrderRequest contains the parameters required to place a new order on an exchange.
type OrderRequest struct {
	Symbol string
	Side   core.OrderSide
	Type   core.OrderType
	// Price is required for limit orders and ignored for market orders.
	Price  *apd.Decimal
	Amount *apd.Decimal
}
