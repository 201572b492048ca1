package core

import (
	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order or trade ("buy" or "sell").
type OrderSide string

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = "buy"
	// SideSell indicates an order to sell an asset.
	SideSell OrderSide = "sell"
)

// String returns the wire form of the side.
func (s OrderSide) String() string {
	return string(s)
}

// Valid reports whether the side is one of the known sides.
func (s OrderSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OrderType represents the type of order to place on an exchange.
type OrderType string

// Order type constants define how an order is executed.
const (
	// TypeMarket executes immediately at the best available price.
	TypeMarket OrderType = "market"
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = "limit"
)

// String returns the wire form of the order type.
func (t OrderType) String() string {
	return string(t)
}

// OrderStatus is the unified lifecycle state of an order.
// The set is open: statuses the exchange reports that have no unified
// equivalent are carried through verbatim.
type OrderStatus string

// Order status constants define the lifecycle state of an order.
const (
	// StatusOpen indicates the order is resting on the book.
	StatusOpen OrderStatus = "open"
	// StatusClosed indicates the order has been completely filled.
	StatusClosed OrderStatus = "closed"
	// StatusCanceled indicates the order has been canceled.
	StatusCanceled OrderStatus = "canceled"
	// StatusRejected indicates the order was rejected by the exchange.
	StatusRejected OrderStatus = "rejected"
	// StatusExpired indicates the order has expired.
	StatusExpired OrderStatus = "expired"
)

// String returns the string representation of the order status.
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the order is in a terminal state (no further changes possible).
// Unmapped statuses are not considered terminal.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCanceled || s == StatusRejected || s == StatusExpired
}

// TakerOrMaker tells which side of the book a trade took liquidity from.
type TakerOrMaker string

const (
	Taker TakerOrMaker = "taker"
	Maker TakerOrMaker = "maker"
)

// TransactionType distinguishes deposits from withdrawals.
type TransactionType string

const (
	// TransactionTypeUnknown means the caller did not know which kind of
	// record it fetched.
	TransactionTypeUnknown    TransactionType = ""
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus is the unified state of a deposit or withdrawal.
// Like OrderStatus it is an open set.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionOK       TransactionStatus = "ok"
	TransactionCanceled TransactionStatus = "canceled"
)

// MarketPrecision holds the number of decimal places accepted for amounts and prices.
type MarketPrecision struct {
	Amount int32 `json:"amount"`
	Price  int32 `json:"price"`
}

// MinMax is an optional inclusive range. Nil bounds are unbounded.
type MinMax struct {
	Min *apd.Decimal `json:"min,omitempty"`
	Max *apd.Decimal `json:"max,omitempty"`
}

// MarketLimits holds trading limits for a market.
type MarketLimits struct {
	Amount MinMax `json:"amount"`
}

// Market describes a tradable base/quote pair.
// Symbol is always Base + "/" + Quote; ID is the exchange's own identifier.
type Market struct {
	// ID is the exchange market identifier (e.g., "giobtc").
	ID string `json:"id"`
	// Symbol is the unified trading pair (e.g., "GIO/BTC").
	Symbol string `json:"symbol"`
	// Base is the unified base currency code.
	Base string `json:"base"`
	// Quote is the unified quote currency code.
	Quote string `json:"quote"`
	// BaseID is the exchange identifier of the base currency.
	BaseID string `json:"base_id"`
	// QuoteID is the exchange identifier of the quote currency.
	QuoteID   string          `json:"quote_id"`
	Type      MarketType      `json:"type"`
	Precision MarketPrecision `json:"precision"`
	Limits    MarketLimits    `json:"limits"`
	// Info is the raw exchange payload.
	Info any `json:"info,omitempty"`
}

// Ticker represents a point-in-time summary of a market.
// Numeric fields are nil when the exchange did not report them.
type Ticker struct {
	// Symbol is the trading pair identifier (e.g., "BTC/USDT").
	Symbol string `json:"symbol"`
	// Timestamp is when this ticker data was generated, in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Datetime is Timestamp rendered as ISO-8601.
	Datetime string `json:"datetime"`
	// High is the highest price of the session.
	High *apd.Decimal `json:"high"`
	// Low is the lowest price of the session.
	Low *apd.Decimal `json:"low"`
	// Bid is the highest price a buyer is willing to pay.
	Bid *apd.Decimal `json:"bid"`
	// Ask is the lowest price a seller is willing to accept.
	Ask *apd.Decimal `json:"ask"`
	// Open is the first price of the session.
	Open *apd.Decimal `json:"open"`
	// Close equals Last.
	Close *apd.Decimal `json:"close"`
	// Last is the price of the most recent trade.
	Last *apd.Decimal `json:"last"`
	// BaseVolume is the traded volume in base currency.
	BaseVolume *apd.Decimal `json:"base_volume"`
	// QuoteVolume is the traded volume in quote currency.
	QuoteVolume *apd.Decimal `json:"quote_volume"`
	Info        any          `json:"info,omitempty"`
}

// Trade represents a single executed trade.
type Trade struct {
	// ID is the exchange-assigned trade identifier.
	ID string `json:"id"`
	// OrderID links this trade to its parent order, when known.
	OrderID   string `json:"order_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Datetime  string `json:"datetime"`
	// Symbol is the trading pair for this trade.
	Symbol string    `json:"symbol"`
	Side   OrderSide `json:"side,omitempty"`
	// TakerOrMaker is derived by a liquidity policy, it is not transmitted.
	TakerOrMaker TakerOrMaker `json:"taker_or_maker,omitempty"`
	Price        *apd.Decimal `json:"price"`
	Amount       *apd.Decimal `json:"amount"`
	// Cost is Price * Amount in quote currency.
	Cost *apd.Decimal `json:"cost"`
	Info any          `json:"info,omitempty"`
}

// OHLCV is a candlestick for one time bucket.
type OHLCV struct {
	// Timestamp is the bucket start in epoch milliseconds.
	Timestamp int64       `json:"timestamp"`
	Open      apd.Decimal `json:"open"`
	High      apd.Decimal `json:"high"`
	Low       apd.Decimal `json:"low"`
	Close     apd.Decimal `json:"close"`
	Volume    apd.Decimal `json:"volume"`
}

// OrderBookLevel represents a single price level in the order book.
type OrderBookLevel struct {
	Price  apd.Decimal `json:"price"`
	Amount apd.Decimal `json:"amount"`
}

// OrderBook represents the current state of the order book for a trading pair.
// It contains sorted lists of bids (buy orders) and asks (sell orders).
type OrderBook struct {
	Symbol string `json:"symbol"`
	// Bids are buy orders sorted by price descending.
	Bids []OrderBookLevel `json:"bids"`
	// Asks are sell orders sorted by price ascending.
	Asks      []OrderBookLevel `json:"asks"`
	Timestamp int64            `json:"timestamp"`
	Datetime  string           `json:"datetime"`
}

// Order is a snapshot of an exchange order. Every fetch yields a fresh
// snapshot; snapshots are never merged.
type Order struct {
	// ID is the exchange-assigned order identifier.
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Datetime  string    `json:"datetime"`
	Symbol    string    `json:"symbol"`
	Type      OrderType `json:"type"`
	Side      OrderSide `json:"side"`
	// Price is the limit price.
	Price *apd.Decimal `json:"price"`
	// Average is the average fill price.
	Average *apd.Decimal `json:"average"`
	// Amount is the total order amount.
	Amount *apd.Decimal `json:"amount"`
	// Filled is the executed amount.
	Filled *apd.Decimal `json:"filled"`
	// Remaining is the unfilled amount.
	Remaining   *apd.Decimal `json:"remaining"`
	Status      OrderStatus  `json:"status"`
	TradesCount int64        `json:"trades_count"`
	Trades      []Trade      `json:"trades"`
	Info        any          `json:"info,omitempty"`
}

// Balance represents account balance for a single currency.
type Balance struct {
	// Currency is the unified currency code (e.g., "BTC").
	Currency string `json:"currency"`
	// Free is the balance available for trading.
	Free *apd.Decimal `json:"free"`
	// Used is the balance locked in open orders.
	Used *apd.Decimal `json:"used"`
}

// Total returns Free + Used. Absent components count as zero; both absent yields nil.
func (b Balance) Total() (*apd.Decimal, error) {
	if b.Free == nil && b.Used == nil {
		return nil, nil
	}
	var total apd.Decimal
	free, used := apd.New(0, 0), apd.New(0, 0)
	if b.Free != nil {
		free = b.Free
	}
	if b.Used != nil {
		used = b.Used
	}
	if _, err := apd.BaseContext.Add(&total, free, used); err != nil {
		return nil, err
	}
	return &total, nil
}

// Balances maps currency codes to balances.
type Balances map[string]Balance

// Fee is a charge levied on a trade or transfer.
type Fee struct {
	Currency string       `json:"currency"`
	Cost     *apd.Decimal `json:"cost"`
}

// Transaction is a deposit or withdrawal.
type Transaction struct {
	ID        string            `json:"id"`
	TxID      string            `json:"txid"`
	Timestamp int64             `json:"timestamp"`
	Datetime  string            `json:"datetime"`
	Type      TransactionType   `json:"type"`
	Amount    *apd.Decimal      `json:"amount"`
	Currency  string            `json:"currency"`
	Status    TransactionStatus `json:"status"`
	Fee       *Fee              `json:"fee,omitempty"`
	Info      any               `json:"info,omitempty"`
}

// DepositAddress is where funds of a currency can be sent.
type DepositAddress struct {
	Currency string `json:"currency"`
	Address  string `json:"address"`
	Tag      string `json:"tag,omitempty"`
	Network  string `json:"network,omitempty"`
	Info     any    `json:"info,omitempty"`
}
