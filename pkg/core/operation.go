package core

// Operation represents a unified action that can be performed on an exchange.
type Operation int

// Operation constants define all unified exchange operations.
const (
	OpFetchTime Operation = iota
	OpFetchMarkets
	OpFetchTicker
	OpFetchTickers
	OpFetchTrades
	OpFetchOHLCV
	OpFetchOrderBook
	OpFetchBalance
	OpFetchDepositAddress
	OpCreateDepositAddress
	OpFetchDeposit
	OpFetchDeposits
	OpFetchOrder
	OpFetchOrders
	OpFetchClosedOrders
	OpFetchMyTrades
	OpFetchTradesHistory
	OpCreateOrder
	OpCancelOrder
	OpCancelAllOrders
)

var operationNames = [...]string{
	"FETCH_TIME",
	"FETCH_MARKETS",
	"FETCH_TICKER",
	"FETCH_TICKERS",
	"FETCH_TRADES",
	"FETCH_OHLCV",
	"FETCH_ORDER_BOOK",
	"FETCH_BALANCE",
	"FETCH_DEPOSIT_ADDRESS",
	"CREATE_DEPOSIT_ADDRESS",
	"FETCH_DEPOSIT",
	"FETCH_DEPOSITS",
	"FETCH_ORDER",
	"FETCH_ORDERS",
	"FETCH_CLOSED_ORDERS",
	"FETCH_MY_TRADES",
	"FETCH_TRADES_HISTORY",
	"CREATE_ORDER",
	"CANCEL_ORDER",
	"CANCEL_ALL_ORDERS",
}

// String returns the string representation of the operation.
func (o Operation) String() string {
	if int(o) < 0 || int(o) >= len(operationNames) {
		return "UNKNOWN"
	}
	return operationNames[o]
}
