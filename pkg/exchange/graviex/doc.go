// Package graviex implements the Exchange interface for the Graviex cryptocurrency exchange.
// It covers the spot REST API: market data, balances, deposits and order management.
// Private endpoints are signed with HMAC-SHA256 over METHOD|PATH|QUERY using a
// monotonic millisecond tonce.
//
// Graviex API Documentation: https://graviex.net/documents/api_v3
package graviex
