// Package order builds order requests and tracks the orders an account
// places through an exchange.Exchange.
package order

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"graviex/pkg/core"
	"graviex/pkg/exchange"
)

// Builder provides a fluent interface for constructing order requests.
// It keeps the first parse error and reports it on Build.
//
// Example:
//
//	req, err := order.NewBuilder("GIO/BTC").
//	    Buy().
//	    Limit().
//	    Price("0.00000058").
//	    Amount("1000").
//	    Build()
type Builder struct {
	req *exchange.OrderRequest
	err error
}

// NewBuilder creates a builder for the given unified symbol.
func NewBuilder(symbol string) *Builder {
	return &Builder{
		req: &exchange.OrderRequest{Symbol: symbol},
	}
}

// Side sets the order side.
func (b *Builder) Side(side core.OrderSide) *Builder {
	b.req.Side = side
	return b
}

func (b *Builder) Buy() *Builder {
	return b.Side(core.SideBuy)
}

func (b *Builder) Sell() *Builder {
	return b.Side(core.SideSell)
}

// Type sets the order type.
func (b *Builder) Type(orderType core.OrderType) *Builder {
	b.req.Type = orderType
	return b
}

func (b *Builder) Market() *Builder {
	return b.Type(core.TypeMarket)
}

func (b *Builder) Limit() *Builder {
	return b.Type(core.TypeLimit)
}

// Price sets the limit price from its decimal string form.
func (b *Builder) Price(price string) *Builder {
	if b.err != nil {
		return b
	}
	d, _, err := apd.NewFromString(price)
	if err != nil {
		b.err = fmt.Errorf("parse price: %w", err)
		return b
	}
	b.req.Price = d
	return b
}

// PriceDecimal sets the limit price. The value is copied.
func (b *Builder) PriceDecimal(price *apd.Decimal) *Builder {
	b.req.Price = copyDecimal(price)
	return b
}

// Amount sets the order amount from its decimal string form.
func (b *Builder) Amount(amount string) *Builder {
	if b.err != nil {
		return b
	}
	d, _, err := apd.NewFromString(amount)
	if err != nil {
		b.err = fmt.Errorf("parse amount: %w", err)
		return b
	}
	b.req.Amount = d
	return b
}

// AmountDecimal sets the order amount. The value is copied.
func (b *Builder) AmountDecimal(amount *apd.Decimal) *Builder {
	b.req.Amount = copyDecimal(amount)
	return b
}

// Build validates and returns the request. Exchange-specific limits such as
// the minimum amount are left to the exchange client.
func (b *Builder) Build() (*exchange.OrderRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := Validate(b.req); err != nil {
		return nil, err
	}
	return b.req, nil
}

// Validate checks the fields every exchange requires.
func Validate(req *exchange.OrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !req.Side.Valid() {
		return fmt.Errorf("invalid order side %q", req.Side)
	}
	if req.Type != core.TypeLimit && req.Type != core.TypeMarket {
		return fmt.Errorf("invalid order type %q", req.Type)
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if req.Type == core.TypeLimit && (req.Price == nil || req.Price.Sign() <= 0) {
		return fmt.Errorf("price must be positive for limit orders")
	}
	return nil
}

func copyDecimal(d *apd.Decimal) *apd.Decimal {
	if d == nil {
		return nil
	}
	return new(apd.Decimal).Set(d)
}
