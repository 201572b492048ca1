package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"graviex/pkg/core"
	"graviex/pkg/exchange"
)

type Callback func(*core.Order)

// Manager places orders through an exchange and keeps the latest snapshot
// of each one it has seen. A newer snapshot replaces the older one whole.
type Manager struct {
	exchange exchange.Exchange
	logger   zerolog.Logger

	orders sync.Map // id -> *core.Order

	callbacksMu sync.RWMutex
	callbacks   []Callback
}

func NewManager(ex exchange.Exchange, logger zerolog.Logger) *Manager {
	return &Manager{
		exchange: ex,
		logger:   logger.With().Str("component", "order_manager").Logger(),
	}
}

// Place validates req, submits it and starts tracking the resulting order.
func (m *Manager) Place(ctx context.Context, req *exchange.OrderRequest, opts ...exchange.Option) (*core.Order, error) {
	if req == nil {
		return nil, fmt.Errorf("order request is required")
	}
	if err := Validate(req); err != nil {
		return nil, fmt.Errorf("order validation: %w", err)
	}

	placed, err := m.exchange.CreateOrder(ctx, req, opts...)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	m.store(placed)
	return placed, nil
}

// Cancel cancels a tracked order. Orders already in a terminal state are
// rejected without contacting the exchange.
func (m *Manager) Cancel(ctx context.Context, id string) (*core.Order, error) {
	tracked, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("order not found: %s", id)
	}
	if tracked.Status.IsTerminal() {
		return nil, fmt.Errorf("cannot cancel order in terminal state: %s", tracked.Status)
	}

	canceled, err := m.exchange.CancelOrder(ctx, id, tracked.Symbol)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	m.store(canceled)
	return canceled, nil
}

// CancelAll cancels every open order on the exchange, or only those of
// symbol, and records the returned snapshots.
func (m *Manager) CancelAll(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	canceled, err := m.exchange.CancelAllOrders(ctx, symbol, opts...)
	if err != nil {
		return nil, fmt.Errorf("cancel all orders: %w", err)
	}
	for i := range canceled {
		m.store(&canceled[i])
	}
	return canceled, nil
}

// Sync fetches a fresh snapshot of a tracked order.
func (m *Manager) Sync(ctx context.Context, id string) (*core.Order, error) {
	tracked, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("order not found: %s", id)
	}

	fresh, err := m.exchange.FetchOrder(ctx, id, tracked.Symbol)
	if err != nil {
		return nil, fmt.Errorf("sync order: %w", err)
	}

	m.store(fresh)
	return fresh, nil
}

// Wait polls a tracked order every interval until it reaches a terminal
// status or ctx is done. interval must be positive.
func (m *Manager) Wait(ctx context.Context, id string, interval time.Duration) (*core.Order, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	current, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("order not found: %s", id)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !current.Status.IsTerminal() {
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-ticker.C:
		}

		fresh, err := m.Sync(ctx, id)
		if err != nil {
			if core.IsNetworkError(err) {
				m.logger.Warn().Err(err).Str("order_id", id).Msg("order poll failed")
				continue
			}
			return current, err
		}
		current = fresh
	}
	return current, nil
}

// Get returns the latest snapshot of a tracked order.
func (m *Manager) Get(id string) (*core.Order, bool) {
	if id == "" {
		return nil, false
	}
	value, ok := m.orders.Load(id)
	if !ok {
		return nil, false
	}
	o, ok := value.(*core.Order)
	return o, ok
}

// Orders returns the tracked orders that match filter.
func (m *Manager) Orders(filter Filter) []*core.Order {
	var result []*core.Order
	m.orders.Range(func(_, value any) bool {
		if o, ok := value.(*core.Order); ok && filter.Matches(o) {
			result = append(result, o)
		}
		return true
	})
	return result
}

// Open returns the tracked orders that are not yet in a terminal status.
func (m *Manager) Open() []*core.Order {
	var result []*core.Order
	m.orders.Range(func(_, value any) bool {
		if o, ok := value.(*core.Order); ok && !o.Status.IsTerminal() {
			result = append(result, o)
		}
		return true
	})
	return result
}

// OnUpdate registers a callback run after every stored snapshot.
func (m *Manager) OnUpdate(callback Callback) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

func (m *Manager) store(o *core.Order) {
	if o == nil || o.ID == "" {
		return
	}
	if prev, ok := m.Get(o.ID); ok && prev.Status != o.Status {
		m.logger.Debug().
			Str("order_id", o.ID).
			Stringer("from", prev.Status).
			Stringer("to", o.Status).
			Msg("order status changed")
	}
	m.orders.Store(o.ID, o)
	m.notify(o)
}

func (m *Manager) notify(o *core.Order) {
	m.callbacksMu.RLock()
	callbacks := make([]Callback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.callbacksMu.RUnlock()

	for _, cb := range callbacks {
		cb(o)
	}
}

// Filter selects tracked orders. Zero fields match anything.
type Filter struct {
	Symbol string           `json:"symbol,omitempty"`
	Side   core.OrderSide   `json:"side,omitempty"`
	Status core.OrderStatus `json:"status,omitempty"`
	Type   core.OrderType   `json:"type,omitempty"`
}

func (f *Filter) Matches(o *core.Order) bool {
	if f.Symbol != "" && o.Symbol != f.Symbol {
		return false
	}
	if f.Side != "" && o.Side != f.Side {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	return true
}
