package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graviex/pkg/core"
	"graviex/pkg/exchange"
)

// stubExchange implements the order methods of exchange.Exchange. Calling
// any other method panics on the nil embedded interface.
type stubExchange struct {
	exchange.Exchange

	mu       sync.Mutex
	statuses []core.OrderStatus // returned by successive FetchOrder calls
	fetches  int
	cancels  int
	fetchErr error
}

func (s *stubExchange) CreateOrder(_ context.Context, req *exchange.OrderRequest, _ ...exchange.Option) (*core.Order, error) {
	return &core.Order{ID: "1553", Symbol: req.Symbol, Side: req.Side, Type: req.Type, Status: core.StatusOpen}, nil
}

func (s *stubExchange) CancelOrder(_ context.Context, id, symbol string, _ ...exchange.Option) (*core.Order, error) {
	s.mu.Lock()
	s.cancels++
	s.mu.Unlock()
	return &core.Order{ID: id, Symbol: symbol, Status: core.StatusCanceled}, nil
}

func (s *stubExchange) CancelAllOrders(_ context.Context, symbol string, _ ...exchange.Option) ([]core.Order, error) {
	return []core.Order{
		{ID: "1", Symbol: "GIO/BTC", Status: core.StatusCanceled},
		{ID: "2", Symbol: "LTC/BTC", Status: core.StatusCanceled},
	}, nil
}

func (s *stubExchange) FetchOrder(_ context.Context, id, symbol string, _ ...exchange.Option) (*core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		err := s.fetchErr
		s.fetchErr = nil
		return nil, err
	}
	status := core.StatusOpen
	if len(s.statuses) > 0 {
		status, s.statuses = s.statuses[0], s.statuses[1:]
	}
	return &core.Order{ID: id, Symbol: symbol, Status: status}, nil
}

func placeTestOrder(t *testing.T, m *Manager) *core.Order {
	t.Helper()
	req, err := NewBuilder("GIO/BTC").Buy().Limit().Price("0.00000058").Amount("1000").Build()
	require.NoError(t, err)
	o, err := m.Place(context.Background(), req)
	require.NoError(t, err)
	return o
}

func TestManager_PlaceTracksOrder(t *testing.T) {
	m := NewManager(&stubExchange{}, zerolog.Nop())

	var seen []string
	m.OnUpdate(func(o *core.Order) { seen = append(seen, o.ID) })

	o := placeTestOrder(t, m)

	got, ok := m.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, core.StatusOpen, got.Status)
	assert.Len(t, m.Open(), 1)
	assert.Equal(t, []string{"1553"}, seen)
}

func TestManager_PlaceRejectsInvalid(t *testing.T) {
	m := NewManager(&stubExchange{}, zerolog.Nop())

	_, err := m.Place(context.Background(), &exchange.OrderRequest{Symbol: "GIO/BTC", Side: core.SideBuy, Type: core.TypeMarket})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order validation")

	_, err = m.Place(context.Background(), nil)
	assert.Error(t, err)
}

func TestManager_Cancel(t *testing.T) {
	stub := &stubExchange{}
	m := NewManager(stub, zerolog.Nop())
	o := placeTestOrder(t, m)

	canceled, err := m.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCanceled, canceled.Status)
	assert.Empty(t, m.Open())

	_, err = m.Cancel(context.Background(), o.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal state")
	assert.Equal(t, 1, stub.cancels)

	_, err = m.Cancel(context.Background(), "missing")
	assert.Error(t, err)
}

func TestManager_CancelAll(t *testing.T) {
	m := NewManager(&stubExchange{}, zerolog.Nop())

	canceled, err := m.CancelAll(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, canceled, 2)

	ltc := m.Orders(Filter{Symbol: "LTC/BTC"})
	require.Len(t, ltc, 1)
	assert.Equal(t, "2", ltc[0].ID)
}

func TestManager_Wait(t *testing.T) {
	stub := &stubExchange{statuses: []core.OrderStatus{core.StatusOpen, core.StatusClosed}}
	m := NewManager(stub, zerolog.Nop())
	o := placeTestOrder(t, m)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	final, err := m.Wait(ctx, o.ID, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, core.StatusClosed, final.Status)
	assert.Equal(t, 2, stub.fetches)
}

func TestManager_WaitRetriesNetworkErrors(t *testing.T) {
	stub := &stubExchange{
		statuses: []core.OrderStatus{core.StatusCanceled},
		fetchErr: core.NewExchangeError("graviex", core.ErrorTypeNetwork, 0, "reset"),
	}
	m := NewManager(stub, zerolog.Nop())
	o := placeTestOrder(t, m)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	final, err := m.Wait(ctx, o.ID, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCanceled, final.Status)
}

func TestManager_WaitContextDone(t *testing.T) {
	m := NewManager(&stubExchange{}, zerolog.Nop())
	o := placeTestOrder(t, m)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	last, err := m.Wait(ctx, o.ID, 5*time.Millisecond)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, core.StatusOpen, last.Status)
}

func TestManager_WaitRejectsNonPositiveInterval(t *testing.T) {
	stub := &stubExchange{}
	m := NewManager(stub, zerolog.Nop())
	o := placeTestOrder(t, m)

	for _, interval := range []time.Duration{0, -time.Second} {
		assert.NotPanics(t, func() {
			_, err := m.Wait(context.Background(), o.ID, interval)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "poll interval must be positive")
		})
	}
	assert.Zero(t, stub.fetches)
}

func TestFilter_Matches(t *testing.T) {
	o := &core.Order{Symbol: "GIO/BTC", Side: core.SideSell, Status: core.StatusOpen, Type: core.TypeLimit}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"symbol", Filter{Symbol: "GIO/BTC"}, true},
		{"other_symbol", Filter{Symbol: "LTC/BTC"}, false},
		{"side", Filter{Side: core.SideSell}, true},
		{"other_side", Filter{Side: core.SideBuy}, false},
		{"status", Filter{Status: core.StatusClosed}, false},
		{"all", Filter{Symbol: "GIO/BTC", Side: core.SideSell, Status: core.StatusOpen, Type: core.TypeLimit}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(o))
		})
	}
}
