package graviex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"graviex/internal/transport"
	"graviex/pkg/core"
	"graviex/pkg/exchange"
)

// GraviexExchange implements exchange.Exchange for the Graviex REST API.
// Every call builds a request, hands it to the transport, classifies the
// response and normalizes the payload.
type GraviexExchange struct {
	config     *core.Config
	transport  core.Transport
	protocol   core.Protocol
	normalizer *Normalizer
	markets    *core.MarketCache
	logger     zerolog.Logger

	// loadMu serializes market reloads; readers go through the cache.
	loadMu sync.Mutex
}

var _ exchange.Exchange = (*GraviexExchange)(nil)

// Option is a functional option for configuring the GraviexExchange.
type Option func(*Options)

// Options holds configuration options for the GraviexExchange.
type Options struct {
	Logger    zerolog.Logger
	Transport core.Transport
	Nonce     NonceSource
	Liquidity LiquidityPolicy
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithTransport replaces the default HTTP transport.
func WithTransport(t core.Transport) Option {
	return func(o *Options) {
		o.Transport = t
	}
}

// WithNonce sets the tonce source used for signing.
func WithNonce(n NonceSource) Option {
	return func(o *Options) {
		o.Nonce = n
	}
}

// WithLiquidityPolicy overrides how trades are labelled taker or maker.
func WithLiquidityPolicy(p LiquidityPolicy) Option {
	return func(o *Options) {
		o.Liquidity = p
	}
}

// New creates a GraviexExchange. The config is validated and copied; later
// changes to it have no effect on the exchange.
func New(config *core.Config, opts ...Option) (*GraviexExchange, error) {
	if config == nil {
		config = core.DefaultConfig(exchangeName)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	cfg := config.Clone()

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	protocol := NewProtocol(cfg.BaseURL, options.Nonce)

	tr := options.Transport
	if tr == nil {
		client, err := transport.NewClient(transport.ConfigFromCore(cfg, protocol.RateLimits()), options.Logger)
		if err != nil {
			return nil, fmt.Errorf("create http client: %w", err)
		}
		tr = client
	}

	markets := core.NewMarketCache(cfg.MarketsTTL)

	return &GraviexExchange{
		config:     cfg,
		transport:  tr,
		protocol:   protocol,
		normalizer: NewNormalizer(markets, options.Liquidity),
		markets:    markets,
		logger:     options.Logger.With().Str("exchange", exchangeName).Logger(),
	}, nil
}

// Name returns the exchange identifier "graviex".
func (e *GraviexExchange) Name() string {
	return exchangeName
}

// Version returns the Graviex API version.
func (e *GraviexExchange) Version() string {
	return apiVersion
}

// Has reports whether op is implemented.
func (e *GraviexExchange) Has(op core.Operation) bool {
	return slices.Contains(e.protocol.SupportedOperations(), op)
}

// Protocol exposes the request builder, e.g. for signing requests sent by
// other means.
func (e *GraviexExchange) Protocol() core.Protocol {
	return e.protocol
}

// Close releases the transport when it owns resources.
func (e *GraviexExchange) Close() error {
	if c, ok := e.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Call sends a request to any endpoint and returns the raw body after error
// classification. It serves endpoints with no unified method, such as
// currency/info or strategies/list.
func (e *GraviexExchange) Call(ctx context.Context, ep core.Endpoint, params core.Params) ([]byte, error) {
	req, err := e.protocol.BuildRequest(ep, params, e.config.Credentials)
	if err != nil {
		return nil, err
	}

	resp, err := e.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := e.protocol.HandleErrors(resp); err != nil {
		e.logger.Warn().Err(err).
			Str("endpoint", ep.Path).
			Int("status", resp.StatusCode).
			Msg("exchange error")
		return nil, err
	}

	e.logger.Debug().
		Str("endpoint", ep.Path).
		Int("status", resp.StatusCode).
		Msg("exchange response")
	return resp.Body, nil
}

// fetch calls ep and decodes the body into T.
func fetch[T any](ctx context.Context, e *GraviexExchange, ep core.Endpoint, params core.Params) (T, error) {
	var out T
	body, err := e.Call(ctx, ep, params)
	if err != nil {
		return out, err
	}
	if err := sonic.Unmarshal(body, &out); err != nil {
		return out, core.NewFormatError("decode %s response: %v", ep.Path, err)
	}
	return out, nil
}

// FetchTime returns the exchange clock in epoch milliseconds.
func (e *GraviexExchange) FetchTime(ctx context.Context) (int64, error) {
	raw, err := fetch[core.Number](ctx, e, PublicTimestamp, nil)
	if err != nil {
		return 0, err
	}
	sec, err := raw.Int64()
	if err != nil {
		return 0, fmt.Errorf("parse server time: %w", err)
	}
	return core.SecondsToMillis(sec), nil
}

// FetchMarkets fetches the market listing without touching the cache.
func (e *GraviexExchange) FetchMarkets(ctx context.Context) ([]core.Market, error) {
	raw, err := fetch[[]graviexMarket](ctx, e, PublicMarkets, nil)
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeMarkets(raw)
}

// LoadMarkets returns the cached markets, fetching them when the cache is
// empty, expired or reload is set.
func (e *GraviexExchange) LoadMarkets(ctx context.Context, reload bool) ([]core.Market, error) {
	if !reload && e.markets.Loaded() {
		return e.markets.All(), nil
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if !reload && e.markets.Loaded() {
		return e.markets.All(), nil
	}

	markets, err := e.FetchMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}
	e.markets.Replace(markets)
	e.logger.Debug().Int("count", len(markets)).Msg("markets loaded")
	return e.markets.All(), nil
}

// market resolves a unified symbol, or a raw market id, to a loaded market.
func (e *GraviexExchange) market(ctx context.Context, symbol string) (core.Market, error) {
	if symbol == "" {
		return core.Market{}, core.NewArgumentsMissing(exchangeName, "requires a symbol argument")
	}
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return core.Market{}, err
	}
	if m, ok := e.markets.MarketBySymbol(symbol); ok {
		return m, nil
	}
	if m, ok := e.markets.MarketByID(symbol); ok {
		return m, nil
	}
	return core.Market{}, core.NewExchangeError(exchangeName, core.ErrorTypeBadSymbol, 0,
		fmt.Sprintf("market symbol %q not found", symbol)).WithCode(core.ErrCodeBadSymbol)
}

// optionalMarket resolves symbol when one is given.
func (e *GraviexExchange) optionalMarket(ctx context.Context, symbol string) (*core.Market, error) {
	if symbol == "" {
		return nil, nil
	}
	m, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FetchTicker retrieves the current ticker for the specified symbol.
func (e *GraviexExchange) FetchTicker(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Ticker, error) {
	options := exchange.ApplyOptions(opts...)
	m, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{"market": m.ID}.Extend(options.Params)
	raw, err := fetch[graviexTicker](ctx, e, PublicTicker, params)
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeTicker(&raw, &m)
}

// FetchTickers retrieves every ticker, or only those for symbols when given.
func (e *GraviexExchange) FetchTickers(ctx context.Context, symbols []string, opts ...exchange.Option) (map[string]core.Ticker, error) {
	options := exchange.ApplyOptions(opts...)
	if _, err := e.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}

	raw, err := fetch[map[string]graviexTicker](ctx, e, PublicTickers, options.Params)
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeTickers(raw, symbols)
}

// FetchTrades retrieves recent public trades. WithMarketType selects the
// full or the simple trade feed.
func (e *GraviexExchange) FetchTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)
	m, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	ep, ok := tradeFeeds[options.MarketType]
	if !ok {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeBadRequest, 0,
			fmt.Sprintf("fetchTrades does not support %s markets", options.MarketType)).
			WithCode(core.ErrCodeUnsupported)
	}

	params := core.Params{"market": m.ID}
	if options.Limit > 0 {
		params["limit"] = options.Limit
	}

	raw, err := fetch[[]graviexTrade](ctx, e, ep, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeTrades(raw, &m, options.Since, options.Limit)
}

// FetchOHLCV retrieves candles for the timeframe set with WithTimeframe.
func (e *GraviexExchange) FetchOHLCV(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.OHLCV, error) {
	options := exchange.ApplyOptions(opts...)
	period, ok := timeframes[options.Timeframe]
	if !ok {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeBadRequest, 0,
			fmt.Sprintf("unsupported timeframe %q", options.Timeframe)).WithCode(core.ErrCodeUnsupported)
	}
	m, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{"market": m.ID, "period": period}
	if options.Limit > 0 {
		params["limit"] = options.Limit
	}
	if options.Since > 0 {
		params["timestamp"] = options.Since / 1000
	}

	raw, err := fetch[[][]core.Number](ctx, e, PublicK, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeOHLCVs(raw, options.Since, options.Limit)
}

// FetchOrderBook retrieves the order book for the specified symbol.
func (e *GraviexExchange) FetchOrderBook(ctx context.Context, symbol string, opts ...exchange.Option) (*core.OrderBook, error) {
	options := exchange.ApplyOptions(opts...)
	m, err := e.market(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{"market": m.ID}
	if options.Limit > 0 {
		params["limit"] = options.Limit
	}

	raw, err := fetch[graviexOrderBook](ctx, e, PublicDepth, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeOrderBook(&raw, m.Symbol)
}

// FetchBalance retrieves free and locked balances per currency.
func (e *GraviexExchange) FetchBalance(ctx context.Context, opts ...exchange.Option) (core.Balances, error) {
	options := exchange.ApplyOptions(opts...)
	raw, err := fetch[graviexMember](ctx, e, PrivateMembersMe, options.Params)
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeBalance(&raw)
}

// FetchDepositAddress retrieves the deposit address for a currency.
func (e *GraviexExchange) FetchDepositAddress(ctx context.Context, currency string, opts ...exchange.Option) (*core.DepositAddress, error) {
	return e.depositAddress(ctx, PrivateDepositAddress, currency, opts)
}

// CreateDepositAddress asks the exchange to generate a deposit address.
func (e *GraviexExchange) CreateDepositAddress(ctx context.Context, currency string, opts ...exchange.Option) (*core.DepositAddress, error) {
	return e.depositAddress(ctx, PrivateGenDepositAddress, currency, opts)
}

func (e *GraviexExchange) depositAddress(ctx context.Context, ep core.Endpoint, currency string, opts []exchange.Option) (*core.DepositAddress, error) {
	if currency == "" {
		return nil, core.NewArgumentsMissing(exchangeName, "requires a currency code argument")
	}
	options := exchange.ApplyOptions(opts...)
	code := strings.ToUpper(currency)

	params := core.Params{"currency": currencyID(code)}.Extend(options.Params)
	body, err := e.Call(ctx, ep, params)
	if err != nil {
		return nil, err
	}

	address, err := decodeDoubleEncoded(bytes.TrimSpace(body))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeDepositAddress(address, code)
}

// FetchDeposit retrieves a deposit by its transaction hash.
func (e *GraviexExchange) FetchDeposit(ctx context.Context, id, currency string, opts ...exchange.Option) (*core.Transaction, error) {
	if id == "" {
		return nil, core.NewArgumentsMissing(exchangeName, "fetchDeposit requires a txid argument")
	}
	options := exchange.ApplyOptions(opts...)

	raw, err := fetch[graviexTransaction](ctx, e, PrivateDeposit, core.Params{"txid": id}.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeTransaction(&raw, core.TransactionTypeDeposit)
}

// FetchDeposits retrieves deposit history, optionally for one currency.
func (e *GraviexExchange) FetchDeposits(ctx context.Context, currency string, opts ...exchange.Option) ([]core.Transaction, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{}
	code := strings.ToUpper(currency)
	if code != "" {
		params["currency"] = currencyID(code)
	}

	raw, err := fetch[[]graviexTransaction](ctx, e, PrivateDeposits, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeTransactions(raw, core.TransactionTypeDeposit, code, options.Since, options.Limit)
}

// FetchOrder retrieves a single order by id.
func (e *GraviexExchange) FetchOrder(ctx context.Context, id, symbol string, opts ...exchange.Option) (*core.Order, error) {
	if id == "" {
		return nil, core.NewArgumentsMissing(exchangeName, "fetchOrder requires an id argument")
	}
	options := exchange.ApplyOptions(opts...)
	m, err := e.optionalMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}

	raw, err := fetch[graviexOrder](ctx, e, PrivateOrder, core.Params{"id": id}.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeOrder(&raw, m)
}

// FetchOrders retrieves orders, optionally for one market.
func (e *GraviexExchange) FetchOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.listOrders(ctx, PrivateOrders, symbol, core.Params{}, opts)
}

// FetchClosedOrders retrieves order history, newest first on the wire.
func (e *GraviexExchange) FetchClosedOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.listOrders(ctx, PrivateOrdersHistory, symbol, core.Params{"order_by": "desc"}, opts)
}

func (e *GraviexExchange) listOrders(ctx context.Context, ep core.Endpoint, symbol string, params core.Params, opts []exchange.Option) ([]core.Order, error) {
	options := exchange.ApplyOptions(opts...)
	m, err := e.optionalMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if m != nil {
		params["market"] = m.ID
	}
	if options.Limit > 0 {
		params["limit"] = options.Limit
	}

	raw, err := fetch[[]graviexOrder](ctx, e, ep, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeOrders(raw, m, options.Since, options.Limit)
}

// FetchMyTrades retrieves the account's trades. A numeric market_id in
// WithParams takes the place of symbol.
func (e *GraviexExchange) FetchMyTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)
	params := core.Params{"desc": true}

	var m *core.Market
	if numericID := getStringParamWithDefault(options.Params, "market_id", ""); numericID != "" {
		params["market"] = numericID
		options.Params = options.Params.Omit("market_id")
	} else {
		var err error
		if m, err = e.optionalMarket(ctx, symbol); err != nil {
			return nil, err
		}
		if m != nil {
			params["market"] = m.ID
		}
	}

	raw, err := fetch[[]graviexTrade](ctx, e, PrivateTradesMy, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeTrades(raw, m, options.Since, options.Limit)
}

// FetchTradesHistory retrieves the account's trade history, newest first on the wire.
func (e *GraviexExchange) FetchTradesHistory(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)
	m, err := e.optionalMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{"order_by": "desc"}
	if m != nil {
		params["market"] = m.ID
	}
	if limit := getIntParamWithDefault(options.Params, "limit", options.Limit); limit > 0 {
		params["limit"] = limit
	}

	raw, err := fetch[[]graviexTrade](ctx, e, PrivateTradesHistory, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeTrades(raw, m, options.Since, options.Limit)
}

// CreateOrder places an order. The amount is truncated and the price rounded
// to the market precision. An amount below the market minimum is rejected
// without contacting the orders endpoint.
func (e *GraviexExchange) CreateOrder(ctx context.Context, req *exchange.OrderRequest, opts ...exchange.Option) (*core.Order, error) {
	if req == nil {
		return nil, core.NewArgumentsMissing(exchangeName, "createOrder requires an order request")
	}
	if !req.Side.Valid() {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeInvalidOrder, 0,
			fmt.Sprintf("invalid order side %q", req.Side)).WithCode(core.ErrCodeInvalidOrder)
	}
	if req.Type != core.TypeLimit && req.Type != core.TypeMarket {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeInvalidOrder, 0,
			fmt.Sprintf("invalid order type %q", req.Type)).WithCode(core.ErrCodeInvalidOrder)
	}
	if req.Amount == nil {
		return nil, core.NewArgumentsMissing(exchangeName, "createOrder requires an amount")
	}
	if req.Type == core.TypeLimit && req.Price == nil {
		return nil, core.NewArgumentsMissing(exchangeName, "createOrder requires a price for limit orders")
	}
	options := exchange.ApplyOptions(opts...)

	m, err := e.market(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	volume, err := core.AmountToPrecision(req.Amount, m.Precision.Amount)
	if err != nil {
		return nil, fmt.Errorf("format amount: %w", err)
	}
	if minimum := m.Limits.Amount.Min; minimum != nil && core.MustDecimal(volume).Cmp(minimum) < 0 {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeInvalidOrder, 0,
			fmt.Sprintf("amount %s is below the %s minimum of %s", volume, m.Symbol, core.FormatDecimal(minimum))).
			WithCode(core.ErrCodeInvalidOrder)
	}

	params := core.Params{
		"market":   m.ID,
		"side":     req.Side,
		"volume":   volume,
		"ord_type": req.Type,
	}
	if req.Price != nil && req.Type == core.TypeLimit {
		price, err := core.PriceToPrecision(req.Price, m.Precision.Price)
		if err != nil {
			return nil, fmt.Errorf("format price: %w", err)
		}
		params["price"] = price
	}

	raw, err := fetch[graviexOrder](ctx, e, PrivateCreateOrder, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}

	order, err := e.normalizer.NormalizeOrder(&raw, &m)
	if err != nil {
		return nil, err
	}
	e.logger.Info().
		Str("symbol", m.Symbol).
		Str("side", string(req.Side)).
		Str("id", order.ID).
		Msg("order created")
	return order, nil
}

// CancelOrder cancels an order by id and returns its final snapshot.
func (e *GraviexExchange) CancelOrder(ctx context.Context, id, symbol string, opts ...exchange.Option) (*core.Order, error) {
	if id == "" {
		return nil, core.NewArgumentsMissing(exchangeName, "cancelOrder requires an id argument")
	}
	options := exchange.ApplyOptions(opts...)
	m, err := e.optionalMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}

	raw, err := fetch[graviexOrder](ctx, e, PrivateOrderDelete, core.Params{"id": id}.Extend(options.Params))
	if err != nil {
		return nil, err
	}
	return e.normalizer.NormalizeOrder(&raw, m)
}

// CancelAllOrders cancels every open order, or only one side's when
// WithSide is given. The exchange clears all markets at once; symbol only
// filters the returned snapshots.
func (e *GraviexExchange) CancelAllOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	options := exchange.ApplyOptions(opts...)
	m, err := e.optionalMarket(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{}
	if options.Side != "" {
		params["side"] = options.Side
	}

	body, err := e.Call(ctx, PrivateOrdersClear, params.Extend(options.Params))
	if err != nil {
		return nil, err
	}

	raw, err := decodeOrderList(body)
	if err != nil {
		return nil, err
	}
	orders, err := e.normalizer.NormalizeOrders(raw, nil, 0, 0)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return orders, nil
	}
	return slices.DeleteFunc(orders, func(o core.Order) bool { return o.Symbol != m.Symbol }), nil
}

// decodeOrderList accepts either an order array or a single order object.
func decodeOrderList(body []byte) ([]graviexOrder, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one graviexOrder
		if err := sonic.Unmarshal(trimmed, &one); err != nil {
			return nil, core.NewFormatError("decode orders/clear response: %v", err)
		}
		return []graviexOrder{one}, nil
	}
	var many []graviexOrder
	if err := sonic.Unmarshal(trimmed, &many); err != nil {
		return nil, core.NewFormatError("decode orders/clear response: %v", err)
	}
	return many, nil
}
