package graviex

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"graviex/pkg/core"
)

// graviexMarket is one entry of the markets listing.
type graviexMarket struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// graviexTicker represents the raw ticker from tickers and tickers/{market}.
type graviexTicker struct {
	Name      string      `json:"name"`
	BaseUnit  string      `json:"base_unit"`
	QuoteUnit string      `json:"quote_unit"`
	Low       core.Number `json:"low"`
	High      core.Number `json:"high"`
	Last      core.Number `json:"last"`
	Open      core.Number `json:"open"`
	Volume    core.Number `json:"volume"`
	Volume2   core.Number `json:"volume2"`
	Sell      core.Number `json:"sell"`
	Buy       core.Number `json:"buy"`
	At        core.Number `json:"at"`
}

// graviexTrade represents a public or private trade.
type graviexTrade struct {
	ID        core.Number `json:"id"`
	OrderID   core.Number `json:"order_id"`
	At        core.Number `json:"at"`
	Price     core.Number `json:"price"`
	Volume    core.Number `json:"volume"`
	Funds     core.Number `json:"funds"`
	Market    string      `json:"market"`
	CreatedAt string      `json:"created_at"`
	Side      tradeSide   `json:"side"`
}

// tradeSide is the side field of a trade. Present stays false when the key
// is missing, so a null side can be told apart from no side at all.
type tradeSide struct {
	Value   string
	Present bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *tradeSide) UnmarshalJSON(data []byte) error {
	s.Present = true
	s.Value = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := sonic.Unmarshal(data, &s.Value); err != nil {
		return core.NewFormatError("invalid trade side %s: %v", data, err)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s tradeSide) MarshalJSON() ([]byte, error) {
	if s.Value == "" {
		return []byte("null"), nil
	}
	return sonic.Marshal(s.Value)
}

// graviexOrderBook represents the depth response.
type graviexOrderBook struct {
	Timestamp core.Number     `json:"timestamp"`
	Asks      [][]core.Number `json:"asks"`
	Bids      [][]core.Number `json:"bids"`
}

// graviexOrder represents an order as returned by order, orders and order/delete.
type graviexOrder struct {
	ID              core.Number    `json:"id"`
	At              core.Number    `json:"at"`
	Side            string         `json:"side"`
	OrdType         string         `json:"ord_type"`
	Price           core.Number    `json:"price"`
	AvgPrice        core.Number    `json:"avg_price"`
	State           string         `json:"state"`
	Market          string         `json:"market"`
	CreatedAt       string         `json:"created_at"`
	Volume          core.Number    `json:"volume"`
	RemainingVolume core.Number    `json:"remaining_volume"`
	ExecutedVolume  core.Number    `json:"executed_volume"`
	TradesCount     core.Number    `json:"trades_count"`
	Trades          []graviexTrade `json:"trades"`
}

// graviexAccount is one currency entry of members/me.
type graviexAccount struct {
	Currency string      `json:"currency"`
	Balance  core.Number `json:"balance"`
	Locked   core.Number `json:"locked"`
}

// graviexMember represents the members/me response.
type graviexMember struct {
	SN               string           `json:"sn"`
	AccountsFiltered []graviexAccount `json:"accounts_filtered"`
}

// graviexTransaction represents a deposit or withdrawal record.
type graviexTransaction struct {
	ID              core.Number `json:"id"`
	Currency        string      `json:"currency"`
	Amount          core.Number `json:"amount"`
	Fee             core.Number `json:"fee"`
	TxID            string      `json:"txid"`
	CreatedAt       string      `json:"created_at"`
	State           string      `json:"state"`
	Code            string      `json:"code"`
	CancelRequested *any        `json:"cancel_requested"`
}

// LiquidityPolicy decides whether a trade took or made liquidity from its side.
type LiquidityPolicy func(side core.OrderSide) core.TakerOrMaker

// DefaultLiquidityPolicy reports buys as maker and everything else as taker,
// which is how the exchange's own clients label trades.
func DefaultLiquidityPolicy(side core.OrderSide) core.TakerOrMaker {
	if side == core.SideBuy {
		return core.Maker
	}
	return core.Taker
}

var orderStatuses = map[string]core.OrderStatus{
	"ACTIVE":   core.StatusOpen,
	"CANCELED": core.StatusCanceled,
	"FILLED":   core.StatusClosed,
	"REJECTED": core.StatusRejected,
	"EXPIRED":  core.StatusExpired,
}

// parseOrderStatus maps exchange states; unknown states pass through as-is.
func parseOrderStatus(state string) core.OrderStatus {
	if s, ok := orderStatuses[state]; ok {
		return s
	}
	return core.OrderStatus(state)
}

var transactionStatuses = map[string]core.TransactionStatus{
	"initiated":    core.TransactionPending,
	"needs_create": core.TransactionPending,
	"credited":     core.TransactionOK,
	"confirmed":    core.TransactionOK,
}

func parseTransactionStatus(state string) core.TransactionStatus {
	if s, ok := transactionStatuses[state]; ok {
		return s
	}
	return core.TransactionStatus(state)
}

// Normalizer converts Graviex payloads to canonical core types.
// It only reads the market set it is given.
type Normalizer struct {
	markets   core.MarketResolver
	liquidity LiquidityPolicy
}

// NewNormalizer creates a Normalizer. A nil resolver resolves every id by
// splitting; a nil policy uses DefaultLiquidityPolicy.
func NewNormalizer(markets core.MarketResolver, liquidity LiquidityPolicy) *Normalizer {
	if liquidity == nil {
		liquidity = DefaultLiquidityPolicy
	}
	return &Normalizer{markets: markets, liquidity: liquidity}
}

// NormalizeMarket converts a markets listing entry. Name must be BASE/QUOTE.
func (n *Normalizer) NormalizeMarket(data *graviexMarket) (*core.Market, error) {
	baseID, quoteID, ok := strings.Cut(data.Name, "/")
	if !ok || baseID == "" || quoteID == "" || data.ID == "" {
		return nil, core.NewFormatError("market %q has malformed name %q", data.ID, data.Name)
	}
	base, quote := currencyCode(baseID), currencyCode(quoteID)

	return &core.Market{
		ID:        data.ID,
		Symbol:    base + "/" + quote,
		Base:      base,
		Quote:     quote,
		BaseID:    strings.ToLower(baseID),
		QuoteID:   strings.ToLower(quoteID),
		Type:      core.MarketTypeSpot,
		Precision: core.MarketPrecision{Amount: amountPrecision, Price: pricePrecision},
		Limits:    core.MarketLimits{Amount: core.MinMax{Min: minAmount()}},
		Info:      *data,
	}, nil
}

// NormalizeMarkets converts the full markets listing.
func (n *Normalizer) NormalizeMarkets(data []graviexMarket) ([]core.Market, error) {
	markets := make([]core.Market, 0, len(data))
	for i := range data {
		m, err := n.NormalizeMarket(&data[i])
		if err != nil {
			return nil, err
		}
		markets = append(markets, *m)
	}
	return markets, nil
}

// NormalizeTicker converts a raw ticker. market may be nil, in which case the
// symbol comes from the ticker's own name.
func (n *Normalizer) NormalizeTicker(data *graviexTicker, market *core.Market) (*core.Ticker, error) {
	symbol, err := n.tickerSymbol(data, market)
	if err != nil {
		return nil, err
	}

	at, err := data.At.Int64()
	if err != nil {
		return nil, fmt.Errorf("parse ticker time: %w", err)
	}
	ts := core.SecondsToMillis(at)

	ticker := &core.Ticker{
		Symbol:    symbol,
		Timestamp: ts,
		Datetime:  core.ISO8601(ts),
		Info:      *data,
	}

	fields := []struct {
		dest **apd.Decimal
		src  core.Number
	}{
		{&ticker.High, data.High},
		{&ticker.Low, data.Low},
		{&ticker.Bid, data.Buy},
		{&ticker.Ask, data.Sell},
		{&ticker.Open, data.Open},
		{&ticker.Last, data.Last},
		{&ticker.BaseVolume, data.Volume},
		{&ticker.QuoteVolume, data.Volume2},
	}
	for _, f := range fields {
		if *f.dest, err = core.ParseDecimal(f.src); err != nil {
			return nil, err
		}
	}
	ticker.Close = ticker.Last

	return ticker, nil
}

func (n *Normalizer) tickerSymbol(data *graviexTicker, market *core.Market) (string, error) {
	if market != nil {
		return market.Symbol, nil
	}
	if base, quote, ok := strings.Cut(data.Name, "/"); ok && base != "" && quote != "" {
		return currencyCode(base) + "/" + currencyCode(quote), nil
	}
	if data.BaseUnit != "" && data.QuoteUnit != "" {
		return n.resolveSymbol(data.BaseUnit+data.QuoteUnit, nil)
	}
	return n.resolveSymbol(data.Name, nil)
}

// NormalizeTickers converts the id-keyed tickers map into a symbol-keyed map.
// When symbols is non-empty only those symbols are kept.
func (n *Normalizer) NormalizeTickers(data map[string]graviexTicker, symbols []string) (map[string]core.Ticker, error) {
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}

	result := make(map[string]core.Ticker, len(data))
	for _, id := range sortedTickerIDs(data) {
		raw := data[id]
		var market *core.Market
		if n.markets != nil {
			if m, ok := n.markets.MarketByID(id); ok {
				market = &m
			}
		}
		if market == nil {
			symbol, err := n.resolveSymbol(id, nil)
			if err != nil {
				return nil, err
			}
			market = &core.Market{ID: id, Symbol: symbol}
		}
		if len(want) > 0 && !want[market.Symbol] {
			continue
		}

		ticker, err := n.NormalizeTicker(&raw, market)
		if err != nil {
			return nil, fmt.Errorf("normalize ticker %s: %w", id, err)
		}
		result[ticker.Symbol] = *ticker
	}
	return result, nil
}

func sortedTickerIDs(data map[string]graviexTicker) []string {
	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NormalizeTrade converts a raw trade. Taker/maker is only set when the
// payload carries a side.
func (n *Normalizer) NormalizeTrade(data *graviexTrade, market *core.Market) (*core.Trade, error) {
	symbol, err := n.resolveSymbol(data.Market, market)
	if err != nil {
		return nil, err
	}

	ts, err := eventTime(data.At, data.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse trade time: %w", err)
	}

	trade := &core.Trade{
		ID:        data.ID.String(),
		OrderID:   data.OrderID.String(),
		Timestamp: ts,
		Datetime:  core.ISO8601(ts),
		Symbol:    symbol,
		Info:      *data,
	}

	// Only private trades carry the key; a null there still gets a liquidity label.
	if data.Side.Present {
		trade.Side = core.OrderSide(data.Side.Value)
		trade.TakerOrMaker = n.liquidity(trade.Side)
	}

	if trade.Price, err = core.ParseDecimal(data.Price); err != nil {
		return nil, err
	}
	if trade.Amount, err = core.ParseDecimal(data.Volume); err != nil {
		return nil, err
	}
	if trade.Cost, err = core.ParseDecimal(data.Funds); err != nil {
		return nil, err
	}
	if trade.Cost == nil {
		if trade.Cost, err = core.MulDecimal(trade.Price, trade.Amount); err != nil {
			return nil, fmt.Errorf("calculate cost: %w", err)
		}
	}

	return trade, nil
}

// NormalizeTrades converts raw trades and applies the since/limit window.
func (n *Normalizer) NormalizeTrades(data []graviexTrade, market *core.Market, since int64, limit int) ([]core.Trade, error) {
	trades := make([]core.Trade, 0, len(data))
	for i := range data {
		trade, err := n.NormalizeTrade(&data[i], market)
		if err != nil {
			return nil, fmt.Errorf("normalize trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	return filterBySinceLimit(trades, func(t core.Trade) int64 { return t.Timestamp }, since, limit), nil
}

// NormalizeOHLCV converts one positional candle
// [timestamp, open, high, low, close, volume] with the timestamp in seconds.
func (n *Normalizer) NormalizeOHLCV(data []core.Number) (*core.OHLCV, error) {
	if len(data) != 6 {
		return nil, core.NewFormatError("ohlcv must have 6 elements, got %d", len(data))
	}

	sec, err := data[0].Int64()
	if err != nil {
		return nil, fmt.Errorf("parse ohlcv time: %w", err)
	}
	candle := &core.OHLCV{Timestamp: core.SecondsToMillis(sec)}

	for i, dest := range []*apd.Decimal{&candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume} {
		d, err := core.ParseDecimal(data[i+1])
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, core.NewFormatError("ohlcv element %d is null", i+1)
		}
		dest.Set(d)
	}

	return candle, nil
}

// NormalizeOHLCVs converts a candle series, ordered by time.
func (n *Normalizer) NormalizeOHLCVs(data [][]core.Number, since int64, limit int) ([]core.OHLCV, error) {
	candles := make([]core.OHLCV, 0, len(data))
	for _, row := range data {
		candle, err := n.NormalizeOHLCV(row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, *candle)
	}
	return filterBySinceLimit(candles, func(c core.OHLCV) int64 { return c.Timestamp }, since, limit), nil
}

// NormalizeOrderBook converts a depth snapshot. Bids are returned best
// (highest) first and asks best (lowest) first.
func (n *Normalizer) NormalizeOrderBook(data *graviexOrderBook, symbol string) (*core.OrderBook, error) {
	sec, err := data.Timestamp.Int64()
	if err != nil {
		return nil, fmt.Errorf("parse order book time: %w", err)
	}
	ts := core.SecondsToMillis(sec)

	bids, err := normalizeOrderBookLevels(data.Bids)
	if err != nil {
		return nil, fmt.Errorf("normalize bids: %w", err)
	}
	asks, err := normalizeOrderBookLevels(data.Asks)
	if err != nil {
		return nil, fmt.Errorf("normalize asks: %w", err)
	}

	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Price.Cmp(&bids[j].Price) > 0 })
	sort.SliceStable(asks, func(i, j int) bool { return asks[i].Price.Cmp(&asks[j].Price) < 0 })

	return &core.OrderBook{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: ts,
		Datetime:  core.ISO8601(ts),
	}, nil
}

func normalizeOrderBookLevels(levels [][]core.Number) ([]core.OrderBookLevel, error) {
	result := make([]core.OrderBookLevel, 0, len(levels))
	for _, level := range levels {
		if len(level) < 2 {
			return nil, core.NewFormatError("order book level must have price and amount, got %d elements", len(level))
		}
		price, err := core.ParseDecimal(level[0])
		if err != nil {
			return nil, err
		}
		amount, err := core.ParseDecimal(level[1])
		if err != nil {
			return nil, err
		}
		if price == nil || amount == nil {
			return nil, core.NewFormatError("order book level has null price or amount")
		}
		result = append(result, core.OrderBookLevel{Price: *price, Amount: *amount})
	}
	return result, nil
}

// NormalizeOrder converts a raw order into a fresh snapshot.
func (n *Normalizer) NormalizeOrder(data *graviexOrder, market *core.Market) (*core.Order, error) {
	if data.ID.IsAbsent() {
		return nil, core.NewFormatError("order has no id")
	}
	symbol, err := n.resolveSymbol(data.Market, market)
	if err != nil {
		return nil, err
	}

	ts, err := eventTime(data.At, data.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse order time: %w", err)
	}

	order := &core.Order{
		ID:        data.ID.String(),
		Timestamp: ts,
		Datetime:  core.ISO8601(ts),
		Symbol:    symbol,
		Type:      core.OrderType(data.OrdType),
		Side:      core.OrderSide(data.Side),
		Status:    parseOrderStatus(data.State),
		Trades:    []core.Trade{},
		Info:      *data,
	}

	fields := []struct {
		dest **apd.Decimal
		src  core.Number
	}{
		{&order.Price, data.Price},
		{&order.Average, data.AvgPrice},
		{&order.Amount, data.Volume},
		{&order.Filled, data.ExecutedVolume},
		{&order.Remaining, data.RemainingVolume},
	}
	for _, f := range fields {
		if *f.dest, err = core.ParseDecimal(f.src); err != nil {
			return nil, err
		}
	}

	if order.TradesCount, err = data.TradesCount.Int64(); err != nil {
		return nil, err
	}

	orderMarket := market
	if orderMarket == nil {
		orderMarket = &core.Market{ID: data.Market, Symbol: symbol}
	}
	for i := range data.Trades {
		trade, err := n.NormalizeTrade(&data.Trades[i], orderMarket)
		if err != nil {
			return nil, fmt.Errorf("normalize order trade: %w", err)
		}
		if trade.OrderID == "" {
			trade.OrderID = order.ID
		}
		order.Trades = append(order.Trades, *trade)
	}

	return order, nil
}

// NormalizeOrders converts raw orders and applies the since/limit window.
func (n *Normalizer) NormalizeOrders(data []graviexOrder, market *core.Market, since int64, limit int) ([]core.Order, error) {
	orders := make([]core.Order, 0, len(data))
	for i := range data {
		order, err := n.NormalizeOrder(&data[i], market)
		if err != nil {
			return nil, fmt.Errorf("normalize order: %w", err)
		}
		orders = append(orders, *order)
	}
	return filterBySinceLimit(orders, func(o core.Order) int64 { return o.Timestamp }, since, limit), nil
}

// NormalizeBalance converts members/me into balances keyed by currency code.
func (n *Normalizer) NormalizeBalance(data *graviexMember) (core.Balances, error) {
	balances := make(core.Balances, len(data.AccountsFiltered))
	for _, acc := range data.AccountsFiltered {
		if acc.Currency == "" {
			continue
		}
		free, err := core.ParseDecimal(acc.Balance)
		if err != nil {
			return nil, fmt.Errorf("parse %s balance: %w", acc.Currency, err)
		}
		used, err := core.ParseDecimal(acc.Locked)
		if err != nil {
			return nil, fmt.Errorf("parse %s locked: %w", acc.Currency, err)
		}
		code := currencyCode(acc.Currency)
		balances[code] = core.Balance{Currency: code, Free: free, Used: used}
	}
	return balances, nil
}

// NormalizeTransaction converts a deposit or withdrawal record. kind is the
// type the caller asked the exchange for; TransactionTypeUnknown infers it
// from the presence of cancel_requested.
func (n *Normalizer) NormalizeTransaction(data *graviexTransaction, kind core.TransactionType) (*core.Transaction, error) {
	var ts int64
	if data.CreatedAt != "" {
		var err error
		if ts, err = core.ParseISO8601(data.CreatedAt); err != nil {
			return nil, err
		}
	}

	if kind == core.TransactionTypeUnknown {
		kind = core.TransactionTypeDeposit
		if data.CancelRequested != nil {
			kind = core.TransactionTypeWithdrawal
		}
	}

	code := ""
	if data.Currency != "" {
		code = currencyCode(data.Currency)
	}

	tx := &core.Transaction{
		ID:        data.ID.String(),
		TxID:      data.TxID,
		Timestamp: ts,
		Datetime:  core.ISO8601(ts),
		Type:      kind,
		Currency:  code,
		Info:      *data,
	}

	var err error
	if tx.Amount, err = core.ParseDecimal(data.Amount); err != nil {
		return nil, err
	}

	feeCost, err := core.ParseDecimal(data.Fee)
	if err != nil {
		return nil, err
	}
	if feeCost != nil {
		tx.Fee = &core.Fee{Currency: code, Cost: feeCost}
	}

	switch {
	case data.CancelRequested != nil && truthy(*data.CancelRequested):
		tx.Status = core.TransactionCanceled
	case data.State != "":
		tx.Status = parseTransactionStatus(data.State)
	default:
		tx.Status = parseTransactionStatus(data.Code)
	}

	return tx, nil
}

// NormalizeTransactions converts a list of records, filtering by currency
// code when one is given.
func (n *Normalizer) NormalizeTransactions(data []graviexTransaction, kind core.TransactionType, currency string, since int64, limit int) ([]core.Transaction, error) {
	txs := make([]core.Transaction, 0, len(data))
	for i := range data {
		tx, err := n.NormalizeTransaction(&data[i], kind)
		if err != nil {
			return nil, fmt.Errorf("normalize transaction: %w", err)
		}
		if currency != "" && tx.Currency != currency {
			continue
		}
		txs = append(txs, *tx)
	}
	return filterBySinceLimit(txs, func(t core.Transaction) int64 { return t.Timestamp }, since, limit), nil
}

// NormalizeDepositAddress validates and wraps an address already decoded
// from the double-encoded response.
func (n *Normalizer) NormalizeDepositAddress(address, currency string) (*core.DepositAddress, error) {
	if err := checkAddress(address); err != nil {
		return nil, err
	}
	return &core.DepositAddress{
		Currency: currency,
		Address:  address,
		Info:     address,
	}, nil
}

// decodeDoubleEncoded unwraps deposit_address and gen_deposit_address
// bodies, which are a JSON string whose content is itself a JSON string.
func decodeDoubleEncoded(body []byte) (string, error) {
	var inner string
	if err := sonic.Unmarshal(body, &inner); err != nil {
		return "", core.NewFormatError("deposit address body is not a JSON string: %v", err)
	}
	var value string
	if err := sonic.UnmarshalString(inner, &value); err != nil {
		return "", core.NewFormatError("deposit address is not double-encoded: %v", err)
	}
	return value, nil
}

func checkAddress(address string) error {
	if address == "" || strings.IndexFunc(address, isSpace) >= 0 {
		return core.NewExchangeError(exchangeName, core.ErrorTypeAddress, 0,
			fmt.Sprintf("address is invalid or has less than 1 characters: %q", address)).
			WithCode(core.ErrCodeInvalidAddress)
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

// resolveSymbol maps a raw market id to BASE/QUOTE. The hint wins when id is
// empty or equal to the hint's id.
func (n *Normalizer) resolveSymbol(id string, hint *core.Market) (string, error) {
	if hint != nil && (id == "" || id == hint.ID) {
		return hint.Symbol, nil
	}
	if id == "" {
		return "", nil
	}
	if n.markets != nil {
		if m, ok := n.markets.MarketByID(id); ok {
			return m.Symbol, nil
		}
		if m, ok := n.markets.MarketBySymbol(id); ok {
			return m.Symbol, nil
		}
	}
	return splitMarketID(id)
}

// fallbackQuotes are tried as id suffixes for markets missing from the cache.
var fallbackQuotes = []string{"usdt", "btc", "eth", "doge", "ltc", "bch"}

func splitMarketID(id string) (string, error) {
	if base, quote, ok := strings.Cut(id, "_"); ok && base != "" && quote != "" {
		return currencyCode(base) + "/" + currencyCode(quote), nil
	}
	if base, quote, ok := strings.Cut(id, "/"); ok && base != "" && quote != "" {
		return currencyCode(base) + "/" + currencyCode(quote), nil
	}
	lower := strings.ToLower(id)
	for _, q := range fallbackQuotes {
		if base, ok := strings.CutSuffix(lower, q); ok && base != "" {
			return currencyCode(base) + "/" + currencyCode(q), nil
		}
	}
	return "", core.NewExchangeError(exchangeName, core.ErrorTypeBadSymbol, 0,
		fmt.Sprintf("cannot resolve market id %q", id)).WithCode(core.ErrCodeBadSymbol)
}

// eventTime prefers the epoch-seconds "at" field and falls back to created_at.
func eventTime(at core.Number, createdAt string) (int64, error) {
	if !at.IsAbsent() {
		sec, err := at.Int64()
		if err != nil {
			return 0, err
		}
		return core.SecondsToMillis(sec), nil
	}
	if createdAt != "" {
		return core.ParseISO8601(createdAt)
	}
	return 0, nil
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case int64:
		return val != 0
	case string:
		return val != "" && val != "0" && val != "false"
	default:
		return true
	}
}

// filterBySinceLimit orders items by time, drops those before since and keeps
// at most limit. Zero since or limit disables that bound.
func filterBySinceLimit[T any](items []T, timestamp func(T) int64, since int64, limit int) []T {
	sort.SliceStable(items, func(i, j int) bool { return timestamp(items[i]) < timestamp(items[j]) })

	if since > 0 {
		start := sort.Search(len(items), func(i int) bool { return timestamp(items[i]) >= since })
		items = items[start:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
