package graviex

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"graviex/pkg/core"
)

const (
	exchangeName = "graviex"
	apiVersion   = "v3"

	ProductionURL = "https://graviex.net/webapi/v3"

	// signPrefix is prepended to the endpoint path in the signing payload.
	signPrefix = "/webapi/v3/"

	amountPrecision int32 = 8
	pricePrecision  int32 = 8

	// requestInterval is the minimum spacing between requests, in milliseconds.
	requestInterval = 300
)

func minAmount() *apd.Decimal { return core.MustDecimal("0.001") }

func public(path string) core.Endpoint {
	return core.Endpoint{Access: core.AccessPublic, Method: http.MethodGet, Path: path}
}

func privateGet(path string) core.Endpoint {
	return core.Endpoint{Access: core.AccessPrivate, Method: http.MethodGet, Path: path}
}

func privatePost(path string) core.Endpoint {
	return core.Endpoint{Access: core.AccessPrivate, Method: http.MethodPost, Path: path}
}

// Public endpoints.
var (
	PublicTimestamp          = public("timestamp")
	PublicMarkets            = public("markets")
	PublicTickers            = public("tickers")
	PublicTicker             = public("tickers/{market}")
	PublicDepth              = public("depth")
	PublicTrades             = public("trades")
	PublicTradesSimple       = public("trades_simple")
	PublicK                  = public("k")
	PublicKWithPendingTrades = public("k_with_pending_trades")
	PublicCurrencyInfo       = public("currency/info")
)

// Private GET endpoints.
var (
	PrivateOrderBook         = privateGet("order_book")
	PrivateMembersMe         = privateGet("members/me")
	PrivateDeposits          = privateGet("deposits")
	PrivateDeposit           = privateGet("deposit")
	PrivateDepositAddress    = privateGet("deposit_address")
	PrivateOrders            = privateGet("orders")
	PrivateOrder             = privateGet("order")
	PrivateTradesMy          = privateGet("trades/my")
	PrivateTradesHistory     = privateGet("trades/history")
	PrivateOrdersHistory     = privateGet("orders/history")
	PrivateGenDepositAddress = privateGet("gen_deposit_address")
	PrivateAccountSettings   = privateGet("account/settings")
	PrivateFundSources       = privateGet("fund_sources")
	PrivateStrategiesList    = privateGet("strategies/list")
	PrivateStrategiesMy      = privateGet("strategies/my")
)

// Private POST endpoints.
var (
	PrivateCreateOrder        = privatePost("orders")
	PrivateOrdersMulti        = privatePost("orders/multi")
	PrivateOrdersClear        = privatePost("orders/clear")
	PrivateOrderDelete        = privatePost("order/delete")
	PrivateAccountStore       = privatePost("account/store")
	PrivateCreateFundSource   = privatePost("create_fund_source")
	PrivateRemoveFundSource   = privatePost("remove_funs_source")
	PrivateStrategyCancel     = privatePost("strategy/cancel")
	PrivateStrategyCreate     = privatePost("strategy/create")
	PrivateStrategyUpdate     = privatePost("strategy/update")
	PrivateStrategyActivate   = privatePost("strategy/activate")
	PrivateStrategyDeactivate = privatePost("strategy/deactivate")
)

// Endpoints returns every REST endpoint of the API.
func Endpoints() []core.Endpoint {
	return []core.Endpoint{
		PublicTimestamp, PublicMarkets, PublicTickers, PublicTicker, PublicDepth,
		PublicTrades, PublicTradesSimple, PublicK, PublicKWithPendingTrades, PublicCurrencyInfo,

		PrivateOrderBook, PrivateMembersMe, PrivateDeposits, PrivateDeposit, PrivateDepositAddress,
		PrivateOrders, PrivateOrder, PrivateTradesMy, PrivateTradesHistory, PrivateOrdersHistory,
		PrivateGenDepositAddress, PrivateAccountSettings, PrivateFundSources, PrivateStrategiesList,
		PrivateStrategiesMy,

		PrivateCreateOrder, PrivateOrdersMulti, PrivateOrdersClear, PrivateOrderDelete,
		PrivateAccountStore, PrivateCreateFundSource, PrivateRemoveFundSource, PrivateStrategyCancel,
		PrivateStrategyCreate, PrivateStrategyUpdate, PrivateStrategyActivate, PrivateStrategyDeactivate,
	}
}

// tradeFeeds selects the public trades endpoint per market type.
var tradeFeeds = map[core.MarketType]core.Endpoint{
	core.MarketTypeSpot:   PublicTrades,
	core.MarketTypeSimple: PublicTradesSimple,
}

// timeframes maps unified timeframes to the k endpoint's period in minutes.
var timeframes = map[string]string{
	"1m":  "1",
	"5m":  "5",
	"15m": "15",
	"30m": "30",
	"1h":  "60",
	"2h":  "120",
	"4h":  "240",
	"6h":  "360",
	"12h": "720",
	"1d":  "1440",
	"3d":  "4320",
	"1w":  "10080",
}

// Protocol implements the core.Protocol interface for Graviex.
// It builds and signs requests and classifies error responses; it never
// performs I/O.
type Protocol struct {
	baseURL string
	nonce   NonceSource
}

// NewProtocol creates a protocol for the given API base URL. An empty URL
// selects ProductionURL; a nil nonce source selects a MonotonicNonce.
func NewProtocol(baseURL string, nonce NonceSource) *Protocol {
	if baseURL == "" {
		baseURL = ProductionURL
	}
	if nonce == nil {
		nonce = NewMonotonicNonce()
	}
	return &Protocol{baseURL: strings.TrimRight(baseURL, "/"), nonce: nonce}
}

var _ core.Protocol = (*Protocol)(nil)

// Name returns the protocol identifier "graviex".
func (p *Protocol) Name() string {
	return exchangeName
}

// Version returns the API version string.
func (p *Protocol) Version() string {
	return apiVersion
}

// BaseURL returns the API base URL without a trailing slash.
func (p *Protocol) BaseURL() string {
	return p.baseURL
}

// SupportedOperations returns the list of operations supported by this protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpFetchTime,
		core.OpFetchMarkets,
		core.OpFetchTicker,
		core.OpFetchTickers,
		core.OpFetchTrades,
		core.OpFetchOHLCV,
		core.OpFetchOrderBook,
		core.OpFetchBalance,
		core.OpFetchDepositAddress,
		core.OpCreateDepositAddress,
		core.OpFetchDeposit,
		core.OpFetchDeposits,
		core.OpFetchOrder,
		core.OpFetchOrders,
		core.OpFetchClosedOrders,
		core.OpFetchMyTrades,
		core.OpFetchTradesHistory,
		core.OpCreateOrder,
		core.OpCancelOrder,
		core.OpCancelAllOrders,
	}
}

// RateLimits returns one request per 300ms with no burst.
func (p *Protocol) RateLimits() core.RateLimitConfig {
	return core.RateLimitConfig{
		RequestsPerSecond: 1000.0 / requestInterval,
		Burst:             1,
	}
}

// HandleErrors classifies an exchange response. See classifyResponse.
func (p *Protocol) HandleErrors(resp *core.Response) error {
	return classifyResponse(resp)
}

// BuildRequest turns an endpoint and its parameters into a dispatchable
// request. Placeholders such as {market} are filled from params and removed
// from the query. Private endpoints are signed: GET carries the signature in
// the query string, other methods in a form-encoded body.
func (p *Protocol) BuildRequest(ep core.Endpoint, params core.Params, creds *core.Credentials) (*core.Request, error) {
	path, consumed, err := implodePath(ep, params)
	if err != nil {
		return nil, err
	}
	query := params.Omit(consumed...)

	req := core.NewRequest(ep.Method, path)
	rawURL := p.baseURL + "/" + path

	if ep.Access == core.AccessPublic {
		// A public path placeholder replaces the query string entirely.
		if len(consumed) == 0 && len(query) > 0 {
			rawURL += "?" + EncodeParams(query)
		}
		return req.SetURL(rawURL), nil
	}

	signer, err := NewSigner(creds, p.nonce)
	if err != nil {
		return nil, err
	}
	signed := signer.Sign(ep.Method, signPrefix+path, query)

	req.SetRequireAuth(true)
	if ep.Method == http.MethodGet {
		return req.SetURL(rawURL + "?" + signed), nil
	}
	return req.SetURL(rawURL).
		SetBody(signed).
		SetHeader("Content-Type", "application/x-www-form-urlencoded"), nil
}

// implodePath substitutes {name} placeholders and returns the names it used.
func implodePath(ep core.Endpoint, params core.Params) (string, []string, error) {
	names := ep.Placeholders()
	path := ep.Path
	for _, name := range names {
		value, err := getRequiredStringParam(params, name)
		if err != nil {
			return "", nil, core.NewArgumentsMissing(exchangeName,
				fmt.Sprintf("%s requires the %q parameter", ep.Path, name))
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	return path, names, nil
}

func getRequiredStringParam(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}

	str := paramString(val)
	if str == "" {
		return "", fmt.Errorf("parameter %s cannot be empty", key)
	}
	return str, nil
}

func getStringParamWithDefault(params core.Params, key, def string) string {
	if val, ok := params[key]; ok {
		if str := paramString(val); str != "" {
			return str
		}
	}
	return def
}

func getIntParamWithDefault(params core.Params, key string, def int) int {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case string:
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
	}
	return def
}

var currencyAliases = map[string]string{
	"XBT": "BTC",
	"BCC": "BCH",
}

// currencyCode converts an exchange currency id to a unified code.
func currencyCode(id string) string {
	code := strings.ToUpper(id)
	if alias, ok := currencyAliases[code]; ok {
		return alias
	}
	return code
}

// currencyID converts a unified currency code to the exchange id.
func currencyID(code string) string {
	return strings.ToLower(code)
}
