package graviex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"

	"graviex/pkg/core"
)

// NonceSource yields tonce values for signed requests.
type NonceSource interface {
	Nonce() int64
}

// NonceFunc adapts a function to the NonceSource interface.
type NonceFunc func() int64

// Nonce calls f().
func (f NonceFunc) Nonce() int64 { return f() }

// MonotonicNonce issues epoch milliseconds that strictly increase across
// calls, even when several calls land in the same millisecond or the wall
// clock steps backwards. Share one instance per credential.
type MonotonicNonce struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewMonotonicNonce creates a nonce source backed by the wall clock.
func NewMonotonicNonce() *MonotonicNonce {
	return &MonotonicNonce{now: time.Now}
}

// Nonce returns max(now, last+1) in epoch milliseconds.
func (n *MonotonicNonce) Nonce() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	ms := n.now().UnixMilli()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	return ms
}

// Signer signs private requests for a single credential.
type Signer struct {
	apiKey string
	secret string
	nonce  NonceSource
}

// NewSigner returns an authentication error when either half of the
// credential is missing.
func NewSigner(creds *core.Credentials, nonce NonceSource) (*Signer, error) {
	if !creds.Complete() {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeAuthentication, 0,
			"requires apiKey and secret credentials").WithCode(core.ErrCodeNoCredentials)
	}
	if nonce == nil {
		nonce = NewMonotonicNonce()
	}
	return &Signer{apiKey: creds.APIKey, secret: creds.SecretKey, nonce: nonce}, nil
}

// Sign extends params with access_key and tonce and returns the signed
// query ENCODED&signature=HEX for the given method and signing path.
func (s *Signer) Sign(method, path string, params core.Params) string {
	query := EncodeParams(params.Extend(core.Params{
		"access_key": s.apiKey,
		"tonce":      strconv.FormatInt(s.nonce.Nonce(), 10),
	}))
	payload := method + "|" + path + "|" + query
	return query + "&signature=" + signHMAC(payload, s.secret)
}

func signHMAC(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeParams renders params as a key-sorted URL-encoded form. Spaces are
// encoded as %20. Nested maps and slices use bracket notation, so
// {"orders": [{"side": "buy"}]} becomes orders%5B0%5D%5Bside%5D=buy.
func EncodeParams(params core.Params) string {
	var pairs [][2]string
	for _, k := range sortedKeys(params) {
		pairs = flattenParam(pairs, k, params[k])
	}

	var b strings.Builder
	for i, kv := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(kv[0]))
		b.WriteByte('=')
		b.WriteString(escape(kv[1]))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flattenParam(pairs [][2]string, key string, value any) [][2]string {
	switch v := value.(type) {
	case core.Params:
		return flattenMap(pairs, key, v)
	case map[string]any:
		return flattenMap(pairs, key, v)
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = append(pairs, [2]string{key + "[" + k + "]", v[k]})
		}
		return pairs
	case []string:
		for i, item := range v {
			pairs = append(pairs, [2]string{key + "[" + strconv.Itoa(i) + "]", item})
		}
		return pairs
	case []any:
		for i, item := range v {
			pairs = flattenParam(pairs, key+"["+strconv.Itoa(i)+"]", item)
		}
		return pairs
	case []core.Params:
		for i, item := range v {
			pairs = flattenMap(pairs, key+"["+strconv.Itoa(i)+"]", item)
		}
		return pairs
	}
	return append(pairs, [2]string{key, paramString(value)})
}

func flattenMap(pairs [][2]string, key string, m map[string]any) [][2]string {
	for _, k := range sortedKeys(m) {
		pairs = flattenParam(pairs, key+"["+k+"]", m[k])
	}
	return pairs
}

// paramString renders a scalar parameter value the way the API expects it.
func paramString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case *apd.Decimal:
		return core.FormatDecimal(val)
	case apd.Decimal:
		return val.Text('f')
	case fmt.Stringer:
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return ""
		}
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
