package graviex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graviex/pkg/core"
)

func fixedNonce(n int64) NonceSource {
	return NonceFunc(func() int64 { return n })
}

func TestEncodeParams(t *testing.T) {
	tests := []struct {
		name   string
		params core.Params
		want   string
	}{
		{
			name:   "empty",
			params: core.Params{},
			want:   "",
		},
		{
			name:   "sorted",
			params: core.Params{"tonce": "1", "access_key": "key", "market": "giobtc"},
			want:   "access_key=key&market=giobtc&tonce=1",
		},
		{
			name:   "scalars",
			params: core.Params{"limit": 50, "desc": true, "price": 0.5, "volume": core.MustDecimal("5.8E-7")},
			want:   "desc=true&limit=50&price=0.5&volume=0.00000058",
		},
		{
			name:   "escaping",
			params: core.Params{"note": "a b&c=d/e"},
			want:   "note=a%20b%26c%3Dd%2Fe",
		},
		{
			name: "nested",
			params: core.Params{
				"market": "giobtc",
				"orders": []core.Params{
					{"side": "buy", "volume": "1"},
					{"side": "sell", "volume": "2"},
				},
			},
			want: "market=giobtc" +
				"&orders%5B0%5D%5Bside%5D=buy&orders%5B0%5D%5Bvolume%5D=1" +
				"&orders%5B1%5D%5Bside%5D=sell&orders%5B1%5D%5Bvolume%5D=2",
		},
		{
			name:   "side_enum",
			params: core.Params{"side": core.SideSell},
			want:   "side=sell",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeParams(tt.params))
		})
	}
}

func TestEncodeParams_OrderIndependent(t *testing.T) {
	keys := []string{"market", "side", "volume", "price", "ord_type", "tonce", "access_key"}
	values := map[string]string{
		"market": "giobtc", "side": "buy", "volume": "10", "price": "0.00000058",
		"ord_type": "limit", "tonce": "1643628427000", "access_key": "key",
	}

	var want string
	for shift := range keys {
		params := core.Params{}
		for i := range keys {
			k := keys[(i+shift)%len(keys)]
			params[k] = values[k]
		}
		got := EncodeParams(params)
		if want == "" {
			want = got
		}
		assert.Equal(t, want, got)
	}
}

func TestSigner_Sign(t *testing.T) {
	signer, err := NewSigner(&core.Credentials{APIKey: "key", SecretKey: "secret"}, fixedNonce(1643628427000))
	require.NoError(t, err)

	got := signer.Sign("GET", "/webapi/v3/orders", core.Params{"market": "giobtc"})

	query := "access_key=key&market=giobtc&tonce=1643628427000"
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("GET|/webapi/v3/orders|" + query))
	reference := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, query+"&signature="+reference, got)
	assert.NotContains(t, got, "secret")
}

func TestSigner_Deterministic(t *testing.T) {
	signer, err := NewSigner(&core.Credentials{APIKey: "key", SecretKey: "secret"}, fixedNonce(42))
	require.NoError(t, err)

	a := signer.Sign("POST", "/webapi/v3/orders", core.Params{"market": "giobtc", "side": "buy", "volume": "1"})
	b := signer.Sign("POST", "/webapi/v3/orders", core.Params{"volume": "1", "side": "buy", "market": "giobtc"})
	assert.Equal(t, a, b)

	c := signer.Sign("GET", "/webapi/v3/orders", core.Params{"market": "giobtc", "side": "buy", "volume": "1"})
	assert.NotEqual(t, a, c, "method is part of the payload")
}

func TestSigner_CallerParamsUntouched(t *testing.T) {
	signer, err := NewSigner(&core.Credentials{APIKey: "key", SecretKey: "secret"}, fixedNonce(1))
	require.NoError(t, err)

	params := core.Params{"market": "giobtc"}
	signer.Sign("GET", "/webapi/v3/orders", params)
	assert.Equal(t, core.Params{"market": "giobtc"}, params)
}

func TestNewSigner_MissingCredentials(t *testing.T) {
	for _, creds := range []*core.Credentials{
		nil,
		{APIKey: "key"},
		{SecretKey: "secret"},
	} {
		_, err := NewSigner(creds, nil)
		require.Error(t, err)
		assert.True(t, core.IsAuthenticationError(err))
		assert.True(t, core.IsErrorCode(err, core.ErrCodeNoCredentials))
	}
}

func TestMonotonicNonce(t *testing.T) {
	now := time.UnixMilli(1000)
	n := NewMonotonicNonce()
	n.now = func() time.Time { return now }

	assert.Equal(t, int64(1000), n.Nonce())
	assert.Equal(t, int64(1001), n.Nonce(), "same millisecond")

	now = time.UnixMilli(500)
	assert.Equal(t, int64(1002), n.Nonce(), "clock stepped back")

	now = time.UnixMilli(5000)
	assert.Equal(t, int64(5000), n.Nonce())
}

func TestMonotonicNonce_Concurrent(t *testing.T) {
	n := NewMonotonicNonce()
	const workers, perWorker = 8, 200

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, n.Nonce())
			}
			mu.Lock()
			for _, v := range local {
				seen[v] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestSignHMAC(t *testing.T) {
	// RFC 4231 test case 2
	got := signHMAC("what do ya want for nothing?", "Jefe")
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
	assert.Len(t, got, 64)
	assert.Equal(t, strings.ToLower(got), got)
}
