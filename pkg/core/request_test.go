package core

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest(http.MethodGet, "markets")

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "markets", req.Path)
	assert.NotNil(t, req.Headers)
	assert.Equal(t, 1, req.Weight)
	assert.False(t, req.RequireAuth)
}

func TestRequest_Chained(t *testing.T) {
	req := NewRequest(http.MethodPost, "orders").
		SetURL("https://graviex.net/webapi/v3/orders").
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody("a=1").
		SetWeight(2).
		SetRequireAuth(true)

	assert.Equal(t, "https://graviex.net/webapi/v3/orders", req.URL)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Headers["Content-Type"])
	assert.Equal(t, "a=1", req.Body)
	assert.Equal(t, 2, req.Weight)
	assert.True(t, req.RequireAuth)
}

func TestRequest_SetHeader_NilMap(t *testing.T) {
	req := &Request{}
	req.SetHeader("X-Test", "v")
	assert.Equal(t, "v", req.Headers["X-Test"])
}

func TestParams_CloneExtendOmit(t *testing.T) {
	p := Params{"market": "giobtc", "limit": 10}

	clone := p.Clone()
	clone["limit"] = 20
	assert.Equal(t, 10, p["limit"])

	ext := p.Extend(Params{"limit": 5, "order_by": "desc"})
	assert.Equal(t, Params{"market": "giobtc", "limit": 5, "order_by": "desc"}, ext)
	assert.Equal(t, 10, p["limit"])

	omitted := p.Omit("market", "missing")
	assert.Equal(t, Params{"limit": 10}, omitted)
	assert.Contains(t, p, "market")

	var nilParams Params
	assert.NotNil(t, nilParams.Clone())
}

func TestEndpoint_Placeholders(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"tickers/{market}", []string{"market"}},
		{"markets", []string{}},
		{"a/{x}/b/{y}", []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ep := Endpoint{Path: tt.path}
			assert.Equal(t, tt.want, ep.Placeholders())
		})
	}
}

func TestAccess_String(t *testing.T) {
	assert.Equal(t, "public", AccessPublic.String())
	assert.Equal(t, "private", AccessPrivate.String())
}
