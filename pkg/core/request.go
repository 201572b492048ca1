package core

import (
	"maps"
	"regexp"
)

// Params carries logical request parameters before they are encoded.
type Params map[string]any

// Clone returns a shallow copy of p. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Extend returns a copy of p with every entry of other written over it.
func (p Params) Extend(other Params) Params {
	out := p.Clone()
	maps.Copy(out, other)
	return out
}

// Omit returns a copy of p without the given keys.
func (p Params) Omit(keys ...string) Params {
	out := p.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Access tells whether an endpoint needs a signature.
type Access int

const (
	AccessPublic Access = iota
	AccessPrivate
)

// String returns "public" or "private".
func (a Access) String() string {
	if a == AccessPrivate {
		return "private"
	}
	return "public"
}

// Endpoint identifies one REST route of an exchange API.
type Endpoint struct {
	Access Access `json:"access"`
	Method string `json:"method"`
	// Path is relative to the API base and may hold {name} placeholders.
	Path string `json:"path"`
}

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Placeholders returns the names of the {name} placeholders in the path, in order.
func (e Endpoint) Placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(e.Path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Request is a fully built, dispatchable request descriptor.
type Request struct {
	Method string `json:"method"`
	// URL is absolute, query string included.
	URL string `json:"url"`
	// Path is the logical endpoint path the request was built from.
	Path        string            `json:"path"`
	Body        string            `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Weight      int               `json:"weight"`
	RequireAuth bool              `json:"require_auth"`
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
		Weight:  1,
	}
}

func (r *Request) SetURL(url string) *Request {
	r.URL = url
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetWeight(weight int) *Request {
	r.Weight = weight
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

// Response is the raw outcome of a dispatched request.
type Response struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int
	// Body contains the raw response body bytes.
	Body []byte
	// Headers contains the response headers as key-value pairs.
	Headers map[string]string
}

// IsError returns true if the response status code indicates an error (4xx or 5xx).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}
