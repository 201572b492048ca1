package graviex

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"graviex/pkg/core"
)

// exactErrors maps exchange error codes to error types. Matching is exact.
var exactErrors = map[string]core.ErrorType{
	"2002": core.ErrorTypeInvalidOrder,   // Failed to create order. Reason: Volume is too small
	"1001": core.ErrorTypeExchange,       // market does not have a valid value
	"2008": core.ErrorTypeAuthentication, // The access key does not exist.
}

// classifyResponse returns a typed error for an exchange error envelope, or
// for an HTTP error status when the body carries no envelope. Successful
// responses yield nil.
func classifyResponse(resp *core.Response) error {
	if resp == nil {
		return core.NewExchangeError(exchangeName, core.ErrorTypeNetwork, 0, "nil response").
			WithCode(core.ErrCodeNetwork)
	}

	if code, message, ok := decodeErrorEnvelope(resp.Body); ok {
		feedback := exchangeName + " " + string(resp.Body)
		errType, mapped := exactErrors[code]
		if !mapped {
			return core.NewExchangeErrorWithCode(exchangeName, core.ErrorTypeExchange, resp.StatusCode, code, feedback).
				WithRaw(feedback)
		}
		if message == "" {
			message = feedback
		}
		return core.NewExchangeErrorWithCode(exchangeName, errType, resp.StatusCode, code, message).
			WithRaw(feedback)
	}

	if resp.IsError() {
		return core.NewExchangeError(exchangeName, mapStatusCodeToErrorType(resp.StatusCode), resp.StatusCode,
			fmt.Sprintf("HTTP %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), resp.Body)).
			WithRaw(string(resp.Body))
	}

	return nil
}

// decodeErrorEnvelope reports the error code and message when body is a JSON
// object with an error member carrying a code. Fields are read one by one so
// a sibling of an unexpected type cannot hide the code.
func decodeErrorEnvelope(body []byte) (code, message string, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", "", false
	}

	code, _ = envelopeField(trimmed, "code")
	if code == "" {
		return "", "", false
	}
	if text, isString := envelopeField(trimmed, "message"); isString {
		message = text
	}
	return code, message, true
}

// envelopeField returns error.<name> as text and whether it was a JSON
// string. Strings are unquoted, null and missing give "", anything else
// keeps its raw JSON.
func envelopeField(body []byte, name string) (string, bool) {
	node, err := sonic.Get(body, "error", name)
	if err != nil {
		return "", false
	}
	raw, err := node.Raw()
	if err != nil {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "null":
		return "", false
	case raw[0] == '"':
		var s string
		if err := sonic.UnmarshalString(raw, &s); err != nil {
			return "", false
		}
		return s, true
	default:
		return raw, false
	}
}

func mapStatusCodeToErrorType(statusCode int) core.ErrorType {
	switch {
	case statusCode >= 500:
		return core.ErrorTypeServerError
	case statusCode == http.StatusTooManyRequests:
		return core.ErrorTypeRateLimit
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return core.ErrorTypeAuthentication
	case statusCode == http.StatusNotFound:
		return core.ErrorTypeNotFound
	case statusCode >= 400:
		return core.ErrorTypeBadRequest
	default:
		return core.ErrorTypeUnknown
	}
}
