package core

import (
	"bytes"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
)

// Number is a numeric JSON field that may arrive as a string, a number or
// null. The literal text is kept verbatim so no precision is lost to a float
// round-trip. The zero value is the absent marker.
type Number string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = ""
	case data[0] == '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return NewFormatError("invalid numeric string %s: %v", data, err)
		}
		*n = Number(s)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*n = Number(data)
	default:
		return NewFormatError("expected number, got %s", data)
	}
	return nil
}

// MarshalJSON writes the literal back as a JSON string, or null when absent.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.IsAbsent() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(string(n))), nil
}

// IsAbsent reports whether the field was missing, null or empty.
func (n Number) IsAbsent() bool {
	return n == ""
}

func (n Number) String() string {
	return string(n)
}

// Decimal parses the literal. Absent yields nil.
func (n Number) Decimal() (*apd.Decimal, error) {
	return ParseDecimal(n)
}

// Int64 parses the literal as an integer. It is meant for identifiers, counts
// and timestamps; absent yields zero.
func (n Number) Int64() (int64, error) {
	if n.IsAbsent() {
		return 0, nil
	}
	if v, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return v, nil
	}
	d, err := ParseDecimal(n)
	if err != nil {
		return 0, err
	}
	// "1643628427.0" and "1.6e9" are integral even though ParseInt refuses them.
	var integral apd.Decimal
	if _, err := decimalContext.Quantize(&integral, d, 0); err != nil {
		return 0, NewFormatError("invalid integer %q: %v", string(n), err)
	}
	if integral.Cmp(d) != 0 {
		return 0, NewFormatError("invalid integer %q: has a fractional part", string(n))
	}
	v, err := integral.Int64()
	if err != nil {
		return 0, NewFormatError("invalid integer %q: %v", string(n), err)
	}
	return v, nil
}

// decimalContext has enough digits for any price or volume the exchange sends.
var decimalContext = apd.BaseContext.WithPrecision(34)

// ParseDecimal parses an exchange numeric field. Absent yields nil, nil.
func ParseDecimal(n Number) (*apd.Decimal, error) {
	if n.IsAbsent() {
		return nil, nil
	}
	d, _, err := apd.NewFromString(string(n))
	if err != nil {
		return nil, NewFormatError("invalid decimal %q: %v", string(n), err)
	}
	return d, nil
}

// MustDecimal parses s and panics on failure. It is meant for constants.
func MustDecimal(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatDecimal renders d in plain notation. Nil renders as "".
func FormatDecimal(d *apd.Decimal) string {
	if d == nil {
		return ""
	}
	return d.Text('f')
}

// MulDecimal returns a*b, or nil when either operand is absent.
func MulDecimal(a, b *apd.Decimal) (*apd.Decimal, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	var out apd.Decimal
	if _, err := decimalContext.Mul(&out, a, b); err != nil {
		return nil, err
	}
	return &out, nil
}

// AmountToPrecision truncates d to places decimal places and drops trailing zeros.
func AmountToPrecision(d *apd.Decimal, places int32) (string, error) {
	return toPrecision(d, places, apd.RoundDown)
}

// PriceToPrecision rounds d half up to places decimal places and drops trailing zeros.
func PriceToPrecision(d *apd.Decimal, places int32) (string, error) {
	return toPrecision(d, places, apd.RoundHalfUp)
}

func toPrecision(d *apd.Decimal, places int32, rounding apd.Rounder) (string, error) {
	if d == nil {
		return "", NewFormatError("missing decimal value")
	}
	ctx := *decimalContext
	ctx.Rounding = rounding

	var out apd.Decimal
	if _, err := ctx.Quantize(&out, d, -places); err != nil {
		return "", NewFormatError("cannot round %s to %d places: %v", d.Text('f'), places, err)
	}
	out.Reduce(&out)
	return out.Text('f'), nil
}

// SecondsToMillis converts a unix timestamp in seconds to milliseconds.
func SecondsToMillis(sec int64) int64 {
	return sec * 1000
}

const iso8601Layout = "2006-01-02T15:04:05.000Z"

// ISO8601 renders epoch milliseconds as a UTC ISO-8601 string. Zero renders as "".
func ISO8601(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(iso8601Layout)
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseISO8601 parses a calendar timestamp into epoch milliseconds.
// Timestamps without a zone are read as UTC.
func ParseISO8601(s string) (int64, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, NewFormatError("invalid ISO-8601 timestamp %q", s)
}
