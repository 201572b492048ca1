package core

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	type payload struct {
		Price Number `json:"price"`
	}

	tests := []struct {
		name   string
		input  string
		want   Number
		absent bool
	}{
		{name: "string", input: `{"price":"0.00000058"}`, want: "0.00000058"},
		{name: "number", input: `{"price":6.5e-7}`, want: "6.5e-7"},
		{name: "integer", input: `{"price":1643719320}`, want: "1643719320"},
		{name: "negative", input: `{"price":-1.5}`, want: "-1.5"},
		{name: "null", input: `{"price":null}`, absent: true},
		{name: "missing", input: `{}`, absent: true},
		{name: "empty_string", input: `{"price":""}`, absent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			require.NoError(t, sonic.Unmarshal([]byte(tt.input), &p))
			assert.Equal(t, tt.absent, p.Price.IsAbsent())
			if !tt.absent {
				assert.Equal(t, tt.want, p.Price)
			}
		})
	}
}

func TestNumber_UnmarshalJSON_Invalid(t *testing.T) {
	var n Number
	err := n.UnmarshalJSON([]byte(`true`))
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestNumber_MarshalJSON(t *testing.T) {
	data, err := Number("1.5").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1.5"`, string(data))

	data, err = Number("").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestNumber_Int64(t *testing.T) {
	tests := []struct {
		input   Number
		want    int64
		wantErr bool
	}{
		{input: "1643628427", want: 1643628427},
		{input: "1643628427.0", want: 1643628427},
		{input: "1.6e9", want: 1600000000},
		{input: "", want: 0},
		{input: "1.5", wantErr: true},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			got, err := tt.input.Int64()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsFormatError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDecimal("6.5e-7")
	require.NoError(t, err)
	assert.Equal(t, "0.00000065", FormatDecimal(d))

	d, err = ParseDecimal("70673.0412")
	require.NoError(t, err)
	assert.Equal(t, "70673.0412", FormatDecimal(d))

	_, err = ParseDecimal("1.2.3")
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "", FormatDecimal(nil))
	assert.Equal(t, "0.00000058", FormatDecimal(MustDecimal("5.8E-7")))
	assert.Equal(t, "0", FormatDecimal(MustDecimal("0")))
	assert.Equal(t, "120", FormatDecimal(MustDecimal("1.2E+2")))
}

func TestMulDecimal(t *testing.T) {
	got, err := MulDecimal(MustDecimal("0.00000058"), MustDecimal("1000"))
	require.NoError(t, err)
	assert.Equal(t, "0.00058000", FormatDecimal(got))

	got, err = MulDecimal(nil, MustDecimal("1"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAmountToPrecision(t *testing.T) {
	tests := []struct {
		input  string
		places int32
		want   string
	}{
		{input: "1.123456789", places: 8, want: "1.12345678"},
		{input: "1.999999999", places: 8, want: "1.99999999"},
		{input: "10", places: 8, want: "10"},
		{input: "0.0010", places: 8, want: "0.001"},
		{input: "0.000000001", places: 8, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := AmountToPrecision(MustDecimal(tt.input), tt.places)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceToPrecision(t *testing.T) {
	tests := []struct {
		input  string
		places int32
		want   string
	}{
		{input: "0.000000055", places: 8, want: "0.00000006"},
		{input: "0.000000054", places: 8, want: "0.00000005"},
		{input: "1.5", places: 0, want: "2"},
		{input: "0.00000058", places: 8, want: "0.00000058"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := PriceToPrecision(MustDecimal(tt.input), tt.places)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PriceToPrecision(nil, 8)
	assert.True(t, IsFormatError(err))
}

func TestTimestamps(t *testing.T) {
	assert.Equal(t, int64(1643628427000), SecondsToMillis(1643628427))
	assert.Equal(t, "2022-01-31T11:27:07.000Z", ISO8601(1643628427000))
	assert.Equal(t, "", ISO8601(0))

	ms, err := ParseISO8601("2022-01-31T14:27:07+03:00")
	require.NoError(t, err)
	assert.Equal(t, int64(1643628427000), ms)

	ms, err = ParseISO8601("2022-01-31T11:27:07.250Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1643628427250), ms)

	ms, err = ParseISO8601("2022-01-31 11:27:07")
	require.NoError(t, err)
	assert.Equal(t, int64(1643628427000), ms)

	_, err = ParseISO8601("yesterday")
	assert.True(t, IsFormatError(err))
}
