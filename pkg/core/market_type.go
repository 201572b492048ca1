package core

// MarketType tags which flavour of a market's data an operation addresses.
type MarketType int

// Market type constants define the available trading market categories.
const (
	// MarketTypeSpot indicates regular spot trading data.
	MarketTypeSpot MarketType = iota
	// MarketTypeSimple selects the exchange's reduced "simple" feed for the
	// same spot market.
	MarketTypeSimple
)

// String returns the string representation of the market type ("spot" or "simple").
func (m MarketType) String() string {
	switch m {
	case MarketTypeSpot:
		return "spot"
	case MarketTypeSimple:
		return "simple"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m MarketType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
