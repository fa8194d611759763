package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// SafeNumber coerces value to a finite float64. Nil, unparsable, NaN and
// infinite inputs yield fallback.
func SafeNumber(value any, fallback float64) float64 {
	var n float64

	switch v := value.(type) {
	case nil:
		return fallback
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case *float64:
		if v == nil {
			return fallback
		}
		n = *v
	case *int:
		if v == nil {
			return fallback
		}
		n = float64(*v)
	case decimal.Decimal:
		n = v.InexactFloat64()
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return fallback
		}
		n = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return fallback
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fallback
		}
		n = parsed
	default:
		return fallback
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return n
}

// RoundPrice rounds to two decimals, half-up on the cents boundary.
// Non-finite input yields 0.
func RoundPrice(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return roundDecimal(decimal.NewFromFloat(amount)).InexactFloat64()
}

// toDecimal converts a float to its shortest decimal representation, mapping
// non-finite values to zero. decimal.NewFromFloat panics on NaN and Inf.
func toDecimal(value float64) decimal.Decimal {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(value)
}

// roundDecimal rounds half toward positive infinity at two places, which is
// the cents rule the stored prices were produced with.
func roundDecimal(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// percentOf returns base × percent / 100 without rounding.
func percentOf(base decimal.Decimal, percent float64) decimal.Decimal {
	return base.Mul(toDecimal(percent)).Div(hundred)
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
