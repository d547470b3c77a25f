package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts an exchange numeric string into a float. Empty or
// malformed input yields 0, matching how missing price fields are treated.
func ParseAmount(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0
	}
	return value.InexactFloat64()
}
