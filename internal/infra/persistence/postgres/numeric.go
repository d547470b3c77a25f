package postgres

import (
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// numericFromFloat converts a float into a pgtype.Numeric through its
// shortest decimal representation, so 0.1 is stored as 0.1.
func numericFromFloat(value float64) (pgtype.Numeric, error) {
	var out pgtype.Numeric
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return out, fmt.Errorf("numeric value %v not finite", value)
	}
	text := decimal.NewFromFloat(value).String()
	if err := out.Scan(text); err != nil {
		return out, fmt.Errorf("parse numeric %q: %w", text, err)
	}
	return out, nil
}

// floatFromNumeric converts a scanned numeric back to float. NULL reads as 0.
func floatFromNumeric(value pgtype.Numeric) (float64, error) {
	if !value.Valid {
		return 0, nil
	}
	f, err := value.Float64Value()
	if err != nil {
		return 0, fmt.Errorf("numeric to float: %w", err)
	}
	return f.Float64, nil
}
