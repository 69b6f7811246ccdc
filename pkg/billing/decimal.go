package billing

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// SumRounded adds values as exact decimals and rounds the sum half-even to
// the given number of decimal places.
func SumRounded(values []float64, places int32) (float64, error) {
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfEven

	var sum apd.Decimal
	for i, v := range values {
		var d apd.Decimal
		if _, err := d.SetFloat64(v); err != nil {
			return 0, fmt.Errorf("value %d: %w", i, err)
		}
		if _, err := ctx.Add(&sum, &sum, &d); err != nil {
			return 0, fmt.Errorf("add value %d: %w", i, err)
		}
	}

	var rounded apd.Decimal
	if _, err := ctx.Quantize(&rounded, &sum, -places); err != nil {
		return 0, fmt.Errorf("round sum: %w", err)
	}
	return rounded.Float64()
}
