package billing

import (
	"math"
	"sort"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// Describe computes count, mean, sample standard deviation, min, quartiles
// and max. Quartiles interpolate linearly between closest ranks. The
// deviation of fewer than two values is reported as 0.
func Describe(values []float64) model.ColumnStats {
	n := len(values)
	if n == 0 {
		return model.ColumnStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	return model.ColumnStats{
		Count: n,
		Mean:  mean,
		Std:   std,
		Min:   sorted[0],
		P25:   quantile(sorted, 0.25),
		P50:   quantile(sorted, 0.50),
		P75:   quantile(sorted, 0.75),
		Max:   sorted[n-1],
	}
}

// quantile calculates the q-th quantile of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	rank := q * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[lower]
	}

	fraction := rank - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}
