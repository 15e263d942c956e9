package analysis

import (
	"math"
	"sort"
	"strconv"
)

// Float64 returns a pointer to v
func Float64(v float64) *float64 {
	return &v
}

// Median returns the median of values, false when empty
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, true
	}
	return sorted[mid], true
}

// SafeDivide returns numerator/denominator, false when the denominator is
// nil or zero. Callers skip the metric entirely on false.
func SafeDivide(numerator, denominator *float64) (float64, bool) {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return 0, false
	}
	return *numerator / *denominator, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

// trimFloat formats a value for rationale text without trailing zeros
func trimFloat(v float64) string {
	return strconv.FormatFloat(round(v, 2), 'f', -1, 64)
}
