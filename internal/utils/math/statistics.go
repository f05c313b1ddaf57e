package math

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// PopulationStdDev calculates the population (ddof=0) mean and standard deviation
func PopulationStdDev(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// MinMax returns the smallest and largest value
func MinMax(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return floats.Min(values), floats.Max(values)
}

// AllFinite reports whether no value is NaN or infinite
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Quantile returns the q-th quantile using linear interpolation between
// closest ranks, the convention numpy uses by default
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper || sorted[lower] == sorted[upper] {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower] + weight*(sorted[upper]-sorted[lower])
}

// Difference applies d rounds of first differencing
func Difference(values []float64, d int) []float64 {
	result := make([]float64, len(values))
	copy(result, values)

	for i := 0; i < d && len(result) > 0; i++ {
		diff := make([]float64, len(result)-1)
		for j := 1; j < len(result); j++ {
			diff[j-1] = result[j] - result[j-1]
		}
		result = diff
	}

	return result
}

// Integrate reverses d rounds of differencing for values forecast on the
// differenced scale, anchoring each level on the tail of history
func Integrate(forecasts, history []float64, d int) []float64 {
	if d == 0 {
		out := make([]float64, len(forecasts))
		copy(out, forecasts)
		return out
	}

	// anchors[k] is the last value of history differenced k times
	anchors := make([]float64, d)
	level := history
	for k := 0; k < d; k++ {
		if len(level) == 0 {
			break
		}
		anchors[k] = level[len(level)-1]
		level = Difference(level, 1)
	}

	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	for k := d - 1; k >= 0; k-- {
		running := anchors[k]
		for i := range result {
			running += result[i]
			result[i] = running
		}
	}

	return result
}

// AveragePathLength is c(n), the mean path length of an unsuccessful search
// in a binary search tree built from n points
func AveragePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
	}
}
