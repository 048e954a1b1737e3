package tabular

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile (0..1) of xs using linear interpolation
// between closest ranks, matching the convention of common dataframe tooling.
// Returns NaN for empty input.
func Quantile(xs []float64, q float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Median returns the 0.5 quantile of xs; NaN for empty input
func Median(xs []float64) float64 { return Quantile(xs, 0.5) }

// Summary holds descriptive statistics for one numeric column
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"25%"`
	Median float64 `json:"50%"`
	Q3     float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// Describe computes Summary over the non-null values of xs.
// Std is the sample standard deviation; it is 0 for fewer than two values
// so reports stay JSON-encodable.
func Describe(xs []float64) Summary {
	n := len(xs)
	if n == 0 {
		return Summary{}
	}

	var sum float64
	mn, mx := xs[0], xs[0]
	for _, x := range xs {
		sum += x
		if x < mn {
			mn = x
		}
		if x > mx {
			mx = x
		}
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var ss float64
		for _, x := range xs {
			d := x - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    mn,
		Q1:     Quantile(xs, 0.25),
		Median: Median(xs),
		Q3:     Quantile(xs, 0.75),
		Max:    mx,
	}
}
