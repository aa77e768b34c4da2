// Package stats computes per-feature training-data statistics used for
// normalization and diagnostics: column means, spreads, and robust magnitude
// limits derived from percentiles of absolute values.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrNoSamples indicates an empty or degenerate sample matrix.
var ErrNoSamples = errors.New("stats: no samples")

// Summary holds per-feature statistics of a sample matrix. All slices have
// length equal to the number of features (columns).
type Summary struct {
	// Mean is the per-feature arithmetic mean.
	Mean []float64
	// Sigma is the per-feature sample standard deviation.
	Sigma []float64
	// Limits is the per-feature robust magnitude bound:
	// max of the 5th and 95th percentile of absolute values.
	Limits []float64
}

// Compute builds a Summary over the given sample matrix (rows = samples,
// columns = features). All rows must have equal length.
func Compute(samples [][]float64) (*Summary, error) {
	if len(samples) == 0 || len(samples[0]) == 0 {
		return nil, ErrNoSamples
	}

	dim := len(samples[0])
	for _, row := range samples {
		if len(row) != dim {
			return nil, ErrNoSamples
		}
	}

	s := &Summary{
		Mean:   make([]float64, dim),
		Sigma:  make([]float64, dim),
		Limits: make([]float64, dim),
	}

	col := make([]float64, len(samples))
	for j := 0; j < dim; j++ {
		for i, row := range samples {
			col[i] = row[j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		s.Sigma[j] = stat.StdDev(col, nil)

		for i := range col {
			col[i] = math.Abs(col[i])
		}
		sort.Float64s(col)
		lo := Percentile(col, 0.05)
		hi := Percentile(col, 0.95)
		s.Limits[j] = math.Max(lo, hi)
	}

	return s, nil
}

// Percentile returns the p-th quantile (p in [0,1]) of an ascending-sorted
// slice, interpolating linearly at rank (n-1)*p.
//
// gonum's stat.Quantile interpolates the empirical CDF instead, which lands
// on different values for small n, so the rank interpolation is done here.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
