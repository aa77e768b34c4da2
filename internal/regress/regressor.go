// Package regress provides single-output regressors over vector inputs.
//
// The [Regressor] interface is the pluggability seam of the ensemble
// dynamics model: any technique that can fit (inputs, scalar outputs,
// per-sample noise) and answer queries with a mean and a variance can back
// one output dimension. [GP] is the default Gaussian-process backend;
// [Nearest] is a cheap deterministic alternative used mainly in tests.
package regress

import "errors"

// Domain errors for regressor operations.
var (
	// ErrNoData indicates a fit or query without training data.
	ErrNoData = errors.New("regress: no training data")

	// ErrDimensionMismatch indicates input vectors of inconsistent length.
	ErrDimensionMismatch = errors.New("regress: input dimension mismatch")

	// ErrSingular indicates the kernel matrix could not be factorized.
	ErrSingular = errors.New("regress: kernel matrix not positive definite")
)

// Regressor fits one scalar-valued function of vector inputs.
//
// Compute replaces any previous training set wholesale. The noise slice
// holds per-sample observation noise standard deviations and may be nil.
// OptimizeHyperparams tunes whatever internal knobs the technique has
// against the current training set; for techniques without hyperparameters
// it is a no-op. Query returns the predictive mean and variance at x.
type Regressor interface {
	Compute(inputs [][]float64, outputs []float64, noise []float64) error
	OptimizeHyperparams() error
	Query(x []float64) (mean, variance float64, err error)
	Samples() [][]float64
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(r))
		copy(out[i], r)
	}
	return out
}
