// Package optim provides black-box function optimizers over parameter
// vectors. Models use them as a capability: hand an objective plus an
// initial vector to an [Optimizer] and take the best vector back.
package optim

import (
	"errors"
	"math"
)

// Objective is a scalar function of a parameter vector, to be minimized.
// Implementations must not retain or modify the slice they are given.
type Objective func(params []float64) float64

// ErrNoImprovement indicates the optimizer could not produce a finite
// result for any evaluated parameter vector.
var ErrNoImprovement = errors.New("optim: no finite optimum found")

// Optimizer minimizes an objective starting from init and returns the best
// parameter vector found together with its objective value.
type Optimizer interface {
	Minimize(obj Objective, init []float64) ([]float64, float64, error)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
