package optim

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"
)

// NelderMead minimizes a gradient-free objective with the downhill simplex
// method, optionally restarting from perturbed initial points. Restarts use
// a fixed seed so repeated runs on the same objective are deterministic.
type NelderMead struct {
	// MaxEvals bounds objective evaluations per start. Zero means 1000.
	MaxEvals int
	// Restarts is the number of additional perturbed starts.
	Restarts int
	// Perturb scales the random offset applied on each restart.
	// Zero means 0.5.
	Perturb float64
}

func (nm *NelderMead) Minimize(obj Objective, init []float64) ([]float64, float64, error) {
	if len(init) == 0 {
		return nil, 0, fmt.Errorf("%w: empty initial vector", ErrNoImprovement)
	}

	maxEvals := nm.MaxEvals
	if maxEvals <= 0 {
		maxEvals = 1000
	}
	perturb := nm.Perturb
	if perturb == 0 {
		perturb = 0.5
	}

	// Non-finite objective values poison the simplex; map them to +Inf so
	// the method backs away instead.
	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			v := obj(p)
			if math.IsNaN(v) {
				return math.Inf(1)
			}
			return v
		},
	}

	best := math.Inf(1)
	var bestParams []float64

	rng := rand.New(rand.NewSource(1))
	start := make([]float64, len(init))

	for r := 0; r <= nm.Restarts; r++ {
		copy(start, init)
		if r > 0 {
			for i := range start {
				start[i] += perturb * rng.NormFloat64()
			}
		}

		settings := &optimize.Settings{FuncEvaluations: maxEvals}
		result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
		if err != nil || result == nil {
			continue
		}
		if result.F < best && allFinite(result.X) {
			best = result.F
			bestParams = append(bestParams[:0], result.X...)
		}
	}

	if bestParams == nil || math.IsInf(best, 0) {
		return nil, 0, ErrNoImprovement
	}
	return bestParams, best, nil
}
