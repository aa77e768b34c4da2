package optim

import (
	"fmt"
	"math"
)

// GridSearch exhaustively evaluates the cartesian product of per-parameter
// candidate values and keeps the best vector. It ignores init except for
// checking dimensionality, and is mainly useful as a coarse first pass
// before a local method polishes the result.
type GridSearch struct {
	// Ranges holds the candidate values for each parameter, one slice per
	// parameter in order.
	Ranges [][]float64
}

// Span builds an evenly spaced candidate slice over [lo, hi] with n points.
func Span(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	vals := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range vals {
		vals[i] = lo + float64(i)*step
	}
	return vals
}

func (g *GridSearch) Minimize(obj Objective, init []float64) ([]float64, float64, error) {
	if len(g.Ranges) == 0 || len(g.Ranges) != len(init) {
		return nil, 0, fmt.Errorf("%w: grid has %d parameter ranges, objective takes %d",
			ErrNoImprovement, len(g.Ranges), len(init))
	}

	best := math.Inf(1)
	var bestParams []float64
	current := make([]float64, len(g.Ranges))

	g.searchRecursive(0, current, obj, &best, &bestParams)

	if bestParams == nil {
		return nil, 0, ErrNoImprovement
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(depth int, current []float64, obj Objective, best *float64, bestParams *[]float64) {
	if depth == len(g.Ranges) {
		val := obj(current)
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return
		}
		if val < *best || *bestParams == nil {
			*best = val
			*bestParams = append((*bestParams)[:0], current...)
		}
		return
	}

	for _, val := range g.Ranges[depth] {
		current[depth] = val
		g.searchRecursive(depth+1, current, obj, best, bestParams)
	}
}
