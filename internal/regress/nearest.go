package regress

import "fmt"

// Nearest is a deterministic interpolating regressor: exact matches return
// the stored outcome with zero variance, anything else an inverse squared
// distance weighted average with the weighted output spread as variance.
// It has no hyperparameters and exists as a cheap, fully reproducible
// backend for tests and smoke runs.
type Nearest struct {
	inputs  [][]float64
	outputs []float64
	dim     int
}

func NewNearest() *Nearest {
	return &Nearest{}
}

func (r *Nearest) Compute(inputs [][]float64, outputs []float64, noise []float64) error {
	if len(inputs) == 0 || len(inputs) != len(outputs) {
		return ErrNoData
	}
	dim := len(inputs[0])
	for _, x := range inputs {
		if len(x) != dim {
			return ErrDimensionMismatch
		}
	}

	r.inputs = cloneRows(inputs)
	r.outputs = make([]float64, len(outputs))
	copy(r.outputs, outputs)
	r.dim = dim
	return nil
}

func (r *Nearest) OptimizeHyperparams() error {
	if len(r.inputs) == 0 {
		return ErrNoData
	}
	return nil
}

func (r *Nearest) Query(x []float64) (float64, float64, error) {
	if len(r.inputs) == 0 {
		return 0, 0, ErrNoData
	}
	if len(x) != r.dim {
		return 0, 0, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, r.dim, len(x))
	}

	weights := make([]float64, len(r.inputs))
	total := 0.0
	for i, xi := range r.inputs {
		d2 := 0.0
		for j := range x {
			d := x[j] - xi[j]
			d2 += d * d
		}
		if d2 == 0 {
			return r.outputs[i], 0, nil
		}
		weights[i] = 1 / d2
		total += weights[i]
	}

	mean := 0.0
	for i, w := range weights {
		mean += w / total * r.outputs[i]
	}
	variance := 0.0
	for i, w := range weights {
		d := r.outputs[i] - mean
		variance += w / total * d * d
	}
	return mean, variance, nil
}

func (r *Nearest) Samples() [][]float64 {
	return cloneRows(r.inputs)
}
