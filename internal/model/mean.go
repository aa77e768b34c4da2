package model

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/dynlearn/internal/meanfn"
	"github.com/san-kum/dynlearn/internal/optim"
)

// NewMeanFunction builds a fresh parametric mean function for the given
// input and output dimensionality.
type NewMeanFunction func(in, out int) meanfn.Function

// MeanModel is the deterministic baseline dynamics model: a single
// parametric mean function whose parameters are fitted jointly against all
// observations and all outcome dimensions by least squares. It reports no
// predictive uncertainty.
type MeanModel struct {
	logger *slog.Logger
	opt    optim.Optimizer
	newFn  NewMeanFunction

	fn       meanfn.Function
	samples  [][]float64
	outcomes [][]float64
	fitted   bool
}

// NewMeanModel returns a mean model fitted with the given optimizer. A nil
// optimizer selects a Nelder-Mead default; the mean function defaults to
// affine.
func NewMeanModel(opt optim.Optimizer) *MeanModel {
	if opt == nil {
		opt = &optim.NelderMead{MaxEvals: 4000, Restarts: 2}
	}
	return &MeanModel{
		logger: slog.Default(),
		opt:    opt,
		newFn:  func(in, out int) meanfn.Function { return meanfn.NewAffine(in, out) },
	}
}

// SetLogger replaces the model's logger. Nil restores the default.
func (m *MeanModel) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	m.logger = l
}

// SetMeanFunction replaces the mean function factory. It only affects the
// next first-time initialization, so it must be called before Learn.
func (m *MeanModel) SetMeanFunction(f NewMeanFunction) {
	if f != nil {
		m.newFn = f
	}
}

// Learn fits the mean function parameters by minimizing the summed squared
// residual over all observations and outcome dimensions jointly.
//
// The function is sized on the first call; later calls reuse its current
// parameters as the optimizer's warm start. The onlyLimits flag is accepted
// for interface symmetry with the ensemble and has no effect here, since
// this model tracks no statistics.
func (m *MeanModel) Learn(observations []Observation, onlyLimits bool) error {
	samples, outcomes, err := assemble(observations)
	if err != nil {
		return err
	}

	if m.fn == nil {
		m.fn = m.newFn(len(samples[0]), len(outcomes[0]))
	}

	obj := func(p []float64) float64 {
		trial := m.newFn(m.fn.InputDim(), m.fn.OutputDim())
		if err := trial.SetParams(p); err != nil {
			return math.Inf(1)
		}
		mse := 0.0
		for i, s := range samples {
			mu := trial.Eval(s)
			for j, y := range outcomes[i] {
				d := mu[j] - y
				mse += d * d
			}
		}
		return mse
	}

	best, residual, err := m.opt.Minimize(obj, m.fn.Params())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFitFailure, err)
	}
	if math.IsNaN(residual) || math.IsInf(residual, 0) {
		return fmt.Errorf("%w: non-finite residual", ErrFitFailure)
	}
	if err := m.fn.SetParams(best); err != nil {
		return fmt.Errorf("%w: %v", ErrFitFailure, err)
	}

	m.samples = samples
	m.outcomes = outcomes
	m.fitted = true

	m.logger.Info("mean function fitted",
		"samples", len(samples),
		"params", len(best),
		"residual", residual)
	return nil
}

// Predict returns the mean function's output at x and a zero vector as the
// uncertainty placeholder.
func (m *MeanModel) Predict(x []float64) ([]float64, []float64, error) {
	if !m.fitted {
		return nil, nil, ErrNotFitted
	}
	if len(x) != m.fn.InputDim() {
		return nil, nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.fn.InputDim(), len(x))
	}

	mu := m.fn.Eval(x)
	return mu, make([]float64, len(mu)), nil
}

// Params returns the fitted mean function parameters.
func (m *MeanModel) Params() ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return m.fn.Params(), nil
}

// SaveData writes the fitted dataset as whitespace-delimited text, one
// sample per line.
func (m *MeanModel) SaveData(path string) error {
	if !m.fitted {
		return ErrNotFitted
	}
	return writeData(path, m.samples, m.outcomes)
}
