package model

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/dynlearn/internal/regress"
	"github.com/san-kum/dynlearn/internal/stats"
)

// DefaultNoise is the observation noise standard deviation assumed for
// every training sample when none is configured.
const DefaultNoise = 0.01

// NewRegressor builds a fresh scalar regressor for one output dimension.
type NewRegressor func() regress.Regressor

// Ensemble approximates a vector-valued transition function with one
// independent scalar regressor per outcome dimension. All regressors are
// trained on the same samples but different outcome columns; they share no
// mutable state and are fitted and queried in parallel.
type Ensemble struct {
	logger       *slog.Logger
	newRegressor NewRegressor
	noise        float64
	snapshot     SnapshotWriter

	regressors   []regress.Regressor
	observations [][]float64
	summary      *stats.Summary
	featureDim   int
	fitted       bool
}

// NewEnsemble returns an ensemble backed by the given regressor factory.
// A nil factory selects the Gaussian-process backend with its default
// hyperparameter optimizer.
func NewEnsemble(factory NewRegressor) *Ensemble {
	if factory == nil {
		factory = func() regress.Regressor { return regress.NewGP(nil) }
	}
	return &Ensemble{
		logger:       slog.Default(),
		newRegressor: factory,
		noise:        DefaultNoise,
	}
}

// SetLogger replaces the model's logger. Nil restores the default.
func (e *Ensemble) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	e.logger = l
}

// SetNoise sets the per-sample observation noise standard deviation used
// for all training samples.
func (e *Ensemble) SetNoise(noise float64) {
	e.noise = noise
}

// SetSnapshot installs a dataset snapshot writer invoked after every full
// fit. Nil disables snapshots.
func (e *Ensemble) SetSnapshot(w SnapshotWriter) {
	e.snapshot = w
}

// Learn refits the ensemble from scratch on the given observations.
//
// Statistics (means, spreads, robust limits) are recomputed over the
// assembled feature matrix unconditionally. With onlyLimits set, Learn
// returns right after that: a staged update that refreshes normalization
// bounds while leaving any previously fitted regressors untouched, and
// therefore stale relative to the new statistics.
//
// A full fit discards the prior regressors and fits one fresh regressor
// per outcome dimension in parallel. If some dimensions fail, the new
// partially fitted ensemble still replaces the model state and the error
// is a [FitError] naming the failed dimensions; if every dimension fails,
// the error reports ErrFitFailure and prior state is kept. An invalid
// observation set changes nothing.
func (e *Ensemble) Learn(observations []Observation, onlyLimits bool) error {
	samples, outcomes, err := assemble(observations)
	if err != nil {
		return err
	}

	summary, err := stats.Compute(samples)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	e.summary = summary
	e.featureDim = len(samples[0])

	if onlyLimits {
		return nil
	}

	if e.snapshot != nil {
		if err := e.snapshot(samples, outcomes); err != nil {
			e.logger.Warn("dataset snapshot failed", "error", err)
		}
	}

	predDim := len(outcomes[0])
	noise := make([]float64, len(samples))
	for i := range noise {
		noise[i] = e.noise
	}

	regressors := make([]regress.Regressor, predDim)
	for i := range regressors {
		regressors[i] = e.newRegressor()
	}

	errs := fanOut(predDim, func(i int) error {
		col := make([]float64, len(outcomes))
		for r, row := range outcomes {
			col[r] = row[i]
		}
		if err := regressors[i].Compute(samples, col, noise); err != nil {
			return err
		}
		return regressors[i].OptimizeHyperparams()
	})

	var fitErr FitError
	for i, err := range errs {
		if err != nil {
			fitErr = append(fitErr, &DimError{Dim: i, Wrapped: err})
		}
	}
	if len(fitErr) == predDim {
		return fmt.Errorf("%w: every output dimension failed: %v", ErrFitFailure, fitErr.Error())
	}

	e.regressors = regressors
	e.observations = outcomes
	e.fitted = true

	e.logger.Info("ensemble fitted",
		"samples", len(samples),
		"dims", predDim,
		"failed_dims", len(fitErr))

	if len(fitErr) > 0 {
		return fitErr
	}
	return nil
}

// Predict returns the predicted outcome mean and a scalar uncertainty:
// the arithmetic mean of the per-dimension variances.
func (e *Ensemble) Predict(x []float64) ([]float64, float64, error) {
	mu, ss, err := e.PredictM(x)
	if err != nil {
		return nil, 0, err
	}
	return mu, floats.Sum(ss) / float64(len(ss)), nil
}

// PredictM returns the predicted outcome mean and the full per-dimension
// variance vector. Dimensions are queried in parallel; result i always
// lands in slot i regardless of completion order.
func (e *Ensemble) PredictM(x []float64) ([]float64, []float64, error) {
	if !e.fitted {
		return nil, nil, ErrNotFitted
	}
	if len(x) != e.featureDim {
		return nil, nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, e.featureDim, len(x))
	}

	mu := make([]float64, len(e.regressors))
	ss := make([]float64, len(e.regressors))
	errs := fanOut(len(e.regressors), func(i int) error {
		m, v, err := e.regressors[i].Query(x)
		if err != nil {
			return err
		}
		mu[i] = m
		ss[i] = v
		return nil
	})

	for i, err := range errs {
		if err != nil {
			return nil, nil, &DimError{Dim: i, Wrapped: err}
		}
	}
	return mu, ss, nil
}

// Samples returns the feature matrix of the most recent fit, sourced from
// regressor 0 since all regressors share the same input samples.
func (e *Ensemble) Samples() ([][]float64, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}
	return e.regressors[0].Samples(), nil
}

// Observations returns the outcome matrix of the most recent fit.
func (e *Ensemble) Observations() ([][]float64, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}
	return cloneMatrix(e.observations), nil
}

// Limits returns the per-feature robust magnitude bounds from the most
// recent Learn (full or limits-only).
func (e *Ensemble) Limits() ([]float64, error) {
	if e.summary == nil {
		return nil, ErrNotFitted
	}
	return cloneVector(e.summary.Limits), nil
}

// Statistics returns the full per-feature summary from the most recent
// Learn (full or limits-only).
func (e *Ensemble) Statistics() (*stats.Summary, error) {
	if e.summary == nil {
		return nil, ErrNotFitted
	}
	return &stats.Summary{
		Mean:   cloneVector(e.summary.Mean),
		Sigma:  cloneVector(e.summary.Sigma),
		Limits: cloneVector(e.summary.Limits),
	}, nil
}

// SaveData writes the fitted dataset as whitespace-delimited text, one
// sample per line.
func (e *Ensemble) SaveData(path string) error {
	if !e.fitted {
		return ErrNotFitted
	}
	return writeData(path, e.regressors[0].Samples(), e.observations)
}
