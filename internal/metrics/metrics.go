// Package metrics provides fit diagnostics accumulated over
// prediction/actual pairs.
package metrics

import "math"

// Metric accumulates a diagnostic over predicted/actual outcome pairs.
// The variance slice carries per-dimension predictive variances and may be
// nil for models that report none.
type Metric interface {
	Name() string
	Observe(predicted, actual, variance []float64)
	Value() float64
	Reset()
}

// RMSE is the root mean squared error over all observed components.
type RMSE struct {
	total   float64
	samples int
}

func NewRMSE() *RMSE { return &RMSE{} }

func (m *RMSE) Name() string { return "rmse" }

func (m *RMSE) Observe(predicted, actual, variance []float64) {
	for i := range actual {
		if i >= len(predicted) {
			break
		}
		d := predicted[i] - actual[i]
		m.total += d * d
		m.samples++
	}
}

func (m *RMSE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.total / float64(m.samples))
}

func (m *RMSE) Reset() {
	m.total = 0
	m.samples = 0
}

// MAE is the mean absolute error over all observed components.
type MAE struct {
	total   float64
	samples int
}

func NewMAE() *MAE { return &MAE{} }

func (m *MAE) Name() string { return "mae" }

func (m *MAE) Observe(predicted, actual, variance []float64) {
	for i := range actual {
		if i >= len(predicted) {
			break
		}
		m.total += math.Abs(predicted[i] - actual[i])
		m.samples++
	}
}

func (m *MAE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MAE) Reset() {
	m.total = 0
	m.samples = 0
}

// Coverage is the fraction of components whose actual value falls within
// k standard deviations of the predicted mean. Components without a
// variance are skipped.
type Coverage struct {
	k       float64
	hits    int
	samples int
}

func NewCoverage(k float64) *Coverage {
	return &Coverage{k: k}
}

func (m *Coverage) Name() string { return "coverage" }

func (m *Coverage) Observe(predicted, actual, variance []float64) {
	for i := range actual {
		if i >= len(predicted) || i >= len(variance) {
			break
		}
		m.samples++
		if math.Abs(actual[i]-predicted[i]) <= m.k*math.Sqrt(variance[i]) {
			m.hits++
		}
	}
}

func (m *Coverage) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.hits) / float64(m.samples)
}

func (m *Coverage) Reset() {
	m.hits = 0
	m.samples = 0
}
