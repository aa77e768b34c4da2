package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynlearn/internal/optim"
)

// GP is a Gaussian-process regressor with a squared-exponential kernel and
// three hyperparameters kept in log space: lengthscale, signal standard
// deviation, and noise standard deviation.
//
// Compute factorizes the kernel matrix with the current hyperparameters;
// OptimizeHyperparams maximizes the log marginal likelihood and refactors.
// A GP instance is not safe for concurrent use.
type GP struct {
	opt optim.Optimizer

	inputs  [][]float64
	outputs []float64
	noise   []float64
	dim     int

	logLen    float64
	logSignal float64
	logNoise  float64

	chol  *mat.Cholesky
	alpha *mat.VecDense
}

// NewGP returns a GP using the given hyperparameter optimizer. A nil
// optimizer selects the default coarse-grid-then-simplex strategy.
func NewGP(opt optim.Optimizer) *GP {
	return &GP{
		opt:       opt,
		logLen:    0,
		logSignal: 0,
		logNoise:  math.Log(0.01),
	}
}

// Compute replaces the training set and factorizes the kernel matrix.
// The input and output slices are copied; the caller keeps ownership.
func (g *GP) Compute(inputs [][]float64, outputs []float64, noise []float64) error {
	if len(inputs) == 0 || len(inputs) != len(outputs) {
		return ErrNoData
	}
	dim := len(inputs[0])
	if dim == 0 {
		return ErrNoData
	}
	for _, x := range inputs {
		if len(x) != dim {
			return ErrDimensionMismatch
		}
	}
	if noise != nil && len(noise) != len(inputs) {
		return ErrDimensionMismatch
	}

	g.inputs = cloneRows(inputs)
	g.outputs = make([]float64, len(outputs))
	copy(g.outputs, outputs)
	g.noise = make([]float64, len(inputs))
	if noise != nil {
		copy(g.noise, noise)
	}
	g.dim = dim
	g.initHyperparams()

	chol, alpha, err := g.factorize(g.logLen, g.logSignal, g.logNoise)
	if err != nil {
		return err
	}
	g.chol, g.alpha = chol, alpha
	return nil
}

// initHyperparams seeds the hyperparameters from the data scale so the
// likelihood surface starts in a sane region.
func (g *GP) initHyperparams() {
	n := float64(len(g.outputs))
	mean := floats.Sum(g.outputs) / n
	varY := 0.0
	for _, y := range g.outputs {
		d := y - mean
		varY += d * d
	}
	varY /= n

	spread := 0.0
	for j := 0; j < g.dim; j++ {
		lo, hi := g.inputs[0][j], g.inputs[0][j]
		for _, x := range g.inputs {
			lo = math.Min(lo, x[j])
			hi = math.Max(hi, x[j])
		}
		spread += hi - lo
	}
	spread /= float64(g.dim)

	g.logSignal = math.Log(math.Max(math.Sqrt(varY), 1e-3))
	g.logLen = math.Log(math.Max(spread/2, 1e-3))
}

// OptimizeHyperparams maximizes the log marginal likelihood over the
// log-space hyperparameters and refactorizes with the optimum.
func (g *GP) OptimizeHyperparams() error {
	if len(g.inputs) == 0 {
		return ErrNoData
	}

	obj := func(p []float64) float64 {
		return g.negLogLik(p[0], p[1], p[2])
	}
	init := []float64{g.logLen, g.logSignal, g.logNoise}

	best, err := g.minimize(obj, init)
	if err != nil {
		return fmt.Errorf("regress: hyperparameter optimization: %w", err)
	}

	chol, alpha, err := g.factorize(best[0], best[1], best[2])
	if err != nil {
		return err
	}
	g.logLen, g.logSignal, g.logNoise = best[0], best[1], best[2]
	g.chol, g.alpha = chol, alpha
	return nil
}

func (g *GP) minimize(obj optim.Objective, init []float64) ([]float64, error) {
	if g.opt != nil {
		best, _, err := g.opt.Minimize(obj, init)
		return best, err
	}

	// Coarse grid around the data-driven init, then a simplex polish.
	grid := &optim.GridSearch{Ranges: [][]float64{
		offsetSpan(init[0], 2, 5),
		offsetSpan(init[1], 2, 5),
		offsetSpan(init[2], 2, 3),
	}}
	start := init
	if gridBest, _, err := grid.Minimize(obj, init); err == nil {
		start = gridBest
	}

	nm := &optim.NelderMead{MaxEvals: 600, Restarts: 1}
	best, _, err := nm.Minimize(obj, start)
	return best, err
}

func offsetSpan(center, halfWidth float64, n int) []float64 {
	return optim.Span(center-halfWidth, center+halfWidth, n)
}

// Query returns the predictive mean and variance at x.
func (g *GP) Query(x []float64) (float64, float64, error) {
	if g.chol == nil {
		return 0, 0, ErrNoData
	}
	if len(x) != g.dim {
		return 0, 0, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, g.dim, len(x))
	}

	n := len(g.inputs)
	ell2 := math.Exp(2 * g.logLen)
	sf2 := math.Exp(2 * g.logSignal)

	k := make([]float64, n)
	for i, xi := range g.inputs {
		k[i] = rbf(x, xi, ell2, sf2)
	}

	mean := floats.Dot(k, g.alpha.RawVector().Data)

	v := mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(v, mat.NewVecDense(n, k)); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	variance := sf2 - floats.Dot(k, v.RawVector().Data)
	if variance < 0 {
		variance = 0
	}

	return mean, variance, nil
}

// Samples returns a copy of the training inputs.
func (g *GP) Samples() [][]float64 {
	return cloneRows(g.inputs)
}

// Hyperparams returns the fitted hyperparameters in natural space:
// lengthscale, signal standard deviation, noise standard deviation.
func (g *GP) Hyperparams() []float64 {
	return []float64{math.Exp(g.logLen), math.Exp(g.logSignal), math.Exp(g.logNoise)}
}

func rbf(a, b []float64, ell2, sf2 float64) float64 {
	d2 := 0.0
	for i := range a {
		d := a[i] - b[i]
		d2 += d * d
	}
	return sf2 * math.Exp(-0.5*d2/ell2)
}

// factorize builds and factorizes the kernel matrix for the given
// hyperparameters and solves for the weight vector alpha = K^-1 y.
// Escalating diagonal jitter is applied if the factorization fails.
func (g *GP) factorize(logLen, logSignal, logNoise float64) (*mat.Cholesky, *mat.VecDense, error) {
	n := len(g.inputs)
	ell2 := math.Exp(2 * logLen)
	sf2 := math.Exp(2 * logSignal)
	sn2 := math.Exp(2 * logNoise)

	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			v := rbf(g.inputs[i], g.inputs[j], ell2, sf2)
			if i == j {
				v += sn2 + g.noise[i]*g.noise[i]
			}
			k.SetSym(i, j, v)
		}
	}

	chol := &mat.Cholesky{}
	jitter := sf2 * 1e-10
	for attempt := 0; attempt < 5; attempt++ {
		if chol.Factorize(k) {
			y := make([]float64, n)
			copy(y, g.outputs)
			alpha := mat.NewVecDense(n, nil)
			if err := chol.SolveVecTo(alpha, mat.NewVecDense(n, y)); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrSingular, err)
			}
			return chol, alpha, nil
		}
		for i := 0; i < n; i++ {
			k.SetSym(i, i, k.At(i, i)+jitter)
		}
		jitter *= 100
	}
	return nil, nil, ErrSingular
}

// negLogLik is the negative log marginal likelihood for the given
// hyperparameters; non-factorizable kernels map to +Inf.
func (g *GP) negLogLik(logLen, logSignal, logNoise float64) float64 {
	chol, alpha, err := g.factorize(logLen, logSignal, logNoise)
	if err != nil {
		return math.Inf(1)
	}

	n := float64(len(g.outputs))
	quad := floats.Dot(g.outputs, alpha.RawVector().Data)
	return 0.5*quad + 0.5*chol.LogDet() + 0.5*n*math.Log(2*math.Pi)
}
