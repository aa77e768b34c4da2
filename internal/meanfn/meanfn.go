// Package meanfn defines parametric multi-output mean functions. A mean
// function maps an input vector to an output vector through a flat
// parameter vector that an optimizer can adjust.
package meanfn

import (
	"errors"
	"fmt"
)

// ErrBadParams indicates a parameter vector of the wrong length.
var ErrBadParams = errors.New("meanfn: parameter vector length mismatch")

// Function is a parametric map from input vectors to output vectors.
// Params returns a copy of the current parameter vector; SetParams replaces
// it wholesale. Eval must not modify x.
type Function interface {
	Eval(x []float64) []float64
	Params() []float64
	SetParams(p []float64) error
	InputDim() int
	OutputDim() int
}

// Affine is a linear map with bias: y_o = sum_j W[o][j]*x_j + b_o.
// Parameters are laid out row-major, each output row holding its input
// weights followed by the bias term.
type Affine struct {
	in, out int
	w       []float64
}

// NewAffine returns an affine function with all parameters zero.
func NewAffine(in, out int) *Affine {
	return &Affine{in: in, out: out, w: make([]float64, out*(in+1))}
}

func (a *Affine) InputDim() int  { return a.in }
func (a *Affine) OutputDim() int { return a.out }

func (a *Affine) Eval(x []float64) []float64 {
	y := make([]float64, a.out)
	stride := a.in + 1
	for o := 0; o < a.out; o++ {
		row := a.w[o*stride : (o+1)*stride]
		v := row[a.in]
		for j := 0; j < a.in && j < len(x); j++ {
			v += row[j] * x[j]
		}
		y[o] = v
	}
	return y
}

func (a *Affine) Params() []float64 {
	p := make([]float64, len(a.w))
	copy(p, a.w)
	return p
}

func (a *Affine) SetParams(p []float64) error {
	if len(p) != len(a.w) {
		return fmt.Errorf("%w: expected %d, got %d", ErrBadParams, len(a.w), len(p))
	}
	copy(a.w, p)
	return nil
}
