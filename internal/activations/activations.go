// Package activations provides the elementwise activation functions used by the network.
package activations

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64
}

// Sigmoid activation function.
type Sigmoid struct{}

// Bounds of the sigmoid's open range in float64.
var (
	sigmoidMin = math.SmallestNonzeroFloat64
	sigmoidMax = math.Nextafter(1, 0)
)

// Activate computes 1 / (1 + e^-x), kept strictly inside (0,1) where the
// exact value would round to 0 or 1.
// Both branches evaluate exp on a non-positive argument so it never overflows.
func (s Sigmoid) Activate(x float64) float64 {
	if x >= 0 {
		return math.Min(1/(1+math.Exp(-x)), sigmoidMax)
	}
	e := math.Exp(x)
	return math.Max(e/(1+e), sigmoidMin)
}

// Derivative computes e^-x / (1 + e^-x)^2.
// The derivative is even in x, so it is evaluated at -|x|.
func (s Sigmoid) Derivative(x float64) float64 {
	e := math.Exp(-math.Abs(x))
	d := 1 + e
	return e / (d * d)
}

// Apply writes f(src) elementwise into dst and returns dst.
// A nil dst allocates a new matrix.
func Apply(act Activation, dst *mat.Dense, src mat.Matrix) *mat.Dense {
	if dst == nil {
		dst = &mat.Dense{}
	}
	dst.Apply(func(_, _ int, v float64) float64 {
		return act.Activate(v)
	}, src)
	return dst
}

// ApplyDerivative writes f'(src) elementwise into dst and returns dst.
func ApplyDerivative(act Activation, dst *mat.Dense, src mat.Matrix) *mat.Dense {
	if dst == nil {
		dst = &mat.Dense{}
	}
	dst.Apply(func(_, _ int, v float64) float64 {
		return act.Derivative(v)
	}, src)
	return dst
}
