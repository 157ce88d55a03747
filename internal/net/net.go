// Package net provides the 2-3-1 sigmoid network, its training data types,
// and the numerical gradient checker.
package net

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GradePredict/internal/activations"
	"github.com/FlavioCFOliveira/GradePredict/internal/loss"
)

// Fixed network shape.
const (
	InputSize  = 2
	HiddenSize = 3
	OutputSize = 1

	// NumParams is the length of the flattened parameter vector.
	NumParams = InputSize*HiddenSize + HiddenSize*OutputSize
)

// Network is a single hidden layer network without biases:
// yHat = sigmoid(sigmoid(X·W1)·W2).
type Network struct {
	// W1 is InputSize x HiddenSize, W2 is HiddenSize x OutputSize.
	// Their shapes are fixed at construction; only entries change.
	W1 *mat.Dense
	W2 *mat.Dense

	// Lambda is the L2 regularization coefficient.
	Lambda float64

	act  activations.Activation
	loss loss.SquaredError
}

// Pass holds the intermediates of one forward pass.
// Gradient consumes it, so the backward pass always matches the inputs it was computed for.
type Pass struct {
	X    mat.Matrix
	Z2   *mat.Dense
	A2   *mat.Dense
	Z3   *mat.Dense
	YHat *mat.Dense
}

// New creates a network with N(0,1) weights drawn from rng.
// A nil rng uses a time seeded source.
func New(lambda float64, rng *rand.Rand) *Network {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	w1 := make([]float64, InputSize*HiddenSize)
	for i := range w1 {
		w1[i] = rng.NormFloat64()
	}
	w2 := make([]float64, HiddenSize*OutputSize)
	for i := range w2 {
		w2[i] = rng.NormFloat64()
	}

	return &Network{
		W1:     mat.NewDense(InputSize, HiddenSize, w1),
		W2:     mat.NewDense(HiddenSize, OutputSize, w2),
		Lambda: lambda,
		act:    activations.Sigmoid{},
	}
}

// Forward computes Z2 = X·W1, A2 = σ(Z2), Z3 = A2·W2, YHat = σ(Z3).
func (n *Network) Forward(x mat.Matrix) (*Pass, error) {
	rows, cols := x.Dims()
	if cols != InputSize {
		return nil, shapeErrorf("forward", fmt.Sprintf("m x %d input", InputSize), "%dx%d", rows, cols)
	}
	if rows == 0 {
		return nil, shapeErrorf("forward", "at least one row", "0 rows")
	}

	p := &Pass{X: x}
	p.Z2 = mat.NewDense(rows, HiddenSize, nil)
	p.Z2.Mul(x, n.W1)
	p.A2 = activations.Apply(n.act, nil, p.Z2)

	p.Z3 = mat.NewDense(rows, OutputSize, nil)
	p.Z3.Mul(p.A2, n.W2)
	p.YHat = activations.Apply(n.act, nil, p.Z3)

	return p, nil
}

// Predict evaluates the network on a single, already normalized, feature vector.
func (n *Network) Predict(x []float64) (float64, error) {
	if len(x) != InputSize {
		return 0, shapeErrorf("predict", fmt.Sprintf("%d features", InputSize), "%d features", len(x))
	}
	in := make([]float64, InputSize)
	copy(in, x)

	p, err := n.Forward(mat.NewDense(1, InputSize, in))
	if err != nil {
		return 0, err
	}
	return p.YHat.At(0, 0), nil
}

// Cost computes J = 0.5*mean((y - yHat)^2) + (lambda/2)*(sum(W1^2) + sum(W2^2)).
func (n *Network) Cost(x, y mat.Matrix) (float64, error) {
	if err := checkXY("cost", x, y); err != nil {
		return 0, err
	}
	p, err := n.Forward(x)
	if err != nil {
		return 0, err
	}
	return n.cost(p, y), nil
}

func (n *Network) cost(p *Pass, y mat.Matrix) float64 {
	return n.loss.Forward(p.YHat, y) + loss.L2{Lambda: n.Lambda}.Penalty(n.W1, n.W2)
}

// Gradient backpropagates the error of pass p against targets y:
//
//	delta3 = -(y - yHat) ⊙ σ'(Z3)
//	dW2    = A2ᵀ·delta3 / m + lambda*W2
//	delta2 = (delta3·W2ᵀ) ⊙ σ'(Z2)
//	dW1    = Xᵀ·delta2 / m + lambda*W1
func (n *Network) Gradient(p *Pass, y mat.Matrix) (dW1, dW2 *mat.Dense, err error) {
	if p == nil {
		return nil, nil, errors.New("gradient: nil forward pass")
	}
	if err := checkXY("gradient", p.X, y); err != nil {
		return nil, nil, err
	}

	rows, _ := p.X.Dims()
	m := float64(rows)
	reg := loss.L2{Lambda: n.Lambda}

	var delta3 mat.Dense
	n.loss.Backward(&delta3, p.YHat, y)
	delta3.MulElem(&delta3, activations.ApplyDerivative(n.act, nil, p.Z3))

	dW2 = mat.NewDense(HiddenSize, OutputSize, nil)
	dW2.Mul(p.A2.T(), &delta3)
	dW2.Scale(1/m, dW2)
	reg.AddGradient(dW2, n.W2)

	var delta2 mat.Dense
	delta2.Mul(&delta3, n.W2.T())
	delta2.MulElem(&delta2, activations.ApplyDerivative(n.act, nil, p.Z2))

	dW1 = mat.NewDense(InputSize, HiddenSize, nil)
	dW1.Mul(p.X.T(), &delta2)
	dW1.Scale(1/m, dW1)
	reg.AddGradient(dW1, n.W1)

	return dW1, dW2, nil
}

// CostGradient runs one forward pass and returns the cost, writing the
// flattened gradient (dW1 then dW2, row-major) into grad.
func (n *Network) CostGradient(x, y mat.Matrix, grad []float64) (float64, error) {
	if len(grad) != NumParams {
		return 0, shapeErrorf("cost gradient", fmt.Sprintf("gradient buffer of length %d", NumParams), "%d", len(grad))
	}
	if err := checkXY("cost gradient", x, y); err != nil {
		return 0, err
	}

	p, err := n.Forward(x)
	if err != nil {
		return 0, err
	}
	dW1, dW2, err := n.Gradient(p, y)
	if err != nil {
		return 0, err
	}
	flatten(grad, dW1, dW2)
	return n.cost(p, y), nil
}

// Params returns W1 then W2 flattened row-major (copy).
func (n *Network) Params() []float64 {
	params := make([]float64, NumParams)
	flatten(params, n.W1, n.W2)
	return params
}

// SetParams copies a flattened parameter vector back into W1 and W2.
func (n *Network) SetParams(params []float64) error {
	if len(params) != NumParams {
		return shapeErrorf("set params", fmt.Sprintf("%d parameters", NumParams), "%d", len(params))
	}
	off := unflatten(n.W1, params)
	unflatten(n.W2, params[off:])
	return nil
}

// Clone returns a deep copy sharing no matrices with n.
func (n *Network) Clone() *Network {
	return &Network{
		W1:     mat.DenseCopyOf(n.W1),
		W2:     mat.DenseCopyOf(n.W2),
		Lambda: n.Lambda,
		act:    n.act,
	}
}

// flatten writes the matrices row-major, one after another, into dst.
func flatten(dst []float64, ms ...*mat.Dense) {
	off := 0
	for _, m := range ms {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			off += copy(dst[off:], m.RawRowView(i))
		}
	}
}

// unflatten fills m row-major from src and returns the number of values consumed.
func unflatten(m *mat.Dense, src []float64) int {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		m.SetRow(i, src[i*c:(i+1)*c])
	}
	return r * c
}

func checkXY(op string, x, y mat.Matrix) error {
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xc != InputSize {
		return shapeErrorf(op, fmt.Sprintf("m x %d input", InputSize), "%dx%d", xr, xc)
	}
	if yr != xr || yc != OutputSize {
		return shapeErrorf(op, fmt.Sprintf("%dx%d targets", xr, OutputSize), "%dx%d", yr, yc)
	}
	if xr == 0 {
		return shapeErrorf(op, "at least one example", "0 rows")
	}
	return nil
}
