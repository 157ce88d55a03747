// Package loss provides the cost terms minimized during training.
package loss

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue mat.Matrix) float64

	// Backward writes the per-element gradient of the loss w.r.t. prediction into dst.
	// The 1/m factor of the mean is left to the caller.
	Backward(dst *mat.Dense, yPred, yTrue mat.Matrix)
}

// SquaredError is half the mean squared error over rows:
// 0.5 * sum((y_true - y_pred)^2) / m, where m is the number of rows.
type SquaredError struct{}

// Forward computes 0.5 * sum((y_true - y_pred)^2) / m
func (SquaredError) Forward(yPred, yTrue mat.Matrix) float64 {
	m := mustSameDims("SquaredError", yPred, yTrue)

	var diff mat.Dense
	diff.Sub(yTrue, yPred)
	return 0.5 * sumSquares(&diff) / float64(m)
}

// Backward computes dL/dy_pred = y_pred - y_true per element.
func (SquaredError) Backward(dst *mat.Dense, yPred, yTrue mat.Matrix) {
	mustSameDims("SquaredError", yPred, yTrue)
	dst.Sub(yPred, yTrue)
}

// L2 is the weight decay penalty (lambda/2) * sum(w^2) over every weight matrix.
type L2 struct {
	Lambda float64
}

// Penalty computes (lambda/2) * sum of squares of all given matrices.
func (r L2) Penalty(weights ...*mat.Dense) float64 {
	if r.Lambda == 0 {
		return 0
	}
	var sum float64
	for _, w := range weights {
		sum += sumSquares(w)
	}
	return r.Lambda / 2 * sum
}

// AddGradient adds lambda * w to grad in place.
func (r L2) AddGradient(grad, w *mat.Dense) {
	if r.Lambda == 0 {
		return
	}
	var reg mat.Dense
	reg.Scale(r.Lambda, w)
	grad.Add(grad, &reg)
}

// sumSquares returns the sum of squared entries of a.
func sumSquares(a *mat.Dense) float64 {
	raw := a.RawMatrix()
	if raw.Stride == raw.Cols {
		data := raw.Data[:raw.Rows*raw.Cols]
		return floats.Dot(data, data)
	}
	var sum float64
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		sum += floats.Dot(row, row)
	}
	return sum
}

// mustSameDims panics if a and b differ in shape, and returns the row count.
func mustSameDims(name string, a, b mat.Matrix) int {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		panic(fmt.Sprintf("%s: prediction is %dx%d, target is %dx%d", name, ar, ac, br, bc))
	}
	return ar
}
