package net

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GradientCheckStep is the perturbation applied to each parameter.
const GradientCheckStep = 1e-4

// NumericalGradient estimates dJ/dparams by central differences:
// (J(p + eps*e_i) - J(p - eps*e_i)) / (2*eps) for every parameter i.
// The network's parameters are restored before returning.
func NumericalGradient(n *Network, x, y mat.Matrix) ([]float64, error) {
	if err := checkXY("numerical gradient", x, y); err != nil {
		return nil, err
	}

	initial := n.Params()
	defer n.SetParams(initial)

	var evalErr error
	cost := func(params []float64) float64 {
		if err := n.SetParams(params); err != nil {
			evalErr = err
			return math.NaN()
		}
		j, err := n.Cost(x, y)
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return j
	}

	grad := fd.Gradient(nil, cost, initial, &fd.Settings{
		Formula: fd.Central,
		Step:    GradientCheckStep,
	})
	if evalErr != nil {
		return nil, errors.Wrap(evalErr, "numerical gradient")
	}
	return grad, nil
}

// GradientCheck compares the analytic gradient with its numerical estimate.
type GradientCheck struct {
	Analytic  []float64
	Numerical []float64

	// Worst is the index of the component with the largest scaled difference.
	Worst   int
	MaxDiff float64

	// RelativeNorm is ||a - n|| / ||a + n||.
	RelativeNorm float64

	// OK is true when every component agrees within the tolerance.
	OK bool
}

// CheckGradient evaluates both gradients at the network's current parameters.
// Component i agrees when |a_i - n_i| <= tol * max(1, |a_i|, |n_i|).
func CheckGradient(n *Network, x, y mat.Matrix, tol float64) (GradientCheck, error) {
	analytic := make([]float64, NumParams)
	if _, err := n.CostGradient(x, y, analytic); err != nil {
		return GradientCheck{}, err
	}
	numerical, err := NumericalGradient(n, x, y)
	if err != nil {
		return GradientCheck{}, err
	}

	c := GradientCheck{Analytic: analytic, Numerical: numerical, OK: true}
	for i := range analytic {
		scale := math.Max(1, math.Max(math.Abs(analytic[i]), math.Abs(numerical[i])))
		d := math.Abs(analytic[i]-numerical[i]) / scale
		if d > c.MaxDiff {
			c.MaxDiff = d
			c.Worst = i
		}
		if d > tol {
			c.OK = false
		}
	}

	sum := make([]float64, len(analytic))
	floats.AddTo(sum, analytic, numerical)
	if denom := floats.Norm(sum, 2); denom > 0 {
		c.RelativeNorm = floats.Distance(analytic, numerical, 2) / denom
	}
	return c, nil
}
