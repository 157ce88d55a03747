package net

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultLabelScale maps percentage scores onto the sigmoid's (0,1) range.
const DefaultLabelScale = 100

// Dataset holds examples row-wise: X is n x InputSize, Y is n x OutputSize.
type Dataset struct {
	X *mat.Dense
	Y *mat.Dense
}

// NewDataset builds a Dataset from raw rows and labels.
func NewDataset(x [][]float64, y []float64) (Dataset, error) {
	if len(x) != len(y) {
		return Dataset{}, shapeErrorf("dataset", fmt.Sprintf("%d labels", len(x)), "%d", len(y))
	}
	if len(x) == 0 {
		return Dataset{}, shapeErrorf("dataset", "at least one example", "0 rows")
	}

	data := make([]float64, 0, len(x)*InputSize)
	for i, row := range x {
		if len(row) != InputSize {
			return Dataset{}, shapeErrorf("dataset", fmt.Sprintf("%d features in row %d", InputSize, i), "%d", len(row))
		}
		data = append(data, row...)
	}
	labels := make([]float64, len(y))
	copy(labels, y)

	return Dataset{
		X: mat.NewDense(len(x), InputSize, data),
		Y: mat.NewDense(len(y), OutputSize, labels),
	}, nil
}

// Len returns the number of examples.
func (d Dataset) Len() int {
	if d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// Validate checks the dataset matches the network shape.
func (d Dataset) Validate() error {
	if d.X == nil || d.Y == nil {
		return shapeErrorf("dataset", "X and Y", "nil matrix")
	}
	return checkXY("dataset", d.X, d.Y)
}

// Scale holds the normalization constants of a training set.
// The same Scale must be applied to held-out data and queries.
type Scale struct {
	// Features holds the per-column maxima.
	Features []float64
	// Label divides the targets.
	Label float64
}

// FitScale computes per-column maxima of x. A column whose maximum is not a
// positive finite number yields a DegenerateInputError.
func FitScale(x mat.Matrix, label float64) (Scale, error) {
	if label <= 0 || math.IsInf(label, 0) || math.IsNaN(label) {
		return Scale{}, errors.Errorf("label scale must be positive and finite, got %v", label)
	}

	_, cols := x.Dims()
	s := Scale{Features: make([]float64, cols), Label: label}
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, x)
		max := floats.Max(col)
		if floats.HasNaN(col) || max <= 0 || math.IsInf(max, 0) {
			return Scale{}, &DegenerateInputError{Column: j, Max: max}
		}
		s.Features[j] = max
	}
	return s, nil
}

// Apply returns a normalized copy of d: features divided by the column maxima,
// labels divided by the label scale.
func (s Scale) Apply(d Dataset) (Dataset, error) {
	if err := d.Validate(); err != nil {
		return Dataset{}, err
	}
	if len(s.Features) != InputSize {
		return Dataset{}, shapeErrorf("scale", fmt.Sprintf("%d feature maxima", InputSize), "%d", len(s.Features))
	}

	var x, y mat.Dense
	x.Apply(func(_, j int, v float64) float64 {
		return v / s.Features[j]
	}, d.X)
	y.Scale(1/s.Label, d.Y)
	return Dataset{X: &x, Y: &y}, nil
}

// ApplyFeatures normalizes a single raw feature vector.
func (s Scale) ApplyFeatures(x []float64) ([]float64, error) {
	if len(x) != len(s.Features) {
		return nil, shapeErrorf("scale", fmt.Sprintf("%d features", len(s.Features)), "%d", len(x))
	}
	out := make([]float64, len(x))
	floats.DivTo(out, x, s.Features)
	return out, nil
}

// Restore maps a normalized prediction back onto the label scale.
func (s Scale) Restore(score float64) float64 {
	return score * s.Label
}
