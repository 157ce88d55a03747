// Package net provides unit tests for the network.
package net

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestNetwork(seed int64, lambda float64) *Network {
	return New(lambda, rand.New(rand.NewSource(seed)))
}

// testData is a small normalized training set.
func testData() (*mat.Dense, *mat.Dense) {
	x := mat.NewDense(4, InputSize, []float64{
		0.25, 0.4,
		0.5, 0.6,
		0.75, 0.8,
		1.0, 1.0,
	})
	y := mat.NewDense(4, OutputSize, []float64{0.5, 0.6, 0.7, 0.8})
	return x, y
}

// TestNewShapes tests that the weight matrices have the fixed shapes.
func TestNewShapes(t *testing.T) {
	n := newTestNetwork(1, 0)

	r, c := n.W1.Dims()
	assert.Equal(t, InputSize, r)
	assert.Equal(t, HiddenSize, c)

	r, c = n.W2.Dims()
	assert.Equal(t, HiddenSize, r)
	assert.Equal(t, OutputSize, c)

	assert.Len(t, n.Params(), NumParams)
	assert.Equal(t, 9, NumParams)
}

// TestNewDeterministic tests that the same seed yields the same weights.
func TestNewDeterministic(t *testing.T) {
	a := newTestNetwork(42, 0)
	b := newTestNetwork(42, 0)
	c := newTestNetwork(43, 0)

	assert.Equal(t, a.Params(), b.Params())
	assert.NotEqual(t, a.Params(), c.Params())
}

// TestForward tests the forward pass against a hand computed value.
func TestForward(t *testing.T) {
	n := newTestNetwork(1, 0)
	require.NoError(t, n.SetParams([]float64{
		0.1, 0.2, 0.3,
		-0.1, 0.0, 0.5,
		1.0, -1.0, 0.5,
	}))

	p, err := n.Forward(mat.NewDense(1, InputSize, []float64{1, 2}))
	require.NoError(t, err)

	sig := func(z float64) float64 { return 1 / (1 + math.Exp(-z)) }
	z2 := []float64{0.1 - 0.2, 0.2 + 0, 0.3 + 1.0}
	var z3 float64
	for j, w := range []float64{1.0, -1.0, 0.5} {
		assert.InDelta(t, z2[j], p.Z2.At(0, j), 1e-12)
		assert.InDelta(t, sig(z2[j]), p.A2.At(0, j), 1e-12)
		z3 += sig(z2[j]) * w
	}
	assert.InDelta(t, z3, p.Z3.At(0, 0), 1e-12)
	assert.InDelta(t, sig(z3), p.YHat.At(0, 0), 1e-12)

	score, err := n.Predict([]float64{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, sig(z3), score, 1e-12)
}

// TestForwardOpenInterval tests every output lies strictly within (0,1).
func TestForwardOpenInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := New(0, rng)
		data := make([]float64, 20*InputSize)
		for i := range data {
			data[i] = rng.Float64()*20 - 10
		}

		p, err := n.Forward(mat.NewDense(20, InputSize, data))
		require.NoError(t, err)

		r, _ := p.YHat.Dims()
		assert.Equal(t, 20, r)
		for i := 0; i < r; i++ {
			v := p.YHat.At(i, 0)
			assert.True(t, v > 0 && v < 1, "yHat[%d] = %v outside (0,1)", i, v)
		}
	}
}

// TestForwardSaturated tests inputs far outside the normalized range still map inside (0,1).
func TestForwardSaturated(t *testing.T) {
	n := newTestNetwork(1, 0)
	n.W1 = mat.NewDense(InputSize, HiddenSize, []float64{1, 1, 1, 1, 1, 1})
	n.W2 = mat.NewDense(HiddenSize, OutputSize, []float64{20, 20, 20})

	yHat, err := n.Predict([]float64{50, 50})
	require.NoError(t, err)
	assert.Less(t, yHat, 1.0)
	assert.Greater(t, yHat, 0.0)

	n.W2.Scale(-1, n.W2)
	yHat, err = n.Predict([]float64{50, 50})
	require.NoError(t, err)
	assert.Less(t, yHat, 1.0)
	assert.Greater(t, yHat, 0.0)
}

func TestForwardShapeError(t *testing.T) {
	n := newTestNetwork(1, 0)

	_, err := n.Forward(mat.NewDense(2, 3, nil))
	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr), "got %v", err)
	assert.Equal(t, "forward", shapeErr.Op)

	_, err = n.Predict([]float64{1})
	assert.True(t, errors.As(err, &shapeErr))
}

// TestParamsRoundTrip tests flatten(unflatten(p)) == p exactly.
func TestParamsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := newTestNetwork(1, 0)

	for trial := 0; trial < 20; trial++ {
		p := make([]float64, NumParams)
		for i := range p {
			p[i] = rng.NormFloat64() * math.Pow(10, float64(rng.Intn(10)-5))
		}
		require.NoError(t, n.SetParams(p))
		assert.Equal(t, p, n.Params())
	}
}

// TestParamsLayout tests W1 row-major followed by W2 row-major.
func TestParamsLayout(t *testing.T) {
	n := newTestNetwork(1, 0)
	p := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	require.NoError(t, n.SetParams(p))

	assert.Equal(t, 2.0, n.W1.At(0, 1))
	assert.Equal(t, 4.0, n.W1.At(1, 0))
	assert.Equal(t, 6.0, n.W1.At(1, 2))
	assert.Equal(t, 7.0, n.W2.At(0, 0))
	assert.Equal(t, 9.0, n.W2.At(2, 0))

	// Params is a copy
	out := n.Params()
	out[0] = 100
	assert.Equal(t, 1.0, n.W1.At(0, 0))
}

// TestSetParamsShapeError tests vectors of the wrong length are rejected.
func TestSetParamsShapeError(t *testing.T) {
	n := newTestNetwork(1, 0)
	before := n.Params()

	for _, size := range []int{0, NumParams - 1, NumParams + 1} {
		err := n.SetParams(make([]float64, size))
		var shapeErr *ShapeError
		require.True(t, errors.As(err, &shapeErr), "size %d: got %v", size, err)
		assert.Equal(t, "set params", shapeErr.Op)
	}
	assert.Equal(t, before, n.Params(), "weights must be unchanged after a rejected vector")
}

// TestCost tests the cost against its definition.
func TestCost(t *testing.T) {
	x, y := testData()
	n := newTestNetwork(5, 1e-3)

	p, err := n.Forward(x)
	require.NoError(t, err)

	var sq, w float64
	for i := 0; i < 4; i++ {
		d := y.At(i, 0) - p.YHat.At(i, 0)
		sq += d * d
	}
	for _, v := range n.Params() {
		w += v * v
	}
	want := 0.5*sq/4 + 1e-3/2*w

	got, err := n.Cost(x, y)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

// TestCostNonNegative tests cost >= 0 for arbitrary parameters.
func TestCostNonNegative(t *testing.T) {
	x, y := testData()
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 100; trial++ {
		n := New(rng.Float64()*0.1, rng)
		p := n.Params()
		for i := range p {
			p[i] *= rng.Float64() * 10
		}
		require.NoError(t, n.SetParams(p))

		j, err := n.Cost(x, y)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, j, 0.0)
	}
}

func TestCostShapeError(t *testing.T) {
	n := newTestNetwork(1, 0)
	x, _ := testData()

	_, err := n.Cost(x, mat.NewDense(3, 1, nil))
	var shapeErr *ShapeError
	assert.True(t, errors.As(err, &shapeErr), "got %v", err)
}

// TestGradientMatchesCostGradient tests the flattened gradient layout.
func TestGradientMatchesCostGradient(t *testing.T) {
	x, y := testData()
	n := newTestNetwork(9, 1e-5)

	p, err := n.Forward(x)
	require.NoError(t, err)
	dW1, dW2, err := n.Gradient(p, y)
	require.NoError(t, err)

	grad := make([]float64, NumParams)
	j, err := n.CostGradient(x, y, grad)
	require.NoError(t, err)

	cost, err := n.Cost(x, y)
	require.NoError(t, err)
	assert.Equal(t, cost, j)

	assert.Equal(t, dW1.At(0, 0), grad[0])
	assert.Equal(t, dW1.At(1, 2), grad[5])
	assert.Equal(t, dW2.At(0, 0), grad[6])
	assert.Equal(t, dW2.At(2, 0), grad[8])

	_, err = n.CostGradient(x, y, make([]float64, 3))
	var shapeErr *ShapeError
	assert.True(t, errors.As(err, &shapeErr))
}

func TestGradientNilPass(t *testing.T) {
	n := newTestNetwork(1, 0)
	_, y := testData()
	_, _, err := n.Gradient(nil, y)
	assert.Error(t, err)
}

// TestClone tests that a clone does not share weights.
func TestClone(t *testing.T) {
	n := newTestNetwork(1, 0.5)
	c := n.Clone()

	assert.Equal(t, n.Params(), c.Params())
	assert.Equal(t, n.Lambda, c.Lambda)

	require.NoError(t, c.SetParams(make([]float64, NumParams)))
	assert.NotEqual(t, n.Params(), c.Params())

	x, y := testData()
	_, err := c.Cost(x, y)
	assert.NoError(t, err)
}

// BenchmarkCostGradient benchmarks the objective evaluated by the trainer.
func BenchmarkCostGradient(b *testing.B) {
	x, y := testData()
	n := newTestNetwork(1, 1e-5)
	grad := make([]float64, NumParams)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := n.CostGradient(x, y, grad); err != nil {
			b.Fatal(err)
		}
	}
}
