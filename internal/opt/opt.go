// Package opt fits network parameters with a quasi-Newton optimizer.
package opt

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/FlavioCFOliveira/GradePredict/internal/net"
)

// Defaults for BFGS.
const (
	DefaultMaxIterations     = 200
	DefaultGradientThreshold = 1e-5
)

// ErrNotConverged is reported when the optimizer stopped before meeting its tolerance.
// The best iterate found is still written back to the model.
var ErrNotConverged = errors.New("optimizer did not converge")

// Model is anything exposing a flat parameter vector with a differentiable cost.
type Model interface {
	Params() []float64
	SetParams(params []float64) error
	Cost(x, y mat.Matrix) (float64, error)
	CostGradient(x, y mat.Matrix, grad []float64) (float64, error)
}

// BFGS trains a Model with gonum's BFGS method.
type BFGS struct {
	// MaxIterations caps the number of major iterations.
	MaxIterations int

	// GradientThreshold stops training once the infinity norm of the gradient falls below it.
	GradientThreshold float64

	Callbacks []Callback
}

// NewBFGS creates a BFGS trainer with default tolerances.
func NewBFGS(maxIterations int, callbacks ...Callback) *BFGS {
	return &BFGS{
		MaxIterations:     maxIterations,
		GradientThreshold: DefaultGradientThreshold,
		Callbacks:         callbacks,
	}
}

// Result describes a finished training run.
type Result struct {
	Params      []float64
	Cost        float64
	InitialCost float64

	Iterations      int
	FuncEvaluations int
	Status          optimize.Status
	Converged       bool

	// OptimizerErr is the error gonum reported alongside its best location, if any.
	OptimizerErr error

	History History
}

// Err returns nil for a converged run, otherwise an error wrapping ErrNotConverged.
func (r *Result) Err() error {
	if r.Converged {
		return nil
	}
	if r.OptimizerErr != nil {
		return errors.Wrapf(ErrNotConverged, "status %v: %v", r.Status, r.OptimizerErr)
	}
	return errors.Wrapf(ErrNotConverged, "status %v after %d iterations", r.Status, r.Iterations)
}

// Train minimizes the training cost of m. After every major iteration the
// training and held-out costs are appended to the history. On return m holds
// the best parameters found, whether or not the optimizer converged.
func (b *BFGS) Train(m Model, train, test net.Dataset) (*Result, error) {
	if err := train.Validate(); err != nil {
		return nil, errors.Wrap(err, "training set")
	}
	if err := test.Validate(); err != nil {
		return nil, errors.Wrap(err, "held-out set")
	}

	initial := m.Params()
	initialCost, err := m.Cost(train.X, train.Y)
	if err != nil {
		return nil, err
	}

	for _, c := range b.Callbacks {
		c.OnTrainBegin(m)
	}

	r, err := b.minimize(m, train, test, initial, initialCost)
	if err != nil {
		// A failed run still ends every callback; the result carries the error.
		b.trainEnd(&Result{
			Params:       initial,
			Cost:         initialCost,
			InitialCost:  initialCost,
			OptimizerErr: err,
		})
		return nil, err
	}
	b.trainEnd(r)
	return r, nil
}

func (b *BFGS) trainEnd(r *Result) {
	for _, c := range b.Callbacks {
		c.OnTrainEnd(r)
	}
}

// minimize runs gonum's BFGS from initial and leaves the best parameters in m.
func (b *BFGS) minimize(m Model, train, test net.Dataset, initial []float64, initialCost float64) (*Result, error) {
	obj := &objective{model: m, x: train.X, y: train.Y}
	rec := &recorder{model: m, train: train, test: test, callbacks: b.Callbacks}

	maxIter := b.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	gradTol := b.GradientThreshold
	if gradTol <= 0 {
		gradTol = DefaultGradientThreshold
	}

	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: gradTol,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 20,
		},
		Recorder: rec,
	}
	problem := optimize.Problem{
		Func: obj.Func,
		Grad: obj.Grad,
	}

	res, optErr := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if obj.err != nil {
		return nil, errors.Wrap(obj.err, "objective")
	}
	if rec.err != nil {
		return nil, errors.Wrap(rec.err, "recording history")
	}
	if res == nil {
		return nil, errors.Wrap(optErr, "bfgs")
	}

	r := &Result{
		Params:          res.X,
		Cost:            res.F,
		InitialCost:     initialCost,
		Iterations:      res.Stats.MajorIterations,
		FuncEvaluations: res.Stats.FuncEvaluations,
		Status:          res.Status,
		Converged:       optErr == nil && converged(res.Status),
		OptimizerErr:    optErr,
		History:         rec.history,
	}

	// The best location can only be worse than the start if the objective misbehaved.
	if math.IsNaN(r.Cost) || r.Cost > initialCost {
		r.Params, r.Cost = initial, initialCost
	}
	if err := m.SetParams(r.Params); err != nil {
		return nil, err
	}
	return r, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success,
		optimize.GradientThreshold,
		optimize.FunctionConvergence,
		optimize.FunctionThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

// objective evaluates cost and gradient together and serves the gradient
// from cache when gonum asks for it at the point it just evaluated.
type objective struct {
	model Model
	x, y  mat.Matrix

	lastX    []float64
	lastF    float64
	lastGrad []float64
	err      error
}

func (o *objective) eval(params []float64) {
	if o.lastX != nil && floats.Equal(o.lastX, params) {
		return
	}
	if o.lastX == nil {
		o.lastX = make([]float64, len(params))
		o.lastGrad = make([]float64, len(params))
	}
	copy(o.lastX, params)

	if err := o.model.SetParams(params); err != nil {
		o.fail(err)
		return
	}
	f, err := o.model.CostGradient(o.x, o.y, o.lastGrad)
	if err != nil {
		o.fail(err)
		return
	}
	o.lastF = f
}

func (o *objective) fail(err error) {
	if o.err == nil {
		o.err = err
	}
	o.lastF = math.NaN()
	for i := range o.lastGrad {
		o.lastGrad[i] = math.NaN()
	}
}

// Func implements optimize.Problem.Func.
func (o *objective) Func(params []float64) float64 {
	o.eval(params)
	return o.lastF
}

// Grad implements optimize.Problem.Grad.
func (o *objective) Grad(grad, params []float64) {
	o.eval(params)
	copy(grad, o.lastGrad)
}
