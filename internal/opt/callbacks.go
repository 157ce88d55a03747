package opt

import (
	"log"

	"gonum.org/v1/gonum/optimize"

	"github.com/FlavioCFOliveira/GradePredict/internal/net"
)

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(m Model)
	OnIterationEnd(iteration int, trainCost, testCost float64)
	OnTrainEnd(r *Result)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(m Model)                                      {}
func (c BaseCallback) OnIterationEnd(iteration int, trainCost, testCost float64) {}
func (c BaseCallback) OnTrainEnd(r *Result)                                      {}

// History is the training and held-out cost after each major iteration.
// It is diagnostic only and never feeds back into the optimizer.
type History struct {
	Train []float64
	Test  []float64
}

// Len returns the number of recorded iterations.
func (h History) Len() int {
	return len(h.Train)
}

// BestTest returns the iteration with the lowest held-out cost, or -1 if empty.
func (h History) BestTest() int {
	best := -1
	for i, c := range h.Test {
		if best < 0 || c < h.Test[best] {
			best = i
		}
	}
	return best
}

// recorder is the optimize.Recorder that fills the History.
type recorder struct {
	model       Model
	train, test net.Dataset
	callbacks   []Callback

	history History
	err     error
}

func (r *recorder) Init() error {
	r.history = History{}
	return nil
}

func (r *recorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op&optimize.MajorIteration == 0 {
		return nil
	}

	if err := r.model.SetParams(loc.X); err != nil {
		r.err = err
		return err
	}
	trainCost, err := r.model.Cost(r.train.X, r.train.Y)
	if err != nil {
		r.err = err
		return err
	}
	testCost, err := r.model.Cost(r.test.X, r.test.Y)
	if err != nil {
		r.err = err
		return err
	}

	r.history.Train = append(r.history.Train, trainCost)
	r.history.Test = append(r.history.Test, testCost)

	iteration := r.history.Len()
	for _, c := range r.callbacks {
		c.OnIterationEnd(iteration, trainCost, testCost)
	}
	return nil
}

// Logger logs training progress.
type Logger struct {
	BaseCallback
	Interval int
	Out      *log.Logger
}

func (c Logger) printf(format string, args ...interface{}) {
	if c.Out != nil {
		c.Out.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (c Logger) OnIterationEnd(iteration int, trainCost, testCost float64) {
	if c.Interval > 0 && iteration%c.Interval == 0 {
		c.printf("iteration %d: train cost = %.6f, held-out cost = %.6f", iteration, trainCost, testCost)
	}
}

func (c Logger) OnTrainEnd(r *Result) {
	if err := r.Err(); err != nil {
		c.printf("training stopped after %d iterations (%v): cost %.6f -> %.6f", r.Iterations, err, r.InitialCost, r.Cost)
		return
	}
	c.printf("training converged after %d iterations (%v): cost %.6f -> %.6f", r.Iterations, r.Status, r.InitialCost, r.Cost)
}
