// Package predict normalizes raw grades, fits a fresh network to them and
// evaluates it on a query.
package predict

import (
	"log"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/GradePredict/internal/net"
	"github.com/FlavioCFOliveira/GradePredict/internal/opt"
)

// Held-out examples used for the held-out cost history when none is injected.
var (
	DefaultHoldoutX = [][]float64{{4, 5.5}, {4.5, 1}, {9, 2.5}, {6, 2}}
	DefaultHoldoutY = []float64{70, 89, 85, 75}
)

// Predictor trains one independent network per call to Predict.
// It is not safe for concurrent use since calls share its random source.
type Predictor struct {
	cfg Config

	holdoutX [][]float64
	holdoutY []float64

	rng       *rand.Rand
	callbacks []opt.Callback
	logger    *log.Logger
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithHoldout replaces the held-out fixture. Rows are raw, in training units.
func WithHoldout(x [][]float64, y []float64) Option {
	return func(p *Predictor) {
		p.holdoutX, p.holdoutY = x, y
	}
}

// WithRand sets the source used to initialize network weights.
func WithRand(rng *rand.Rand) Option {
	return func(p *Predictor) {
		p.rng = rng
	}
}

// WithSeed is WithRand with a fresh source seeded by seed.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithCallbacks attaches training callbacks.
func WithCallbacks(callbacks ...opt.Callback) Option {
	return func(p *Predictor) {
		p.callbacks = append(p.callbacks, callbacks...)
	}
}

// WithLogger sets where non-convergence warnings go. Nil disables them.
func WithLogger(l *log.Logger) Option {
	return func(p *Predictor) {
		p.logger = l
	}
}

// New creates a Predictor.
func New(cfg Config, opts ...Option) (*Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	p := &Predictor{
		cfg:      cfg,
		holdoutX: DefaultHoldoutX,
		holdoutY: DefaultHoldoutY,
	}
	for _, o := range opts {
		o(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p, nil
}

// Prediction is the outcome of one prediction request.
type Prediction struct {
	// Score is the network output in (0,1).
	Score float64

	// Converged is false when training hit its iteration cap; Score is still
	// the output of the best parameters found.
	Converged bool

	// Scale holds the training normalization applied to the query.
	Scale net.Scale

	Training *opt.Result
	Network  *net.Network
}

// Rescaled maps Score back onto the label scale of the training scores.
func (p *Prediction) Rescaled() float64 {
	return p.Scale.Restore(p.Score)
}

// Predict fits a freshly initialized network to the training data and
// evaluates it on query. Training features and the query are normalized by the
// training set's column maxima, scores by the label scale.
func (p *Predictor) Predict(trainX [][]float64, trainY []float64, query []float64) (*Prediction, error) {
	raw, err := net.NewDataset(trainX, trainY)
	if err != nil {
		return nil, errors.Wrap(err, "training data")
	}
	scale, err := net.FitScale(raw.X, p.cfg.LabelScale)
	if err != nil {
		return nil, errors.Wrap(err, "training data")
	}
	train, err := scale.Apply(raw)
	if err != nil {
		return nil, errors.Wrap(err, "training data")
	}

	holdout, err := normalizeHoldout(p.holdoutX, p.holdoutY, p.cfg.LabelScale)
	if err != nil {
		return nil, errors.Wrap(err, "held-out data")
	}

	q, err := scale.ApplyFeatures(query)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}

	network := net.New(p.cfg.Lambda, p.rng)
	trainer := &opt.BFGS{
		MaxIterations:     p.cfg.MaxIterations,
		GradientThreshold: p.cfg.GradientThreshold,
		Callbacks:         p.callbacks,
	}
	res, err := trainer.Train(network, train, holdout)
	if err != nil {
		return nil, errors.Wrap(err, "training")
	}
	if err := res.Err(); err != nil && p.logger != nil {
		p.logger.Printf("warning: %v; using best parameters found (cost %.6f)", err, res.Cost)
	}

	score, err := network.Predict(q)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}

	return &Prediction{
		Score:     score,
		Converged: res.Converged,
		Scale:     scale,
		Training:  res,
		Network:   network,
	}, nil
}

// normalizeHoldout scales the held-out set by its own column maxima.
func normalizeHoldout(x [][]float64, y []float64, label float64) (net.Dataset, error) {
	raw, err := net.NewDataset(x, y)
	if err != nil {
		return net.Dataset{}, err
	}
	scale, err := net.FitScale(raw.X, label)
	if err != nil {
		return net.Dataset{}, err
	}
	return scale.Apply(raw)
}

// Predict runs a prediction with the default configuration and a time seeded
// network initialization, returning the normalized score in (0,1).
func Predict(trainX [][]float64, trainY []float64, query []float64) (float64, error) {
	p, err := New(DefaultConfig(), WithLogger(log.Default()))
	if err != nil {
		return 0, err
	}
	pred, err := p.Predict(trainX, trainY, query)
	if err != nil {
		return 0, err
	}
	return pred.Score, nil
}
