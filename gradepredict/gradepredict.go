// Package gradepredict predicts a score from two features by fitting a small
// sigmoid network to historical (features, score) pairs.
package gradepredict

import (
	"github.com/FlavioCFOliveira/GradePredict/internal/net"
	"github.com/FlavioCFOliveira/GradePredict/internal/opt"
	"github.com/FlavioCFOliveira/GradePredict/internal/predict"
)

// Re-export common types and functions for easier access
type (
	Config     = predict.Config
	Predictor  = predict.Predictor
	Prediction = predict.Prediction
	Option     = predict.Option
	Grades     = net.Grades

	ShapeError           = net.ShapeError
	DegenerateInputError = net.DegenerateInputError

	Callback = opt.Callback
	History  = opt.History
)

// ErrNotConverged is wrapped by Prediction.Training.Err() when training hit its iteration cap.
var ErrNotConverged = opt.ErrNotConverged

// Predict fits a fresh network to trainX/trainY and returns its normalized
// output in (0,1) for query. Multiply by 100 for the score scale.
func Predict(trainX [][]float64, trainY []float64, query []float64) (float64, error) {
	return predict.Predict(trainX, trainY, query)
}

// DefaultConfig returns the fixed prediction hyperparameters.
func DefaultConfig() Config {
	return predict.DefaultConfig()
}

// New creates a configured Predictor.
func New(cfg Config, opts ...Option) (*Predictor, error) {
	return predict.New(cfg, opts...)
}

// Options
var (
	WithHoldout   = predict.WithHoldout
	WithRand      = predict.WithRand
	WithSeed      = predict.WithSeed
	WithCallbacks = predict.WithCallbacks
	WithLogger    = predict.WithLogger
)

// Callbacks

// Logger logs the costs every interval iterations and a summary at the end,
// through the standard logger.
func Logger(interval int) Callback {
	return opt.Logger{Interval: interval}
}

// CSVLogger writes the cost history to filename, truncating any existing file.
func CSVLogger(filename string) Callback {
	return opt.NewCSVLogger(filename, false)
}

// LoadGrades reads a "feature1,feature2,score" CSV; rows with an empty score are queries.
func LoadGrades(filename string, hasHeader bool) (*Grades, error) {
	return net.LoadGradesFile(filename, hasHeader)
}
