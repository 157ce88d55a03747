package predict

import (
	"math"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/GradePredict/internal/net"
	"github.com/FlavioCFOliveira/GradePredict/internal/opt"
)

// Config captures the fixed hyperparameters of a prediction.
type Config struct {
	// Lambda is the L2 regularization coefficient.
	Lambda float64
	// MaxIterations caps the BFGS major iterations.
	MaxIterations int
	// GradientThreshold is the convergence tolerance on the gradient's infinity norm.
	GradientThreshold float64
	// LabelScale divides the training scores before fitting.
	LabelScale float64
}

// DefaultConfig returns the hyperparameters used for every grade prediction.
func DefaultConfig() Config {
	return Config{
		Lambda:            1e-5,
		MaxIterations:     opt.DefaultMaxIterations,
		GradientThreshold: opt.DefaultGradientThreshold,
		LabelScale:        net.DefaultLabelScale,
	}
}

// Validate verifies the config is runnable.
func (c Config) Validate() error {
	if c.Lambda < 0 || math.IsNaN(c.Lambda) || math.IsInf(c.Lambda, 0) {
		return errors.Errorf("lambda must be a finite value >= 0, got %v", c.Lambda)
	}
	if c.MaxIterations <= 0 {
		return errors.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.GradientThreshold <= 0 {
		return errors.Errorf("gradient threshold must be positive, got %v", c.GradientThreshold)
	}
	if c.LabelScale <= 0 || math.IsInf(c.LabelScale, 0) || math.IsNaN(c.LabelScale) {
		return errors.Errorf("label scale must be a positive finite value, got %v", c.LabelScale)
	}
	return nil
}
