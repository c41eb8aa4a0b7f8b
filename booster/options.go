package booster

import (
	"github.com/rs/zerolog"

	"github.com/tarstars/forust/data"
)

// Option configures a GradientBooster at construction.
type Option func(*GradientBooster)

// WithLogger sets the logger used during fitting. The default is log.Default().
func WithLogger(l zerolog.Logger) Option {
	return func(b *GradientBooster) {
		b.logger = l
	}
}

// EvalSet is a labelled dataset scored after every boosting iteration.
type EvalSet struct {
	Name string
	X    *data.Matrix
	Y    []float64
}

type fitConfig struct {
	parallel bool
	evalSets []EvalSet
}

// FitOption configures one call to Fit.
type FitOption func(*fitConfig)

// WithParallel overrides Params.Parallel for one call.
func WithParallel(parallel bool) FitOption {
	return func(c *fitConfig) {
		c.parallel = parallel
	}
}

// WithEvalSet records the loss on x and y after every tree into LearningCurves.
func WithEvalSet(name string, x *data.Matrix, y []float64) FitOption {
	return func(c *fitConfig) {
		c.evalSets = append(c.evalSets, EvalSet{Name: name, X: x, Y: y})
	}
}

type predictConfig struct {
	parallel  bool
	limited   bool
	treeLimit int
}

// PredictOption configures one call to Predict.
type PredictOption func(*predictConfig)

// WithPredictParallel overrides Params.Parallel for one call.
func WithPredictParallel(parallel bool) PredictOption {
	return func(c *predictConfig) {
		c.parallel = parallel
	}
}

// WithTreeLimit predicts with the first n trees only.
func WithTreeLimit(n int) PredictOption {
	return func(c *predictConfig) {
		c.limited = true
		c.treeLimit = n
	}
}
