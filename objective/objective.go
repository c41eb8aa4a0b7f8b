// Package objective provides the differentiable losses driving the booster.
package objective

import (
	"gonum.org/v1/gonum/stat"

	"github.com/tarstars/forust/pkg/errors"
)

// Objective turns targets and current predictions into first and second
// order derivatives of the loss.
type Objective interface {
	// Name returns the name accepted by Parse.
	Name() string
	// Gradients writes the sample-weighted gradient and hessian of every row
	// into grad and hess, which must have len(y) elements.
	Gradients(y, yhat, w, grad, hess []float64)
	// BaseScore is the constant prediction the ensemble starts from.
	BaseScore(y, w []float64) float64
	// Loss is the weighted mean loss of yhat.
	Loss(y, yhat, w []float64) float64
	// CheckTarget reports targets the loss is not defined for.
	CheckTarget(y []float64) error
}

// Names of the supported objectives.
const (
	LogLossName     = "LogLoss"
	SquaredLossName = "SquaredLoss"
)

// Parse returns the objective called name.
func Parse(name string) (Objective, error) {
	switch name {
	case LogLossName:
		return LogLoss{}, nil
	case SquaredLossName:
		return SquaredLoss{}, nil
	default:
		return nil, errors.InvalidObjectivef("unknown objective %q, expected %q or %q", name, LogLossName, SquaredLossName)
	}
}

// weightedMean treats nil weights as unit weights.
func weightedMean(x, w []float64) float64 {
	return stat.Mean(x, w)
}
