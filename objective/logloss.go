package objective

import (
	"math"

	"github.com/tarstars/forust/pkg/errors"
)

// probabilityEps keeps the log-odds of the base score finite.
const probabilityEps = 1e-15

// LogLoss is the binary cross-entropy on the log-odds scale.
type LogLoss struct{}

// Name implements Objective.
func (LogLoss) Name() string { return LogLossName }

// Gradients implements Objective.
func (LogLoss) Gradients(y, yhat, w, grad, hess []float64) {
	for i := range y {
		p := sigmoid(yhat[i])
		weight := 1.0
		if w != nil {
			weight = w[i]
		}
		grad[i] = weight * (p - y[i])
		hess[i] = weight * p * (1 - p)
	}
}

// BaseScore returns the log-odds of the weighted mean target.
func (LogLoss) BaseScore(y, w []float64) float64 {
	p := weightedMean(y, w)
	p = math.Min(math.Max(p, probabilityEps), 1-probabilityEps)
	return math.Log(p / (1 - p))
}

// Loss implements Objective.
func (LogLoss) Loss(y, yhat, w []float64) float64 {
	losses := make([]float64, len(y))
	for i := range y {
		p := math.Min(math.Max(sigmoid(yhat[i]), probabilityEps), 1-probabilityEps)
		losses[i] = -(y[i]*math.Log(p) + (1-y[i])*math.Log(1-p))
	}
	return weightedMean(losses, w)
}

// CheckTarget requires every target to lie in [0, 1].
func (LogLoss) CheckTarget(y []float64) error {
	for i, v := range y {
		if !(v >= 0 && v <= 1) {
			return errors.Fitf("log loss target %d is %v, expected a value in [0, 1]", i, v)
		}
	}
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
