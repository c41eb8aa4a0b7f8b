package objective

// SquaredLoss is half the squared error.
type SquaredLoss struct{}

// Name implements Objective.
func (SquaredLoss) Name() string { return SquaredLossName }

// Gradients implements Objective.
func (SquaredLoss) Gradients(y, yhat, w, grad, hess []float64) {
	for i := range y {
		weight := 1.0
		if w != nil {
			weight = w[i]
		}
		grad[i] = weight * (yhat[i] - y[i])
		hess[i] = weight
	}
}

// BaseScore returns the weighted mean target.
func (SquaredLoss) BaseScore(y, w []float64) float64 {
	return weightedMean(y, w)
}

// Loss implements Objective.
func (SquaredLoss) Loss(y, yhat, w []float64) float64 {
	losses := make([]float64, len(y))
	for i := range y {
		d := yhat[i] - y[i]
		losses[i] = 0.5 * d * d
	}
	return weightedMean(losses, w)
}

// CheckTarget accepts any finite target.
func (SquaredLoss) CheckTarget([]float64) error { return nil }
