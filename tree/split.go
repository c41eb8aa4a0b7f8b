package tree

import (
	"github.com/tarstars/forust/internal/pool"
)

// Split is the best candidate split found for a node.
type Split struct {
	Feature int
	Bin     int
	Gain    float64
	Valid   bool
}

// nodeStats are the gradient and hessian totals of a node.
type nodeStats struct {
	grad, hess float64
	count      int
}

// bestSplit scans every boundary of every feature. Features are scanned
// concurrently and reduced in feature order; a candidate replaces the current
// best only with a strictly higher gain, so the lowest feature and then the
// lowest bin win ties.
func bestSplit(h *Histogram, total nodeStats, cfg GrowerConfig, p *pool.Pool) Split {
	perFeature := make([]Split, h.Features())
	p.Run(h.Features(), func(f int) {
		perFeature[f] = bestFeatureSplit(h, f, total, cfg)
	})

	var best Split
	for _, s := range perFeature {
		if s.Valid && (!best.Valid || s.Gain > best.Gain) {
			best = s
		}
	}
	return best
}

func bestFeatureSplit(h *Histogram, feature int, total nodeStats, cfg GrowerConfig) Split {
	best := Split{Feature: feature}
	parentScore := score(total.grad, total.hess, cfg.L2)
	sums, counts := h.feature(feature)

	var leftGrad, leftHess float64
	leftCount := 0
	for b := 0; b < len(counts)-1; b++ {
		leftGrad += sums[2*b]
		leftHess += sums[2*b+1]
		leftCount += counts[b]

		rightGrad := total.grad - leftGrad
		rightHess := total.hess - leftHess
		rightCount := total.count - leftCount
		if leftCount == 0 || rightCount == 0 {
			continue
		}
		if leftHess < cfg.MinLeafWeight || rightHess < cfg.MinLeafWeight {
			continue
		}
		if leftHess+cfg.L2 <= 0 || rightHess+cfg.L2 <= 0 || total.hess+cfg.L2 <= 0 {
			continue
		}

		gain := 0.5*(score(leftGrad, leftHess, cfg.L2)+score(rightGrad, rightHess, cfg.L2)-parentScore) - cfg.Gamma
		if !best.Valid || gain > best.Gain {
			best = Split{Feature: feature, Bin: b, Gain: gain, Valid: true}
		}
	}
	return best
}

func score(g, h, l2 float64) float64 {
	denom := h + l2
	if denom <= 0 {
		return 0
	}
	return g * g / denom
}
