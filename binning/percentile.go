// Package binning turns raw feature columns into small integer bin codes
// using weighted quantile cut points.
package binning

import (
	"math"
	"sort"

	"github.com/tarstars/forust/pkg/errors"
)

// Percentiles returns one weighted percentile of v per entry of p.
//
// Sorted values sit at cumulative positions (S_i - w_i/2)/W, where S_i is the
// running weight including value i and W the total weight. A percentile is
// interpolated linearly between the two values whose positions straddle it and
// is clamped to the minimum and maximum outside the first and last position.
// Ties in v keep their input order.
func Percentiles(v, w, p []float64) ([]float64, error) {
	if len(v) != len(w) {
		return nil, errors.InvalidInputf("percentiles: %d values but %d weights", len(v), len(w))
	}
	if len(v) == 0 {
		return nil, errors.InvalidInputf("percentiles: no values")
	}
	for i, q := range p {
		if math.IsNaN(q) || q < 0 || q > 1 {
			return nil, errors.InvalidInputf("percentiles: percentile %d is %v, expected a value in [0, 1]", i, q)
		}
	}
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return nil, errors.InvalidInputf("percentiles: value %d is %v", i, v[i])
		}
	}
	total, err := totalWeight(w)
	if err != nil {
		return nil, err
	}

	order := argsort(v)
	positions := cumulativePositions(order, w, total)

	out := make([]float64, len(p))
	for i, q := range p {
		out[i] = interpolate(v, order, positions, q)
	}
	return out, nil
}

// totalWeight validates w and returns its sum.
func totalWeight(w []float64) (float64, error) {
	total := 0.0
	for i, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return 0, errors.InvalidInputf("weight %d is %v, weights must be finite and non-negative", i, x)
		}
		total += x
	}
	if total <= 0 {
		return 0, errors.InvalidInputf("weights sum to %v, expected a positive total", total)
	}
	return total, nil
}

// argsort returns the indices of v in ascending order of value, stable on ties.
func argsort(v []float64) []int {
	order := make([]int, len(v))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return v[order[a]] < v[order[b]]
	})
	return order
}

func cumulativePositions(order []int, w []float64, total float64) []float64 {
	positions := make([]float64, len(order))
	running := 0.0
	for k, idx := range order {
		running += w[idx]
		positions[k] = (running - w[idx]/2) / total
	}
	return positions
}

// interpolate answers a single percentile q over the sorted view.
func interpolate(v []float64, order []int, positions []float64, q float64) float64 {
	last := len(order) - 1
	if q <= positions[0] {
		return v[order[0]]
	}
	if q >= positions[last] {
		return v[order[last]]
	}
	// First position strictly greater than q; k-1 is at or below q.
	k := sort.Search(len(positions), func(i int) bool { return positions[i] > q })
	lo, hi := positions[k-1], positions[k]
	vLo, vHi := v[order[k-1]], v[order[k]]
	if hi == lo {
		return vLo
	}
	return vLo + (vHi-vLo)*(q-lo)/(hi-lo)
}
