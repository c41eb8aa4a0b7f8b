package tree

import (
	"gorgonia.org/tensor"

	"github.com/tarstars/forust/binning"
	"github.com/tarstars/forust/internal/pool"
)

// Bin accumulates the rows of a node falling into one bin of one feature.
type Bin struct {
	Grad  float64
	Hess  float64
	Count int
}

// Histogram holds the bins of every feature at one node. Gradient and
// hessian sums live in a (features, bins, 2) tensor padded to the widest
// feature; row counts are kept alongside with the same layout.
type Histogram struct {
	nunique []int
	stride  int
	sums    *tensor.Dense
	counts  []int
}

func newHistogram(nunique []int) *Histogram {
	stride := 1
	for _, n := range nunique {
		stride = max(stride, n)
	}
	features := max(len(nunique), 1)
	return &Histogram{
		nunique: nunique,
		stride:  stride,
		sums:    tensor.New(tensor.WithShape(features, stride, 2), tensor.Of(tensor.Float64)),
		counts:  make([]int, features*stride),
	}
}

// Features returns the number of features.
func (h *Histogram) Features() int { return len(h.nunique) }

// Bins returns the number of bins of feature f.
func (h *Histogram) Bins(f int) int { return h.nunique[f] }

// At returns bin k of feature f.
func (h *Histogram) At(f, k int) Bin {
	sums, counts := h.feature(f)
	return Bin{Grad: sums[2*k], Hess: sums[2*k+1], Count: counts[k]}
}

// feature returns the interleaved gradient and hessian sums of feature f and
// its counts. Both alias the histogram storage.
func (h *Histogram) feature(f int) ([]float64, []int) {
	n := h.nunique[f]
	lo := f * h.stride
	sums := h.sums.Data().([]float64)
	return sums[2*lo : 2*(lo+n)], h.counts[lo : lo+n]
}

// buildHistogram fills a histogram from rows. Each feature is accumulated by
// one task in row order, so the sums do not depend on the pool size.
func buildHistogram(b *binning.BinnedMatrix, nunique []int, rows []int, grad, hess []float64, p *pool.Pool) *Histogram {
	h := newHistogram(nunique)
	p.Run(len(nunique), func(f int) {
		codes := b.Column(f)
		sums, counts := h.feature(f)
		for _, r := range rows {
			k := int(codes[r])
			sums[2*k] += grad[r]
			sums[2*k+1] += hess[r]
			counts[k]++
		}
	})
	return h
}

// subtract returns parent minus sibling, the histogram of the other child.
func subtract(parent, sibling *Histogram, p *pool.Pool) *Histogram {
	sums, err := parent.sums.Sub(sibling.sums)
	if err != nil {
		// Both histograms come from newHistogram over the same nunique.
		panic(err)
	}
	counts := make([]int, len(parent.counts))
	p.RunRanges(len(counts), func(start, end int) {
		for i := start; i < end; i++ {
			counts[i] = parent.counts[i] - sibling.counts[i]
		}
	})
	return &Histogram{nunique: parent.nunique, stride: parent.stride, sums: sums, counts: counts}
}
