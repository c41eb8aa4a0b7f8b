package binning

import (
	"math"
	"sort"

	"github.com/tarstars/forust/data"
	"github.com/tarstars/forust/internal/pool"
	"github.com/tarstars/forust/pkg/errors"
)

// MaxBins is the largest bin budget representable by uint16 codes.
const MaxBins = math.MaxUint16

// Result is the output of BinMatrix.
type Result struct {
	Binned  *BinnedMatrix
	Cuts    [][]float64 // per feature, strictly increasing
	NUnique []int       // per feature, len(Cuts[f]) + 1
}

type config struct {
	pool *pool.Pool
}

// Option configures BinMatrix.
type Option func(*config)

// WithPool bins features concurrently on p. A nil pool bins serially.
func WithPool(p *pool.Pool) Option {
	return func(c *config) {
		c.pool = p
	}
}

// BinMatrix computes weighted quantile cuts for every feature of m and
// encodes m with them. Weights may be nil for unit weights.
func BinMatrix(m *data.Matrix, w []float64, nbins int, opts ...Option) (*Result, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	rows, cols := m.Dims()
	if nbins <= 0 || nbins > MaxBins {
		return nil, errors.InvalidInputf("nbins is %d, expected a value in [1, %d]", nbins, MaxBins)
	}
	if w == nil {
		w = unitWeights(rows)
	}
	if len(w) != rows {
		return nil, errors.NewDimensionError(errors.ErrInvalidInput, "bin", rows, len(w), 0)
	}
	if rows == 0 {
		return nil, errors.InvalidInputf("cannot bin a matrix without rows")
	}
	if err := m.CheckFinite(errors.ErrInvalidInput, "bin"); err != nil {
		return nil, err
	}
	if _, err := totalWeight(w); err != nil {
		return nil, err
	}

	targets := make([]float64, nbins-1)
	for k := range targets {
		targets[k] = float64(k+1) / float64(nbins)
	}

	res := &Result{
		Binned:  newBinnedMatrix(rows, cols),
		Cuts:    make([][]float64, cols),
		NUnique: make([]int, cols),
	}
	errs := make([]error, cols)

	cfg.pool.Run(cols, func(f int) {
		column := m.CopyCol(f, nil)
		cuts, err := featureCuts(column, w, targets)
		if err != nil {
			errs[f] = errors.Wrapf(err, "feature %d", f)
			return
		}
		res.Cuts[f] = cuts
		res.NUnique[f] = len(cuts) + 1
		encode(column, cuts, res.Binned.Column(f))
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Apply encodes m with cuts computed earlier, e.g. on a training matrix.
func Apply(m *data.Matrix, cuts [][]float64) (*BinnedMatrix, error) {
	rows, cols := m.Dims()
	if cols != len(cuts) {
		return nil, errors.NewDimensionError(errors.ErrShape, "apply cuts", len(cuts), cols, 1)
	}
	binned := newBinnedMatrix(rows, cols)
	column := make([]float64, rows)
	for f := 0; f < cols; f++ {
		column = m.CopyCol(f, column)
		encode(column, cuts[f], binned.Column(f))
	}
	return binned, nil
}

// Code returns the bin of value v under cuts: the index of the first cut
// with v <= cut, or len(cuts) above all of them.
func Code(cuts []float64, v float64) uint16 {
	return uint16(sort.SearchFloat64s(cuts, v))
}

// featureCuts selects the interior cut points of one column.
func featureCuts(column, w, targets []float64) ([]float64, error) {
	maxValue := math.Inf(-1)
	for _, v := range column {
		if v > maxValue {
			maxValue = v
		}
	}
	if len(targets) == 0 {
		return []float64{}, nil
	}

	candidates, err := Percentiles(column, w, targets)
	if err != nil {
		return nil, err
	}
	cuts := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if c >= maxValue {
			break
		}
		if len(cuts) > 0 && c <= cuts[len(cuts)-1] {
			continue
		}
		cuts = append(cuts, c)
	}
	return cuts, nil
}

func encode(column, cuts []float64, dst []uint16) {
	for r, v := range column {
		dst[r] = Code(cuts, v)
	}
}

func unitWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
