package tree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarstars/forust/binning"
	"github.com/tarstars/forust/data"
	"github.com/tarstars/forust/internal/pool"
	"github.com/tarstars/forust/pkg/errors"
)

type dataset struct {
	m    *data.Matrix
	bins *binning.Result
	grad []float64
	hess []float64
}

// squaredDataset bins m and computes squared loss gradients of y against
// a constant prediction base.
func squaredDataset(t *testing.T, m *data.Matrix, y []float64, base float64, nbins int) dataset {
	t.Helper()
	res, err := binning.BinMatrix(m, nil, nbins)
	require.NoError(t, err)
	grad := make([]float64, len(y))
	hess := make([]float64, len(y))
	for i := range y {
		grad[i] = base - y[i]
		hess[i] = 1
	}
	return dataset{m: m, bins: res, grad: grad, hess: hess}
}

func (d dataset) grow(cfg GrowerConfig, p *pool.Pool) *Tree {
	return NewGrower(cfg, p).Grow(d.bins.Binned, d.bins.Cuts, d.bins.NUnique, d.grad, d.hess)
}

func linearDataset(t *testing.T, n int) dataset {
	t.Helper()
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i)}
		y[i] = float64(i)
	}
	m, err := data.FromRows(rows)
	require.NoError(t, err)
	return squaredDataset(t, m, y, float64(n-1)/2, 64)
}

func TestGrowSingleSplit(t *testing.T) {
	m, err := data.FromRows([][]float64{{0}, {1}, {2}, {3}})
	require.NoError(t, err)
	d := squaredDataset(t, m, []float64{0, 0, 1, 1}, 0.5, 4)

	tr := d.grow(GrowerConfig{MaxDepth: 1}, nil)
	require.Len(t, tr.Nodes, 3)

	root := tr.Nodes[0]
	assert.False(t, root.IsLeaf())
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 1, root.Bin)
	assert.InDelta(t, 1.5, root.Threshold, 1e-12)
	assert.InDelta(t, 0.5, root.Gain, 1e-12)
	assert.Equal(t, 4.0, root.Cover)

	assert.InDelta(t, -0.5, tr.Nodes[root.Left].Value, 1e-12)
	assert.InDelta(t, 0.5, tr.Nodes[root.Right].Value, 1e-12)
	assert.Equal(t, 2, tr.NumLeaves())
	assert.Equal(t, 1, tr.Depth())

	for r, want := range []float64{-0.5, -0.5, 0.5, 0.5} {
		assert.InDelta(t, want, tr.Predict(m, r), 1e-12)
		assert.InDelta(t, want, tr.PredictBinned(d.bins.Binned, r), 1e-12)
	}
}

func TestGrowTieBreaksOnLowestFeatureAndBin(t *testing.T) {
	m, err := data.FromRows([][]float64{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	require.NoError(t, err)
	d := squaredDataset(t, m, zeros(4), 0, 4)
	// Boundaries 0 and 2 give the same gain on both features.
	copy(d.grad, []float64{1, -1, -1, 1})

	tr := d.grow(GrowerConfig{MaxDepth: 1}, pool.New(4))
	require.False(t, tr.Nodes[0].IsLeaf())
	assert.Equal(t, 0, tr.Nodes[0].Feature)
	assert.Equal(t, 0, tr.Nodes[0].Bin)
}

func zeros(n int) []float64 { return make([]float64, n) }

func TestGrowHugeGammaIsSingleLeaf(t *testing.T) {
	d := linearDataset(t, 16)
	tr := d.grow(GrowerConfig{MaxDepth: 5, L2: 1, Gamma: 1e12}, nil)

	require.Len(t, tr.Nodes, 1)
	leaf := tr.Nodes[0]
	assert.True(t, leaf.IsLeaf())
	assert.Equal(t, 16, leaf.Count)

	var g, h float64
	for i := range d.grad {
		g += d.grad[i]
		h += d.hess[i]
	}
	assert.InDelta(t, -g/(h+1), leaf.Value, 1e-12)
	assert.Equal(t, 0, tr.Depth())
}

func TestGrowMinLeafWeightRejectsSplits(t *testing.T) {
	m, err := data.FromRows([][]float64{{0}, {1}, {2}, {3}})
	require.NoError(t, err)
	d := squaredDataset(t, m, []float64{0, 0, 1, 1}, 0.5, 4)

	tr := d.grow(GrowerConfig{MaxDepth: 3, MinLeafWeight: 2.5}, nil)
	assert.Len(t, tr.Nodes, 1)

	tr = d.grow(GrowerConfig{MaxDepth: 3, MinLeafWeight: 2}, nil)
	assert.Equal(t, 2, tr.NumLeaves())
}

func TestGrowMaxDepthZero(t *testing.T) {
	d := linearDataset(t, 8)
	tr := d.grow(GrowerConfig{MaxDepth: 0}, nil)
	assert.Len(t, tr.Nodes, 1)
}

func TestGrowLevelOrder(t *testing.T) {
	d := linearDataset(t, 16)
	tr := d.grow(GrowerConfig{MaxDepth: 2}, nil)

	assert.Equal(t, 4, tr.NumLeaves())
	assert.Equal(t, 2, tr.Depth())
	require.Len(t, tr.Nodes, 7)
	for id, node := range tr.Nodes {
		assert.Equal(t, id, node.ID)
		if id == 0 {
			continue
		}
		wantDepth := 1
		if id >= 3 {
			wantDepth = 2
		}
		assert.Equal(t, wantDepth, node.Depth, "node %d", id)
	}
	for _, node := range tr.Nodes {
		if !node.IsLeaf() {
			assert.Greater(t, node.Left, node.ID)
			assert.Greater(t, node.Right, node.ID)
			assert.Equal(t, node.Count, tr.Nodes[node.Left].Count+tr.Nodes[node.Right].Count)
		}
	}
}

func TestGrowLeafBudget(t *testing.T) {
	d := linearDataset(t, 32)
	tr := d.grow(GrowerConfig{MaxDepth: 10, MaxLeaves: 3}, nil)
	assert.Equal(t, 3, tr.NumLeaves())

	// The budget allows one more split below the root.
	root := tr.Nodes[0]
	left, right := tr.Nodes[root.Left], tr.Nodes[root.Right]
	assert.NotEqual(t, left.IsLeaf(), right.IsLeaf())

	tr = d.grow(GrowerConfig{MaxDepth: 10, MaxLeaves: 1}, nil)
	assert.Len(t, tr.Nodes, 1)
}

func TestGrowParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n, cols := 400, 5
	buf := make([]float64, n*cols)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < cols; j++ {
			buf[i*cols+j] = rng.NormFloat64()
		}
		y[i] = buf[i*cols] + 0.5*buf[i*cols+2]*buf[i*cols+3] + 0.1*rng.NormFloat64()
	}
	m, err := data.NewMatrix(buf, n, cols)
	require.NoError(t, err)
	d := squaredDataset(t, m, y, 0, 32)

	for _, cfg := range []GrowerConfig{
		{MaxDepth: 5, L2: 1},
		{MaxDepth: 8, MaxLeaves: 12, L2: 1, MinLeafWeight: 3},
	} {
		serial := d.grow(cfg, nil)
		parallel := d.grow(cfg, pool.New(8))
		assert.Equal(t, serial.Nodes, parallel.Nodes)
		assert.Equal(t, serial.String(), parallel.String())

		for r := 0; r < n; r++ {
			require.Equal(t, serial.Predict(m, r), serial.PredictBinned(d.bins.Binned, r), "row %d", r)
		}
	}
}

func TestDumpFormat(t *testing.T) {
	m, err := data.FromRows([][]float64{{0}, {1}, {2}, {3}})
	require.NoError(t, err)
	d := squaredDataset(t, m, []float64{0, 0, 1, 1}, 0.5, 4)
	tr := d.grow(GrowerConfig{MaxDepth: 1}, nil)

	want := "0:[f0 <= 1.5] yes=1,no=2,bin=1,gain=0.5,cover=4,count=4\n" +
		"\t1:leaf=-0.5,cover=2,count=2\n" +
		"\t2:leaf=0.5,cover=2,count=2\n"
	assert.Equal(t, want, tr.String())
}

func TestDumpRoundTrip(t *testing.T) {
	d := linearDataset(t, 50)
	tr := d.grow(GrowerConfig{MaxDepth: 4, MaxLeaves: 9, L2: 0.7}, nil)

	parsed, err := Parse(tr.String())
	require.NoError(t, err)
	assert.Equal(t, tr.Nodes, parsed.Nodes)

	single := &Tree{Nodes: []Node{newLeaf(0, 0, 0.1, 3, 3)}}
	parsed, err = Parse(single.String())
	require.NoError(t, err)
	assert.Equal(t, single.Nodes, parsed.Nodes)
}

func TestParseRejectsMalformedDumps(t *testing.T) {
	for name, dump := range map[string]string{
		"empty":               "",
		"no id":               "leaf=1,cover=1,count=1",
		"missing field":       "0:leaf=1,cover=1",
		"unknown field":       "0:leaf=1,cover=1,count=1,extra=2",
		"child before":        "0:[f0 <= 1] yes=0,no=1,bin=0,gain=1,cover=2,count=2\n\t1:leaf=1,cover=1,count=1",
		"missing child":       "0:[f0 <= 1] yes=1,no=2,bin=0,gain=1,cover=2,count=2\n\t1:leaf=1,cover=1,count=1",
		"bad number":          "0:leaf=abc,cover=1,count=1",
		"indented root":       "\t0:leaf=1,cover=1,count=1",
		"repeated id":         "0:[f0 <= 1] yes=1,no=2,bin=0,gain=1,cover=2,count=2\n\t1:leaf=1,cover=1,count=1\n\t1:leaf=1,cover=1,count=1",
		"wrong indent":        "0:[f0 <= 1] yes=1,no=2,bin=0,gain=1,cover=2,count=2\n1:leaf=1,cover=1,count=1\n\t2:leaf=1,cover=1,count=1",
		"bad condition":       "0:[x0 <= 1] yes=1,no=2,bin=0,gain=1,cover=2,count=2",
		"negative field":      "0:[f-1 <= 1] yes=1,no=2,bin=0,gain=1,cover=2,count=2\n\t1:leaf=1,cover=1,count=1\n\t2:leaf=1,cover=1,count=1",
		"split without left":  "0:[f0 <= 1] yes=-1,no=1,bin=0,gain=1,cover=2,count=2\n\t1:leaf=1,cover=1,count=1",
		"split without right": "0:[f0 <= 1] yes=1,no=-1,bin=0,gain=1,cover=2,count=2\n\t1:leaf=1,cover=1,count=1",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(dump)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		})
	}
}

func TestSubtractMatchesDirectHistogram(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	rows := make([][]float64, 50)
	y := make([]float64, 50)
	for i := range rows {
		rows[i] = []float64{rng.Float64(), float64(rng.Intn(4)), 1}
		y[i] = rng.NormFloat64()
	}
	m, err := data.FromRows(rows)
	require.NoError(t, err)
	d := squaredDataset(t, m, y, 0, 8)

	all := make([]int, len(rows))
	for i := range all {
		all[i] = i
	}
	left, right := partition(d.bins.Binned.Column(0), all, 3)
	require.NotEmpty(t, left)
	require.NotEmpty(t, right)

	p := pool.New(3)
	nunique := d.bins.NUnique
	parent := buildHistogram(d.bins.Binned, nunique, all, d.grad, d.hess, p)
	direct := buildHistogram(d.bins.Binned, nunique, right, d.grad, d.hess, nil)
	derived := subtract(parent, buildHistogram(d.bins.Binned, nunique, left, d.grad, d.hess, nil), p)

	require.Equal(t, 3, derived.Features())
	assert.Equal(t, 1, derived.Bins(2))
	for f := 0; f < direct.Features(); f++ {
		require.Equal(t, direct.Bins(f), derived.Bins(f))
		total := 0
		for k := 0; k < direct.Bins(f); k++ {
			want, got := direct.At(f, k), derived.At(f, k)
			assert.Equal(t, want.Count, got.Count)
			assert.InDelta(t, want.Grad, got.Grad, 1e-9)
			assert.InDelta(t, want.Hess, got.Hess, 1e-9)
			total += got.Count
		}
		assert.Equal(t, len(right), total)
	}
}

func TestCloneOwnsNodes(t *testing.T) {
	d := linearDataset(t, 16)
	tr := d.grow(GrowerConfig{MaxDepth: 2}, nil)
	c := tr.Clone()
	require.Equal(t, tr.Nodes, c.Nodes)
	c.Nodes[0].Threshold = 1e9
	assert.NotEqual(t, c.Nodes[0].Threshold, tr.Nodes[0].Threshold)
}
