package tree

import (
	"github.com/tarstars/forust/binning"
	"github.com/tarstars/forust/internal/pool"
)

// GrowerConfig holds the shape and regularization limits of a tree.
type GrowerConfig struct {
	MaxDepth      int
	MaxLeaves     int // 0 means unbounded
	L2            float64
	Gamma         float64
	MinLeafWeight float64
}

// Grower builds trees with histogram split search.
type Grower struct {
	cfg  GrowerConfig
	pool *pool.Pool
}

// NewGrower creates a grower. A nil pool grows on the calling goroutine.
func NewGrower(cfg GrowerConfig, p *pool.Pool) *Grower {
	return &Grower{cfg: cfg, pool: p}
}

// Grow builds one tree over every row of b. grad and hess hold one already
// weighted value per row; cuts and nunique are the binning of b.
//
// Every node starts as a leaf. A leaf whose best split has a positive gain
// joins the frontier, and frontier nodes are split until the frontier is
// empty or the leaf budget is spent. Nodes at MaxDepth are never split.
func (g *Grower) Grow(b *binning.BinnedMatrix, cuts [][]float64, nunique []int, grad, hess []float64) *Tree {
	rows := make([]int, b.Rows())
	for i := range rows {
		rows[i] = i
	}

	t := &Tree{Nodes: make([]Node, 0, 1)}
	root := g.addLeaf(t, 0, rows, grad, hess)
	q := newFrontier(g.cfg.MaxLeaves > 0)
	g.consider(q, t, root, rows, nil, b, nunique, grad, hess)

	leaves := 1
	for q.Len() > 0 {
		if g.cfg.MaxLeaves > 0 && leaves >= g.cfg.MaxLeaves {
			break
		}
		c := q.pop()
		leftRows, rightRows := partition(b.Column(c.split.Feature), c.rows, c.split.Bin)

		parent := &t.Nodes[c.node]
		depth := parent.Depth + 1
		parent.Feature = c.split.Feature
		parent.Bin = c.split.Bin
		parent.Threshold = cuts[c.split.Feature][c.split.Bin]
		parent.Gain = c.split.Gain
		parent.Value = 0
		leftID := g.addLeaf(t, depth, leftRows, grad, hess)
		rightID := g.addLeaf(t, depth, rightRows, grad, hess)
		t.Nodes[c.node].Left = leftID
		t.Nodes[c.node].Right = rightID
		leaves++

		if depth >= g.cfg.MaxDepth {
			continue
		}
		// Only the smaller child is accumulated from rows.
		var leftHist, rightHist *Histogram
		if len(leftRows) <= len(rightRows) {
			leftHist = buildHistogram(b, nunique, leftRows, grad, hess, g.pool)
			rightHist = subtract(c.hist, leftHist, g.pool)
		} else {
			rightHist = buildHistogram(b, nunique, rightRows, grad, hess, g.pool)
			leftHist = subtract(c.hist, rightHist, g.pool)
		}
		c.hist = nil
		g.consider(q, t, leftID, leftRows, leftHist, b, nunique, grad, hess)
		g.consider(q, t, rightID, rightRows, rightHist, b, nunique, grad, hess)
	}
	return t
}

// addLeaf appends a leaf holding rows and returns its index.
func (g *Grower) addLeaf(t *Tree, depth int, rows []int, grad, hess []float64) int {
	s := sumRows(rows, grad, hess)
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, newLeaf(id, depth, leafValue(s.grad, s.hess, g.cfg.L2), s.hess, s.count))
	return id
}

// consider pushes node onto the frontier when it has a profitable split.
func (g *Grower) consider(q *frontier, t *Tree, node int, rows []int, hist *Histogram,
	b *binning.BinnedMatrix, nunique []int, grad, hess []float64) {
	if t.Nodes[node].Depth >= g.cfg.MaxDepth || len(rows) < 2 {
		return
	}
	if hist == nil {
		hist = buildHistogram(b, nunique, rows, grad, hess, g.pool)
	}
	split := bestSplit(hist, sumRows(rows, grad, hess), g.cfg, g.pool)
	if !split.Valid || split.Gain <= 0 {
		return
	}
	q.push(&candidate{node: node, split: split, rows: rows, hist: hist})
}

func sumRows(rows []int, grad, hess []float64) nodeStats {
	s := nodeStats{count: len(rows)}
	for _, r := range rows {
		s.grad += grad[r]
		s.hess += hess[r]
	}
	return s
}

// partition splits rows by code <= bin, keeping their order.
func partition(codes []uint16, rows []int, bin int) (left, right []int) {
	left = make([]int, 0, len(rows))
	right = make([]int, 0, len(rows)/2)
	for _, r := range rows {
		if int(codes[r]) <= bin {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}
