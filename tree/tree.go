package tree

import (
	"github.com/tarstars/forust/binning"
	"github.com/tarstars/forust/data"
)

// Tree is a fitted decision tree.
type Tree struct {
	Nodes []Node
}

// Predict returns the leaf value reached by row of m.
func (t *Tree) Predict(m *data.Matrix, row int) float64 {
	return t.PredictRow(m.Row(row))
}

// PredictRow traverses the tree with raw feature values x.
func (t *Tree) PredictRow(x []float64) float64 {
	ind := 0
	for !t.Nodes[ind].IsLeaf() {
		node := &t.Nodes[ind]
		if x[node.Feature] <= node.Threshold {
			ind = node.Left
		} else {
			ind = node.Right
		}
	}
	return t.Nodes[ind].Value
}

// PredictBinned traverses the tree with the bin codes of row.
func (t *Tree) PredictBinned(b *binning.BinnedMatrix, row int) float64 {
	ind := 0
	for !t.Nodes[ind].IsLeaf() {
		node := &t.Nodes[ind]
		if int(b.At(row, node.Feature)) <= node.Bin {
			ind = node.Left
		} else {
			ind = node.Right
		}
	}
	return t.Nodes[ind].Value
}

// NumLeaves returns the number of leaves.
func (t *Tree) NumLeaves() int {
	n := 0
	for _, node := range t.Nodes {
		if node.IsLeaf() {
			n++
		}
	}
	return n
}

// Depth returns the depth of the deepest node; a single leaf has depth 0.
func (t *Tree) Depth() int {
	depth := 0
	for _, node := range t.Nodes {
		if node.Depth > depth {
			depth = node.Depth
		}
	}
	return depth
}

// Clone returns a tree with its own copy of the nodes.
func (t *Tree) Clone() *Tree {
	return &Tree{Nodes: append([]Node(nil), t.Nodes...)}
}
