// Package tree grows regression trees from binned features and per-row
// gradients, and evaluates them.
//
// A tree is stored in an array. Node 0 is the root and every split node
// refers to its children by position; children are always stored after
// their parent.
package tree

// Node is an entry of the tree arena. Left and Right are -1 when the node is
// a leaf, otherwise they are the arena indices of its children.
type Node struct {
	ID        int
	Feature   int     // -1 for a leaf
	Bin       int     // rows with code <= Bin go left, -1 for a leaf
	Threshold float64 // raw values <= Threshold go left
	Left      int
	Right     int
	Gain      float64
	Value     float64 // leaf output, 0 on split nodes
	Cover     float64 // hessian sum of the rows at the node
	Count     int     // number of rows at the node
	Depth     int
}

func newLeaf(id, depth int, value, cover float64, count int) Node {
	return Node{
		ID:      id,
		Feature: -1,
		Bin:     -1,
		Left:    -1,
		Right:   -1,
		Value:   value,
		Cover:   cover,
		Count:   count,
		Depth:   depth,
	}
}

// IsLeaf returns whether the node has no children.
func (n Node) IsLeaf() bool {
	return n.Left == -1
}

// leafValue is the regularized optimum -G/(H+l2), 0 when the denominator is not positive.
func leafValue(g, h, l2 float64) float64 {
	denom := h + l2
	if denom <= 0 {
		return 0
	}
	return -g / denom
}
