package tree

import (
	"container/heap"
)

// candidate is a leaf waiting to be split.
type candidate struct {
	node  int
	split Split
	rows  []int
	hist  *Histogram
}

// frontier orders candidates for expansion. With byGain set the candidate
// with the highest gain is expanded first, otherwise candidates are expanded
// in node order, which is breadth first. Remaining ties go to the lower node.
type frontier struct {
	items  []*candidate
	byGain bool
}

func newFrontier(byGain bool) *frontier {
	return &frontier{byGain: byGain}
}

func (q *frontier) Len() int { return len(q.items) }

func (q *frontier) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if q.byGain && a.split.Gain != b.split.Gain {
		return a.split.Gain > b.split.Gain
	}
	return a.node < b.node
}

func (q *frontier) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *frontier) Push(x any) { q.items = append(q.items, x.(*candidate)) }

func (q *frontier) Pop() any {
	last := len(q.items) - 1
	item := q.items[last]
	q.items[last] = nil
	q.items = q.items[:last]
	return item
}

func (q *frontier) push(c *candidate) { heap.Push(q, c) }

func (q *frontier) pop() *candidate { return heap.Pop(q).(*candidate) }
