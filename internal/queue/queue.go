// Package queue provides a value-based binary min-heap used by the decode
// kernel's shortest-path searches. Ties on distance are broken by lower node
// id so traversal order, and therefore decoding, is fully deterministic.
package queue

// Item is a node with its tentative distance.
type Item struct {
	Node uint32
	Dist float64
}

// Min is a binary min-heap of Items. The zero value is ready to use.
// Value-based storage keeps pushes allocation-free once capacity is warm.
type Min struct {
	items []Item
}

// NewMin returns a heap with the given initial capacity.
func NewMin(capacity int) *Min {
	return &Min{items: make([]Item, 0, capacity)}
}

// Len returns the number of queued items.
func (q *Min) Len() int { return len(q.items) }

// Reset empties the heap, retaining capacity.
func (q *Min) Reset() { q.items = q.items[:0] }

// Push inserts an item while maintaining the heap invariant.
func (q *Min) Push(it Item) {
	q.items = append(q.items, it)
	q.siftUp(len(q.items) - 1)
}

// Pop removes and returns the minimum item.
func (q *Min) Pop() (Item, bool) {
	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}
	root := q.items[0]
	last := q.items[n-1]
	q.items[n-1] = Item{}
	q.items = q.items[:n-1]
	if n-1 > 0 {
		q.items[0] = last
		q.siftDown(0)
	}
	return root, true
}

func (q *Min) less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Dist != b.Dist {
		return a.Dist < b.Dist
	}
	return a.Node < b.Node
}

func (q *Min) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *Min) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
