package query

import "container/heap"

// resultHeap is a max-heap of Result ordered by descending distance.
// The root is always the current k-th best (worst of the best) result,
// making it cheap to test whether a new candidate displaces it.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// boundedHeap maintains the k smallest-distance results seen so far.
type boundedHeap struct {
	k int
	h resultHeap
}

func newBoundedHeap(k int) *boundedHeap {
	bh := &boundedHeap{k: k, h: make(resultHeap, 0, k)}
	heap.Init(&bh.h)
	return bh
}

// Offer inserts r if the heap has fewer than k entries or r beats the
// current worst entry, and reports whether it did so.
func (bh *boundedHeap) Offer(r Result) bool {
	if bh.h.Len() < bh.k {
		heap.Push(&bh.h, r)
		return true
	}
	if bh.h.Len() > 0 && r.Distance < bh.h[0].Distance {
		heap.Pop(&bh.h)
		heap.Push(&bh.h, r)
		return true
	}
	return false
}

// Full reports whether the heap holds k results.
func (bh *boundedHeap) Full() bool {
	return bh.h.Len() == bh.k
}

// Worst returns the current k-th best result's distance. It must only
// be called when Full reports true.
func (bh *boundedHeap) Worst() float32 {
	return bh.h[0].Distance
}

// Len returns the number of results currently held.
func (bh *boundedHeap) Len() int { return bh.h.Len() }

// Sorted drains the heap and returns its contents ascending by
// distance.
func (bh *boundedHeap) Sorted() []Result {
	out := make([]Result, bh.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&bh.h).(Result)
	}
	return out
}
