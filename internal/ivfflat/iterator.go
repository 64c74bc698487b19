package ivfflat

import (
	"container/heap"
	"sort"

	"github.com/ivfdb/ivfdb/internal/distance"
)

// Iterator probes the nprobe centroids nearest to a query vector and
// walks their posting lists, either one candidate at a time (per-element
// mode) or one whole cluster at a time (cluster mode). The two modes are
// mutually exclusive uses of the same Iterator: call either Seek or
// SeekCluster to pick one.
type Iterator struct {
	index  *Index
	query  []float32
	nprobe int

	probeOrder []int // centroid indexes, nearest-first
	cur        int   // index into probeOrder

	candidates *candidateHeap // per-element mode scratch
}

type candidate struct {
	key      uint64
	vector   []float32
	distance float32
}

// candidateHeap is a min-heap of candidate ordered by ascending distance.
type candidateHeap []candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].distance < h[j].distance }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// NewIterator builds an Iterator over index for query, probing nprobe
// centroids. nprobe greater than the index's centroid count is clamped
// to that count.
func NewIterator(index *Index, query []float32, nprobe int) *Iterator {
	if nprobe > index.nlist {
		nprobe = index.nlist
	}
	if nprobe < 1 {
		nprobe = 1
	}
	return &Iterator{index: index, query: query, nprobe: nprobe}
}

func (it *Iterator) computeProbeOrder() []int {
	centroids := it.index.Centroids()
	type scored struct {
		idx  int
		dist float32
	}
	scoredCentroids := make([]scored, len(centroids))
	for i, c := range centroids {
		scoredCentroids[i] = scored{idx: i, dist: distance.L2Sq(c, it.query)}
	}
	sort.Slice(scoredCentroids, func(i, j int) bool {
		return scoredCentroids[i].dist < scoredCentroids[j].dist
	})
	order := make([]int, it.nprobe)
	for i := 0; i < it.nprobe; i++ {
		order[i] = scoredCentroids[i].idx
	}
	return order
}

// --- Per-element mode ---

// Seek positions the iterator at the closest candidate of the nearest
// non-empty probed cluster. Iteration is ascending by distance within
// each cluster and advances to the next of the nprobe nearest clusters
// once one is exhausted; distances are not ordered across clusters.
func (it *Iterator) Seek() {
	it.probeOrder = it.computeProbeOrder()
	it.cur = 0
	it.collectCandidates()
	for it.candidates.Len() == 0 {
		it.cur++
		if it.cur >= len(it.probeOrder) {
			return
		}
		it.collectCandidates()
	}
}

func (it *Iterator) collectCandidates() {
	lists := it.index.InvertedLists()
	centroidIdx := it.probeOrder[it.cur]
	entries := lists[centroidIdx]

	h := make(candidateHeap, 0, len(entries))
	for _, e := range entries {
		h = append(h, candidate{key: e.Key, vector: e.Vector, distance: distance.L2Sq(e.Vector, it.query)})
	}
	heap.Init(&h)
	it.candidates = &h
}

// Next advances past the current candidate, moving to the next cluster
// if the current one is exhausted.
func (it *Iterator) Next() {
	heap.Pop(it.candidates)
	for it.candidates.Len() == 0 {
		it.cur++
		if it.cur >= len(it.probeOrder) {
			return
		}
		it.collectCandidates()
	}
}

// Valid reports whether the iterator is positioned at a candidate.
func (it *Iterator) Valid() bool {
	return it.cur < len(it.probeOrder) && it.candidates != nil && it.candidates.Len() > 0
}

// Key returns the key of the current candidate.
func (it *Iterator) Key() uint64 {
	return (*it.candidates)[0].key
}

// Vector returns the vector of the current candidate.
func (it *Iterator) Vector() []float32 {
	return (*it.candidates)[0].vector
}

// --- Cluster mode ---

// SeekCluster positions the iterator at the nearest of the nprobe
// clusters without collecting per-element candidates.
func (it *Iterator) SeekCluster() {
	it.probeOrder = it.computeProbeOrder()
	it.cur = 0
}

// NextCluster advances to the next of the nprobe clusters.
func (it *Iterator) NextCluster() {
	it.cur++
}

// GetCluster returns the entries of the current cluster.
func (it *Iterator) GetCluster() []Entry {
	lists := it.index.InvertedLists()
	return lists[it.probeOrder[it.cur]]
}

// HasNextCluster reports whether there are more clusters to visit.
func (it *Iterator) HasNextCluster() bool {
	return it.cur < len(it.probeOrder)
}
