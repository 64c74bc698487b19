package query

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/ivfdb/ivfdb/internal/distance"
	"github.com/ivfdb/ivfdb/internal/ivfflat"
	"golang.org/x/sync/errgroup"
)

type probeState struct {
	field  string
	query  []float32
	weight float32
	it     *ivfflat.Iterator

	mu               sync.Mutex
	lastSeenDistance float32
}

// RoundRobinTA runs the round-robin Threshold-Algorithm strategy: it
// advances every query vector's probe iterator one cluster at a time,
// scoring candidates from the current cluster in parallel, until either
// every iterator is exhausted or the Threshold-Algorithm stopping
// condition is met (the sum of each iterator's last-seen per-field
// distance, weighted, is no smaller than the current k-th best
// aggregate distance).
func (h *Handler) RoundRobinTA(ctx context.Context, q *Query, nprobe int) ([]Result, error) {
	if q.Limit == 0 {
		return nil, nil
	}
	if len(q.Vectors) == 1 {
		return h.singleVectorKnn(ctx, q, nprobe)
	}

	states := make([]*probeState, len(q.Vectors))
	for i, term := range q.Vectors {
		idx := h.Indexes[term.Field]
		it := ivfflat.NewIterator(idx, term.Vector, nprobe)
		it.SeekCluster()
		states[i] = &probeState{
			field: term.Field, query: term.Vector, weight: term.Weight, it: it,
			lastSeenDistance: math.MaxFloat32,
		}
	}

	bh := newBoundedHeap(q.Limit)
	var bhMu sync.Mutex

	visited := make(map[uint64]struct{})
	var visitedMu sync.Mutex

	for {
		exhausted := true
		for _, st := range states {
			if !st.it.HasNextCluster() {
				continue
			}
			exhausted = false

			cluster := st.it.GetCluster()
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(numWorkers())
			for _, entry := range cluster {
				entry := entry
				st := st
				g.Go(func() error {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}

					d := distance.L2Sq(st.query, entry.Vector)

					visitedMu.Lock()
					_, already := visited[entry.Key]
					if !already {
						visited[entry.Key] = struct{}{}
					}
					visitedMu.Unlock()
					if already {
						return nil
					}

					record, err := h.Records.GetRecord(entry.Key)
					if err != nil {
						return err
					}
					if !h.passesFilters(q, record) {
						return nil
					}
					total := h.aggregateDistance(q, record)

					st.mu.Lock()
					if d < st.lastSeenDistance {
						st.lastSeenDistance = d
					}
					st.mu.Unlock()

					bhMu.Lock()
					bh.Offer(Result{Key: entry.Key, Distance: total})
					bhMu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}

			st.it.NextCluster()
		}

		var distanceSum float32
		for _, st := range states {
			st.mu.Lock()
			distanceSum += st.lastSeenDistance * st.weight
			st.mu.Unlock()
		}
		if bh.Full() && distanceSum >= bh.Worst() {
			break
		}
		if exhausted {
			break
		}
	}

	return bh.Sorted(), nil
}

// singleVectorKnn is the single-field fast path: it walks the
// per-element probe iterator directly, since there is no second field
// to threshold against.
func (h *Handler) singleVectorKnn(_ context.Context, q *Query, nprobe int) ([]Result, error) {
	term := q.Vectors[0]
	idx := h.Indexes[term.Field]
	it := ivfflat.NewIterator(idx, term.Vector, nprobe)

	bh := newBoundedHeap(q.Limit)
	for it.Seek(); it.Valid(); it.Next() {
		key := it.Key()
		d := distance.L2Sq(term.Vector, it.Vector())

		if len(q.Filters) > 0 {
			record, err := h.Records.GetRecord(key)
			if err != nil {
				return nil, err
			}
			if !h.passesFilters(q, record) {
				continue
			}
		}
		bh.Offer(Result{Key: key, Distance: d * term.Weight})
	}
	return bh.Sorted(), nil
}

func numWorkers() int {
	return runtime.GOMAXPROCS(0)
}
