package query

import (
	"math"
	"sort"

	"github.com/ivfdb/ivfdb/internal/distance"
	"github.com/ivfdb/ivfdb/internal/ivfflat"
)

// IterativeMerge runs the iterative-merge strategy: each round it
// recomputes each field's per-element top-k from scratch with a
// doubling k, merges the new candidates, and stops early once the
// Threshold-Algorithm bound is met or k has grown past kThreshold.
func (h *Handler) IterativeMerge(q *Query, nprobe, kThreshold int) ([]Result, error) {
	if q.Limit == 0 {
		return nil, nil
	}

	bh := newBoundedHeap(q.Limit)
	visited := make(map[uint64]struct{})
	threshold := make(map[string]float32, len(q.Vectors))
	for _, term := range q.Vectors {
		threshold[term.Field] = math.MaxFloat32
	}

	k := q.Limit
	for k < kThreshold {
		roundMin := make(map[string]float32, len(q.Vectors))
		for _, term := range q.Vectors {
			roundMin[term.Field] = math.MaxFloat32
		}

		for _, term := range q.Vectors {
			topK := getTopK(h.Indexes[term.Field], term.Vector, k, nprobe)
			for _, c := range topK {
				if c.distance < roundMin[term.Field] {
					roundMin[term.Field] = c.distance
				}
				if _, seen := visited[c.key]; seen {
					continue
				}
				visited[c.key] = struct{}{}

				record, err := h.Records.GetRecord(c.key)
				if err != nil {
					return nil, err
				}
				if !h.passesFilters(q, record) {
					continue
				}
				total := h.aggregateDistance(q, record)
				bh.Offer(Result{Key: c.key, Distance: total})
			}
		}
		for field, d := range roundMin {
			if d < threshold[field] {
				threshold[field] = d
			}
		}

		var sum float32
		for _, term := range q.Vectors {
			sum += term.Weight * threshold[term.Field]
		}
		if bh.Full() && sum >= bh.Worst() {
			break
		}
		k *= 2
	}

	return bh.Sorted(), nil
}

type topKCandidate struct {
	key      uint64
	distance float32
}

// getTopK returns the k nearest keys to query under L2² by walking the
// per-element probe iterator to completion across nprobe clusters.
func getTopK(idx *ivfflat.Index, query []float32, k, nprobe int) []topKCandidate {
	it := ivfflat.NewIterator(idx, query, nprobe)
	var out []topKCandidate
	for it.Seek(); it.Valid(); it.Next() {
		out = append(out, topKCandidate{key: it.Key(), distance: distance.L2Sq(query, it.Vector())})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].distance < out[j].distance })
	if len(out) > k {
		out = out[:k]
	}
	return out
}
