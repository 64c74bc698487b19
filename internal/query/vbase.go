package query

import (
	"math"

	"github.com/ivfdb/ivfdb/internal/distance"
	"github.com/ivfdb/ivfdb/internal/ivfflat"
)

const vbaseStepPerRound = 1

type vbaseField struct {
	term VectorTerm
	it   *ivfflat.Iterator

	threshold   float32
	scoresSum   float32
	scoresCount int
}

// VBase runs the VBase-style adaptive-stepping strategy: per-element
// iterators advance by a step count each round, weighted toward fields
// whose observed aggregate distances are currently smaller (and so are
// more likely to contain the next good candidate).
func (h *Handler) VBase(q *Query, nprobe, n2 int) ([]Result, error) {
	if q.Limit == 0 {
		return nil, nil
	}

	fields := make([]*vbaseField, len(q.Vectors))
	for i, term := range q.Vectors {
		it := ivfflat.NewIterator(h.Indexes[term.Field], term.Vector, nprobe)
		it.Seek()
		fields[i] = &vbaseField{term: term, it: it, threshold: math.MaxFloat32}
	}

	bh := newBoundedHeap(q.Limit)
	visited := make(map[uint64]struct{})

	for anyValid(fields) {
		steps := computeSteps(fields, n2)

		for i, f := range fields {
			for s := 0; s < steps[i] && f.it.Valid(); s++ {
				key := f.it.Key()
				vec := f.it.Vector()
				f.it.Next()

				if _, seen := visited[key]; seen {
					continue
				}
				visited[key] = struct{}{}

				record, err := h.Records.GetRecord(key)
				if err != nil {
					return nil, err
				}
				if !h.passesFilters(q, record) {
					continue
				}

				fieldDist := distance.L2Sq(f.term.Vector, vec)
				if fieldDist < f.threshold {
					f.threshold = fieldDist
				}

				total := h.aggregateDistance(q, record)
				f.scoresSum += total
				f.scoresCount++

				bh.Offer(Result{Key: key, Distance: total})
			}
		}

		var sum float32
		for _, f := range fields {
			sum += f.term.Weight * f.threshold
		}
		if bh.Full() && sum >= bh.Worst() {
			break
		}
	}

	return bh.Sorted(), nil
}

func anyValid(fields []*vbaseField) bool {
	for _, f := range fields {
		if f.it.Valid() {
			return true
		}
	}
	return false
}

// computeSteps returns, for each field, how many elements to advance
// its iterator by this round.
func computeSteps(fields []*vbaseField, n2 int) []int {
	steps := make([]int, len(fields))

	uniform := n2 == 0
	if !uniform {
		for _, f := range fields {
			if f.scoresCount == 0 {
				uniform = true
				break
			}
		}
	}
	if uniform {
		for i := range steps {
			steps[i] = vbaseStepPerRound
		}
		return steps
	}

	var reciprocalSum float64
	avg := make([]float64, len(fields))
	for i, f := range fields {
		avg[i] = float64(f.scoresSum) / float64(f.scoresCount)
		reciprocalSum += 1.0 / avg[i]
	}
	for i := range fields {
		steps[i] = 1 + int(math.Ceil(float64(n2)*(1.0/avg[i])/reciprocalSum))
	}
	return steps
}
