package query

import "github.com/ivfdb/ivfdb/internal/schema"

// FullScan evaluates q against every record in storage, applying scalar
// filters before computing distance, and returns the k closest matches
// ascending by distance.
func (h *Handler) FullScan(q *Query) ([]Result, error) {
	if q.Limit == 0 {
		return nil, nil
	}

	bh := newBoundedHeap(q.Limit)
	err := h.Records.Iterate(func(record schema.Record) error {
		if !h.passesFilters(q, record) {
			return nil
		}
		bh.Offer(Result{Key: record.Key, Distance: h.aggregateDistance(q, record)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bh.Sorted(), nil
}
