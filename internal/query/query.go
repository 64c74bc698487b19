// Package query implements the query handler: FullScan and the three
// top-k vector search strategies (round-robin threshold algorithm,
// iterative merge, and VBase-style adaptive stepping).
package query

import (
	"github.com/ivfdb/ivfdb/internal/distance"
	"github.com/ivfdb/ivfdb/internal/ivfflat"
	"github.com/ivfdb/ivfdb/internal/schema"
)

// VectorTerm is one (field, query vector, weight) triple contributing to
// a query's aggregate distance.
type VectorTerm struct {
	Field  string
	Vector []float32
	Weight float32
}

// Query is a hybrid scalar-filtered, multi-vector nearest-neighbor
// request.
type Query struct {
	Vectors []VectorTerm
	Filters []schema.Filter
	Limit   int
}

// Result is one ranked match: a record key and its aggregate distance
// to the query vectors.
type Result struct {
	Key      uint64
	Distance float32
}

// RecordSource resolves record keys to full records, either one at a
// time by key or by a full scan whose order is not specified.
type RecordSource interface {
	GetRecord(key uint64) (schema.Record, error)
	Iterate(fn func(schema.Record) error) error
}

// Handler evaluates queries against a schema, its vector indexes, and
// its record storage.
type Handler struct {
	Schema  *schema.Schema
	Indexes map[string]*ivfflat.Index
	Records RecordSource
}

// aggregateDistance computes the query's weighted sum of per-field
// squared Euclidean distances against record.
func (h *Handler) aggregateDistance(q *Query, record schema.Record) float32 {
	var total float32
	for _, term := range q.Vectors {
		idx, ok := h.Schema.VectorFieldIndex(term.Field)
		if !ok {
			continue
		}
		total += distance.L2Sq(term.Vector, record.Vectors[idx]) * term.Weight
	}
	return total
}

func (h *Handler) passesFilters(q *Query, record schema.Record) bool {
	return schema.ApplyAll(h.Schema, record, q.Filters)
}
