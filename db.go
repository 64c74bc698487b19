// Package ivfdb is an embedded hybrid vector-and-scalar database: typed
// scalar/vector records, an IVF-Flat index per vector field, and a
// query handler offering FullScan plus three top-k vector search
// strategies (round-robin Threshold-Algorithm, iterative merge, and
// VBase-style adaptive stepping).
package ivfdb

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ivfdb/ivfdb/internal/ivfflat"
	"github.com/ivfdb/ivfdb/internal/kv"
	"github.com/ivfdb/ivfdb/internal/metrics"
	"github.com/ivfdb/ivfdb/internal/query"
	"github.com/ivfdb/ivfdb/internal/schema"
	"github.com/ivfdb/ivfdb/internal/storage"
)

// Options controls how Open behaves.
type Options struct {
	// CreateIfMissing is rejected outright by Open; OpenCreate ignores it
	// and always creates the store if missing, matching the original
	// constructor pair's split between "open existing" and "create new"
	// entry points.
	CreateIfMissing bool
}

// DB is a schema-bound hybrid vector-and-scalar database.
type DB struct {
	path    string
	schema  *schema.Schema
	store   *kv.Store
	records *storage.Adapter
	indexes map[string]*ivfflat.Index
	handler *query.Handler
}

// Open opens an existing database at path. It fails with ErrConfig if
// opts.CreateIfMissing is set, since opening without a schema can only
// ever target an existing database.
func Open(path string, opts Options) (*DB, error) {
	if opts.CreateIfMissing {
		return nil, fmt.Errorf("%w: cannot open without a schema when CreateIfMissing is set", ErrConfig)
	}

	store, err := kv.Open(path, kv.Options{CreateIfMissing: false})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	records := storage.New(store)
	s, err := records.GetSchema()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: load schema: %v", ErrBackend, err)
	}

	db := &DB{path: path, schema: s, store: store, records: records, indexes: map[string]*ivfflat.Index{}}
	for _, field := range s.VectorFields {
		metrics.VectorsIndexed.WithLabelValues(field.Name).Set(0)
		if field.NumCentroids == 0 {
			// A zero-centroid field has no IVF-Flat index; it is only ever
			// reachable through FullScan.
			continue
		}
		idx := ivfflat.New(field.Name, field.Dim, field.NumCentroids)
		if _, centroids, lists, err := records.GetIndex(field.Name); err == nil {
			idx.SetCentroids(centroids)
			idx.SetInvertedLists(lists)
		}
		db.indexes[field.Name] = idx
	}
	db.handler = &query.Handler{Schema: s, Indexes: db.indexes, Records: records}

	if err := records.Prefetch(1000); err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: prefetch: %v", ErrBackend, err)
	}
	return db, nil
}

// OpenCreate creates a new database at path with the given schema.
func OpenCreate(path string, opts Options, s *schema.Schema) (*DB, error) {
	store, err := kv.Open(path, kv.Options{CreateIfMissing: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	records := storage.New(store)
	if err := records.PutSchema(s); err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: persist schema: %v", ErrBackend, err)
	}

	db := &DB{path: path, schema: s, store: store, records: records, indexes: map[string]*ivfflat.Index{}}
	for _, field := range s.VectorFields {
		metrics.VectorsIndexed.WithLabelValues(field.Name).Set(0)
		if field.NumCentroids == 0 {
			continue
		}
		db.indexes[field.Name] = ivfflat.New(field.Name, field.Dim, field.NumCentroids)
	}
	db.handler = &query.Handler{Schema: s, Indexes: db.indexes, Records: records}
	return db, nil
}

// PutRecord writes record under key into storage (write-back, see
// FlushRecords) and into every vector field's index.
func (db *DB) PutRecord(key uint64, record schema.Record) error {
	if err := db.checkShape(record); err != nil {
		return err
	}

	db.records.PutRecord(key, record)
	for _, field := range db.schema.VectorFields {
		idx, ok := db.indexes[field.Name]
		if !ok {
			continue
		}
		vecIdx, _ := db.schema.VectorFieldIndex(field.Name)
		idx.Put(key, record.Vectors[vecIdx])
		metrics.VectorsIndexed.WithLabelValues(field.Name).Inc()
	}
	return nil
}

func (db *DB) checkShape(record schema.Record) error {
	if len(record.Vectors) != len(db.schema.VectorFields) {
		return fmt.Errorf("%w: record has %d vectors, schema declares %d", ErrShape, len(record.Vectors), len(db.schema.VectorFields))
	}
	for i, field := range db.schema.VectorFields {
		if len(record.Vectors[i]) != field.Dim {
			return fmt.Errorf("%w: field %q expects dim %d, got %d", ErrShape, field.Name, field.Dim, len(record.Vectors[i]))
		}
	}
	return nil
}

// GetRecord returns the record stored under key.
func (db *DB) GetRecord(key uint64) (schema.Record, error) {
	rec, err := db.records.GetRecord(key)
	if err != nil {
		return schema.Record{}, fmt.Errorf("%w: key %d: %v", ErrNotFound, key, err)
	}
	return rec, nil
}

// DeleteRecord removes key from storage and from every vector index.
func (db *DB) DeleteRecord(key uint64) error {
	if err := db.records.DeleteRecord(key); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	for name, idx := range db.indexes {
		idx.Delete(key)
		metrics.VectorsIndexed.WithLabelValues(name).Dec()
	}
	return nil
}

// FlushRecords writes every dirty record to the backing store.
func (db *DB) FlushRecords() error {
	return db.records.Flush()
}

// SetCentroids replaces field's centroid set. Existing posting lists
// are left as-is; entries put before this call are not rebucketed.
func (db *DB) SetCentroids(field string, centroids [][]float32) error {
	f, ok := db.schema.GetVectorField(field)
	if !ok {
		return fmt.Errorf("%w: unknown vector field %q", ErrSchema, field)
	}
	idx, ok := db.indexes[field]
	if !ok {
		return fmt.Errorf("%w: field %q has no IVF-Flat index (NumCentroids is 0)", ErrSchema, field)
	}
	if len(centroids) != f.NumCentroids {
		return fmt.Errorf("%w: field %q expects %d centroids, got %d", ErrShape, field, f.NumCentroids, len(centroids))
	}
	idx.SetCentroids(centroids)
	return nil
}

// FullScan evaluates q against every record, bypassing the vector
// indexes entirely.
func (db *DB) FullScan(q *query.Query) ([]query.Result, error) {
	if err := db.checkQuery(q); err != nil {
		return nil, err
	}
	metrics.QueriesTotal.WithLabelValues("fullscan").Inc()
	start := time.Now()
	results, err := db.handler.FullScan(q)
	metrics.QueryDuration.WithLabelValues("fullscan").Observe(time.Since(start).Seconds())
	return results, err
}

// KnnSearch runs the round-robin Threshold-Algorithm strategy.
func (db *DB) KnnSearch(ctx context.Context, q *query.Query, nprobe int) ([]query.Result, error) {
	if err := db.checkIndexedQuery(q); err != nil {
		return nil, err
	}
	metrics.QueriesTotal.WithLabelValues("round_robin_ta").Inc()
	start := time.Now()
	results, err := db.handler.RoundRobinTA(ctx, q, nprobe)
	metrics.QueryDuration.WithLabelValues("round_robin_ta").Observe(time.Since(start).Seconds())
	return results, err
}

// KnnSearchIterativeMerge runs the iterative-merge strategy.
func (db *DB) KnnSearchIterativeMerge(q *query.Query, nprobe, kThreshold int) ([]query.Result, error) {
	if err := db.checkIndexedQuery(q); err != nil {
		return nil, err
	}
	metrics.QueriesTotal.WithLabelValues("iterative_merge").Inc()
	start := time.Now()
	results, err := db.handler.IterativeMerge(q, nprobe, kThreshold)
	metrics.QueryDuration.WithLabelValues("iterative_merge").Observe(time.Since(start).Seconds())
	return results, err
}

// KnnSearchVBase runs the VBase-style adaptive-stepping strategy.
func (db *DB) KnnSearchVBase(q *query.Query, nprobe, n2 int) ([]query.Result, error) {
	if err := db.checkIndexedQuery(q); err != nil {
		return nil, err
	}
	metrics.QueriesTotal.WithLabelValues("vbase").Inc()
	start := time.Now()
	results, err := db.handler.VBase(q, nprobe, n2)
	metrics.QueryDuration.WithLabelValues("vbase").Observe(time.Since(start).Seconds())
	return results, err
}

func (db *DB) checkQuery(q *query.Query) error {
	for _, term := range q.Vectors {
		if _, ok := db.schema.VectorFieldIndex(term.Field); !ok {
			return fmt.Errorf("%w: unknown vector field %q", ErrUsage, term.Field)
		}
	}
	for _, filter := range q.Filters {
		if _, ok := db.schema.ScalarFieldIndex(filter.Field); !ok {
			return fmt.Errorf("%w: unknown scalar field %q", ErrSchema, filter.Field)
		}
	}
	return nil
}

// checkIndexedQuery additionally rejects vector terms over a field with no
// IVF-Flat index (NumCentroids 0), which only FullScan can serve.
func (db *DB) checkIndexedQuery(q *query.Query) error {
	if err := db.checkQuery(q); err != nil {
		return err
	}
	for _, term := range q.Vectors {
		if _, ok := db.indexes[term.Field]; !ok {
			return fmt.Errorf("%w: field %q has no IVF-Flat index, use FullScan", ErrUsage, term.Field)
		}
	}
	return nil
}

func (db *DB) persistIndex(name string, idx *ivfflat.Index) error {
	field, ok := db.schema.GetVectorField(name)
	if !ok {
		return fmt.Errorf("unknown vector field %q", name)
	}
	return db.records.PutIndex(name, field.Dim, idx.Centroids(), idx.InvertedLists())
}

// Close persists every index and flushes pending record writes before
// closing the backing store.
func (db *DB) Close() error {
	for name, idx := range db.indexes {
		if err := db.persistIndex(name, idx); err != nil {
			return fmt.Errorf("%w: persist index %q: %v", ErrBackend, name, err)
		}
	}
	if err := db.records.Flush(); err != nil {
		return fmt.Errorf("%w: flush records: %v", ErrBackend, err)
	}

	log.Printf("ivfdb: closing %s", db.path)
	return db.store.Close()
}
