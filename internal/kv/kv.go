// Package kv wraps an embedded, ordered key/value engine with the
// minimal Put/Get/Delete/Iterator contract the storage adapter needs.
package kv

import (
	"errors"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Options controls how Open behaves.
type Options struct {
	// CreateIfMissing creates a new database at path if none exists.
	// If false and no database exists at path, Open fails.
	CreateIfMissing bool
}

// Store is an ordered, embedded key/value store backed by Pebble.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the store at path.
func Open(path string, opts Options) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{
		ErrorIfNotExists: !opts.CreateIfMissing,
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Put writes value under key.
func (s *Store) Put(key, value []byte) error {
	return s.db.Set(key, value, pebble.Sync)
}

// Get reads the value stored under key. It returns ErrNotFound if key
// does not exist.
func (s *Store) Get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key []byte) error {
	return s.db.Delete(key, pebble.Sync)
}

// Iterator is a forward cursor over all keys sharing prefix.
type Iterator struct {
	it     *pebble.Iterator
	prefix []byte
}

// NewIterator returns an Iterator over every key with the given prefix,
// positioned before the first entry; call Next to advance to it.
func (s *Store) NewIterator(prefix []byte) (*Iterator, error) {
	upper := upperBound(prefix)
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upper,
	})
	if err != nil {
		return nil, err
	}
	return &Iterator{it: it, prefix: prefix}, nil
}

// upperBound returns the smallest byte slice greater than every slice
// with prefix as a prefix, or nil if prefix is all 0xFF bytes.
func upperBound(prefix []byte) []byte {
	out := make([]byte, len(prefix))
	copy(out, prefix)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

// Next advances the iterator. Call it before the first Valid check.
func (it *Iterator) Next() bool {
	if it.it.Key() == nil {
		return it.it.First()
	}
	return it.it.Next()
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.it.Valid()
}

// Key returns the current entry's key.
func (it *Iterator) Key() []byte {
	return it.it.Key()
}

// Value returns the current entry's value.
func (it *Iterator) Value() []byte {
	v, _ := it.it.ValueAndErr()
	return v
}

// Close releases the iterator.
func (it *Iterator) Close() error {
	return it.it.Close()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
