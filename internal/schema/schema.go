// Package schema defines the typed record shape (scalar and vector
// fields) and the filter predicates evaluated against it during a query.
package schema

import (
	"encoding/json"
	"fmt"
)

// ScalarKind identifies which of the Scalar union's fields is populated.
type ScalarKind int

const (
	ScalarInt ScalarKind = iota
	ScalarFloat
	ScalarString
)

// Scalar is a tagged union over the three scalar value types a record
// field may hold.
type Scalar struct {
	Kind ScalarKind
	I    int64
	F    float64
	S    string
}

func Int(v int64) Scalar    { return Scalar{Kind: ScalarInt, I: v} }
func Float(v float64) Scalar { return Scalar{Kind: ScalarFloat, F: v} }
func Str(v string) Scalar   { return Scalar{Kind: ScalarString, S: v} }

// Compare returns -1, 0, or 1 comparing s to other. Scalars of different
// kinds are compared by kind order and are never equal.
func (s Scalar) Compare(other Scalar) int {
	if s.Kind != other.Kind {
		if s.Kind < other.Kind {
			return -1
		}
		return 1
	}
	switch s.Kind {
	case ScalarInt:
		return cmp(s.I, other.I)
	case ScalarFloat:
		return cmp(s.F, other.F)
	default:
		return cmp(s.S, other.S)
	}
}

func cmp[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FieldType identifies the scalar value type a ScalarField holds.
type FieldType int

const (
	TypeInt FieldType = iota
	TypeFloat
	TypeString
)

// VectorField describes one named vector column: its dimension and the
// number of IVF-Flat centroids its index maintains.
type VectorField struct {
	Name         string
	Dim          int
	NumCentroids int
}

// ScalarField describes one named scalar column.
type ScalarField struct {
	Name string
	Type FieldType
}

// Schema is the immutable set of vector and scalar fields a DB was opened
// with. It never changes after a database is created.
type Schema struct {
	VectorFields []VectorField
	ScalarFields []ScalarField

	vectorIdx map[string]int
	scalarIdx map[string]int
}

// New builds a Schema and its field-name lookup indexes.
func New(vectorFields []VectorField, scalarFields []ScalarField) (*Schema, error) {
	s := &Schema{
		VectorFields: vectorFields,
		ScalarFields: scalarFields,
		vectorIdx:    make(map[string]int, len(vectorFields)),
		scalarIdx:    make(map[string]int, len(scalarFields)),
	}
	for i, f := range vectorFields {
		if _, exists := s.vectorIdx[f.Name]; exists {
			return nil, fmt.Errorf("schema: duplicate vector field %q", f.Name)
		}
		s.vectorIdx[f.Name] = i
	}
	for i, f := range scalarFields {
		if _, exists := s.scalarIdx[f.Name]; exists {
			return nil, fmt.Errorf("schema: duplicate scalar field %q", f.Name)
		}
		s.scalarIdx[f.Name] = i
	}
	return s, nil
}

// VectorFieldIndex returns the position of field within a Record's
// Vectors slice.
func (s *Schema) VectorFieldIndex(name string) (int, bool) {
	i, ok := s.vectorIdx[name]
	return i, ok
}

// ScalarFieldIndex returns the position of field within a Record's
// Scalars slice.
func (s *Schema) ScalarFieldIndex(name string) (int, bool) {
	i, ok := s.scalarIdx[name]
	return i, ok
}

// GetVectorField returns the VectorField named name.
func (s *Schema) GetVectorField(name string) (VectorField, bool) {
	i, ok := s.vectorIdx[name]
	if !ok {
		return VectorField{}, false
	}
	return s.VectorFields[i], true
}

// GetScalarField returns the ScalarField named name.
func (s *Schema) GetScalarField(name string) (ScalarField, bool) {
	i, ok := s.scalarIdx[name]
	if !ok {
		return ScalarField{}, false
	}
	return s.ScalarFields[i], true
}

// schemaWire is the JSON-visible shape of Schema; vectorIdx/scalarIdx
// are derived and rebuilt on decode.
type schemaWire struct {
	VectorFields []VectorField `json:"vector_fields"`
	ScalarFields []ScalarField `json:"scalar_fields"`
}

// MarshalJSON encodes only the declared fields; the lookup indexes are
// rebuilt on decode.
func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(schemaWire{VectorFields: s.VectorFields, ScalarFields: s.ScalarFields})
}

// UnmarshalJSON decodes the declared fields and rebuilds the lookup
// indexes.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var w schemaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	built, err := New(w.VectorFields, w.ScalarFields)
	if err != nil {
		return err
	}
	*s = *built
	return nil
}

// Record is one stored row: a key, its scalar values, and its vector
// values, both in schema field order.
type Record struct {
	Key     uint64
	Scalars []Scalar
	Vectors [][]float32
}
