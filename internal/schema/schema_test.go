package schema

import "testing"

func mustSchema(t *testing.T) *Schema {
	s, err := New(
		[]VectorField{{Name: "embedding", Dim: 4, NumCentroids: 4}},
		[]ScalarField{{Name: "price", Type: TypeFloat}, {Name: "category", Type: TypeString}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSchemaDuplicateVectorField(t *testing.T) {
	_, err := New(
		[]VectorField{{Name: "v", Dim: 2, NumCentroids: 1}, {Name: "v", Dim: 2, NumCentroids: 1}},
		nil,
	)
	if err == nil {
		t.Fatalf("expected error for duplicate vector field")
	}
}

func TestApplyFilterOps(t *testing.T) {
	s := mustSchema(t)
	rec := Record{Key: 1, Scalars: []Scalar{Float(9.99), Str("books")}}

	cases := []struct {
		filter Filter
		want   bool
	}{
		{Filter{Field: "price", Op: OpEq, Value: Float(9.99)}, true},
		{Filter{Field: "price", Op: OpLt, Value: Float(10)}, true},
		{Filter{Field: "price", Op: OpGt, Value: Float(10)}, false},
		{Filter{Field: "category", Op: OpEq, Value: Str("books")}, true},
		{Filter{Field: "category", Op: OpNe, Value: Str("movies")}, true},
	}
	for _, c := range cases {
		if got := Apply(s, rec, c.filter); got != c.want {
			t.Errorf("Apply(%+v) = %v, want %v", c.filter, got, c.want)
		}
	}
}

func TestApplyAllRequiresEveryFilter(t *testing.T) {
	s := mustSchema(t)
	rec := Record{Key: 1, Scalars: []Scalar{Float(9.99), Str("books")}}
	filters := []Filter{
		{Field: "price", Op: OpLt, Value: Float(10)},
		{Field: "category", Op: OpEq, Value: Str("movies")},
	}
	if Apply(s, rec, filters[1]) {
		t.Fatalf("expected category filter to fail")
	}
	if ApplyAll(s, rec, filters) {
		t.Fatalf("ApplyAll should fail when any filter fails")
	}
}
