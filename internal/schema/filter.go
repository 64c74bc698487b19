package schema

// FilterOp is a single-field comparison applied to a scalar.
type FilterOp int

const (
	OpEq FilterOp = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

// Filter is a scalar predicate over one named field.
type Filter struct {
	Field string
	Op    FilterOp
	Value Scalar
}

// Apply reports whether record satisfies filter. It panics if the
// schema has no scalar field named filter.Field or if the record has
// fewer scalar slots than the schema declares; both indicate a caller
// bug, not a data condition.
func Apply(s *Schema, record Record, filter Filter) bool {
	idx, ok := s.ScalarFieldIndex(filter.Field)
	if !ok {
		panic("schema: unknown scalar field in filter: " + filter.Field)
	}
	c := record.Scalars[idx].Compare(filter.Value)
	switch filter.Op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	default:
		return false
	}
}

// ApplyAll reports whether record satisfies every filter in filters.
func ApplyAll(s *Schema, record Record, filters []Filter) bool {
	for _, f := range filters {
		if !Apply(s, record, f) {
			return false
		}
	}
	return true
}
