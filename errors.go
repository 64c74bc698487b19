package ivfdb

import "errors"

// Sentinel errors wrapped with context via fmt.Errorf's %w verb.
// Callers distinguish kinds with errors.Is.
var (
	// ErrConfig signals an invalid combination of open options, such as
	// CreateIfMissing without a schema.
	ErrConfig = errors.New("ivfdb: config error")
	// ErrSchema signals a duplicate or missing field name.
	ErrSchema = errors.New("ivfdb: schema error")
	// ErrNotFound signals a missing record or index partition.
	ErrNotFound = errors.New("ivfdb: not found")
	// ErrShape signals a vector length or centroid count mismatch.
	ErrShape = errors.New("ivfdb: shape error")
	// ErrBackend wraps an underlying storage or serialization failure.
	ErrBackend = errors.New("ivfdb: backend error")
	// ErrUsage signals a malformed query, such as referencing an
	// unknown vector field.
	ErrUsage = errors.New("ivfdb: usage error")
)
