package stats

import "errors"

// Lookup errors. All three are recoverable at the call site: the affected
// chart or table section is omitted and the rest of the render continues.
var (
	// ErrDataUnavailable is returned when a serialized collection is missing,
	// unreadable or does not have the expected shape.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrKeyNotFound is returned when a collection exists but does not hold
	// the requested table key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrFilterEmpty is returned when filter criteria matched zero rows.
	ErrFilterEmpty = errors.New("filter matched no rows")
)

// ErrSchema marks structural problems inside an otherwise readable table,
// such as ragged rows or a non-numeric statistic cell.
var ErrSchema = errors.New("malformed table schema")
