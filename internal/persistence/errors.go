package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist,
	// or when a guarded mutation matched no rows.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert collides with a unique key.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a write breaks a schema
	// constraint not covered by a more specific sentinel.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
