package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// ConstraintError reports which unique constraint rejected a write.
// It unwraps to ErrDuplicate.
type ConstraintError struct {
	Constraint string
}

func (e *ConstraintError) Error() string { return "duplicate record: " + e.Constraint }

func (e *ConstraintError) Unwrap() error { return ErrDuplicate }
