package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
	ErrForbidden               = errors.New("forbidden")
	ErrUnauthenticated         = errors.New("authentication required")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrSelfFollow              = errors.New("cannot subscribe to yourself")
	ErrImageStorageUnavailable = errors.New("image storage unavailable")

	ErrAlreadyAdded     = fmt.Errorf("already added: %w", ErrConflict)
	ErrAlreadyFollowing = fmt.Errorf("already subscribed: %w", ErrConflict)
	ErrNotPresent       = fmt.Errorf("not present: %w", ErrNotFound)
	ErrNotFollowing     = fmt.Errorf("not subscribed: %w", ErrNotFound)
)

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Details map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Details[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldErrors accumulates validation messages; the first message per field wins.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Details: f}
}

func invalid(field, msg string) error {
	return &ValidationError{Details: map[string]string{field: msg}}
}
