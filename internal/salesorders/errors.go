package salesorders

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a write lost a race, e.g. a duplicate order number.
	ErrConflict = errors.New("conflict")
	// ErrIntegrity marks stored data that breaks an invariant the service relies on.
	ErrIntegrity = errors.New("data integrity fault")
)

// Violations maps a field path to a short reason.
type Violations map[string]string

// ValidationError unwraps to ErrValidation.
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Violations[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Violations: Violations{field: reason}}
}
