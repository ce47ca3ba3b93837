package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed or missing caller input. The HTTP
// boundary maps it to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a reference to a non-existent record. The HTTP
// boundary maps it to 404.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// DuplicateError is returned only under the reject submission policy, when a
// flagged duplicate is refused instead of stored. Under the default
// accept-and-flag policy a duplicate is a successful result, not an error.
// The HTTP boundary maps it to 409.
type DuplicateError struct {
	Rules []string
}

func (e *DuplicateError) Error() string {
	return "duplicate report: matched " + strings.Join(e.Rules, ", ")
}

// PersistenceError wraps a storage failure. The in-memory mutation that
// preceded the failed save is kept; callers surface the inconsistency rather
// than roll back.
type PersistenceError struct {
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
