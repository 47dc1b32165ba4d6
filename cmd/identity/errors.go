package identity

import (
	"errors"
	"fmt"
)

// Sentinel kinds used by typed errors below.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// OpError is a typed operation error with a stable Op + Kind contract for
// callers and tests. Msg may add human-readable context; never secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// ConflictError reports a uniqueness conflict for a specific logical field.
// Field is a stable logical name: "email", ...
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrConflict)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a missing row or referenced resource.
type NotFoundError struct {
	Op       string
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrNotFound)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrNotFound, e.Resource)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err represents ErrNotFound (including NotFoundError).
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidInput reports whether err represents ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
