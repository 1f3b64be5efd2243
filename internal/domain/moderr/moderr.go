// Package moderr defines the error taxonomy of the moderation workflow.
//
// NotFoundError, InvalidStateError, UnknownTypeError, PermissionError and
// InvalidInputError end the request and are reported to the caller.
// SideEffectError is logged by the engine and never fails a transition.
package moderr

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when an id does not resolve to a record.
type NotFoundError struct {
	Kind string // "user", or a registry type tag
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvalidStateError is returned when the current status does not allow the
// requested transition. It is the guard against stale screens and
// concurrent duplicate submissions.
type InvalidStateError struct {
	Kind    string
	ID      string
	Current string
	Want    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %q is %s, expected %s", e.Kind, e.ID, e.Current, e.Want)
}

// UnknownTypeError is returned for a content type tag the registry does not know.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown content type %q", e.Type)
}

// PermissionError is returned when the caller lacks the admin role.
type PermissionError struct {
	Op string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: admin privilege required", e.Op)
}

// InvalidInputError is returned for malformed requests, such as a decision
// outside the allowed set.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SideEffectError wraps a failure to persist a transition's side effect.
type SideEffectError struct {
	Effect string
	Err    error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("side effect %s failed: %v", e.Effect, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsInvalidState reports whether err is or wraps an InvalidStateError.
func IsInvalidState(err error) bool {
	var e *InvalidStateError
	return errors.As(err, &e)
}

// IsUnknownType reports whether err is or wraps an UnknownTypeError.
func IsUnknownType(err error) bool {
	var e *UnknownTypeError
	return errors.As(err, &e)
}

// IsPermission reports whether err is or wraps a PermissionError.
func IsPermission(err error) bool {
	var e *PermissionError
	return errors.As(err, &e)
}

// IsInvalidInput reports whether err is or wraps an InvalidInputError.
func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return errors.As(err, &e)
}

// IsSideEffect reports whether err is or wraps a SideEffectError.
func IsSideEffect(err error) bool {
	var e *SideEffectError
	return errors.As(err, &e)
}
