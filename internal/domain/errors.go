package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is. Every typed error below unwraps to one
// of them, and the HTTP layer maps them onto status codes.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")

	// ErrUnavailable means a dependency such as the account directory
	// could not be reached.
	ErrUnavailable = errors.New("unavailable")

	// ErrPluginResolution means a line type names a serializer variant
	// that is not registered or cannot be built.
	ErrPluginResolution = errors.New("plugin resolution failed")

	// ErrWorkflowTransition means the option is not offered from the
	// subject's current state.
	ErrWorkflowTransition = errors.New("illegal workflow transition")

	// ErrStaleWrite is an optimistic-lock failure. The caller reloads and
	// retries.
	ErrStaleWrite = errors.New("stale write")

	ErrUnresolvedActor = errors.New("actor could not be resolved")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError reports a missing entity. id may be empty.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError is a state conflict other than a version mismatch, such as
// a duplicate key.
type ConflictError struct {
	Entity  string
	Reason  string
	Details string
}

func (e *ConflictError) Error() string {
	msg := e.Entity + " conflict: " + e.Reason
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}

	return msg
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError rejects an input. Value is the offending input and is
// not part of the message.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ForbiddenError refuses an operation to the caller.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	msg := fmt.Sprintf("operation %q forbidden", e.Operation)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError names the dependency that failed.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("service %q unavailable", e.Service)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// PluginResolutionError names the serializer variant that failed.
type PluginResolutionError struct {
	Variant string
	Reason  string
}

func (e *PluginResolutionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("line serializer %q cannot be resolved", e.Variant)
	}

	return fmt.Sprintf("line serializer %q: %s", e.Variant, e.Reason)
}

func (e *PluginResolutionError) Unwrap() error { return ErrPluginResolution }

func NewPluginResolutionError(variant, reason string) error {
	return &PluginResolutionError{Variant: variant, Reason: reason}
}

// WorkflowTransitionError reports an option taken from a state that does
// not offer it.
type WorkflowTransitionError struct {
	Subject string
	Option  string
	State   string
}

func (e *WorkflowTransitionError) Error() string {
	return fmt.Sprintf("option %q is not available to %s in state %q", e.Option, e.Subject, e.State)
}

func (e *WorkflowTransitionError) Unwrap() error { return ErrWorkflowTransition }

func NewWorkflowTransitionError(subject, option, state string) error {
	return &WorkflowTransitionError{Subject: subject, Option: option, State: state}
}

// StaleWriteError reports a version mismatch on update. It matches both
// ErrStaleWrite and ErrConflict.
type StaleWriteError struct {
	Entity   string
	ID       string
	Expected int64
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("%s %q was modified concurrently (expected version %d)", e.Entity, e.ID, e.Expected)
}

func (e *StaleWriteError) Unwrap() []error {
	return []error{ErrStaleWrite, ErrConflict}
}

func NewStaleWriteError(entity, id string, expected int64) error {
	return &StaleWriteError{Entity: entity, ID: id, Expected: expected}
}

func IsNotFound(err error) bool           { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool           { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool         { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool          { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool        { return errors.Is(err, ErrUnavailable) }
func IsPluginResolution(err error) bool   { return errors.Is(err, ErrPluginResolution) }
func IsWorkflowTransition(err error) bool { return errors.Is(err, ErrWorkflowTransition) }
func IsStaleWrite(err error) bool         { return errors.Is(err, ErrStaleWrite) }
func IsUnresolvedActor(err error) bool    { return errors.Is(err, ErrUnresolvedActor) }
