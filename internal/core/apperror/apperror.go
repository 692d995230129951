package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error independently of the message shown to users.
type Kind string

const (
	// KindNotFound means the entity does not exist or is hidden by the default trash filter.
	KindNotFound Kind = "NOT_FOUND"
	// KindInvalidTransition means the requested status change is not in the transition table.
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	// KindUnauthorized means the actor's role lacks the capability for the operation.
	KindUnauthorized Kind = "UNAUTHORIZED"
	// KindValidation means the input is malformed or misses a required field.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindNotDeleted means a restore was attempted on an entity that is not in the trash.
	KindNotDeleted Kind = "NOT_DELETED"
	// KindDuplicateIdentifier means a generated identifier collided and retries are exhausted.
	KindDuplicateIdentifier Kind = "DUPLICATE_IDENTIFIER"
	// KindUnknownTemplate means a notification referenced a template key that is not registered.
	KindUnknownTemplate Kind = "UNKNOWN_TEMPLATE"
	// KindConflict means the entity changed between read and write (version mismatch).
	KindConflict Kind = "CONFLICT"
)

// Sentinels usable with errors.Is. Matching is done by Kind.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrNotDeleted          = &Error{Kind: KindNotDeleted}
	ErrDuplicateIdentifier = &Error{Kind: KindDuplicateIdentifier}
	ErrUnknownTemplate     = &Error{Kind: KindUnknownTemplate}
	ErrConflict            = &Error{Kind: KindConflict}
)

// Error is the structured error surfaced to callers of the core.
type Error struct {
	// Kind is the error category.
	Kind Kind `json:"kind"`
	// Message is a human readable description.
	Message string `json:"message"`
	// Details carries the context needed to render a precise message (statuses, field names).
	Details map[string]any `json:"details,omitempty"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// NotFound builds a KindNotFound error for the given entity and id.
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// InvalidTransition builds a KindInvalidTransition error carrying both statuses.
func InvalidTransition(current, requested string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", current, requested),
		Details: map[string]any{"current_status": current, "requested_status": requested},
	}
}

// Unauthorized builds a KindUnauthorized error for an operation and role.
func Unauthorized(operation, role string) *Error {
	return &Error{
		Kind:    KindUnauthorized,
		Message: fmt.Sprintf("role %q is not allowed to %s", role, operation),
		Details: map[string]any{"operation": operation, "role": role},
	}
}

// Validation builds a KindValidation error for the offending field.
func Validation(field, reason string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]any{"field": field, "reason": reason},
	}
}

// NotDeleted builds a KindNotDeleted error.
func NotDeleted(entity, id string) *Error {
	return &Error{
		Kind:    KindNotDeleted,
		Message: fmt.Sprintf("%s %s is not in the trash", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// DuplicateIdentifier builds a KindDuplicateIdentifier error after retries ran out.
func DuplicateIdentifier(field string, attempts int, cause error) *Error {
	return &Error{
		Kind:    KindDuplicateIdentifier,
		Message: fmt.Sprintf("could not allocate a unique %s after %d attempts", field, attempts),
		Details: map[string]any{"field": field, "attempts": attempts},
		Err:     cause,
	}
}

// UnknownTemplate builds a KindUnknownTemplate error.
func UnknownTemplate(key string) *Error {
	return &Error{
		Kind:    KindUnknownTemplate,
		Message: fmt.Sprintf("unknown notification template %q", key),
		Details: map[string]any{"template": key},
	}
}

// Conflict builds a KindConflict error for a stale version.
func Conflict(entity, id string, version int) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("%s %s was modified concurrently", entity, id),
		Details: map[string]any{"entity": entity, "id": id, "expected_version": version},
	}
}
