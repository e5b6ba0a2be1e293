// Package exception provides the typed error taxonomy shared by all skycast
// services and repositories. Store, blob-storage and remote-call failures are
// caught at the repository/client boundary, classified into one of the kinds
// below, and re-raised with the original cause attached; no error crosses
// that boundary unclassified.
package exception

import (
	"errors"
	"fmt"
)

// Kind classifies a ServiceError so that outer layers (the HTTP surface in
// particular) can map failures without inspecting causes.
type Kind int

const (
	// KindInternalStorage indicates an unexpected store-side fault.
	KindInternalStorage Kind = iota
	// KindInvalidArgument indicates caller misuse: a missing identifier,
	// a disallowed file extension, an out-of-range parameter.
	KindInvalidArgument
	// KindNotFound indicates an absent entity or blob.
	KindNotFound
	// KindUnavailable indicates transient connectivity loss to the store or
	// an external provider. Retrying the whole request is safe.
	KindUnavailable
	// KindConstraintViolation indicates a store-side integrity failure
	// (uniqueness, foreign key). Not retryable without changing input.
	KindConstraintViolation
)

// String returns the kind's stable name.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnavailable:
		return "UNAVAILABLE"
	case KindConstraintViolation:
		return "CONSTRAINT_VIOLATION"
	default:
		return "INTERNAL_STORAGE"
	}
}

// ServiceError is the error type raised across service boundaries.
// It holds the module where the error occurred, a concise message, the
// classification kind, and the wrapped original cause (for logging).
type ServiceError struct {
	// Module indicates where the error occurred (e.g. "repository", "blob").
	Module string
	// Message is a concise description of the error.
	Message string
	// Kind is the error classification.
	Kind Kind
	// Cause is the wrapped original error, if any.
	Cause error
}

// New creates a new ServiceError instance.
func New(kind Kind, module, message string, cause error) *ServiceError {
	return &ServiceError{
		Module:  module,
		Message: message,
		Kind:    kind,
		Cause:   cause,
	}
}

// Newf creates a new ServiceError with a formatted message and no cause.
func Newf(kind Kind, module, format string, a ...interface{}) *ServiceError {
	return New(kind, module, fmt.Sprintf(format, a...), nil)
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Module, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Module, e.Kind, e.Message)
}

// Unwrap returns the original cause for errors.Unwrap.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// KindOf extracts the classification of an error. Errors that are not
// ServiceError (or do not wrap one) classify as KindInternalStorage, the
// catch-all for unexpected faults.
func KindOf(err error) Kind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternalStorage
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// IsInvalidArgument reports whether err is a caller-misuse failure.
func IsInvalidArgument(err error) bool { return IsKind(err, KindInvalidArgument) }

// IsNotFound reports whether err indicates an absent entity or blob.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsUnavailable reports whether err indicates transient connectivity loss.
func IsUnavailable(err error) bool { return IsKind(err, KindUnavailable) }

// IsConstraintViolation reports whether err indicates an integrity failure.
func IsConstraintViolation(err error) bool { return IsKind(err, KindConstraintViolation) }

// IsRetryable reports whether retrying the whole request may succeed
// without changing input. Only KindUnavailable qualifies.
func IsRetryable(err error) bool { return IsKind(err, KindUnavailable) }
