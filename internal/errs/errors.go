// Package errs provides the unified error type used across all of fxgate.
//
// Every subsystem (drive, auth, server, …) wraps its native errors into
// *errs.Error before returning them to callers. Callers use the Is*
// predicates to handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In the drive layer — wrap native errors:
//	return errs.Wrap(errs.ErrKindStoreFailed, "delete object", err)
//
//	// In a handler — check error kind:
//	if errs.IsInvalidInput(err) {
//	    respondError(w, http.StatusBadRequest, err)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// The object-store driver maps transport and protocol failures to one of
// these kinds, giving route handlers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindConfigMissing            // credentials or endpoint absent
	ErrKindUnauthorized             // missing or invalid session token
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindNotFound                 // no object under the requested key
	ErrKindConnectionFailed         // cannot reach the object store
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindStoreFailed              // non-2xx or malformed store response
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConfigMissing:
		return "config_missing"
	case ErrKindUnauthorized:
		return "unauthorized"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindStoreFailed:
		return "store_failed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all fxgate subsystems.
// The drive layer produces it; handlers inspect it via the Is* predicates.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original transport-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsConfigMissing reports whether err was caused by absent store credentials
// or endpoint configuration.
func IsConfigMissing(err error) bool {
	return kindOf(err) == ErrKindConfigMissing
}

// IsUnauthorized reports whether err represents a missing or failed
// session-token check.
func IsUnauthorized(err error) bool {
	return kindOf(err) == ErrKindUnauthorized
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

// IsNotFound reports whether err represents a "not found" result
// (missing object, unknown content slug, …).
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsConnectionFailed reports whether err is a connectivity failure against
// the object store.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsStoreFailed reports whether err is an object-store operation failure
// (non-2xx response, XML decode error, …).
func IsStoreFailed(err error) bool {
	return kindOf(err) == ErrKindStoreFailed
}

// kindOf extracts the ErrKind from any error in the chain.
func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
