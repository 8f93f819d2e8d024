// Package wderrors implements the error taxonomy from spec.md §7 as a
// single classified error type, grounded on the teacher's
// pkg/errors.ClassifiedError (Code/Class/Operation/cause, with Unwrap and
// an attached retry strategy) but re-keyed to this spec's kinds instead of
// the teacher's transient/rate-limit/circuit-breaker taxonomy.
package wderrors

import (
	"fmt"
	"time"
)

// Kind is one of the error kinds spec.md §7 names.
type Kind int

const (
	KindUnknown Kind = iota
	// InvalidCommand: command arguments violate the command's own
	// preconditions.
	KindInvalidCommand
	// DocumentModelViolation: applying would violate a §3 invariant.
	KindDocumentModelViolation
	// LockedRegion: target intersects a protected area.
	KindLockedRegion
	// PermissionDenied: principal lacks the capability.
	KindPermissionDenied
	// CausalHole: a remote operation references a clock never seen, past
	// the pending-buffer timeout.
	KindCausalHole
	// ConvergenceViolation: an internal CRDT assertion failed; fatal for
	// that document.
	KindConvergenceViolation
	// IO: store or codec I/O boundary failure.
	KindIO
	// Serialization: encode/decode failure at a store or codec boundary.
	KindSerialization
	// ResourceTooLarge: blob exceeds the configured maximum size.
	KindResourceTooLarge
	// ResourceFormatInvalid: blob's magic bytes are not a supported format.
	KindResourceFormatInvalid
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCommand:
		return "InvalidCommand"
	case KindDocumentModelViolation:
		return "DocumentModelViolation"
	case KindLockedRegion:
		return "LockedRegion"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindCausalHole:
		return "CausalHole"
	case KindConvergenceViolation:
		return "ConvergenceViolation"
	case KindIO:
		return "IO"
	case KindSerialization:
		return "Serialization"
	case KindResourceTooLarge:
		return "ResourceTooLarge"
	case KindResourceFormatInvalid:
		return "ResourceFormatInvalid"
	default:
		return "Unknown"
	}
}

// RetryPolicy describes whether, and how, an error of this kind should be
// retried. Only IO errors are retryable in this taxonomy — every other
// kind reflects a precondition that retrying without change cannot fix.
type RetryPolicy struct {
	ShouldRetry       bool
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// Error is a classified error carrying a stable kind, the failing
// operation's name, an optional reason/detail, and the wrapped cause.
type Error struct {
	Kind      Kind
	Operation string
	Reason    string
	Details   any
	Timestamp time.Time
	Retry     RetryPolicy

	cause error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Operation)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// IsRetryable reports whether the host may retry the failed operation.
func (e *Error) IsRetryable() bool { return e.Retry.ShouldRetry }

// New creates a classified error of the given kind.
func New(kind Kind, operation, reason string) *Error {
	return &Error{
		Kind:      kind,
		Operation: operation,
		Reason:    reason,
		Timestamp: time.Now(),
		Retry:     defaultRetry(kind),
	}
}

// Wrap attaches kind/operation classification to an underlying error
// (typically at a store or codec I/O boundary).
func Wrap(err error, kind Kind, operation string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:      kind,
		Operation: operation,
		Reason:    err.Error(),
		Timestamp: time.Now(),
		Retry:     defaultRetry(kind),
		cause:     err,
	}
}

// WithDetails attaches a structured payload (e.g. the locked region's id)
// to the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func defaultRetry(kind Kind) RetryPolicy {
	if kind == KindIO {
		return RetryPolicy{
			ShouldRetry:       true,
			BaseDelay:         2 * time.Second,
			MaxDelay:          30 * time.Second,
			BackoffMultiplier: 2.0,
		}
	}
	return RetryPolicy{ShouldRetry: false}
}

// Is reports whether err is a classified Error of the given kind, walking
// the Unwrap chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if ce, ok := err.(*Error); ok {
			if ce.Kind == kind {
				return true
			}
			err = ce.cause
			continue
		}
		break
	}
	return false
}
