// Package errors provides error handling for cersei.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Markers that survive wrapping (used for storage failures)
//   - Details and hints for operators
//
// Usage:
//
//	// Wrap with context
//	if err := store.CreateRevision(ctx, id); err != nil {
//	    return errors.Wrap(err, "failed to create revision")
//	}
//
//	// Check the kind of failure
//	if errors.Is(err, errors.ErrStorageUnavailable) {
//	    // caller decides retry policy
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetReportableStackTrace extracts the stack trace recorded by New/Wrap.
var GetReportableStackTrace = crdb.GetReportableStackTrace

// Assertions
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
	IsAssertionFailure               = crdb.IsAssertionFailure
)

// Sentinel errors for the catalog pipeline.
// Use these with errors.Is(); constructors below wrap them so context is preserved.
var (
	// ErrInvalidProperty indicates a property token that does not normalize to a number
	ErrInvalidProperty = New("invalid property")

	// ErrMalformedReference indicates bad item-reference syntax (e.g. "X5", "Q")
	ErrMalformedReference = New("malformed item reference")

	// ErrInvalidLabelKind indicates a label kind outside the five allowed kinds
	ErrInvalidLabelKind = New("invalid label kind")

	// ErrEntryNotValid indicates a commit attempt on an entry without a source id
	ErrEntryNotValid = New("entry not valid")

	// ErrStorageUnavailable marks any failed persistence operation
	ErrStorageUnavailable = New("storage unavailable")

	// ErrAmbiguousResolution is an internal signal; the resolver skips instead of guessing
	ErrAmbiguousResolution = New("ambiguous resolution")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrConflict indicates a resource conflict
	ErrConflict = New("resource conflict")

	// ErrUnsupported indicates a collaborator lacks an optional capability
	ErrUnsupported = New("unsupported")

	// ErrAlreadyRunning indicates the advisory run check found an unfinished run
	ErrAlreadyRunning = New("already running")
)

// NewInvalidPropertyError reports a malformed property token.
func NewInvalidPropertyError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidProperty, Newf(format, args...).Error())
}

// NewMalformedReferenceError reports bad item-reference syntax.
func NewMalformedReferenceError(format string, args ...interface{}) error {
	return Wrap(ErrMalformedReference, Newf(format, args...).Error())
}

// NewInvalidLabelKindError reports an unrecognized label kind.
func NewInvalidLabelKindError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidLabelKind, Newf(format, args...).Error())
}

// NewEntryNotValidError reports an invalid entry; dump is attached as a detail
// so it is visible with %+v and through GetAllDetails.
func NewEntryNotValidError(reason, dump string) error {
	return WithDetail(Wrap(ErrEntryNotValid, reason), dump)
}

// MarkStorage marks err as a storage failure while keeping the driver error in the chain.
// A nil err stays nil.
func MarkStorage(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrStorageUnavailable)
}

// MarkStoragef is MarkStorage with a formatted context.
func MarkStoragef(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Mark(Wrapf(err, format, args...), ErrStorageUnavailable)
}

// IsStorageUnavailable checks if an error is or wraps ErrStorageUnavailable
func IsStorageUnavailable(err error) bool {
	return err != nil && Is(err, ErrStorageUnavailable)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
