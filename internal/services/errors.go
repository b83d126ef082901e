// internal/services/errors.go
package services

import "errors"

// ErrorKind classifies service failures so handlers can pick a status code
// without inspecting message strings.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuth           ErrorKind = "auth"
	KindForbidden      ErrorKind = "forbidden"
	KindConflict       ErrorKind = "conflict"
	KindNotFound       ErrorKind = "not_found"
	KindChainRetryable ErrorKind = "chain_retryable"
	KindChainFatal     ErrorKind = "chain_fatal"
	KindInternal       ErrorKind = "internal"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func AuthError(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func ForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func ConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// RetryableChainError means the attestation source could not answer yet. The
// purchase stays pending and the caller may retry.
func RetryableChainError(message string, err error) *Error {
	return &Error{Kind: KindChainRetryable, Message: message, Err: err}
}

// FatalChainError means the chain gave a definitive negative answer. The
// purchase is terminally failed.
func FatalChainError(message string) *Error {
	return &Error{Kind: KindChainFatal, Message: message}
}

func InternalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the classification from any error in the chain, defaulting
// to internal for unclassified errors.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}
