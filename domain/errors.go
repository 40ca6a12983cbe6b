package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// DocumentNotFound reports a missing document in a remote collection.
// It matches ErrDocumentNotFound with errors.Is.
func DocumentNotFound(collection, id string) error {
	return WrapError(ErrCodeNotFound, fmt.Sprintf("%s/%s", collection, id), ErrDocumentNotFound)
}

// Common domain errors.
var (
	ErrBoardNotFound        = NewError(ErrCodeNotFound, "board not found")
	ErrCardNotFound         = NewError(ErrCodeNotFound, "card not found")
	ErrDocumentNotFound     = NewError(ErrCodeNotFound, "document not found")
	ErrActiveBoardProtected = NewError(ErrCodeConflict, "active board cannot be deleted while other boards exist")
	ErrUnknownAction        = NewError(ErrCodeInvalid, "unknown action")
	ErrUnauthorized         = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
	ErrRemoteUnavailable    = NewError(ErrCodeUnavailable, "remote store unavailable")
)

// CodeOf returns the code of the outermost domain error in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) && dErr.Code != "" {
		return dErr.Code
	}
	return ErrCodeInternal
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
