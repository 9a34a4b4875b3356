package copier

import (
	"errors"
	"fmt"

	"copypath/internal/model"
)

// ErrorCode identifies a failure class so callers can test for it.
type ErrorCode string

const (
	ErrUnknown         ErrorCode = "UNKNOWN"
	ErrNoTarget        ErrorCode = "NO_TARGET"
	ErrUnsupportedRoot ErrorCode = "UNSUPPORTED_ROOT"
	ErrClipboard       ErrorCode = "CLIPBOARD"
)

// Reason maps a code onto the user-facing failure classification.
func (c ErrorCode) Reason() model.Reason {
	switch c {
	case ErrNoTarget:
		return model.ReasonNoTarget
	case ErrUnsupportedRoot:
		return model.ReasonUnsupportedRoot
	case ErrClipboard:
		return model.ReasonClipboardError
	default:
		return model.ReasonNone
	}
}

// CopyError is a coded error from a copy operation.
type CopyError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

func (e *CopyError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CopyError) Unwrap() error {
	return e.Wrapped
}

// Is matches any *CopyError with the same code.
func (e *CopyError) Is(target error) bool {
	var targetErr *CopyError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// NewError creates a CopyError with the given code and message.
func NewError(code ErrorCode, message string) *CopyError {
	return &CopyError{Code: code, Message: message}
}

// WrapError wraps err in a CopyError. It returns nil for a nil err.
func WrapError(err error, code ErrorCode, message string) *CopyError {
	if err == nil {
		return nil
	}
	return &CopyError{Code: code, Message: message, Wrapped: err}
}

// IsErrorCode checks if an error has a specific error code.
func IsErrorCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of err, or ErrUnknown if it is not a CopyError.
func CodeOf(err error) ErrorCode {
	var copyErr *CopyError
	if errors.As(err, &copyErr) {
		return copyErr.Code
	}
	return ErrUnknown
}

// Fail turns a coded error into a failed CopyResult.
func Fail(err *CopyError) model.CopyResult {
	return model.Failed(err.Code.Reason(), err)
}
