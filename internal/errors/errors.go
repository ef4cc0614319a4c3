package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a newsdesk error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrAlreadyExists    ErrorCode = "ALREADY_EXISTS"    // 409
	ErrMirrorDisabled   ErrorCode = "MIRROR_DISABLED"   // 409
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrStorageFailed    ErrorCode = "STORAGE_FAILED"    // 500
	ErrGenerationFailed ErrorCode = "GENERATION_FAILED" // 500
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrMirrorFailed     ErrorCode = "MIRROR_FAILED"     // 502
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewValidation creates a 400 error carrying field-level messages.
// Details maps each offending field path to its message.
func NewValidation(fields map[string]string) *AppError {
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("validation failed for %d field(s)", len(fields)),
		Details: details,
	}
}

// NewNotFound creates a 404 error for when a digest cannot be found.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("digest not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *AppError {
	return &AppError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadyExists creates a 409 error when an imported digest id is taken.
func NewAlreadyExists(id string) *AppError {
	return &AppError{
		Code:    ErrAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("digest already exists: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewMirrorDisabled is returned by every mirror call when no remote store is configured.
func NewMirrorDisabled() *AppError {
	return &AppError{
		Code:    ErrMirrorDisabled,
		Status:  409,
		Message: "remote mirror is not enabled",
	}
}

// NewCancelled creates a 499 error when the caller gave up on an operation.
func NewCancelled(op string) *AppError {
	return &AppError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewStorageFailed wraps a local storage failure.
func NewStorageFailed(op string, err error) *AppError {
	return &AppError{
		Code:    ErrStorageFailed,
		Status:  500,
		Message: fmt.Sprintf("%s: %v", op, err),
		Details: map[string]any{"operation": op},
		cause:   err,
	}
}

// NewMirrorFailed wraps a remote mirror failure.
func NewMirrorFailed(op string, err error) *AppError {
	return &AppError{
		Code:    ErrMirrorFailed,
		Status:  502,
		Message: fmt.Sprintf("mirror %s: %v", op, err),
		Details: map[string]any{"operation": op},
		cause:   err,
	}
}

// NewGenerationFailed wraps an unexpected failure while composing a brief.
func NewGenerationFailed(err error) *AppError {
	return &AppError{
		Code:    ErrGenerationFailed,
		Status:  500,
		Message: fmt.Sprintf("brief generation failed: %v", err),
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// As returns the *AppError in err's chain, wrapping anything else as INTERNAL.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}

// Is checks if an error is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
