package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a drape error code.
type ErrorCode string

const (
	ErrValidation        ErrorCode = "VALIDATION"         // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrBusy              ErrorCode = "BUSY"               // 409
	ErrIllegalTransition ErrorCode = "ILLEGAL_TRANSITION" // 409
	ErrPersistence       ErrorCode = "PERSISTENCE"        // 500
	ErrInternal          ErrorCode = "INTERNAL"           // 500
	ErrRemote            ErrorCode = "REMOTE"             // 502
	ErrTransport         ErrorCode = "TRANSPORT"          // 502
)

// DrapeError represents a structured error with code, status, and details.
type DrapeError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is kept for logging; it is never rendered to users.
	cause error
}

// Error implements the error interface.
func (e *DrapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *DrapeError) Unwrap() error {
	return e.cause
}

// NewValidation creates a 400 error for user input that cannot be accepted
// (no photo selected, a non-image file, an unknown attribute value).
func NewValidation(msg string) *DrapeError {
	return &DrapeError{
		Code:    ErrValidation,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a history entry that does not exist.
func NewNotFound(id string) *DrapeError {
	return &DrapeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("history entry not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewBusy creates a 409 error for an operation that overlaps one in flight.
func NewBusy(operation string) *DrapeError {
	return &DrapeError{
		Code:    ErrBusy,
		Status:  409,
		Message: fmt.Sprintf("%s already in progress", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewIllegalTransition creates a 409 error for a view event that the
// current state does not accept.
func NewIllegalTransition(from, event string) *DrapeError {
	return &DrapeError{
		Code:    ErrIllegalTransition,
		Status:  409,
		Message: fmt.Sprintf("event %q not allowed in state %s", event, from),
		Details: map[string]any{"state": from, "event": event},
	}
}

// NewRemote creates a 502 error for an explicit error reported by a
// remote collaborator. The remote text is kept as the cause only.
func NewRemote(service, remoteMsg string) *DrapeError {
	return &DrapeError{
		Code:    ErrRemote,
		Status:  502,
		Message: fmt.Sprintf("%s service reported an error", service),
		Details: map[string]any{"service": service},
		cause:   stderrors.New(remoteMsg),
	}
}

// NewTransport creates a 502 error for a network failure or a response
// that could not be decoded.
func NewTransport(service string, err error) *DrapeError {
	return &DrapeError{
		Code:    ErrTransport,
		Status:  502,
		Message: fmt.Sprintf("%s service unreachable or returned a malformed response", service),
		Details: map[string]any{"service": service},
		cause:   err,
	}
}

// NewPersistence creates a 500 error for history storage failures.
func NewPersistence(err error) *DrapeError {
	return &DrapeError{
		Code:    ErrPersistence,
		Status:  500,
		Message: "history storage unavailable",
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *DrapeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &DrapeError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a DrapeError with the given code.
func Is(err error, code ErrorCode) bool {
	var dErr *DrapeError
	if stderrors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// Cause returns the text of the underlying cause for diagnostics,
// falling back to the error itself.
func Cause(err error) string {
	var dErr *DrapeError
	if stderrors.As(err, &dErr) && dErr.cause != nil {
		return dErr.cause.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
