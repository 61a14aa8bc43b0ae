package errors

import "fmt"

// ErrorCode represents a lenscap error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrConfiguration     ErrorCode = "CONFIGURATION"      // 400: bad locator or output path, caught before a task starts
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrBusy              ErrorCode = "BUSY"               // 409: capture slot already occupied
	ErrDependencyMissing ErrorCode = "DEPENDENCY_MISSING" // 501: capture capability not built in
	ErrCaptureFailed     ErrorCode = "CAPTURE_FAILED"     // 502: capability reachable but produced no usable output
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// CapError represents a structured error with code, status, and details.
type CapError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CapError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CapError {
	return &CapError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewConfiguration creates a 400 error for a bad stream locator or output path.
func NewConfiguration(msg string) *CapError {
	return &CapError{
		Code:    ErrConfiguration,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a saved stream that does not exist.
func NewNotFound(url string) *CapError {
	return &CapError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("saved stream not found: %s", url),
		Details: map[string]any{"url": url},
	}
}

// NewBusy creates a 409 error for when a capture task is already in flight.
func NewBusy() *CapError {
	return &CapError{
		Code:    ErrBusy,
		Status:  409,
		Message: "a capture task is already running; try again when it finishes",
	}
}

// NewDependencyMissing creates a 501 error carrying the fixed install hint.
func NewDependencyMissing(hint string) *CapError {
	return &CapError{
		Code:    ErrDependencyMissing,
		Status:  501,
		Message: hint,
	}
}

// NewCaptureFailed creates a 502 error with the capability's own message text.
func NewCaptureFailed(msg string) *CapError {
	return &CapError{
		Code:    ErrCaptureFailed,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CapError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CapError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a CapError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CapError); ok {
		return cErr.Code == code
	}
	return false
}
