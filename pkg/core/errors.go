// Package core holds the error taxonomy shared by the tutor session
// components.
package core

import (
	"errors"
	"fmt"
)

// Error is a categorized tutor-core error.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrPermission means microphone or screen access was denied.
	ErrPermission ErrorType = "permission_error"
	// ErrDevice means an audio device failed to open or produce data.
	ErrDevice ErrorType = "device_error"
	// ErrConnection means the realtime session could not be opened or the
	// transport failed mid-session.
	ErrConnection ErrorType = "connection_error"
	// ErrDecode means an inbound audio chunk was malformed.
	ErrDecode ErrorType = "decode_error"
	// ErrEmptyCanvas means an export was requested with nothing on the board.
	ErrEmptyCanvas ErrorType = "empty_canvas_error"
	// ErrGenerationBusy means a media generation was requested while another
	// one was in flight.
	ErrGenerationBusy ErrorType = "generation_busy_error"
	// ErrToolExecution means a tool handler failed unexpectedly.
	ErrToolExecution ErrorType = "tool_execution_error"
	// ErrTimeout means code or test execution exceeded its budget.
	ErrTimeout ErrorType = "timeout_error"
)

// NewPermissionError creates a permission error.
func NewPermissionError(message string, cause error) *Error {
	return &Error{Type: ErrPermission, Message: message, Cause: cause}
}

// NewDeviceError creates a device error.
func NewDeviceError(message string, cause error) *Error {
	return &Error{Type: ErrDevice, Message: message, Cause: cause}
}

// NewConnectionError creates a connection error.
func NewConnectionError(message string, cause error) *Error {
	return &Error{Type: ErrConnection, Message: message, Cause: cause}
}

// NewDecodeError creates a decode error.
func NewDecodeError(message string, cause error) *Error {
	return &Error{Type: ErrDecode, Message: message, Cause: cause}
}

// NewEmptyCanvasError creates an empty canvas error.
func NewEmptyCanvasError(message string) *Error {
	return &Error{Type: ErrEmptyCanvas, Message: message}
}

// NewGenerationBusyError creates a generation busy error.
func NewGenerationBusyError(message string) *Error {
	return &Error{Type: ErrGenerationBusy, Message: message}
}

// NewToolExecutionError creates a tool execution error.
func NewToolExecutionError(message string, cause error) *Error {
	return &Error{Type: ErrToolExecution, Message: message, Cause: cause}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(message string) *Error {
	return &Error{Type: ErrTimeout, Message: message}
}

// TypeOf returns the ErrorType of err if it is (or wraps) a *Error, or an
// empty string otherwise.
func TypeOf(err error) ErrorType {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

// IsFatal reports whether an error should tear the session down rather than
// being converted into a tool result or dropped per chunk.
func IsFatal(err error) bool {
	switch TypeOf(err) {
	case ErrPermission, ErrDevice, ErrConnection:
		return true
	default:
		return false
	}
}
