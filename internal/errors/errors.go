// FilePath: internal/errors/errors.go
package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Registry-side error types
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypePrecondition ErrorType = "precondition_failed"
	ErrorTypeInternal     ErrorType = "internal"

	// Transport-side error types
	ErrorTypeUnavailable      ErrorType = "unavailable"
	ErrorTypeUserCancelled    ErrorType = "user_cancelled"
	ErrorTypeConnectionFailed ErrorType = "connection_failed"
	ErrorTypeAlreadyConnected ErrorType = "already_connected"
	ErrorTypeNotConnected     ErrorType = "not_connected"
	ErrorTypeWriteFailed      ErrorType = "write_failed"
	ErrorTypeDecode           ErrorType = "decode_error"
)

// APIError represents a structured API error
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
	err       error     // Internal error for logging
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped internal error
func (e *APIError) Unwrap() error {
	return e.err
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithDetails adds additional details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeDatabase,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: msg,
		Code:    http.StatusNotFound,
		err:     err,
	}
}

// NewPreconditionError signals a required field is missing on the target of
// an operation, e.g. a cloud node without a MAC address. Surfaces as 400 to
// match the assignment endpoint contract.
func NewPreconditionError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypePrecondition,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewUnavailableError signals that a platform capability (e.g. a Bluetooth
// adapter) is missing.
func NewUnavailableError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeUnavailable,
		Message: msg,
		Code:    http.StatusServiceUnavailable,
		err:     err,
	}
}

// NewUserCancelledError signals that the operator aborted a device pick.
func NewUserCancelledError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeUserCancelled,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewConnectionFailedError signals a transport-level connect failure.
func NewConnectionFailedError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeConnectionFailed,
		Message: msg,
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewAlreadyConnectedError signals a connect attempt while a session is open.
func NewAlreadyConnectedError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeAlreadyConnected,
		Message: msg,
		Code:    http.StatusConflict,
		err:     err,
	}
}

// NewNotConnectedError signals an operation issued without an active session.
func NewNotConnectedError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNotConnected,
		Message: msg,
		Code:    http.StatusConflict,
		err:     err,
	}
}

// NewWriteFailedError signals a failed characteristic write.
func NewWriteFailedError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeWriteFailed,
		Message: msg,
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewDecodeError signals an undecodable characteristic payload.
func NewDecodeError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeDecode,
		Message: msg,
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

func isType(err error, t ErrorType) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Type == t
	}
	return false
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsPrecondition checks if an error is a PreconditionFailed error
func IsPrecondition(err error) bool {
	return isType(err, ErrorTypePrecondition)
}

// IsUserCancelled checks if an error is a UserCancelled error
func IsUserCancelled(err error) bool {
	return isType(err, ErrorTypeUserCancelled)
}

// IsNotConnected checks if an error is a NotConnected error
func IsNotConnected(err error) bool {
	return isType(err, ErrorTypeNotConnected)
}

// IsAlreadyConnected checks if an error is an AlreadyConnected error
func IsAlreadyConnected(err error) bool {
	return isType(err, ErrorTypeAlreadyConnected)
}

// IsDecode checks if an error is a DecodeError
func IsDecode(err error) bool {
	return isType(err, ErrorTypeDecode)
}

// IsWriteFailed checks if an error is a WriteFailed error
func IsWriteFailed(err error) bool {
	return isType(err, ErrorTypeWriteFailed)
}
