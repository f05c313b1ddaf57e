package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	ErrInvalidMetric        = errors.New("invalid metric")
	ErrInvalidHorizon       = errors.New("invalid forecast horizon")
	ErrInvalidTimeRange     = errors.New("invalid time range: start time must be before end time")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrModelFitFailed       = errors.New("model fit failed")
	ErrUnparseableDate      = errors.New("unparseable date")
	ErrDataNotFound         = errors.New("data not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrStorageReadFailed    = errors.New("storage read failed")
	ErrStorageWriteFailed   = errors.New("storage write failed")
	ErrStorageTimeout       = errors.New("storage operation timeout")
	ErrConnectionFailed     = errors.New("connection failed")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInternal             = errors.New("internal error")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeInsufficientData ErrorType = "insufficient_data"
	ErrorTypeModelFit         ErrorType = "model_fit"
	ErrorTypeData             ErrorType = "data"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeStorage          ErrorType = "storage"
	ErrorTypeConfiguration    ErrorType = "configuration"
	ErrorTypeInternal         ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Retryable  bool                   `json:"retryable"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		Retryable:  false,
		HTTPStatus: getDefaultHTTPStatus(errType),
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		Cause:      err,
		Retryable:  isRetryable(err),
		HTTPStatus: getDefaultHTTPStatus(errType),
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AppError {
	return NewAppError(ErrorTypeValidation, code, message)
}

// NewInsufficientDataError reports that a series is too short for a model
func NewInsufficientDataError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInsufficientData,
		Code:       CodeInsufficientData,
		Message:    message,
		Cause:      ErrInsufficientData,
		HTTPStatus: getDefaultHTTPStatus(ErrorTypeInsufficientData),
	}
}

// NewModelFitError wraps a numerical failure raised while fitting a model.
// The underlying message is kept as the error details.
func NewModelFitError(model string, err error) *AppError {
	appErr := &AppError{
		Type:       ErrorTypeModelFit,
		Code:       CodeModelFitFailed,
		Message:    fmt.Sprintf("failed to fit %s model", model),
		Cause:      err,
		HTTPStatus: getDefaultHTTPStatus(ErrorTypeModelFit),
	}
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// NewDataError reports malformed input records
func NewDataError(code, message string) *AppError {
	return NewAppError(ErrorTypeData, code, message)
}

// NewNotFoundError reports a missing user or empty record set
func NewNotFoundError(code, message string) *AppError {
	return NewAppError(ErrorTypeNotFound, code, message)
}

// NewStorageError creates a storage error
func NewStorageError(code, message string) *AppError {
	return NewAppError(ErrorTypeStorage, code, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       CodeInternalError,
		Message:    message,
		Retryable:  false,
		HTTPStatus: 500,
	}
}

// IsType reports whether err is, or wraps, an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Type == errType
}

// AsAppError returns the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus returns the HTTP status associated with err, 500 for foreign errors
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return 500
}

// getDefaultHTTPStatus returns the default HTTP status for an error type
func getDefaultHTTPStatus(errType ErrorType) int {
	switch errType {
	case ErrorTypeValidation, ErrorTypeInsufficientData, ErrorTypeModelFit, ErrorTypeData:
		return 400
	case ErrorTypeNotFound:
		return 404
	case ErrorTypeInternal:
		return 500
	case ErrorTypeStorage, ErrorTypeConfiguration:
		return 503
	default:
		return 500
	}
}

// isRetryable determines if an error is retryable
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrStorageTimeout):
		return true
	case errors.Is(err, ErrConnectionFailed):
		return true
	default:
		return false
	}
}

// ErrorResponse represents an error response for APIs
type ErrorResponse struct {
	Error     *AppError `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp string    `json:"timestamp"`
	Path      string    `json:"path,omitempty"`
}

// Error codes for different error scenarios
const (
	// Validation error codes
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidMetric    = "INVALID_METRIC"
	CodeOutOfRange       = "OUT_OF_RANGE"
	CodeInvalidTimeRange = "INVALID_TIME_RANGE"

	// Analytics error codes
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeModelFitFailed   = "MODEL_FIT_FAILED"
	CodeInvalidDate      = "INVALID_DATE"

	// Lookup error codes
	CodeUserNotFound = "USER_NOT_FOUND"
	CodeNoData       = "NO_DATA"

	// Storage error codes
	CodeStorageError     = "STORAGE_ERROR"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeNotConnected     = "NOT_CONNECTED"
	CodeReadFailed       = "READ_FAILED"
	CodeWriteFailed      = "WRITE_FAILED"
	CodeInvalidConfig    = "INVALID_CONFIG"

	// Internal error codes
	CodeInternalError = "INTERNAL_ERROR"
)
