package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Console-side errors
	ErrorCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeConflict         ErrorCode = "CONFLICT"
	ErrorCodeConfirmRequired  ErrorCode = "CONFIRMATION_REQUIRED"
	ErrorCodeAlreadySubmitted ErrorCode = "ALREADY_SUBMITTED"

	// Remote API errors
	ErrorCodeTransport         ErrorCode = "TRANSPORT_ERROR"
	ErrorCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrorCodePartialWorkflow   ErrorCode = "PARTIAL_WORKFLOW_FAILURE"

	// Technical errors
	ErrorCodeInternal  ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabase  ErrorCode = "DATABASE_ERROR"
	ErrorCodeTimeout   ErrorCode = "TIMEOUT_ERROR"
	ErrorCodeRateLimit ErrorCode = "RATE_LIMIT_ERROR"

	// Request errors
	ErrorCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id,omitempty"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error wrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ToJSON converts the error to JSON for API responses
func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"error":      e.Message,
		"code":       e.Code,
		"details":    e.Details,
		"timestamp":  e.Timestamp,
		"request_id": e.RequestID,
	})
	return data
}

// GetHTTPStatus returns the appropriate HTTP status code for the error
func (e *AppError) GetHTTPStatus() int {
	switch e.Code {
	case ErrorCodeValidation, ErrorCodeBadRequest, ErrorCodeInvalidJSON, ErrorCodeInvalidParameter:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict, ErrorCodeAlreadySubmitted:
		return http.StatusConflict
	case ErrorCodeConfirmRequired:
		return http.StatusPreconditionRequired
	case ErrorCodeTimeout:
		return http.StatusRequestTimeout
	case ErrorCodeRateLimit:
		return http.StatusTooManyRequests
	case ErrorCodeTransport, ErrorCodeMalformedResponse:
		return http.StatusBadGateway
	case ErrorCodePartialWorkflow:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		Timestamp:  time.Now(),
		StackTrace: getStackTrace(),
	}
}

// NewAppErrorWithCause creates a new application error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	err := NewAppError(code, message)
	err.Cause = cause
	return err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRequestID adds a request ID to the error
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func getStackTrace() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return NewAppError(ErrorCodeValidation, message)
}

// ValidationErrorWithDetails creates a validation error with field details
func ValidationErrorWithDetails(message string, fields map[string]string) *AppError {
	err := NewAppError(ErrorCodeValidation, message)
	for field, msg := range fields {
		err.WithDetail(field, msg)
	}
	return err
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *AppError {
	return NewAppError(ErrorCodeNotFound, fmt.Sprintf("%s not found", resource))
}

// DatabaseError creates a database error
func DatabaseError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeDatabase, message, cause)
}

// InternalError creates an internal server error
func InternalError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeInternal, message, cause)
}

// BadRequestError creates a bad request error
func BadRequestError(message string) *AppError {
	return NewAppError(ErrorCodeBadRequest, message)
}

// InvalidJSONError creates an invalid JSON error
func InvalidJSONError(cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeInvalidJSON, "Invalid JSON format", cause)
}

// ConfirmationRequiredError is returned when a destructive action was not confirmed
func ConfirmationRequiredError(action string) *AppError {
	return NewAppError(ErrorCodeConfirmRequired, fmt.Sprintf("%s requires confirmation", action))
}

// TransportError describes a failed call to the remote equipment API.
// Body holds the raw response body when the server sent one.
type TransportError struct {
	Kind       ErrorCode
	Method     string
	URL        string
	StatusCode int
	Body       string
	Cause      error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Kind == ErrorCodeMalformedResponse {
		b.WriteString(": malformed response")
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ToAppError converts the transport failure into the console's response error
func (e *TransportError) ToAppError(message string) *AppError {
	appErr := NewAppErrorWithCause(e.Kind, message, e)
	if e.StatusCode != 0 {
		appErr.WithDetail("upstream_status", e.StatusCode)
	}
	if e.Body != "" {
		appErr.WithDetail("upstream_body", e.Body)
	}
	return appErr
}

// NewTransportError wraps a network or HTTP failure
func NewTransportError(method, url string, status int, body string, cause error) *TransportError {
	return &TransportError{
		Kind:       ErrorCodeTransport,
		Method:     method,
		URL:        url,
		StatusCode: status,
		Body:       body,
		Cause:      cause,
	}
}

// MalformedResponseError reports a response that does not match the expected schema
func MalformedResponseError(method, url string, cause error) *TransportError {
	return &TransportError{
		Kind:   ErrorCodeMalformedResponse,
		Method: method,
		URL:    url,
		Cause:  cause,
	}
}

// StepFailure is one failed post-create step of an equipment submission.
type StepFailure struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// PartialWorkflowFailure reports that the equipment record exists but one
// or more dependent steps failed. Nothing is rolled back.
type PartialWorkflowFailure struct {
	EquipmentID int64         `json:"equipment_id"`
	Failures    []StepFailure `json:"failures"`
}

func (e *PartialWorkflowFailure) Error() string {
	steps := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		steps = append(steps, f.Step)
	}
	return fmt.Sprintf("equipment %d saved but %s failed", e.EquipmentID, strings.Join(steps, ", "))
}

// Unwrap exposes the step causes to errors.Is / errors.As
func (e *PartialWorkflowFailure) Unwrap() []error {
	causes := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Cause != nil {
			causes = append(causes, f.Cause)
		}
	}
	return causes
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// AsTransportError extracts a TransportError from the chain
func AsTransportError(err error) (*TransportError, bool) {
	var tErr *TransportError
	ok := stderrors.As(err, &tErr)
	return tErr, ok
}

// AsPartialWorkflowFailure extracts a PartialWorkflowFailure from the chain
func AsPartialWorkflowFailure(err error) (*PartialWorkflowFailure, bool) {
	var pErr *PartialWorkflowFailure
	ok := stderrors.As(err, &pErr)
	return pErr, ok
}

// WrapError wraps a generic error as an internal error
func WrapError(err error, message string) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	if tErr, ok := AsTransportError(err); ok {
		return tErr.ToAppError(message)
	}
	return NewAppErrorWithCause(ErrorCodeInternal, message, err)
}
