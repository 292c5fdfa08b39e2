package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"equipment-console/internal/repository"
	"equipment-console/internal/view"
	"equipment-console/internal/workflow"
	apperrors "equipment-console/pkg/errors"
	"equipment-console/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every error
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse is the JSON body of successful mutations
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorHandler provides centralized error handling functionality for handlers
type ErrorHandler struct {
	Logger *zap.Logger
}

// NewErrorHandler creates a new ErrorHandler instance
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{Logger: logger}
}

// SendErrorResponse sends a structured error response
func (e *ErrorHandler) SendErrorResponse(w http.ResponseWriter, statusCode int, message, code string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		e.Logger.Error("failed to encode error response", zap.Error(err))
	}
}

// SendSuccessResponse sends a structured success response
func (e *ErrorHandler) SendSuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := SuccessResponse{
		Message: message,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		e.Logger.Error("failed to encode success response", zap.Error(err))
	}
}

// SendJSONResponse sends a generic JSON response
func (e *ErrorHandler) SendJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		e.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// HandleError maps console, workflow and remote API errors to HTTP responses.
// Remote 4xx answers keep their status; anything else from the remote API is a 502.
func (e *ErrorHandler) HandleError(w http.ResponseWriter, err error, operation string) {
	if partial, ok := apperrors.AsPartialWorkflowFailure(err); ok {
		details := make(map[string]string, len(partial.Failures))
		for _, f := range partial.Failures {
			details[f.Step] = f.Message
		}
		e.Logger.Warn("partial workflow failure", zap.String("operation", operation), zap.Error(err))
		e.SendErrorResponse(w, http.StatusMultiStatus, partial.Error(), string(apperrors.ErrorCodePartialWorkflow), details)
		return
	}

	if appErr, ok := apperrors.AsAppError(err); ok {
		e.logAt(appErr.GetHTTPStatus(), operation, err)
		e.SendErrorResponse(w, appErr.GetHTTPStatus(), appErr.Message, string(appErr.Code), stringDetails(appErr.Details))
		return
	}

	if tErr, ok := apperrors.AsTransportError(err); ok {
		status := http.StatusBadGateway
		if tErr.Kind == apperrors.ErrorCodeTransport && tErr.StatusCode >= 400 && tErr.StatusCode < 500 {
			status = tErr.StatusCode
		}
		details := map[string]string{"upstream": tErr.Method + " " + tErr.URL}
		if tErr.StatusCode != 0 {
			details["upstream_status"] = fmt.Sprint(tErr.StatusCode)
		}
		if tErr.Body != "" {
			details["upstream_body"] = tErr.Body
		}
		e.logAt(status, operation, err)
		e.SendErrorResponse(w, status, fmt.Sprintf("Failed to %s: %v", operation, err), string(tErr.Kind), details)
		return
	}

	e.logAt(http.StatusInternalServerError, operation, err)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.SendErrorResponse(w, http.StatusRequestTimeout, "Operation timed out", string(apperrors.ErrorCodeTimeout), nil)
	case errors.Is(err, view.ErrSuperseded):
		e.SendErrorResponse(w, http.StatusConflict, "Superseded by a newer request", string(apperrors.ErrorCodeConflict), nil)
	case errors.Is(err, view.ErrNoPendingDelete):
		e.SendErrorResponse(w, http.StatusPreconditionRequired, err.Error(), string(apperrors.ErrorCodeConfirmRequired), nil)
	case errors.Is(err, workflow.ErrAlreadySubmitted):
		e.SendErrorResponse(w, http.StatusConflict, err.Error(), string(apperrors.ErrorCodeAlreadySubmitted), nil)
	case errors.Is(err, repository.ErrWorkflowRunNotFound):
		e.SendErrorResponse(w, http.StatusNotFound, "Workflow run not found", string(apperrors.ErrorCodeNotFound), nil)
	default:
		e.SendErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s", operation), string(apperrors.ErrorCodeInternal), nil)
	}
}

func (e *ErrorHandler) logAt(status int, operation string, err error) {
	if status >= http.StatusInternalServerError {
		e.Logger.Error("request failed", zap.String("operation", operation), zap.Int("status", status), zap.Error(err))
		return
	}
	e.Logger.Info("request rejected", zap.String("operation", operation), zap.Int("status", status), zap.Error(err))
}

// HandleJSONDecodeError handles JSON decoding errors
func (e *ErrorHandler) HandleJSONDecodeError(w http.ResponseWriter, err error) {
	e.Logger.Info("JSON decode error", zap.Error(err))
	e.SendErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", string(apperrors.ErrorCodeInvalidJSON), nil)
}

// ParseAndValidateID parses a positive numeric id, writing a 400 when invalid
func (e *ErrorHandler) ParseAndValidateID(w http.ResponseWriter, idStr string) (int64, bool) {
	id, err := validation.ParseID(idStr)
	if err != nil {
		e.SendErrorResponse(w, http.StatusBadRequest, err.Error(), string(apperrors.ErrorCodeInvalidParameter), nil)
		return 0, false
	}
	return id, true
}

// ParseAndValidateUUID parses and validates UUID from string
func (e *ErrorHandler) ParseAndValidateUUID(w http.ResponseWriter, idStr string) (uuid.UUID, bool) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		e.SendErrorResponse(w, http.StatusBadRequest, "Invalid UUID format", string(apperrors.ErrorCodeInvalidParameter), nil)
		return uuid.Nil, false
	}
	return id, true
}

func stringDetails(details map[string]interface{}) map[string]string {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]string, len(details))
	for k, v := range details {
		out[k] = fmt.Sprint(v)
	}
	return out
}
