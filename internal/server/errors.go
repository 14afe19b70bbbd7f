package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/localrivet/aisummarizer/internal/errortypes"
)

// ErrorResponse is the JSON body of a failed HTTP request.
type ErrorResponse struct {
	Status  string         `json:"status"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HTTP error codes
const (
	ErrorCodeInvalidRequest      = "INVALID_REQUEST"
	ErrorCodeInternalError       = "INTERNAL_ERROR"
	ErrorCodeAuthenticationError = "AUTHENTICATION_ERROR"
	ErrorCodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	ErrorCodeBadGateway          = "BAD_GATEWAY"
	ErrorCodeUnavailable         = "UNAVAILABLE"
	ErrorCodeConflict            = "CONFLICT"
)

// Tool error codes, returned in the Code field of tool responses
const (
	StatusCodeValidationError = "VALIDATION_ERROR"
	StatusCodePermissionError = "PERMISSION_ERROR"
	StatusCodeDatabaseError   = "DATABASE_ERROR"
	StatusCodeNetworkError    = "NETWORK_ERROR"
	StatusCodeInternalError   = "INTERNAL_ERROR"
	StatusCodeConfigError     = "CONFIG_ERROR"
	StatusCodeExternalError   = "EXTERNAL_ERROR"
	StatusCodeInferenceError  = "INFERENCE_ERROR"
	StatusCodeConflictError   = "CONFLICT"
	StatusCodeUnknownError    = "UNKNOWN_ERROR"
)

// errorClass is how one error type is reported to tool and HTTP clients.
type errorClass struct {
	toolCode string
	status   int
	httpCode string
	message  string
}

var internalClass = errorClass{StatusCodeInternalError, http.StatusInternalServerError, ErrorCodeInternalError, "An unexpected error occurred"}

var errorClasses = map[errortypes.ErrorType]errorClass{
	errortypes.ErrorTypeValidation: {StatusCodeValidationError, http.StatusBadRequest, ErrorCodeInvalidRequest, "Invalid request parameters"},
	errortypes.ErrorTypePermission: {StatusCodePermissionError, http.StatusUnauthorized, ErrorCodeAuthenticationError, "Permission denied"},
	errortypes.ErrorTypeDatabase:   {StatusCodeDatabaseError, http.StatusInternalServerError, ErrorCodeInternalError, "Archive error"},
	errortypes.ErrorTypeNetwork:    {StatusCodeNetworkError, http.StatusBadGateway, ErrorCodeBadGateway, "Network error"},
	errortypes.ErrorTypeAPI:        {StatusCodeExternalError, http.StatusBadGateway, ErrorCodeBadGateway, "Provider error"},
	errortypes.ErrorTypeExternal:   {StatusCodeExternalError, http.StatusBadGateway, ErrorCodeBadGateway, "Downstream service error"},
	errortypes.ErrorTypeInference:  {StatusCodeInferenceError, http.StatusBadGateway, ErrorCodeBadGateway, "Model error"},
	errortypes.ErrorTypeConflict:   {StatusCodeConflictError, http.StatusConflict, ErrorCodeConflict, "Another request is in progress"},
	errortypes.ErrorTypeConfig:     {StatusCodeConfigError, http.StatusInternalServerError, ErrorCodeInternalError, "Server misconfigured"},
	errortypes.ErrorTypeInternal:   internalClass,
}

// classify looks up err's class. Errors that are not AppErrors get the
// internal class with the unknown tool code.
func classify(err error) errorClass {
	var appErr *errortypes.AppError
	if !errors.As(err, &appErr) {
		c := internalClass
		c.toolCode = StatusCodeUnknownError
		return c
	}
	if c, ok := errorClasses[appErr.Type]; ok {
		return c
	}
	c := internalClass
	c.toolCode = StatusCodeUnknownError
	return c
}

// errorToResponse converts err to the code and message returned by tools.
func errorToResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Status:  "error",
		Code:    classify(err).toolCode,
		Message: err.Error(),
	}
	var appErr *errortypes.AppError
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		resp.Details = appErr.Fields
	}
	return resp
}

// writeErrorResponse writes a JSON error body. A non-nil err is logged and
// its text included in the details.
func writeErrorResponse(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Status: "error", Code: code, Message: message}
	if err != nil {
		resp.Details = map[string]any{"error": err.Error()}
		slog.Error(message, "status", status, "code", code, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// HandleNotFound writes a 404.
func HandleNotFound(w http.ResponseWriter, message string, err error) {
	writeErrorResponse(w, http.StatusNotFound, ErrorCodeResourceNotFound, message, err)
}

// HandleUnavailable writes a 503.
func HandleUnavailable(w http.ResponseWriter, message string, err error) {
	writeErrorResponse(w, http.StatusServiceUnavailable, ErrorCodeUnavailable, message, err)
}

// HandleError writes the response matching err's type.
func HandleError(w http.ResponseWriter, err error) {
	c := classify(err)
	writeErrorResponse(w, c.status, c.httpCode, c.message, err)
}
