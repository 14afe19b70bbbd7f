package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/localrivet/aisummarizer/internal/errortypes"
)

func TestWriteErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		code       string
		message    string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "basic error",
			status:     http.StatusBadRequest,
			code:       "BAD_REQUEST",
			message:    "Invalid input",
			err:        errors.New("test error"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "nil error",
			status:     http.StatusInternalServerError,
			code:       "INTERNAL_ERROR",
			message:    "Something went wrong",
			err:        nil,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeErrorResponse(w, tt.status, tt.code, tt.message, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("writeErrorResponse() status = %v, want %v", w.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Errorf("Failed to parse response: %v", err)
				return
			}

			if resp.Code != tt.wantCode {
				t.Errorf("writeErrorResponse() code = %v, want %v", resp.Code, tt.wantCode)
			}
			if tt.err == nil && resp.Details != nil {
				t.Errorf("Expected no details for nil error, got %v", resp.Details)
			}
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation error",
			err:        errortypes.ValidationError(errors.New("too short"), "Please enter at least 30 words."),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "permission error",
			err:        errortypes.PermissionError(errors.New("permission denied"), "unauthorized"),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "database error",
			err:        errortypes.DatabaseError(errors.New("db locked"), "archive unavailable"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "network error",
			err:        errortypes.NetworkError(errors.New("timeout"), "network error"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "inference error",
			err:        errortypes.InferenceError(errors.New("model crashed"), "analysis failed"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "conflict error",
			err:        errortypes.ConflictError(errors.New("busy"), "A summary is already being generated."),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown error",
			err:        errors.New("generic error"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleError() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestErrorToResponse(t *testing.T) {
	tests := []struct {
		err      error
		wantCode string
	}{
		{errortypes.ValidationError(errors.New("x"), "bad"), StatusCodeValidationError},
		{errortypes.DatabaseError(errors.New("x"), "db"), StatusCodeDatabaseError},
		{errortypes.ExternalError(errors.New("x"), "espeak"), StatusCodeExternalError},
		{errortypes.InferenceError(errors.New("x"), "model"), StatusCodeInferenceError},
		{errortypes.ConfigError(errors.New("x"), "config"), StatusCodeConfigError},
		{errortypes.ConflictError(errors.New("x"), "busy"), StatusCodeConflictError},
		{errors.New("plain"), StatusCodeUnknownError},
	}

	for _, tt := range tests {
		resp := errorToResponse(tt.err)
		if resp.Code != tt.wantCode {
			t.Errorf("errorToResponse(%v) code = %s, want %s", tt.err, resp.Code, tt.wantCode)
		}
		if resp.Message != tt.err.Error() {
			t.Errorf("Expected message %q, got %q", tt.err.Error(), resp.Message)
		}
	}

	withField := errortypes.ValidationError(errors.New("x"), "bad").WithField("word_count", 12)
	if got := errorToResponse(withField).Details["word_count"]; got != 12 {
		t.Errorf("Expected word_count detail, got %v", got)
	}
}

func TestHandleErrorBody(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errortypes.ConfigError(errors.New("no key"), "missing provider key"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Code != ErrorCodeInternalError || resp.Message != "Server misconfigured" {
		t.Errorf("Unexpected response %+v", resp)
	}
	if resp.Details["error"] != "missing provider key: no key" {
		t.Errorf("Expected error detail, got %v", resp.Details)
	}
}

func TestClassifyUnknownType(t *testing.T) {
	err := errortypes.New(errortypes.ErrorType("mystery"), errors.New("x"), "odd")
	if got := classify(err).toolCode; got != StatusCodeUnknownError {
		t.Errorf("Expected %s, got %s", StatusCodeUnknownError, got)
	}
}
