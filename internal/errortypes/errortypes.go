// Package errortypes classifies the errors the summarizer returns so callers
// can map them to exit codes, MCP status codes and HTTP responses.
package errortypes

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// ErrorType is the category of an AppError.
type ErrorType string

const (
	// ErrorTypeValidation is bad user input: short documents, bad bounds.
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypePermission ErrorType = "permission"
	// ErrorTypeDatabase covers the SQLite export archive.
	ErrorTypeDatabase ErrorType = "database"
	// ErrorTypeNetwork is a failed fetch or listener.
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeAPI is a provider rejecting a request.
	ErrorTypeAPI      ErrorType = "api"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeExternal is a local program or library failing, e.g. speech.
	ErrorTypeExternal ErrorType = "external"
	// ErrorTypeInference is a model that could not produce output.
	ErrorTypeInference ErrorType = "inference"
	// ErrorTypeConflict is a request refused because other work is running.
	// The same request may succeed later.
	ErrorTypeConflict ErrorType = "conflict"
)

// AppError is an error with a category, a user facing message and
// structured fields for logging.
type AppError struct {
	Err     error
	Type    ErrorType
	Message string
	Stack   string
	Fields  map[string]any
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField attaches a key/value pair and returns e.
func (e *AppError) WithField(key string, value any) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// WithFields attaches every pair in fields and returns e.
func (e *AppError) WithFields(fields map[string]any) *AppError {
	for k, v := range fields {
		e.WithField(k, v)
	}
	return e
}

// New wraps err as an AppError of type t. A nil err becomes an error
// carrying message.
func New(t ErrorType, err error, message string) *AppError {
	if err == nil {
		err = errors.New(message)
	}
	return &AppError{
		Err:     err,
		Type:    t,
		Message: message,
		Stack:   callers(3),
	}
}

// callers renders the stack above the constructor, leaving out the runtime
// and test harness frames.
func callers(skip int) string {
	pcs := make([]uintptr, 32)
	pcs = pcs[:runtime.Callers(skip, pcs)]
	frames := runtime.CallersFrames(pcs)

	var b strings.Builder
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") && !strings.HasPrefix(f.Function, "testing.") {
			fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		}
		if !more {
			return b.String()
		}
	}
}

func ValidationError(err error, message string) *AppError {
	return New(ErrorTypeValidation, err, message)
}

func PermissionError(err error, message string) *AppError {
	return New(ErrorTypePermission, err, message)
}

func DatabaseError(err error, message string) *AppError {
	return New(ErrorTypeDatabase, err, message)
}

func NetworkError(err error, message string) *AppError {
	return New(ErrorTypeNetwork, err, message)
}

func APIError(err error, message string) *AppError {
	return New(ErrorTypeAPI, err, message)
}

func ConfigError(err error, message string) *AppError {
	return New(ErrorTypeConfig, err, message)
}

func InternalError(err error, message string) *AppError {
	return New(ErrorTypeInternal, err, message)
}

func ExternalError(err error, message string) *AppError {
	return New(ErrorTypeExternal, err, message)
}

// InferenceError marks a model call that failed to produce a summary or
// analysis.
func InferenceError(err error, message string) *AppError {
	return New(ErrorTypeInference, err, message)
}

func ConflictError(err error, message string) *AppError {
	return New(ErrorTypeConflict, err, message)
}

// TypeOf returns the type of the outermost AppError in err's chain, or
// ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

func IsValidationError(err error) bool { return Is(err, ErrorTypeValidation) }
func IsPermissionError(err error) bool { return Is(err, ErrorTypePermission) }
func IsDatabaseError(err error) bool   { return Is(err, ErrorTypeDatabase) }
func IsNetworkError(err error) bool    { return Is(err, ErrorTypeNetwork) }
func IsInferenceError(err error) bool  { return Is(err, ErrorTypeInference) }
func IsConflictError(err error) bool   { return Is(err, ErrorTypeConflict) }

// Final reports whether retrying err cannot help: bad input, bad
// configuration or missing permission.
func Final(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Type {
	case ErrorTypeValidation, ErrorTypeConfig, ErrorTypePermission:
		return true
	}
	return false
}

// UserMessage is the text to show a user for err: the message of its
// outermost AppError, or the error itself.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

// LogError logs err at error level. AppErrors are logged under their
// message with type, cause, stack and fields as attributes.
func LogError(logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		logger.Error(err.Error(), "error", err)
		return
	}

	attrs := make([]any, 0, 6+2*len(appErr.Fields))
	attrs = append(attrs, "type", string(appErr.Type), "cause", appErr.Err.Error())
	if appErr.Stack != "" {
		attrs = append(attrs, "stack", appErr.Stack)
	}
	for k, v := range appErr.Fields {
		attrs = append(attrs, k, v)
	}
	msg := appErr.Message
	if msg == "" {
		msg = appErr.Err.Error()
	}
	logger.Error(msg, attrs...)
}
