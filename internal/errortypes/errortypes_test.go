package errortypes

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errShort = errors.New("document too short")

func TestAppErrorMessage(t *testing.T) {
	err := ValidationError(errShort, "Please enter at least 30 words.")

	assert.Equal(t, "Please enter at least 30 words.: document too short", err.Error())
	assert.ErrorIs(t, err, errShort)
	assert.Contains(t, err.Stack, "TestAppErrorMessage")
}

func TestNewNilCause(t *testing.T) {
	err := InternalError(nil, "no cause")
	assert.EqualError(t, err.Err, "no cause")
}

func TestTypeChecks(t *testing.T) {
	wrapped := fmt.Errorf("summarize: %w", InferenceError(errors.New("x"), "model failed"))

	assert.True(t, IsInferenceError(wrapped))
	assert.False(t, IsValidationError(wrapped))
	assert.Equal(t, ErrorTypeInference, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
}

func TestConflictError(t *testing.T) {
	err := fmt.Errorf("summarize: %w", ConflictError(errors.New("busy"), "A summary is already being generated."))

	assert.True(t, IsConflictError(err))
	assert.False(t, IsValidationError(err))
	assert.Equal(t, ErrorTypeConflict, TypeOf(err))
}

func TestFinal(t *testing.T) {
	assert.True(t, Final(ValidationError(errShort, "short")))
	assert.True(t, Final(ConfigError(errors.New("x"), "no key")))
	assert.False(t, Final(NetworkError(errors.New("x"), "reset")))
	assert.False(t, Final(errors.New("plain")))
	assert.False(t, Final(ConflictError(errors.New("busy"), "try again")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Please enter at least 30 words.", UserMessage(ValidationError(errShort, "Please enter at least 30 words.")))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, "", UserMessage(nil))
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogError(logger, DatabaseError(errors.New("locked"), "archive unavailable").WithFields(map[string]any{"path": "a.db"}))

	out := buf.String()
	for _, want := range []string{"archive unavailable", "type=database", "cause=locked", "path=a.db"} {
		assert.True(t, strings.Contains(out, want), "log %q should contain %q", out, want)
	}
}
