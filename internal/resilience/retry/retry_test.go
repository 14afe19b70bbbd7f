package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/localrivet/aisummarizer/internal/errortypes"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	retries := 0
	cfg := fastConfig(3)
	cfg.OnRetry = func(int, error) { retries++ }

	attempt, err := WithBackoff(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempt != 3 {
		t.Errorf("expected success on attempt 3, got %d", attempt)
	}
	if retries != 2 {
		t.Errorf("expected OnRetry twice, got %d", retries)
	}
}

func TestWithBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	testErr := errors.New("always")

	_, err := WithBackoff(context.Background(), fastConfig(2), func() error {
		calls++
		return testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("expected wrapped test error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestWithBackoff_PermanentErrorStops(t *testing.T) {
	calls := 0
	testErr := errors.New("bad request")

	_, err := WithBackoff(context.Background(), fastConfig(5), func() error {
		calls++
		return Permanent(testErr)
	})

	if !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := WithBackoff(ctx, fastConfig(3), func() error {
		calls++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"permanent", Permanent(errors.New("x")), false},
		{"429", &HTTPError{StatusCode: http.StatusTooManyRequests}, true},
		{"408", &HTTPError{StatusCode: http.StatusRequestTimeout}, true},
		{"401", &HTTPError{StatusCode: http.StatusUnauthorized}, false},
		{"503", &HTTPError{StatusCode: http.StatusServiceUnavailable}, true},
		{"validation", errortypes.ValidationError(errors.New("x"), "bad bounds"), false},
		{"config", errortypes.ConfigError(errors.New("x"), "no key"), false},
		{"network", errortypes.NetworkError(errors.New("x"), "reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestProviderConfig(t *testing.T) {
	cfg := ProviderConfig(2, 50*time.Millisecond)
	if cfg.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 50*time.Millisecond {
		t.Errorf("expected 50ms initial delay, got %v", cfg.InitialDelay)
	}

	if got := ProviderConfig(-1, 0).MaxAttempts; got != 1 {
		t.Errorf("expected a single attempt for negative retries, got %d", got)
	}
}
