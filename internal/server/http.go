package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/summarizer"
)

// HealthChecker reports engine health.
type HealthChecker interface {
	Health(ctx context.Context) (*summarizer.HealthReport, error)
}

// NewHTTPHandler serves /healthz from checker and /metrics from metrics.
func NewHTTPHandler(checker HealthChecker, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		report, err := checker.Health(r.Context())
		if err != nil {
			HandleError(w, err)
			return
		}
		if report.Status == summarizer.StatusUnhealthy {
			HandleUnavailable(w, "No summarization provider is available", errors.New("engine unhealthy"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			slog.Error("Failed to encode health report", "error", err)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		HandleNotFound(w, "Unknown path", errors.New(r.URL.Path))
	})
	return mux
}

// ServeHTTP listens on addr until ctx is done.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving metrics and health", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errortypes.NetworkError(err, "metrics server failed").WithField("addr", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
