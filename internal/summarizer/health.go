package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/localrivet/aisummarizer/internal/telemetry"
)

// HealthStatus is the overall state of the engine.
type HealthStatus string

const (
	StatusHealthy HealthStatus = "healthy"
	// StatusDegraded means the primary or some fallbacks are down but a
	// provider still answers.
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// ProviderChecker is an engine backed by remote providers that can be checked.
type ProviderChecker interface {
	ProviderName() string
	CheckProviderHealth(ctx context.Context) map[string]bool
	CircuitStates() map[string]string
}

// HealthReport is a snapshot of provider reachability and the counters
// collected while summarizing.
type HealthReport struct {
	Status        HealthStatus       `json:"status"`
	Timestamp     time.Time          `json:"timestamp"`
	Components    map[string]string  `json:"components"`
	Providers     map[string]bool    `json:"providers"`
	Circuits      map[string]string  `json:"circuits,omitempty"`
	ResponseTimes map[string]float64 `json:"response_times_ms"`
	CacheStats    map[string]int64   `json:"cache_stats,omitempty"`
	ChunkStats    map[string]int64   `json:"chunk_stats"`
	SuccessRate   float64            `json:"success_rate"`
	TotalRequests int64              `json:"total_requests"`
	Version       string             `json:"version"`
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// statusOf is healthy when every provider answers, unhealthy when none do.
func statusOf(providers map[string]bool) HealthStatus {
	up := 0
	for _, ok := range providers {
		if ok {
			up++
		}
	}
	switch {
	case up == 0:
		return StatusUnhealthy
	case up < len(providers):
		return StatusDegraded
	}
	return StatusHealthy
}

// NewHealthReport describes engine from the counters in metrics. Engines
// that are not a ProviderChecker run locally and are reported healthy
// under name.
func NewHealthReport(ctx context.Context, name string, engine Engine, metrics *telemetry.MetricsCollector, version string) *HealthReport {
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	r := &HealthReport{
		Timestamp: time.Now(),
		Version:   version,
		ResponseTimes: map[string]float64{
			"total": millis(metrics.GetTimerAverage(telemetry.MetricEngineTime)),
			"chunk": millis(metrics.GetTimerAverage(telemetry.MetricChunkTime)),
		},
		ChunkStats: map[string]int64{
			"summarized": metrics.GetCounter(telemetry.MetricChunksSummarized),
			"fallback":   metrics.GetCounter(telemetry.MetricChunksFallback),
			"skipped":    metrics.GetCounter(telemetry.MetricChunksSkipped),
		},
	}

	checker, ok := engine.(ProviderChecker)
	if !ok {
		r.Providers = map[string]bool{name: true}
		r.Components = map[string]string{"engine": name}
		r.Status = StatusHealthy
		return r
	}

	r.Providers = checker.CheckProviderHealth(ctx)
	r.Circuits = checker.CircuitStates()
	r.Status = statusOf(r.Providers)
	for p := range r.Providers {
		r.ResponseTimes[p] = millis(metrics.GetTimerAverage(telemetry.ResponseTimeMetric(p)))
	}

	ok64, failed := metrics.GetCounter(telemetry.MetricAPICallsSuccess), metrics.GetCounter(telemetry.MetricAPICallsFailure)
	r.TotalRequests = ok64 + failed
	if r.TotalRequests > 0 {
		r.SuccessRate = float64(ok64) / float64(r.TotalRequests) * 100
	}
	r.CacheStats = map[string]int64{
		"hits":   metrics.GetCounter(telemetry.MetricCacheHits),
		"misses": metrics.GetCounter(telemetry.MetricCacheMisses),
		"size":   int64(metrics.GetGauge(telemetry.MetricCacheSize)),
	}

	primary := checker.ProviderName()
	r.Components = map[string]string{
		"engine":  name,
		"primary": string(StatusUnhealthy),
	}
	if len(r.Providers) > 1 {
		r.Components["fallbacks"] = string(StatusUnhealthy)
	}
	for p, healthy := range r.Providers {
		switch {
		case !healthy:
		case p == primary:
			r.Components["primary"] = string(StatusHealthy)
		default:
			r.Components["fallbacks"] = string(StatusHealthy)
		}
	}
	return r
}

// CreateHealthReport checks every provider of s.
func CreateHealthReport(ctx context.Context, s *AISummarizer) (*HealthReport, error) {
	if s == nil {
		return nil, fmt.Errorf("summarizer is nil")
	}
	return NewHealthReport(ctx, s.ProviderName(), s, s.GetMetrics(), s.config.Version), nil
}
