// Package telemetry provides metrics collection and reporting
// for monitoring summarization performance.
package telemetry

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aisummarizer"

// Metric names shared by the orchestrator, the engines and the health report.
const (
	// Orchestrator
	MetricRequests           = "summarizer.requests"
	MetricValidationFailures = "summarizer.validation_failures"
	MetricChunksSummarized   = "summarizer.chunks.summarized"
	MetricChunksFallback     = "summarizer.chunks.fallback"
	MetricChunksSkipped      = "summarizer.chunks.skipped"
	MetricRequestTime        = "summarizer.request_time"
	MetricChunkTime          = "summarizer.chunk_time"

	// Provider calls
	MetricAPICallsSuccess = "summarizer.api_calls.success"
	MetricAPICallsFailure = "summarizer.api_calls.failure"
	MetricRateLimited     = "summarizer.api_calls.rate_limited"
	MetricCircuitOpen     = "summarizer.api_calls.circuit_open"

	// Retry metrics
	MetricRetryAttempts = "summarizer.retry_attempts"
	MetricRetrySuccess  = "summarizer.retry_success"

	// Fallback metrics
	MetricFallbackAttempts = "summarizer.fallback_attempts"
	MetricFallbackSuccess  = "summarizer.fallback_success"
	MetricLocalFallback    = "summarizer.fallback_local"

	// Cache metrics
	MetricCacheHits   = "summarizer.cache.hits"
	MetricCacheMisses = "summarizer.cache.misses"
	MetricCacheSize   = "summarizer.cache.size"

	// Engine total time
	MetricEngineTime = "summarizer.total_time"

	// Analyses
	MetricAnalysisRuns     = "analysis.runs"
	MetricAnalysisFailures = "analysis.failures"
)

// APICallsMetric names the call counter of a provider.
func APICallsMetric(provider string) string {
	return "summarizer.api_calls." + provider
}

// ResponseTimeMetric names the latency timer of a provider.
func ResponseTimeMetric(provider string) string {
	return "summarizer.response_time." + provider
}

// ProviderHealthMetric names the health gauge of a provider.
func ProviderHealthMetric(provider string) string {
	return "summarizer.health." + provider
}

// maxTimerSamples bounds the in-process sample window per timer.
const maxTimerSamples = 100

// MetricsCollector records counters, gauges and timers twice: into
// Prometheus collectors on a private registry for scraping, and into an
// in-process window used for health reports.
type MetricsCollector struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	values   *prometheus.GaugeVec
	timings  *prometheus.HistogramVec

	counters   map[string]int64
	gauges     map[string]float64
	timers     map[string][]time.Duration
	latestTime map[string]time.Time
	mu         sync.RWMutex
}

// NewMetricsCollector creates a new MetricsCollector instance
func NewMetricsCollector() *MetricsCollector {
	m := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Count of summarizer and analysis events by name.",
		}, []string{"event"}),
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gauge",
			Help:      "Point-in-time values such as cache size and provider health.",
		}, []string{"name"}),
		timings: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Latency of requests, chunks and provider calls.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"timer"}),
	}
	m.registry.MustRegister(m.events, m.values, m.timings)
	m.initMaps()
	return m
}

func (m *MetricsCollector) initMaps() {
	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timers = make(map[string][]time.Duration)
	m.latestTime = make(map[string]time.Time)
}

// Registry exposes the private Prometheus registry.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collector in the Prometheus exposition format.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// IncrementCounter increments a named counter by the specified amount
func (m *MetricsCollector) IncrementCounter(name string, amount int64) {
	m.events.WithLabelValues(name).Add(float64(amount))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += amount
}

// SetGauge sets a named gauge to the specified value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.values.WithLabelValues(name).Set(value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// RecordTimer records a duration for the specified timer
func (m *MetricsCollector) RecordTimer(name string, duration time.Duration) {
	m.timings.WithLabelValues(name).Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	samples := append(m.timers[name], duration)
	if len(samples) > maxTimerSamples {
		samples = samples[len(samples)-maxTimerSamples:]
	}
	m.timers[name] = samples
}

// RecordTimestamp records the current time for the specified event
func (m *MetricsCollector) RecordTimestamp(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latestTime[name] = time.Now()
}

// GetCounter retrieves the current value of a counter
func (m *MetricsCollector) GetCounter(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.counters[name]
}

// GetGauge retrieves the current value of a gauge
func (m *MetricsCollector) GetGauge(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.gauges[name]
}

// GetTimerAverage calculates the average duration for a timer
func (m *MetricsCollector) GetTimerAverage(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return average(m.timers[name])
}

// GetTimerP95 calculates the 95th percentile duration for a timer
func (m *MetricsCollector) GetTimerP95(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return p95(m.timers[name])
}

// GetTimeSince calculates the time elapsed since a recorded timestamp
func (m *MetricsCollector) GetTimeSince(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	timestamp, exists := m.latestTime[name]
	if !exists {
		return 0
	}

	return time.Since(timestamp)
}

// Snapshot is a copy of the in-process counters and gauges.
type Snapshot struct {
	Counters map[string]int64   `json:"counters"`
	Gauges   map[string]float64 `json:"gauges"`
}

// Snapshot copies the current counters and gauges.
func (m *MetricsCollector) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	return s
}

// GetReport generates a report of all collected metrics
func (m *MetricsCollector) GetReport() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Metrics Report:\n")
	b.WriteString("==============\n\n")

	b.WriteString("Counters:\n")
	for _, name := range sortedKeys(m.counters) {
		fmt.Fprintf(&b, "  %s: %d\n", name, m.counters[name])
	}

	b.WriteString("\nGauges:\n")
	for _, name := range sortedKeys(m.gauges) {
		fmt.Fprintf(&b, "  %s: %.2f\n", name, m.gauges[name])
	}

	b.WriteString("\nTimers (avg):\n")
	for _, name := range sortedKeys(m.timers) {
		samples := m.timers[name]
		fmt.Fprintf(&b, "  %s: avg=%v p95=%v count=%d\n",
			name, average(samples), p95(samples), len(samples))
	}

	b.WriteString("\nTime Since:\n")
	for _, name := range sortedKeys(m.latestTime) {
		ts := m.latestTime[name]
		fmt.Fprintf(&b, "  %s: %v ago (%s)\n", name, time.Since(ts), ts.Format(time.RFC3339))
	}

	return b.String()
}

// Reset clears the in-process window and the Prometheus series.
func (m *MetricsCollector) Reset() {
	m.events.Reset()
	m.values.Reset()
	m.timings.Reset()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.initMaps()
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func p95(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
