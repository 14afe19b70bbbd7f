package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/localrivet/aisummarizer/internal/chunker"
	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/telemetry"
)

const tracerName = "github.com/localrivet/aisummarizer/internal/summarizer"

// ErrEmptySummary is the failure recorded when an engine returns no text.
var ErrEmptySummary = errors.New("engine returned an empty summary")

// ChunkOutcome says how one chunk contributed to the final summary.
type ChunkOutcome string

const (
	OutcomeSummarized ChunkOutcome = "summarized"
	OutcomeFallback   ChunkOutcome = "fallback"
	OutcomeSkipped    ChunkOutcome = "skipped"
)

// ChunkReport describes the processing of one chunk.
type ChunkReport struct {
	Index     int           `json:"index" yaml:"index"`
	WordCount int           `json:"word_count" yaml:"word_count"`
	Bounds    LengthBounds  `json:"bounds" yaml:"bounds"`
	Outcome   ChunkOutcome  `json:"outcome" yaml:"outcome"`
	Err       error         `json:"-" yaml:"-"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Result is a summary with per-chunk detail.
type Result struct {
	RequestID string        `json:"request_id" yaml:"request_id"`
	Summary   string        `json:"summary" yaml:"summary"`
	Bounds    LengthBounds  `json:"bounds" yaml:"bounds"`
	Chunks    []ChunkReport `json:"chunks" yaml:"chunks"`
}

// Degraded reports whether any chunk fell back to its source text.
func (r *Result) Degraded() bool {
	return r.FallbackCount() > 0
}

// FallbackCount returns the number of chunks that fell back.
func (r *Result) FallbackCount() int {
	n := 0
	for _, c := range r.Chunks {
		if c.Outcome == OutcomeFallback {
			n++
		}
	}
	return n
}

// ChunkedSummarizer summarizes documents of any length by running an
// Engine over consecutive word windows and joining the results.
//
// A failing chunk never fails the request: the chunk's own text stands in
// for its summary. Chunks run one at a time in document order and nothing
// is retried here.
type ChunkedSummarizer struct {
	engine        Engine
	maxChunkWords int
	chunkTimeout  time.Duration
	logger        *slog.Logger
	metrics       *telemetry.MetricsCollector
	tracer        trace.Tracer
}

// Option configures a ChunkedSummarizer.
type Option func(*ChunkedSummarizer)

// WithMaxChunkWords sets the chunk size. Non-positive values keep the default.
func WithMaxChunkWords(n int) Option {
	return func(s *ChunkedSummarizer) {
		if n > 0 {
			s.maxChunkWords = n
		}
	}
}

// WithChunkTimeout bounds each engine call. Zero means no bound.
func WithChunkTimeout(d time.Duration) Option {
	return func(s *ChunkedSummarizer) {
		s.chunkTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ChunkedSummarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *telemetry.MetricsCollector) Option {
	return func(s *ChunkedSummarizer) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracerProvider sets the provider spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *ChunkedSummarizer) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewChunkedSummarizer creates an orchestrator over engine.
func NewChunkedSummarizer(engine Engine, opts ...Option) *ChunkedSummarizer {
	s := &ChunkedSummarizer{
		engine:        engine,
		maxChunkWords: chunker.DefaultMaxChunkWords,
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = telemetry.NewMetricsCollector()
	}
	return s
}

// Metrics returns the collector the orchestrator records into.
func (s *ChunkedSummarizer) Metrics() *telemetry.MetricsCollector {
	return s.metrics
}

// Summarize returns the summary of document with every chunk summary
// between minLength and maxLength words.
func (s *ChunkedSummarizer) Summarize(ctx context.Context, document string, minLength, maxLength int) (string, error) {
	res, err := s.SummarizeDetailed(ctx, document, LengthBounds{Min: minLength, Max: maxLength})
	if err != nil {
		return "", err
	}
	return res.Summary, nil
}

// SummarizeDetailed is Summarize with a report for every chunk.
func (s *ChunkedSummarizer) SummarizeDetailed(ctx context.Context, document string, bounds LengthBounds) (*Result, error) {
	requestID := uuid.NewString()
	start := time.Now()
	s.metrics.IncrementCounter(telemetry.MetricRequests, 1)
	s.metrics.RecordTimestamp(telemetry.MetricRequests)

	ctx, span := s.tracer.Start(ctx, "summarizer.Summarize", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.Int("bounds.min", bounds.Min),
		attribute.Int("bounds.max", bounds.Max),
	))
	defer span.End()

	if err := ValidateRequest(document, bounds); err != nil {
		s.metrics.IncrementCounter(telemetry.MetricValidationFailures, 1)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	logger := s.logger.With("request_id", requestID)
	res := &Result{RequestID: requestID, Bounds: bounds}
	var parts []string

	for c := range chunker.Split(document, s.maxChunkWords) {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "canceled")
			return nil, errortypes.InternalError(err, "summarization canceled").
				WithField("request_id", requestID).
				WithField("chunk_index", c.Index)
		}

		report := s.processChunk(ctx, logger, c, bounds)
		res.Chunks = append(res.Chunks, report.ChunkReport)
		if report.Outcome != OutcomeSkipped {
			parts = append(parts, report.text)
		}
	}

	res.Summary = strings.Join(parts, " ")
	elapsed := time.Since(start)
	s.metrics.RecordTimer(telemetry.MetricRequestTime, elapsed)

	span.SetAttributes(
		attribute.Int("chunks.total", len(res.Chunks)),
		attribute.Int("chunks.fallback", res.FallbackCount()),
	)
	logger.Info("summarization complete",
		"chunks", len(res.Chunks),
		"fallbacks", res.FallbackCount(),
		"summary_words", chunker.CountWords(res.Summary),
		"duration", elapsed)

	return res, nil
}

type chunkResult struct {
	ChunkReport
	text string
}

func (s *ChunkedSummarizer) processChunk(ctx context.Context, logger *slog.Logger, c chunker.Chunk, global LengthBounds) chunkResult {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "summarizer.chunk", trace.WithAttributes(
		attribute.Int("chunk.index", c.Index),
		attribute.Int("chunk.words", c.WordCount),
	))
	defer span.End()

	res := chunkResult{ChunkReport: ChunkReport{Index: c.Index, WordCount: c.WordCount}}

	bounds, ok := AdaptBounds(global, c.WordCount)
	res.Bounds = bounds
	if !ok {
		res.Outcome = OutcomeSkipped
		s.metrics.IncrementCounter(telemetry.MetricChunksSkipped, 1)
		span.SetAttributes(attribute.String("chunk.outcome", string(res.Outcome)))
		logger.Debug("chunk skipped", "chunk_index", c.Index, "bounds", bounds.String())
		return res
	}

	summary, err := s.callEngine(ctx, c.Text, bounds)
	res.Duration = time.Since(start)
	s.metrics.RecordTimer(telemetry.MetricChunkTime, res.Duration)

	if err != nil {
		res.Outcome = OutcomeFallback
		res.Err = errortypes.InferenceError(err, "chunk summarization failed").
			WithField("chunk_index", c.Index)
		res.Error = err.Error()
		res.text = c.Text
		s.metrics.IncrementCounter(telemetry.MetricChunksFallback, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback to source text")
		logger.Warn("chunk summarization failed, using source text",
			"chunk_index", c.Index,
			"words", c.WordCount,
			"error", err)
	} else {
		res.Outcome = OutcomeSummarized
		res.text = summary
		s.metrics.IncrementCounter(telemetry.MetricChunksSummarized, 1)
	}

	span.SetAttributes(attribute.String("chunk.outcome", string(res.Outcome)))
	return res
}

// callEngine runs one engine call and turns panics, empty output and
// per-chunk timeouts into errors.
func (s *ChunkedSummarizer) callEngine(ctx context.Context, text string, bounds LengthBounds) (summary string, err error) {
	if s.chunkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.chunkTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			summary, err = "", fmt.Errorf("engine panic: %v", r)
		}
	}()

	out, err := s.engine.Summarize(ctx, text, bounds.Min, bounds.Max)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptySummary
	}
	return out, nil
}
