package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/resilience/circuitbreaker"
	"github.com/localrivet/aisummarizer/internal/resilience/retry"
	"github.com/localrivet/aisummarizer/internal/summarizer/providers"
	"github.com/localrivet/aisummarizer/internal/telemetry"
	"github.com/localrivet/aisummarizer/internal/util"
)

const (
	// Default settings
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 2 * time.Second
	DefaultCacheCapacity = 1000
	DefaultCacheTTL      = 24 * time.Hour
)

// Errors
var (
	ErrProviderNotSupported = errors.New("provider not supported")
	ErrSummarizationFailed  = errors.New("summarization failed")
	ErrNoProvider           = errors.New("no summarization provider configured")
)

// AISummarizer is an Engine backed by model providers. It tries the
// primary provider, then each fallback provider, each call going through
// a rate limiter, a circuit breaker and retries with backoff. Results are
// cached by chunk text and bounds.
type AISummarizer struct {
	config              AISummarizerConfig
	provider            providers.LLMProvider
	fallbackProviders   []providers.LLMProvider
	timeout             time.Duration
	retryConfig         retry.Config
	limiter             *rate.Limiter
	breakers            map[string]*circuitbreaker.CircuitBreaker
	cache               *summaryCache
	localFallback       bool
	providerInitialized bool
	providerFactory     *providers.ProviderFactory
	metrics             *telemetry.MetricsCollector
	logger              *slog.Logger
	mu                  sync.RWMutex
}

// AISummarizerConfig holds configuration for the AISummarizer
type AISummarizerConfig struct {
	// ProviderName is the primary provider.
	ProviderName string
	// FallbackOrder lists providers to try after the primary one.
	FallbackOrder []string
	// Providers holds credentials and models per provider name.
	Providers map[string]providers.Config

	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	CacheCapacity     int
	CacheTTL          time.Duration
	RequestsPerSecond float64
	// LocalFallback lets BasicSummarizer answer when every provider fails.
	LocalFallback bool
	Version       string

	Metrics *telemetry.MetricsCollector
	Logger  *slog.Logger
}

// summaryCache provides thread-safe caching for summaries
type summaryCache struct {
	items    map[string]cachedSummary
	capacity int
	ttl      time.Duration
	mu       sync.RWMutex
}

// cachedSummary represents a cached summary with expiration
type cachedSummary struct {
	summary  string
	expireAt time.Time
}

// NewAISummarizer creates a new AISummarizer with the specified provider and settings
func NewAISummarizer(config *AISummarizerConfig) *AISummarizer {
	if config == nil {
		config = &AISummarizerConfig{}
	}
	cfg := *config

	if cfg.ProviderName == "" {
		cfg.ProviderName = providers.ProviderAnthropic
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetricsCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &AISummarizer{
		config:        cfg,
		timeout:       cfg.Timeout,
		retryConfig:   retry.ProviderConfig(cfg.MaxRetries, cfg.RetryDelay),
		breakers:      make(map[string]*circuitbreaker.CircuitBreaker),
		localFallback: cfg.LocalFallback,
		cache: &summaryCache{
			items:    make(map[string]cachedSummary),
			capacity: cfg.CacheCapacity,
			ttl:      cfg.CacheTTL,
		},
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With("component", "ai_summarizer"),
	}
	s.retryConfig.OnRetry = func(int, error) {
		s.metrics.IncrementCounter(telemetry.MetricRetryAttempts, 1)
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return s
}

// SetProviders injects the provider chain directly, bypassing the factory.
func (s *AISummarizer) SetProviders(primary providers.LLMProvider, fallbacks ...providers.LLMProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.provider = primary
	s.fallbackProviders = fallbacks
	s.providerInitialized = primary != nil
}

// Initialize builds the provider chain from the configuration.
func (s *AISummarizer) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.providerInitialized {
		return nil
	}

	s.providerFactory = providers.NewProviderFactory(s.config.Providers)

	primary, err := s.providerFactory.GetProvider(s.config.ProviderName)
	if err != nil {
		return errortypes.ConfigError(err, "failed to create primary provider").
			WithField("provider", s.config.ProviderName)
	}
	if s.config.ProviderName != providers.ProviderLexRank && s.config.Providers[s.config.ProviderName].APIKey == "" {
		return errortypes.ConfigError(ErrNoProvider,
			fmt.Sprintf("missing API key for primary provider %s", s.config.ProviderName))
	}

	s.provider = primary
	s.fallbackProviders = s.providerFactory.GetProviderChain(s.config.FallbackOrder, s.config.ProviderName)
	s.providerInitialized = true

	s.logger.Info("summarizer providers ready",
		"primary", primary.Name(),
		"fallbacks", providerNames(s.fallbackProviders))
	return nil
}

func (s *AISummarizer) chain() (providers.LLMProvider, []providers.LLMProvider, error) {
	s.mu.RLock()
	initialized := s.providerInitialized
	s.mu.RUnlock()

	if !initialized {
		if err := s.Initialize(); err != nil {
			return nil, nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider, s.fallbackProviders, nil
}

// Summarize condenses one chunk of text to between minLength and
// maxLength words.
func (s *AISummarizer) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	startTime := time.Now()
	defer func() {
		s.metrics.RecordTimer(telemetry.MetricEngineTime, time.Since(startTime))
	}()

	primary, fallbacks, err := s.chain()
	if err != nil {
		return "", fmt.Errorf("failed to initialize summarizer: %w", err)
	}

	key := cacheKey(text, minLength, maxLength)
	if summary, found := s.checkCache(key); found {
		s.metrics.IncrementCounter(telemetry.MetricCacheHits, 1)
		return summary, nil
	}
	s.metrics.IncrementCounter(telemetry.MetricCacheMisses, 1)

	summary, err := s.summarizeWithRetries(ctx, primary, text, minLength, maxLength)
	if err == nil {
		s.cacheResult(key, summary)
		return summary, nil
	}
	lastErr := err

	for _, fallback := range fallbacks {
		if ctx.Err() != nil {
			break
		}
		s.metrics.IncrementCounter(telemetry.MetricFallbackAttempts, 1)
		s.logger.Warn("provider failed, trying fallback",
			"failed", primary.Name(), "fallback", fallback.Name(), "error", lastErr)

		summary, err = s.summarizeWithRetries(ctx, fallback, text, minLength, maxLength)
		if err == nil {
			s.metrics.IncrementCounter(telemetry.MetricFallbackSuccess, 1)
			s.cacheResult(key, summary)
			return summary, nil
		}
		lastErr = err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.localFallback {
		s.metrics.IncrementCounter(telemetry.MetricLocalFallback, 1)
		return NewBasicSummarizer().Summarize(ctx, text, minLength, maxLength)
	}

	return "", errortypes.InferenceError(fmt.Errorf("%w: %w", ErrSummarizationFailed, lastErr),
		"all summarization providers failed")
}

// summarizeWithRetries calls one provider through its rate limiter,
// circuit breaker and retry policy.
func (s *AISummarizer) summarizeWithRetries(ctx context.Context, p providers.LLMProvider, text string, minLength, maxLength int) (string, error) {
	name := p.Name()
	breaker := s.breakerFor(name)

	var summary string
	callStart := time.Now()
	attempt, err := retry.WithBackoff(ctx, s.retryConfig, func() error {
		if s.limiter != nil {
			if !s.limiter.Allow() {
				s.metrics.IncrementCounter(telemetry.MetricRateLimited, 1)
				if err := s.limiter.Wait(ctx); err != nil {
					return retry.Permanent(err)
				}
			}
		}

		s.metrics.IncrementCounter(telemetry.APICallsMetric(name), 1)
		out, err := breaker.Call(func() (string, error) {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return p.Summarize(callCtx, text, minLength, maxLength)
		})
		if err != nil {
			s.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
			if circuitbreaker.IsOpenError(err) {
				s.metrics.IncrementCounter(telemetry.MetricCircuitOpen, 1)
				return retry.Permanent(err)
			}
			return err
		}
		if strings.TrimSpace(out) == "" {
			s.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
			return providers.ErrEmptyResponse
		}

		s.metrics.IncrementCounter(telemetry.MetricAPICallsSuccess, 1)
		summary = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	if attempt > 1 {
		s.metrics.IncrementCounter(telemetry.MetricRetrySuccess, 1)
	}
	s.metrics.RecordTimer(telemetry.ResponseTimeMetric(name), time.Since(callStart))
	return summary, nil
}

func (s *AISummarizer) breakerFor(name string) *circuitbreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.breakers[name]
	if !ok {
		cb = circuitbreaker.New(circuitbreaker.ProviderConfig(name))
		s.breakers[name] = cb
	}
	return cb
}

func cacheKey(text string, minLength, maxLength int) string {
	return util.ContentKey(text, strconv.Itoa(minLength), strconv.Itoa(maxLength))
}

// checkCache looks for a cached summary
func (s *AISummarizer) checkCache(key string) (string, bool) {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()

	if item, exists := s.cache.items[key]; exists && time.Now().Before(item.expireAt) {
		return item.summary, true
	}
	return "", false
}

// cacheResult stores a summary in the cache
func (s *AISummarizer) cacheResult(key, summary string) {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()

	if _, exists := s.cache.items[key]; !exists && len(s.cache.items) >= s.cache.capacity {
		s.cache.evictLocked()
	}

	s.cache.items[key] = cachedSummary{
		summary:  summary,
		expireAt: time.Now().Add(s.cache.ttl),
	}

	s.metrics.SetGauge(telemetry.MetricCacheSize, float64(len(s.cache.items)))
}

// evictLocked drops expired entries, or the entry closest to expiry when
// none have expired.
func (c *summaryCache) evictLocked() {
	now := time.Now()
	var oldestKey string
	var oldest time.Time
	removed := false
	for k, item := range c.items {
		if now.After(item.expireAt) {
			delete(c.items, k)
			removed = true
			continue
		}
		if oldestKey == "" || item.expireAt.Before(oldest) {
			oldestKey, oldest = k, item.expireAt
		}
	}
	if !removed && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// GetMetrics returns the metrics collector for this summarizer
func (s *AISummarizer) GetMetrics() *telemetry.MetricsCollector {
	return s.metrics
}

// ProviderName returns the primary provider name, or "" before Initialize.
func (s *AISummarizer) ProviderName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// CircuitStates returns the breaker state of every provider called so far.
func (s *AISummarizer) CircuitStates() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make(map[string]string, len(s.breakers))
	for name, cb := range s.breakers {
		states[name] = cb.State().String()
	}
	return states
}

// CheckProviderHealth sends a short request to every provider in the chain.
func (s *AISummarizer) CheckProviderHealth(ctx context.Context) map[string]bool {
	results := make(map[string]bool)
	testText := "This is a brief health check for the summarization provider. It should reply with a short sentence."

	primary, fallbacks, err := s.chain()
	if err != nil {
		return results
	}

	for _, p := range append([]providers.LLMProvider{primary}, fallbacks...) {
		name := p.Name()
		if _, checked := results[name]; checked {
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := p.Summarize(checkCtx, testText, 1, 10)
		cancel()

		results[name] = err == nil
		s.metrics.SetGauge(telemetry.ProviderHealthMetric(name), boolToFloat64(results[name]))
	}

	return results
}

// Close releases provider clients.
func (s *AISummarizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := append([]providers.LLMProvider{s.provider}, s.fallbackProviders...)
	return providers.CloseProviders(all...)
}

func providerNames(list []providers.LLMProvider) []string {
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name()
	}
	return names
}

// boolToFloat64 converts a boolean to a float64 (1.0 for true, 0.0 for false)
func boolToFloat64(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
