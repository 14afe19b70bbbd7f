// Package aisummarizer wires the summarization engine, text analyses,
// speech and export into one Service usable from the CLI, the MCP server
// or another Go program.
package aisummarizer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/localrivet/aisummarizer/internal/analysis"
	"github.com/localrivet/aisummarizer/internal/config"
	"github.com/localrivet/aisummarizer/internal/document"
	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/export"
	"github.com/localrivet/aisummarizer/internal/server"
	"github.com/localrivet/aisummarizer/internal/speech"
	"github.com/localrivet/aisummarizer/internal/summarizer"
	"github.com/localrivet/aisummarizer/internal/telemetry"
)

// Version is the release of the service, set at build time.
var Version = "dev"

// Config represents the configuration for the summarizer service.
type Config = config.Config

// ErrSummarizeInProgress is returned when a summarization is already running
// on the same Service.
var ErrSummarizeInProgress = errors.New("summarization already in progress")

// Components are the parts a Service is assembled from.
type Components struct {
	Engine     summarizer.Engine
	AI         *summarizer.AISummarizer
	Summarizer *summarizer.ChunkedSummarizer
	Analyzer   *analysis.Analyzer
	Models     *analysis.HugotRuntime
	Speaker    speech.Speaker
	Metrics    *telemetry.MetricsCollector
}

// Service is the summarizer with its supporting capabilities.
type Service struct {
	config *config.Config
	Components
	loader *document.Loader
	logger *slog.Logger

	running sync.Mutex
}

// ServiceOptions defines the options for creating a new Service.
type ServiceOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil.
	Logger     *slog.Logger // If nil, slog.Default() is used.

	// Engine replaces the configured engine, mainly for tests and embedding.
	Engine summarizer.Engine
	// Speaker replaces the configured speech program.
	Speaker speech.Speaker
}

// NewService creates a Service. If opts.Config is set it is used directly,
// otherwise configuration is loaded from opts.ConfigPath, falling back to
// defaults when that is empty.
func NewService(opts ServiceOptions) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error
	switch {
	case opts.Config != nil:
		cfg = opts.Config
		logger.Debug("Using provided Config object for service initialization")
	case opts.ConfigPath != "":
		logger.Debug("Loading configuration for service initialization", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
	default:
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var components *Components
	if opts.Engine != nil {
		components = newComponents(cfg, opts.Engine, nil, logger)
	} else {
		components, err = CreateComponents(cfg, logger)
		if err != nil {
			return nil, err
		}
	}
	if opts.Speaker != nil {
		components.Speaker = opts.Speaker
	}

	return &Service{
		config:     cfg,
		Components: *components,
		loader:     document.NewLoader(nil, logger.With("component", "document")),
		logger:     logger,
	}, nil
}

// CreateComponents builds and initializes the engine, analyzer and speaker
// described by cfg without creating a Service.
func CreateComponents(cfg *Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := telemetry.NewMetricsCollector()

	var engine summarizer.Engine
	var ai *summarizer.AISummarizer
	switch cfg.Summarizer.Engine {
	case config.EngineBasic:
		logger.Info("Using basic extractive engine")
		basic := summarizer.NewBasicSummarizer()
		if err := basic.Initialize(); err != nil {
			return nil, errortypes.ConfigError(err, "failed to initialize summarizer")
		}
		engine = basic
	default:
		logger.Info("Initializing AI engine", "provider", cfg.Summarizer.Engine, "fallbacks", cfg.FallbackProviders())
		ai = summarizer.NewAISummarizer(&summarizer.AISummarizerConfig{
			ProviderName:      cfg.Summarizer.Engine,
			FallbackOrder:     cfg.FallbackProviders(),
			Providers:         cfg.ProviderConfigs(),
			Timeout:           cfg.Timeout(),
			MaxRetries:        cfg.Summarizer.MaxRetries,
			RetryDelay:        cfg.RetryDelay(),
			CacheCapacity:     cfg.Summarizer.CacheCapacity,
			CacheTTL:          cfg.CacheTTL(),
			RequestsPerSecond: cfg.Summarizer.RequestsPerSecond,
			LocalFallback:     cfg.Summarizer.LocalFallback,
			Version:           Version,
			Metrics:           metrics,
			Logger:            logger,
		})
		if err := ai.Initialize(); err != nil {
			return nil, err
		}
		engine = ai
	}

	c := newComponents(cfg, engine, metrics, logger)
	c.AI = ai
	return c, nil
}

// newComponents adds the orchestrator, analyses and speech around engine.
func newComponents(cfg *Config, engine summarizer.Engine, metrics *telemetry.MetricsCollector, logger *slog.Logger) *Components {
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}

	c := &Components{Engine: engine, Metrics: metrics}
	c.Summarizer = summarizer.NewChunkedSummarizer(engine,
		summarizer.WithMaxChunkWords(cfg.Summarizer.MaxChunkWords),
		summarizer.WithChunkTimeout(cfg.ChunkTimeout()),
		summarizer.WithMetrics(metrics),
		summarizer.WithLogger(logger.With("component", "summarizer")),
	)

	var sentiment analysis.SentimentClassifier
	var entities analysis.EntityExtractor
	if cfg.Analysis.SentimentModelPath != "" || cfg.Analysis.EntityModelPath != "" {
		models, err := analysis.NewHugotRuntime(analysis.HugotConfig{
			SentimentModelPath: cfg.Analysis.SentimentModelPath,
			EntityModelPath:    cfg.Analysis.EntityModelPath,
			OnnxFilename:       cfg.Analysis.OnnxFilename,
		}, logger.With("component", "analysis"))
		if err != nil {
			logger.Warn("Local models unavailable, sentiment and entities disabled", "error", err)
		} else {
			c.Models = models
			sentiment, entities = models, models
		}
	}
	c.Analyzer = analysis.NewAnalyzer(sentiment, entities, metrics, logger.With("component", "analysis"))
	c.Analyzer.Keywords = analysis.NewKeywordExtractor(cfg.Analysis.KeywordTop, cfg.Analysis.KeywordMaxNGram)

	speaker := speech.NewCommandSpeaker(cfg.Speech.Command, logger.With("component", "speech"), cfg.SpeechArgs()...)
	speaker.Voice = cfg.Speech.Voice
	speaker.Rate = cfg.Speech.Rate
	c.Speaker = speaker

	return c
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *Config {
	return s.config
}

// Logger returns the service logger.
func (s *Service) Logger() *slog.Logger {
	return s.logger
}

// Summarize returns the summary of text, every chunk summary bounded by
// minLength and maxLength words.
func (s *Service) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	res, err := s.SummarizeDetailed(ctx, text, minLength, maxLength)
	if err != nil {
		return "", err
	}
	return res.Summary, nil
}

// SummarizeDetailed is Summarize with per-chunk reports. Only one
// summarization runs at a time per Service.
func (s *Service) SummarizeDetailed(ctx context.Context, text string, minLength, maxLength int) (*summarizer.Result, error) {
	if !s.running.TryLock() {
		return nil, errortypes.ConflictError(ErrSummarizeInProgress, "A summary is already being generated.")
	}
	defer s.running.Unlock()

	return s.Summarizer.SummarizeDetailed(ctx, text, summarizer.LengthBounds{Min: minLength, Max: maxLength})
}

// SummarizeSource loads a file or URL and summarizes its text.
func (s *Service) SummarizeSource(ctx context.Context, source string, minLength, maxLength int) (*document.Document, *summarizer.Result, error) {
	doc, err := s.loader.Load(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.SummarizeDetailed(ctx, doc.Text, minLength, maxLength)
	if err != nil {
		return doc, nil, err
	}
	return doc, res, nil
}

// Load reads a file or URL into text.
func (s *Service) Load(ctx context.Context, source string) (*document.Document, error) {
	return s.loader.Load(ctx, source)
}

// Analyze runs the requested analyses on text, or all of them.
func (s *Service) Analyze(ctx context.Context, text string, kinds ...analysis.Kind) (*analysis.Report, error) {
	return s.Analyzer.Analyze(ctx, text, kinds...)
}

// Speak reads text aloud.
func (s *Service) Speak(ctx context.Context, text string) error {
	return s.Speaker.Speak(ctx, text)
}

// Export writes doc to path. An empty format is taken from the extension.
func (s *Service) Export(path string, format export.Format, doc *export.Document) error {
	if err := export.WriteFile(path, format, doc); err != nil {
		return err
	}
	s.logger.Info("Exported summary", "path", path, "format", format)
	return nil
}

// CopyToClipboard places summary on the system clipboard.
func (s *Service) CopyToClipboard(summary string) error {
	return export.CopyToClipboard(summary)
}

// Health reports the engine status. Local engines are always healthy.
func (s *Service) Health(ctx context.Context) (*summarizer.HealthReport, error) {
	return summarizer.NewHealthReport(ctx, s.config.Summarizer.Engine, s.Engine, s.Metrics, Version), nil
}

// MetricsHandler serves the collected metrics for Prometheus.
func (s *Service) MetricsHandler() http.Handler {
	return s.Metrics.Handler()
}

// NewToolServer returns an initialized MCP server backed by s.
func (s *Service) NewToolServer() (server.ToolServer, error) {
	srv := server.NewToolServer(s, server.Options{
		MinLength: s.config.Summarizer.MinLength,
		MaxLength: s.config.Summarizer.MaxLength,
		Logger:    s.logger,
	})
	if err := srv.Initialize(); err != nil {
		return nil, err
	}
	return srv, nil
}

// Close releases provider clients and local models.
func (s *Service) Close() error {
	var errs []error
	if c, ok := s.Engine.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if s.Models != nil {
		errs = append(errs, s.Models.Close())
	}
	return errors.Join(errs...)
}
