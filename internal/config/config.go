package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/localrivet/configurator"

	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/summarizer/providers"
)

// Config represents the summarizer configuration
type Config struct {
	// Summarizer controls chunking, length bounds and the inference engine.
	Summarizer struct {
		// Engine is "basic" or a provider name (anthropic, openai, google, xai, lexrank).
		Engine string `json:"engine" env:"ENGINE" validate:"required"`

		// FallbackOrder is a comma separated list of providers tried after Engine.
		FallbackOrder string `json:"fallback_order" env:"FALLBACK_ORDER"`

		MaxChunkWords int `json:"max_chunk_words" env:"MAX_CHUNK_WORDS" validate:"min:1"`
		MinLength     int `json:"min_length" env:"MIN_LENGTH" validate:"min:1"`
		MaxLength     int `json:"max_length" env:"MAX_LENGTH" validate:"min:1"`

		TimeoutSeconds      int     `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
		ChunkTimeoutSeconds int     `json:"chunk_timeout_seconds" env:"CHUNK_TIMEOUT_SECONDS"`
		MaxRetries          int     `json:"max_retries" env:"MAX_RETRIES"`
		RetryDelayMillis    int     `json:"retry_delay_millis" env:"RETRY_DELAY_MILLIS"`
		CacheCapacity       int     `json:"cache_capacity" env:"CACHE_CAPACITY"`
		CacheTTLMinutes     int     `json:"cache_ttl_minutes" env:"CACHE_TTL_MINUTES"`
		RequestsPerSecond   float64 `json:"requests_per_second" env:"REQUESTS_PER_SECOND"`

		// LocalFallback lets the basic summarizer answer when every provider fails.
		LocalFallback bool `json:"local_fallback" env:"LOCAL_FALLBACK"`
	} `json:"summarizer"`

	// Providers holds credentials per model provider.
	Providers struct {
		OpenAI struct {
			APIKey  string `json:"api_key" env:"OPENAI_API_KEY"`
			Model   string `json:"model" env:"OPENAI_MODEL"`
			BaseURL string `json:"base_url" env:"OPENAI_BASE_URL"`
		} `json:"openai"`
		Anthropic struct {
			APIKey  string `json:"api_key" env:"ANTHROPIC_API_KEY"`
			Model   string `json:"model" env:"ANTHROPIC_MODEL"`
			BaseURL string `json:"base_url" env:"ANTHROPIC_BASE_URL"`
		} `json:"anthropic"`
		Google struct {
			APIKey  string `json:"api_key" env:"GOOGLE_API_KEY"`
			Model   string `json:"model" env:"GOOGLE_MODEL"`
			BaseURL string `json:"base_url" env:"GOOGLE_BASE_URL"`
		} `json:"google"`
		XAI struct {
			APIKey  string `json:"api_key" env:"XAI_API_KEY"`
			Model   string `json:"model" env:"XAI_MODEL"`
			BaseURL string `json:"base_url" env:"XAI_BASE_URL"`
		} `json:"xai"`
	} `json:"providers"`

	// Analysis points at local models; empty paths disable sentiment and entities.
	Analysis struct {
		SentimentModelPath string `json:"sentiment_model_path" env:"SENTIMENT_MODEL_PATH"`
		EntityModelPath    string `json:"entity_model_path" env:"ENTITY_MODEL_PATH"`
		OnnxFilename       string `json:"onnx_filename" env:"ONNX_FILENAME"`
		KeywordTop         int    `json:"keyword_top" env:"KEYWORD_TOP"`
		KeywordMaxNGram    int    `json:"keyword_max_ngram" env:"KEYWORD_MAX_NGRAM"`
	} `json:"analysis"`

	// Speech configures the text-to-speech program.
	Speech struct {
		Command string `json:"command" env:"SPEECH_COMMAND"`
		Args    string `json:"args" env:"SPEECH_ARGS"`
		Voice   string `json:"voice" env:"SPEECH_VOICE"`
		Rate    int    `json:"rate" env:"SPEECH_RATE"`
	} `json:"speech"`

	// Archive is the default SQLite file for sqlite exports.
	Archive struct {
		Path string `json:"path" env:"ARCHIVE_PATH"`
	} `json:"archive"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Metrics exposes Prometheus metrics when Addr is set.
	Metrics struct {
		Addr string `json:"addr" env:"METRICS_ADDR"`
	} `json:"metrics"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".aisummarizerconfig"
	DefaultArchivePath    = ".aisummarizer.db"
	DefaultEngine         = providers.ProviderLexRank
	EngineBasic           = "basic"
	EnvPrefix             = "AISUMMARIZER"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultMinLength      = 30
	DefaultMaxLength      = 130
	DefaultMaxChunkWords  = 1000
	maxLengthCeiling      = 1000
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Summarizer.Engine = DefaultEngine
	config.Summarizer.MaxChunkWords = DefaultMaxChunkWords
	config.Summarizer.MinLength = DefaultMinLength
	config.Summarizer.MaxLength = DefaultMaxLength
	config.Summarizer.TimeoutSeconds = 30
	config.Summarizer.MaxRetries = 3
	config.Summarizer.RetryDelayMillis = 2000
	config.Summarizer.CacheCapacity = 1000
	config.Summarizer.CacheTTLMinutes = 24 * 60
	config.Analysis.KeywordTop = 10
	config.Analysis.KeywordMaxNGram = 3
	config.Archive.Path = DefaultArchivePath
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfigWithPath layers defaults, the JSON file at configPath when it
// exists, and AISUMMARIZER_* environment variables, then validates.
func LoadConfigWithPath(configPath string) (*Config, error) {
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := NewConfig()

	if configPath == "" {
		configPath = DefaultConfigFilename
	}
	if configPath == DefaultConfigFilename {
		if foundPath, err := configurator.FindConfigFile(configPath); err == nil {
			configPath = foundPath
		}
	}

	loader := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())
	if _, err := os.Stat(configPath); err == nil {
		loader = loader.WithProvider(configurator.NewFileProvider(configPath))
	} else {
		stdLogger.Debug("Config file not found, using defaults and environment", "path", configPath)
	}
	loader = loader.
		WithProvider(configurator.NewEnvProvider(EnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	if err := loader.Load(context.Background(), cfg); err != nil {
		return nil, errortypes.ConfigError(err, "failed to load configuration")
	}

	cfg.applyKeyFallbacks()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()
	return cfg, nil
}

// applyKeyFallbacks fills missing API keys from the provider SDKs' usual
// environment variables.
func (c *Config) applyKeyFallbacks() {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&c.Providers.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&c.Providers.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	fill(&c.Providers.Google.APIKey, "GOOGLE_API_KEY")
	fill(&c.Providers.XAI.APIKey, "XAI_API_KEY")
}

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	s := c.Summarizer
	switch s.Engine {
	case EngineBasic, providers.ProviderAnthropic, providers.ProviderOpenAI,
		providers.ProviderGoogle, providers.ProviderXAI, providers.ProviderLexRank:
	default:
		return errortypes.ConfigError(fmt.Errorf("unknown engine %q", s.Engine), "invalid summarizer.engine")
	}
	if s.MinLength <= 0 || s.MaxLength <= 0 || s.MinLength > s.MaxLength {
		return errortypes.ConfigError(
			fmt.Errorf("min_length %d, max_length %d", s.MinLength, s.MaxLength),
			"default lengths must be positive with min_length <= max_length")
	}
	if s.MaxLength > maxLengthCeiling {
		return errortypes.ConfigError(fmt.Errorf("max_length %d", s.MaxLength),
			fmt.Sprintf("max_length cannot exceed %d", maxLengthCeiling))
	}
	if s.MaxChunkWords <= 0 {
		return errortypes.ConfigError(fmt.Errorf("max_chunk_words %d", s.MaxChunkWords), "max_chunk_words must be positive")
	}
	return nil
}

// ProviderConfigs returns credentials keyed by provider name. Providers
// without an API key are left out.
func (c *Config) ProviderConfigs() map[string]providers.Config {
	timeout := c.Timeout()
	out := make(map[string]providers.Config)
	add := func(name, key, model, baseURL string) {
		if key == "" {
			return
		}
		out[name] = providers.Config{APIKey: key, ModelID: model, BaseURL: baseURL, Timeout: timeout}
	}
	p := c.Providers
	add(providers.ProviderOpenAI, p.OpenAI.APIKey, p.OpenAI.Model, p.OpenAI.BaseURL)
	add(providers.ProviderAnthropic, p.Anthropic.APIKey, p.Anthropic.Model, p.Anthropic.BaseURL)
	add(providers.ProviderGoogle, p.Google.APIKey, p.Google.Model, p.Google.BaseURL)
	add(providers.ProviderXAI, p.XAI.APIKey, p.XAI.Model, p.XAI.BaseURL)
	return out
}

// FallbackProviders splits Summarizer.FallbackOrder.
func (c *Config) FallbackProviders() []string {
	return splitList(c.Summarizer.FallbackOrder)
}

// SpeechArgs splits Speech.Args on whitespace.
func (c *Config) SpeechArgs() []string {
	return strings.Fields(c.Speech.Args)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Timeout is the per provider call timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Summarizer.TimeoutSeconds) * time.Second
}

// ChunkTimeout bounds one engine call per chunk; zero means none.
func (c *Config) ChunkTimeout() time.Duration {
	return time.Duration(c.Summarizer.ChunkTimeoutSeconds) * time.Second
}

// RetryDelay is the initial backoff between provider retries.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Summarizer.RetryDelayMillis) * time.Millisecond
}

// CacheTTL is how long summaries stay cached.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Summarizer.CacheTTLMinutes) * time.Minute
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	c.configPath = path
	c.lastModifiedAt = time.Now()
	return nil
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
