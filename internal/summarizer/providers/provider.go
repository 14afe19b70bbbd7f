// Package providers contains the model backends that turn one chunk of
// text into a summary of a requested word range.
package providers

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// Provider constants
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderXAI       = "xai"
	ProviderLexRank   = "lexrank"

	// Default settings
	DefaultTimeout = 30 * time.Second

	// tokensPerWord over-provisions the completion budget so the model is
	// never cut off before it reaches the requested maximum.
	tokensPerWord = 2
	minMaxTokens  = 64
)

// LLMProvider defines the interface for different summarization backends
type LLMProvider interface {
	// Summarize condenses text to between minWords and maxWords words.
	Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error)

	// Name returns the provider name
	Name() string
}

// Config holds common configuration for LLM providers
type Config struct {
	APIKey  string
	ModelID string
	BaseURL string
	Timeout time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// SystemPrompt instructs a chat model to act as a summarizer.
const SystemPrompt = "You are a precise summarizer. Reply with the summary only, without preamble, headings or lists."

// BuildPrompt renders the user message for one chunk.
func BuildPrompt(text string, minWords, maxWords int) string {
	return fmt.Sprintf(
		"Summarize the following text in plain prose. "+
			"Use at least %d and at most %d words, keeping the most important points:\n\n%s",
		minWords, maxWords, text)
}

// MaxTokens returns the completion budget for a summary of maxWords words.
func MaxTokens(maxWords int) int {
	return max(maxWords*tokensPerWord, minMaxTokens)
}

// LimitWords trims summary to at most maxWords words, collapsing
// whitespace. A non-positive maxWords leaves the word count unchanged.
func LimitWords(summary string, maxWords int) string {
	words := strings.Fields(summary)
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

// ErrEmptyResponse is returned when a backend answers without text.
var ErrEmptyResponse = fmt.Errorf("empty response from provider")
