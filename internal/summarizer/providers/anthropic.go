package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/localrivet/aisummarizer/internal/resilience/retry"
)

const defaultAnthropicModel = anthropic.ModelClaudeHaiku4_5

// AnthropicProvider implements the LLMProvider interface for Anthropic's Claude
type AnthropicProvider struct {
	Config
	model  anthropic.Model
	client anthropic.Client
}

// NewAnthropicProvider creates a new instance of the Anthropic provider
func NewAnthropicProvider(config Config) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: config.timeout()}),
		// retries are handled by the summarizer
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	model := defaultAnthropicModel
	if config.ModelID != "" {
		model = anthropic.Model(config.ModelID)
	}

	return &AnthropicProvider{
		Config: config,
		model:  model,
		client: anthropic.NewClient(opts...),
	}
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Summarize implements the LLMProvider interface for Anthropic
func (p *AnthropicProvider) Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	if p.APIKey == "" {
		return "", retry.Permanent(errors.New("anthropic API key not provided"))
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: int64(MaxTokens(maxWords)),
		System:    []anthropic.TextBlockParam{{Text: SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(text, minWords, maxWords))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("anthropic API error: %w",
				&retry.HTTPError{StatusCode: apiErr.StatusCode, Message: http.StatusText(apiErr.StatusCode)})
		}
		return "", fmt.Errorf("error sending request to anthropic: %w", err)
	}

	var parts []string
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}

	summary := LimitWords(strings.Join(parts, " "), maxWords)
	if summary == "" {
		return "", ErrEmptyResponse
	}
	return summary, nil
}
