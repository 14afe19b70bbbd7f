package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/localrivet/aisummarizer/internal/resilience/retry"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIProvider implements the LLMProvider interface for OpenAI's models
type OpenAIProvider struct {
	Config
	name   string
	model  string
	client *openai.Client
}

// NewOpenAIProvider creates a new instance of the OpenAI provider
func NewOpenAIProvider(config Config) *OpenAIProvider {
	return newChatProvider(ProviderOpenAI, defaultOpenAIModel, config)
}

// newChatProvider builds a provider for any OpenAI-compatible chat endpoint.
func newChatProvider(name, defaultModel string, config Config) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.timeout()}

	model := config.ModelID
	if model == "" {
		model = defaultModel
	}

	return &OpenAIProvider{
		Config: config,
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Summarize implements the LLMProvider interface for OpenAI
func (p *OpenAIProvider) Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	if p.APIKey == "" {
		return "", retry.Permanent(fmt.Errorf("%s API key not provided", p.name))
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(text, minWords, maxWords)},
		},
		MaxTokens: MaxTokens(maxWords),
	})
	if err != nil {
		return "", classifyOpenAIError(p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	summary := LimitWords(resp.Choices[0].Message.Content, maxWords)
	if strings.TrimSpace(summary) == "" {
		return "", ErrEmptyResponse
	}

	return summary, nil
}

func classifyOpenAIError(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error: %w", name,
			&retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s request error: %w", name,
			&retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()})
	}
	return fmt.Errorf("error sending request to %s: %w", name, err)
}
