package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/localrivet/aisummarizer/internal/resilience/retry"
)

const defaultGoogleModel = "gemini-2.0-flash"

// GoogleProvider implements the LLMProvider interface for Google's Gemini models
type GoogleProvider struct {
	Config
	model string

	mu     sync.Mutex
	client *genai.Client
}

// NewGoogleProvider creates a new instance of the Google provider. The
// client is dialed on first use.
func NewGoogleProvider(config Config) *GoogleProvider {
	model := config.ModelID
	if model == "" {
		model = defaultGoogleModel
	}
	return &GoogleProvider{Config: config, model: model}
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return ProviderGoogle
}

func (p *GoogleProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(p.APIKey)}
	if p.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(p.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

// Summarize implements the LLMProvider interface for Google
func (p *GoogleProvider) Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	if p.APIKey == "" {
		return "", retry.Permanent(errors.New("google API key not provided"))
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}

	m := client.GenerativeModel(p.model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}
	m.SetMaxOutputTokens(int32(MaxTokens(maxWords)))

	resp, err := m.GenerateContent(ctx, genai.Text(BuildPrompt(text, minWords, maxWords)))
	if err != nil {
		return "", fmt.Errorf("error sending request to google: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
			b.WriteString(" ")
		}
	}

	summary := LimitWords(b.String(), maxWords)
	if summary == "" {
		return "", ErrEmptyResponse
	}
	return summary, nil
}

// Close releases the underlying client, if one was created.
func (p *GoogleProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}
