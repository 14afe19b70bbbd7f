package providers

const (
	xaiAPIURL       = "https://api.x.ai/v1"
	defaultXAIModel = "grok-3-mini"
)

// XAIProvider is an OpenAI-compatible chat provider pointed at X.AI's Grok.
type XAIProvider = OpenAIProvider

// NewXAIProvider creates a new instance of the X.AI provider
func NewXAIProvider(config Config) *XAIProvider {
	if config.BaseURL == "" {
		config.BaseURL = xaiAPIURL
	}
	return newChatProvider(ProviderXAI, defaultXAIModel, config)
}
