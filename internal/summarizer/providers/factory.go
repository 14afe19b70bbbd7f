package providers

import (
	"fmt"
	"io"
	"slices"
	"sort"
)

// ProviderFactory creates and returns appropriate LLM providers
type ProviderFactory struct {
	// ProviderConfigs stores configuration for each provider
	ProviderConfigs map[string]Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(configs map[string]Config) *ProviderFactory {
	if configs == nil {
		configs = make(map[string]Config)
	}
	return &ProviderFactory{
		ProviderConfigs: configs,
	}
}

// available reports whether a provider can be built. The extractive
// backend needs no configuration at all.
func (f *ProviderFactory) available(name string) bool {
	if name == ProviderLexRank {
		return true
	}
	config, exists := f.ProviderConfigs[name]
	return exists && config.APIKey != ""
}

// GetProvider returns an initialized provider instance for the specified provider name
func (f *ProviderFactory) GetProvider(providerName string) (LLMProvider, error) {
	if providerName == ProviderLexRank {
		return NewLexRankProvider(), nil
	}

	config, exists := f.ProviderConfigs[providerName]
	if !exists {
		return nil, fmt.Errorf("configuration for provider '%s' not found", providerName)
	}

	switch providerName {
	case ProviderAnthropic:
		return NewAnthropicProvider(config), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(config), nil
	case ProviderGoogle:
		return NewGoogleProvider(config), nil
	case ProviderXAI:
		return NewXAIProvider(config), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}

// GetAllProviders returns every provider that has an API key, in name order.
func (f *ProviderFactory) GetAllProviders() []LLMProvider {
	var providers []LLMProvider
	for _, name := range f.configuredNames() {
		if provider, err := f.GetProvider(name); err == nil {
			providers = append(providers, provider)
		}
	}
	return providers
}

// GetProviderChain returns an ordered list of providers to try in sequence.
// Providers named in preferenceOrder come first; configured providers not
// named follow in name order. Names listed in exclude are left out.
func (f *ProviderFactory) GetProviderChain(preferenceOrder []string, exclude ...string) []LLMProvider {
	var chain []LLMProvider
	seen := make(map[string]bool)
	for _, name := range exclude {
		seen[name] = true
	}

	add := func(name string) {
		if seen[name] || !f.available(name) {
			return
		}
		seen[name] = true
		if provider, err := f.GetProvider(name); err == nil {
			chain = append(chain, provider)
		}
	}

	for _, name := range preferenceOrder {
		add(name)
	}
	for _, name := range f.configuredNames() {
		add(name)
	}

	return chain
}

func (f *ProviderFactory) configuredNames() []string {
	var names []string
	for name, config := range f.ProviderConfigs {
		if config.APIKey != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// CloseProviders releases providers that hold client resources.
func CloseProviders(list ...LLMProvider) error {
	var firstErr error
	closed := make([]LLMProvider, 0, len(list))
	for _, p := range list {
		if p == nil || slices.Contains(closed, p) {
			continue
		}
		closed = append(closed, p)
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
