package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/snonux/marghivasal/internal/apperr"
)

// Provider names accepted in configuration
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderProxy  = "proxy"
)

// Default models per provider
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Prompt is a single generation request. Zero TopK/TopP leave the provider
// default in place.
type Prompt struct {
	Text        string
	Temperature float32
	TopK        int
	TopP        float32
	MaxTokens   int
}

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// Config selects and configures a Generator
type Config struct {
	Provider string
	Model    string
	APIKey   string
	ProxyURL string
	BaseURL  string // overrides the SDK endpoint, used in tests
	Timeout  time.Duration
}

// DefaultConfig returns a configuration using the hosted proxy, which works
// without a personal API key
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderProxy,
		ProxyURL: DefaultProxyURL,
		Timeout:  30 * time.Second,
	}
}

// New creates the Generator named by cfg.Provider
func New(ctx context.Context, cfg *Config) (Generator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAI(cfg)
	case ProviderProxy, "":
		return NewProxy(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (use %s, %s or %s)",
			cfg.Provider, ProviderGemini, ProviderOpenAI, ProviderProxy)
	}
}

// clean trims generated text and treats an empty answer as a backend failure
func clean(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s returned no text", apperr.ErrBackend, provider)
	}
	return text, nil
}
