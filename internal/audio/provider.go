package audio

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/snonux/marghivasal/internal/language"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio generates audio from text and saves it to the specified file
	GenerateAudio(ctx context.Context, text string, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for audio providers
type Config struct {
	Provider     string // "openai", "espeak" or "auto" (openai with espeak fallback)
	OutputFormat string // "mp3" or "wav"

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "coral", "echo", "nova", "sage", ...
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts, %s is the language name

	// Cache of generated OpenAI audio, keyed by text and voice settings
	CacheDir    string
	EnableCache bool

	// ESpeakVoice overrides the voice picked from the language
	ESpeakVoice string
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:          "auto",
		OutputFormat:      "mp3",
		OpenAIModel:       "gpt-4o-mini-tts",
		OpenAIVoice:       "alloy",
		OpenAISpeed:       1.0,
		OpenAIInstruction: "You are speaking %s. Pronounce the text as a native speaker would. Speak slowly and clearly for language learners.",
	}
}

// NewProvider creates the audio provider named in config for speech in lang
func NewProvider(config *Config, lang language.Language, logger *slog.Logger) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config, lang, logger)

	case "espeak":
		return NewESpeakProvider(espeakConfigFor(config, lang))

	case "auto", "":
		fallback, espeakErr := NewESpeakProvider(espeakConfigFor(config, lang))
		if config.OpenAIKey == "" {
			if espeakErr != nil {
				return nil, fmt.Errorf("no speech provider available: no OpenAI API key and %w", espeakErr)
			}
			return fallback, nil
		}
		primary, err := NewOpenAIProvider(config, lang, logger)
		if err != nil {
			return nil, err
		}
		if espeakErr != nil {
			return primary, nil
		}
		return NewProviderWithFallback(primary, fallback, logger), nil

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}

func espeakConfigFor(config *Config, lang language.Language) *ESpeakConfig {
	c := DefaultConfig()
	c.Voice = VoiceFor(lang)
	if config.ESpeakVoice != "" {
		c.Voice = config.ESpeakVoice
	}
	return c
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	logger   *slog.Logger
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// GenerateAudio tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	err := p.primary.GenerateAudio(ctx, text, outputFile)
	if err != nil {
		p.logger.Warn("speech provider failed, falling back",
			"primary", p.primary.Name(), "fallback", p.fallback.Name(), "error", err)
		return p.fallback.GenerateAudio(ctx, text, outputFile)
	}
	return nil
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
