package audio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// mockProvider implements Provider interface for testing
type mockProvider struct {
	name          string
	generateErr   error
	availableErr  error
	generateCalls int
}

func (m *mockProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	m.generateCalls++
	return m.generateErr
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) IsAvailable() error {
	return m.availableErr
}

func TestDefaultProviderConfig(t *testing.T) {
	config := DefaultProviderConfig()

	if config.Provider != "auto" {
		t.Errorf("Expected provider 'auto', got '%s'", config.Provider)
	}
	if config.OutputFormat != "mp3" {
		t.Errorf("Expected output format 'mp3', got '%s'", config.OutputFormat)
	}
	if config.OpenAIModel != "gpt-4o-mini-tts" {
		t.Errorf("Expected OpenAI model 'gpt-4o-mini-tts', got '%s'", config.OpenAIModel)
	}
	if config.OpenAIVoice != "alloy" {
		t.Errorf("Expected OpenAI voice 'alloy', got '%s'", config.OpenAIVoice)
	}
	if config.OpenAISpeed != 1.0 {
		t.Errorf("Expected OpenAI speed 1.0, got %f", config.OpenAISpeed)
	}
	if !strings.Contains(config.OpenAIInstruction, "%s") {
		t.Error("default instruction should carry a language placeholder")
	}
}

func TestNewProvider(t *testing.T) {
	espeakMissing := checkESpeakInstalled() != nil

	tests := []struct {
		name     string
		config   *Config
		wantErr  bool
		wantName string
	}{
		{
			name:    "openai without key",
			config:  &Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:     "openai with key",
			config:   &Config{Provider: "openai", OpenAIKey: "test-key"},
			wantName: "openai",
		},
		{
			name:    "unknown provider",
			config:  &Config{Provider: "festival"},
			wantErr: true,
		},
		{
			name:     "espeak",
			config:   &Config{Provider: "espeak"},
			wantErr:  espeakMissing,
			wantName: "espeak-ng",
		},
		{
			name:     "auto without key",
			config:   &Config{Provider: "auto"},
			wantErr:  espeakMissing,
			wantName: "espeak-ng",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config, marghi, slog.New(slog.DiscardHandler))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && provider.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", provider.Name(), tt.wantName)
			}
		})
	}
}

func TestNewProvider_AutoWithKey(t *testing.T) {
	provider, err := NewProvider(&Config{Provider: "auto", OpenAIKey: "test-key"}, marghi, nil)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	want := "openai"
	if checkESpeakInstalled() == nil {
		want = "openai (fallback: espeak-ng)"
	}
	if provider.Name() != want {
		t.Errorf("Name() = %q, want %q", provider.Name(), want)
	}
}

func TestEspeakConfigFor(t *testing.T) {
	if got := espeakConfigFor(&Config{}, marghi).Voice; got != "en" {
		t.Errorf("voice for Marghi = %q, want en", got)
	}
	if got := espeakConfigFor(&Config{ESpeakVoice: "ha"}, marghi).Voice; got != "ha" {
		t.Errorf("override voice = %q, want ha", got)
	}
}

func TestProviderWithFallback(t *testing.T) {
	tests := []struct {
		name            string
		primaryErr      error
		fallbackErr     error
		wantErr         bool
		wantFallbackRun bool
	}{
		{"primary succeeds", nil, nil, false, false},
		{"primary fails, fallback succeeds", errors.New("primary failed"), nil, false, true},
		{"both fail", errors.New("primary failed"), errors.New("fallback failed"), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &mockProvider{name: "primary", generateErr: tt.primaryErr}
			fallback := &mockProvider{name: "fallback", generateErr: tt.fallbackErr}

			provider := NewProviderWithFallback(primary, fallback, nil)
			err := provider.GenerateAudio(context.Background(), "Dargu", "out.mp3")

			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateAudio() error = %v, wantErr %v", err, tt.wantErr)
			}
			if primary.generateCalls != 1 {
				t.Errorf("primary calls = %d, want 1", primary.generateCalls)
			}
			if (fallback.generateCalls == 1) != tt.wantFallbackRun {
				t.Errorf("fallback calls = %d, want run %v", fallback.generateCalls, tt.wantFallbackRun)
			}
		})
	}
}

func TestProviderWithFallback_Name(t *testing.T) {
	provider := NewProviderWithFallback(&mockProvider{name: "openai"}, &mockProvider{name: "espeak-ng"}, nil)

	if provider.Name() != "openai (fallback: espeak-ng)" {
		t.Errorf("Name() = %q", provider.Name())
	}
}

func TestProviderWithFallback_IsAvailable(t *testing.T) {
	tests := []struct {
		name        string
		primaryErr  error
		fallbackErr error
		wantErr     bool
	}{
		{"primary available", nil, errors.New("x"), false},
		{"fallback available", errors.New("x"), nil, false},
		{"neither available", errors.New("x"), errors.New("y"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewProviderWithFallback(
				&mockProvider{name: "p", availableErr: tt.primaryErr},
				&mockProvider{name: "f", availableErr: tt.fallbackErr},
				nil,
			)
			if err := provider.IsAvailable(); (err != nil) != tt.wantErr {
				t.Errorf("IsAvailable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
