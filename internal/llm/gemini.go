package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"codeberg.org/snonux/marghivasal/internal/apperr"
)

// Gemini generates text with the Gemini API
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini generator. An API key is required.
func NewGemini(ctx context.Context, cfg *Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key not found. Set GEMINI_API_KEY or llm.key in .marghivasal.yaml", apperr.ErrValidation)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

// Name returns the provider and model
func (g *Gemini) Name() string {
	return ProviderGemini + "/" + g.model
}

// Generate runs a single content generation
func (g *Gemini) Generate(ctx context.Context, p Prompt) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.Temperature),
		MaxOutputTokens: int32(p.MaxTokens),
	}
	if p.TopK > 0 {
		config.TopK = genai.Ptr(float32(p.TopK))
	}
	if p.TopP > 0 {
		config.TopP = genai.Ptr(p.TopP)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.Text), config)
	if err != nil {
		return "", geminiError(err)
	}
	return clean(ProviderGemini, resp.Text())
}

// geminiError maps an HTTP error answer onto ErrBackend and anything that
// never reached the API onto ErrNetwork
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: gemini: %w", apperr.ErrBackend, err)
	}
	return fmt.Errorf("%w: gemini: %w", apperr.ErrNetwork, err)
}
