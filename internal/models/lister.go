package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/llm"
)

// Model categories
const (
	CategoryChat      = "chat"
	CategorySpeech    = "speech"
	CategoryImage     = "image"
	CategoryEmbedding = "embedding"
	CategoryOther     = "other"
)

// Model is one model offered by a provider
type Model struct {
	ID       string
	Category string
}

// Lister handles listing available models for one provider
type Lister struct {
	provider string
	openai   *openai.Client
	gemini   *genai.Client
}

// NewLister creates a model lister for the provider in cfg. The hosted proxy
// does not expose its models, so it needs a gemini or openai key.
func NewLister(ctx context.Context, cfg *llm.Config) (*Lister, error) {
	switch strings.ToLower(cfg.Provider) {
	case llm.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OpenAI API key not found. Set OPENAI_API_KEY or llm.key in .marghivasal.yaml", apperr.ErrValidation)
		}
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		return &Lister{provider: llm.ProviderOpenAI, openai: openai.NewClientWithConfig(oc)}, nil

	case llm.ProviderGemini:
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
		return &Lister{provider: llm.ProviderGemini, gemini: client}, nil

	default:
		return nil, fmt.Errorf("%w: listing models needs llm.provider gemini or openai, got %q", apperr.ErrValidation, cfg.Provider)
	}
}

// Provider returns the provider being listed
func (l *Lister) Provider() string {
	return l.provider
}

// List returns the available models sorted by category and ID
func (l *Lister) List(ctx context.Context) ([]Model, error) {
	var ids []string

	if l.openai != nil {
		resp, err := l.openai.ListModels(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list models: %w", apperr.ErrNetwork, err)
		}
		for _, m := range resp.Models {
			ids = append(ids, m.ID)
		}
	} else {
		for m, err := range l.gemini.Models.All(ctx) {
			if err != nil {
				return nil, fmt.Errorf("%w: failed to list models: %w", apperr.ErrNetwork, err)
			}
			ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
		}
	}

	models := make([]Model, 0, len(ids))
	for _, id := range ids {
		models = append(models, Model{ID: id, Category: Categorize(id)})
	}
	slices.SortFunc(models, func(a, b Model) int {
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return models, nil
}

// Categorize guesses a model's category from its ID
func Categorize(id string) string {
	id = strings.ToLower(id)
	switch {
	case strings.Contains(id, "tts") || strings.Contains(id, "audio") || strings.Contains(id, "whisper"):
		return CategorySpeech
	case strings.Contains(id, "embed"):
		return CategoryEmbedding
	case strings.Contains(id, "dall-e") || strings.Contains(id, "imagen") || strings.Contains(id, "image"):
		return CategoryImage
	case strings.Contains(id, "gpt") || strings.Contains(id, "gemini") || strings.Contains(id, "chat") ||
		strings.HasPrefix(id, "o1") || strings.HasPrefix(id, "o3") || strings.HasPrefix(id, "o4"):
		return CategoryChat
	default:
		return CategoryOther
	}
}

var categoryTitles = []struct{ category, title string }{
	{CategoryChat, "Chat/Translation Models (for llm.model):"},
	{CategorySpeech, "Text-to-Speech Models (for audio.openai_model):"},
	{CategoryImage, "Image Models:"},
	{CategoryEmbedding, "Embedding Models:"},
	{CategoryOther, "Other Models:"},
}

// Print writes models grouped by category
func Print(w io.Writer, provider string, models []Model) {
	fmt.Fprintf(w, "Available %s models:\n", provider)
	for _, ct := range categoryTitles {
		var ids []string
		for _, m := range models {
			if m.Category == ct.category {
				ids = append(ids, m.ID)
			}
		}
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", ct.title)
		for _, id := range ids {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
	if len(models) == 0 {
		fmt.Fprintln(w, "  No models found")
	}
}
