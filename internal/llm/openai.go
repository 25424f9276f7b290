package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/marghivasal/internal/apperr"
)

// OpenAI generates text with the chat completions API
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI generator. An API key is required.
func NewOpenAI(cfg *Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not found. Set OPENAI_API_KEY or llm.key in .marghivasal.yaml", apperr.ErrValidation)
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), model: model}, nil
}

// Name returns the provider and model
func (o *OpenAI) Name() string {
	return ProviderOpenAI + "/" + o.model
}

// Generate sends the prompt as a single user message
func (o *OpenAI) Generate(ctx context.Context, p Prompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: p.Text,
			},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		TopP:        p.TopP,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", apperr.ErrBackend)
	}
	return clean(ProviderOpenAI, resp.Choices[0].Message.Content)
}

// openAIError maps an HTTP error answer onto ErrBackend and anything that
// never reached the API onto ErrNetwork
func openAIError(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return fmt.Errorf("%w: openai: %w", apperr.ErrBackend, err)
	}
	return fmt.Errorf("%w: openai: %w", apperr.ErrNetwork, err)
}
