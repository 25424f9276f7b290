package mt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/restclient"
)

// DefaultURL is the public TranslatePlus endpoint
const DefaultURL = "https://api.translateplus.io/v2/translate"

// Translator translates text between two catalog language codes
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Config holds the TranslatePlus settings
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration

	// Breaker trips after this many consecutive failures and stays open for
	// BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultConfig returns a configuration for the public endpoint
func DefaultConfig() *Config {
	return &Config{
		URL:             DefaultURL,
		Timeout:         restclient.DefaultTimeout,
		BreakerFailures: 3,
		BreakerCooldown: 30 * time.Second,
	}
}

// TranslatePlus is the resty based Translator
type TranslatePlus struct {
	url     string
	apiKey  string
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// New creates a TranslatePlus client
func New(cfg *Config) *TranslatePlus {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	return &TranslatePlus{
		url:    url,
		apiKey: cfg.APIKey,
		http:   restclient.New(cfg.Timeout),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "translateplus",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			// Bad input is the caller's problem, not the service's
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, apperr.ErrValidation)
			},
		}),
	}
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	Translations struct {
		Translation string `json:"translation"`
	} `json:"translations"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Translate sends text to the service. An empty or missing translation is a
// backend error.
func (t *TranslatePlus) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: nothing to translate", apperr.ErrValidation)
	}
	if t.apiKey == "" {
		return "", fmt.Errorf("%w: machine translation API key not configured", apperr.ErrBackend)
	}

	out, err := t.breaker.Execute(func() (interface{}, error) {
		return t.call(ctx, text, source, target)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: machine translation unavailable: %w", apperr.ErrBackend, err)
		}
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state, mostly for logging
func (t *TranslatePlus) State() string {
	return t.breaker.State().String()
}

func (t *TranslatePlus) call(ctx context.Context, text, source, target string) (string, error) {
	var resp translateResponse
	r, err := restclient.JSON(t.http).
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-KEY", t.apiKey).
		SetBody(translateRequest{Text: text, Source: source, Target: target}).
		SetResult(&resp).
		SetError(&resp).
		Post(t.url)
	if err := restclient.Check("machine translation", r, err); err != nil {
		if msg := firstNonEmpty(resp.Error, resp.Message); msg != "" {
			return "", fmt.Errorf("%w (%s)", err, msg)
		}
		return "", err
	}

	translated := strings.TrimSpace(resp.Translations.Translation)
	if translated == "" {
		return "", fmt.Errorf("%w: machine translation returned no text", apperr.ErrBackend)
	}
	return translated, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
