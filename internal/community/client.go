// Package community talks to the PHP backend that stores community phrase
// suggestions, serves the moderated (approved) ones and handles accounts.
package community

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/phrase"
	"codeberg.org/snonux/marghivasal/internal/restclient"
)

var _ phrase.Source = (*Client)(nil)

// DefaultBaseURL is the production suggestion backend
const DefaultBaseURL = "https://margivial.cravii.ng/api"

const (
	approvedPath = "/get-approved-suggestions.php"
	submitPath   = "/submit-suggestion.php"
	accountPath  = "/log.php"
)

// Client is a typed adapter over the suggestion/moderation/auth backend
type Client struct {
	baseURL string
	http    *resty.Client
}

// New creates a client for the backend at baseURL
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    restclient.New(restclient.DefaultTimeout),
	}
}

type wireSuggestion struct {
	LocalPhrase    string  `json:"local_phrase"`
	EnglishMeaning string  `json:"english_meaning"`
	Context        *string `json:"context"`
}

type approvedResponse struct {
	Success     *bool            `json:"success"`
	Suggestions []wireSuggestion `json:"suggestions"`
	Error       string           `json:"error"`
}

// FetchApproved returns the moderated phrase pairs for a language. The code
// may be a catalog code ("mrt") or a dictionary key ("marghi").
func (c *Client) FetchApproved(ctx context.Context, languageCode string) ([]phrase.Entry, error) {
	key := languageCode
	if l, err := language.Lookup(languageCode); err == nil {
		key = l.DictionaryKey()
	}

	var resp approvedResponse
	r, err := restclient.JSON(c.http).
		SetContext(ctx).
		SetQueryParam("language_key", key).
		SetResult(&resp).
		Get(c.baseURL + approvedPath)
	if err := restclient.Check("fetch approved phrases", r, err); err != nil {
		return nil, err
	}
	if resp.Success == nil {
		return nil, fmt.Errorf("%w: fetch approved phrases: unexpected response shape", apperr.ErrBackend)
	}
	if !*resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, fmt.Errorf("%w: fetch approved phrases: %s", apperr.ErrBackend, msg)
	}

	entries := make([]phrase.Entry, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		e := phrase.Entry{LocalPhrase: s.LocalPhrase, EnglishMeaning: s.EnglishMeaning}
		if s.Context != nil {
			e.Context = *s.Context
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Suggestion is a new phrase pair submitted for moderation
type Suggestion struct {
	LanguageCode   string
	LocalPhrase    string
	EnglishMeaning string
	Context        string
}

type submitRequest struct {
	LanguageKey    string  `json:"language_key"`
	LocalPhrase    string  `json:"local_phrase"`
	EnglishMeaning string  `json:"english_meaning"`
	Context        *string `json:"context"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Submit sends a suggestion for moderation and returns the backend's message
func (c *Client) Submit(ctx context.Context, s Suggestion) (string, error) {
	local := strings.TrimSpace(s.LocalPhrase)
	english := strings.TrimSpace(s.EnglishMeaning)
	if local == "" || english == "" {
		return "", fmt.Errorf("%w: both the local phrase and its English meaning are required", apperr.ErrValidation)
	}

	l, err := language.Lookup(s.LanguageCode)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	body := submitRequest{
		LanguageKey:    l.DictionaryKey(),
		LocalPhrase:    local,
		EnglishMeaning: english,
	}
	if ctxText := strings.TrimSpace(s.Context); ctxText != "" {
		body.Context = &ctxText
	}

	var resp messageResponse
	r, err := restclient.JSON(c.http).
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post(c.baseURL + submitPath)
	if resp.Error != "" {
		return "", fmt.Errorf("%w: submit suggestion: %s", apperr.ErrBackend, resp.Error)
	}
	if err := restclient.Check("submit suggestion", r, err); err != nil {
		return "", err
	}

	if resp.Message == "" {
		return "Suggestion sent, thank you!", nil
	}
	return resp.Message, nil
}
