// Package messages renders user-facing text from the embedded message
// catalogs. Failures are always shown through these messages, never as raw
// error text.
package messages

import (
	"embed"
	"errors"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"codeberg.org/snonux/marghivasal/internal/apperr"
)

//go:embed active.*.toml
var localeFS embed.FS

var localeFiles = []string{"active.en.toml", "active.pcm.toml"}

// Message IDs
const (
	TranslationFailed  = "TranslationFailed"
	NotFound           = "NotFound"
	InvalidInput       = "InvalidInput"
	ServiceUnavailable = "ServiceUnavailable"
	SomethingWrong     = "SomethingWrong"
	SuggestionSent     = "SuggestionSent"
	HistoryCleared     = "HistoryCleared"
	HistoryEmpty       = "HistoryEmpty"
	LessonLearned      = "LessonLearned"
	LessonsFailed      = "LessonsFailed"
	Welcome            = "Welcome"
	NameUpdated        = "NameUpdated"
	FavoriteUpdated    = "FavoriteUpdated"
	ProfileReset       = "ProfileReset"
)

// Catalog renders messages for one locale
type Catalog struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	logger    *slog.Logger
}

// New loads the embedded catalogs and selects locale, falling back to English
func New(locale string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			logger.Warn("failed to load message file", "file", file, "error", err)
		}
	}

	languages := []string{language.English.String()}
	if tag, err := language.Parse(locale); err == nil {
		languages = append([]string{tag.String()}, languages...)
	}

	return &Catalog{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, languages...),
		logger:    logger,
	}
}

// Locales lists the locales with a message file
func (c *Catalog) Locales() []string {
	tags := c.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

// T renders message id with data. A "Count" entry selects the plural form.
// An unknown id renders as the id itself.
func (c *Catalog) T(id string, data map[string]any) string {
	cfg := &i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	}
	if n, ok := data["Count"]; ok {
		cfg.PluralCount = n
	}
	msg, err := c.localizer.Localize(cfg)
	if err != nil {
		c.logger.Debug("localize failed", "id", id, "error", err)
		return id
	}
	return msg
}

// Error turns err into a short message suggesting what to do next
func (c *Catalog) Error(err error) string {
	switch kind := apperr.Kind(err); {
	case kind == nil:
		return c.T(SomethingWrong, nil)
	case errors.Is(kind, apperr.ErrValidation):
		return c.T(InvalidInput, map[string]any{"Detail": detail(err, apperr.ErrValidation)})
	case errors.Is(kind, apperr.ErrNotFound):
		return c.T(NotFound, map[string]any{"Reason": detail(err, apperr.ErrNotFound)})
	case errors.Is(kind, apperr.ErrNetwork), errors.Is(kind, apperr.ErrBackend):
		return c.T(ServiceUnavailable, nil)
	default:
		return c.T(SomethingWrong, nil)
	}
}

// detail strips the kind prefix so only the human part of a validation or
// not-found error is shown
func detail(err, kind error) string {
	text := err.Error()
	if i := strings.Index(text, kind.Error()+": "); i >= 0 {
		text = text[i+len(kind.Error())+2:]
	}
	return text
}
