// Package learn turns approved community phrases into lessons and keeps the
// per-language count of lessons marked as learned.
package learn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/phrase"
	"codeberg.org/snonux/marghivasal/internal/store"
)

const (
	// ProgressKey is the key progress counters are persisted under
	ProgressKey = "learnProgress"

	defaultExplanation = "Community-contributed phrase"
	lessonCategory     = "Community Lesson"
)

// Lesson is one phrase to study
type Lesson struct {
	ID          int    `json:"id"`
	English     string `json:"english"`
	Local       string `json:"local"`
	Explanation string `json:"explanation"`
	Category    string `json:"category"`
}

// Service serves lessons and tracks progress
type Service struct {
	source phrase.Source
	kv     store.KV
	logger *slog.Logger

	mu       sync.Mutex
	progress map[string]int
}

// New creates a lesson service
func New(source phrase.Source, kv store.KV, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, kv: kv, logger: logger}
}

// Lessons returns the approved phrases of a language as numbered lessons.
// A language without approved phrases yields ErrNotFound.
func (s *Service) Lessons(ctx context.Context, languageCode string) ([]Lesson, error) {
	lang, err := language.Lookup(languageCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	entries, err := s.source.FetchApproved(ctx, lang.DictionaryKey())
	if err != nil {
		return nil, fmt.Errorf("could not load lessons: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no approved lessons available for %s yet", apperr.ErrNotFound, lang.Name)
	}

	lessons := make([]Lesson, 0, len(entries))
	for i, e := range entries {
		explanation := e.Context
		if explanation == "" {
			explanation = defaultExplanation
		}
		lessons = append(lessons, Lesson{
			ID:          i + 1,
			English:     e.EnglishMeaning,
			Local:       e.LocalPhrase,
			Explanation: explanation,
			Category:    lessonCategory,
		})
	}
	return lessons, nil
}

// MarkLearned increments the counter of a language and returns the new value.
// Saving is best effort; a failure is logged and the count is kept in memory.
func (s *Service) MarkLearned(ctx context.Context, languageCode string) (int, error) {
	lang, err := language.Lookup(languageCode)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	key := lang.DictionaryKey()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(ctx)
	s.progress[key]++
	if err := store.SetJSON(ctx, s.kv, ProgressKey, s.progress); err != nil {
		s.logger.Warn("failed to save learning progress", "error", err)
	}
	return s.progress[key], nil
}

// Progress returns a copy of all counters keyed by dictionary key
func (s *Service) Progress(ctx context.Context) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(ctx)
	return maps.Clone(s.progress)
}

func (s *Service) loadLocked(ctx context.Context) {
	if s.progress != nil {
		return
	}

	progress := make(map[string]int)
	err := store.GetJSON(ctx, s.kv, ProgressKey, &progress)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("failed to load learning progress", "error", err)
		progress = make(map[string]int)
	}
	// a stored JSON null decodes to a nil map
	if progress == nil {
		progress = make(map[string]int)
	}
	s.progress = progress
}
