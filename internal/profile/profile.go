// Package profile keeps the local user profile: display name, favourite
// language, join date, install ID and the account of the logged-in user.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/community"
	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/store"
)

// Keys the profile is persisted under
const (
	NameKey      = "userName"
	FavoriteKey  = "favoriteLanguage"
	JoinedKey    = "joinedDate"
	InstallIDKey = "installID"
	UserKey      = "user"
)

// History is the part of the translation history the profile reports on
type History interface {
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Profile is a snapshot of the local profile
type Profile struct {
	Name             string          `json:"name"`
	FavoriteLanguage string          `json:"favorite_language"`
	Joined           time.Time       `json:"joined"`
	InstallID        string          `json:"install_id"`
	User             *community.User `json:"user,omitempty"`
	Translations     int             `json:"translations"`
}

// Service reads and writes the profile
type Service struct {
	kv      store.KV
	history History
	now     func() time.Time
}

// New creates a profile service
func New(kv store.KV, history History) *Service {
	return &Service{kv: kv, history: history, now: time.Now}
}

// Load returns the profile. The join date and install ID are created on the
// first load.
func (s *Service) Load(ctx context.Context) (Profile, error) {
	var p Profile
	var err error

	if p.Name, err = s.optional(ctx, NameKey); err != nil {
		return p, err
	}
	if p.FavoriteLanguage, err = s.optional(ctx, FavoriteKey); err != nil {
		return p, err
	}

	joined, err := s.ensure(ctx, JoinedKey, func() string {
		return s.now().UTC().Format(time.RFC3339)
	})
	if err != nil {
		return p, err
	}
	if p.Joined, err = time.Parse(time.RFC3339, joined); err != nil {
		return p, fmt.Errorf("%w: parse %s: %w", apperr.ErrPersistence, JoinedKey, err)
	}

	if p.InstallID, err = s.ensure(ctx, InstallIDKey, uuid.NewString); err != nil {
		return p, err
	}

	var u community.User
	switch err := store.GetJSON(ctx, s.kv, UserKey, &u); {
	case err == nil:
		p.User = &u
	case !errors.Is(err, store.ErrNotFound):
		return p, err
	}

	if s.history != nil {
		if p.Translations, err = s.history.Count(ctx); err != nil {
			return p, err
		}
	}
	return p, nil
}

// SetName stores the display name. Blank names are rejected.
func (s *Service) SetName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", apperr.ErrValidation)
	}
	return s.kv.Set(ctx, NameKey, name)
}

// SetFavorite stores the display name of a catalog language
func (s *Service) SetFavorite(ctx context.Context, code string) (language.Language, error) {
	lang, err := language.Lookup(code)
	if err != nil {
		return lang, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return lang, s.kv.Set(ctx, FavoriteKey, lang.Name)
}

// SetUser remembers the logged-in account
func (s *Service) SetUser(ctx context.Context, u *community.User) error {
	if u == nil {
		return s.kv.Delete(ctx, UserKey)
	}
	return store.SetJSON(ctx, s.kv, UserKey, u)
}

// Reset removes all profile keys and the translation history. A new join
// date and install ID are issued on the next load.
func (s *Service) Reset(ctx context.Context) error {
	for _, key := range []string{NameKey, FavoriteKey, JoinedKey, InstallIDKey, UserKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	if s.history != nil {
		return s.history.Clear(ctx)
	}
	return nil
}

func (s *Service) optional(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// ensure returns the value under key, storing create() first if it is unset
func (s *Service) ensure(ctx context.Context, key string, create func() string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if err == nil && v != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	v = create()
	if err := s.kv.Set(ctx, key, v); err != nil {
		return "", err
	}
	return v, nil
}
