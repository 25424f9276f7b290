package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/community"
	"codeberg.org/snonux/marghivasal/internal/history"
	"codeberg.org/snonux/marghivasal/internal/store"
)

func newService(t *testing.T) (*Service, *history.Store) {
	t.Helper()
	kv := store.NewMemory()
	h := history.New(kv)
	s := New(kv, h)
	s.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return s, h
}

func TestLoad_FirstRun(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	p, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if p.Name != "" || p.FavoriteLanguage != "" || p.User != nil || p.Translations != 0 {
		t.Errorf("fresh profile = %+v", p)
	}
	if !p.Joined.Equal(time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("Joined = %v", p.Joined)
	}
	if _, err := uuid.Parse(p.InstallID); err != nil {
		t.Errorf("InstallID %q is not a UUID: %v", p.InstallID, err)
	}

	// Join date and install ID are stable across loads
	s.now = time.Now
	again, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}
	if !again.Joined.Equal(p.Joined) || again.InstallID != p.InstallID {
		t.Errorf("profile changed between loads: %+v vs %+v", p, again)
	}
}

func TestSetters(t *testing.T) {
	s, h := newService(t)
	ctx := context.Background()

	if err := s.SetName(ctx, "  Amina "); err != nil {
		t.Fatalf("SetName() failed: %v", err)
	}
	lang, err := s.SetFavorite(ctx, "mrt")
	if err != nil {
		t.Fatalf("SetFavorite() failed: %v", err)
	}
	if lang.Name != "Marghi" {
		t.Errorf("SetFavorite() = %v", lang)
	}
	if err := s.SetUser(ctx, &community.User{Email: "amina@example.com", FullName: "Amina Bello"}); err != nil {
		t.Fatalf("SetUser() failed: %v", err)
	}
	h.Record(ctx, history.Record{SourceLanguage: "en", TargetLanguage: "fr", SourceText: "hello", ResultText: "Bonjour"})

	p, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if p.Name != "Amina" || p.FavoriteLanguage != "Marghi" || p.Translations != 1 {
		t.Errorf("profile = %+v", p)
	}
	if p.User == nil || p.User.Email != "amina@example.com" {
		t.Errorf("User = %+v", p.User)
	}

	if err := s.SetUser(ctx, nil); err != nil {
		t.Fatalf("SetUser(nil) failed: %v", err)
	}
	if p, _ := s.Load(ctx); p.User != nil {
		t.Error("user still present after logout")
	}
}

func TestSetters_Validation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	if err := s.SetName(ctx, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("SetName(blank) error = %v, want ErrValidation", err)
	}
	if _, err := s.SetFavorite(ctx, "nowhere"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("SetFavorite(nowhere) error = %v, want ErrValidation", err)
	}
}

func TestReset(t *testing.T) {
	s, h := newService(t)
	ctx := context.Background()

	s.SetName(ctx, "Musa")
	first, _ := s.Load(ctx)
	h.Record(ctx, history.Record{SourceLanguage: "en", TargetLanguage: "fr", SourceText: "hello", ResultText: "Bonjour"})

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	p, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if p.Name != "" || p.Translations != 0 {
		t.Errorf("profile after reset = %+v", p)
	}
	if p.InstallID == first.InstallID {
		t.Error("install ID survived reset")
	}
}
