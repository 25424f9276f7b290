package models

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/llm"
)

func TestNewLister(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *llm.Config
		wantErr error
	}{
		{"openai", &llm.Config{Provider: "openai", APIKey: "k"}, nil},
		{"gemini", &llm.Config{Provider: "gemini", APIKey: "k"}, nil},
		{"openai without key", &llm.Config{Provider: "openai"}, apperr.ErrValidation},
		{"gemini without key", &llm.Config{Provider: "gemini"}, apperr.ErrValidation},
		{"proxy", &llm.Config{Provider: "proxy"}, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLister(context.Background(), tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewLister() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLister() error = %v", err)
			}
			if l.Provider() != tt.cfg.Provider {
				t.Errorf("Provider() = %q, want %q", l.Provider(), tt.cfg.Provider)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"gpt-4o-mini":            CategoryChat,
		"gemini-2.5-flash":       CategoryChat,
		"o3-mini":                CategoryChat,
		"tts-1-hd":               CategorySpeech,
		"gpt-4o-mini-tts":        CategorySpeech,
		"whisper-1":              CategorySpeech,
		"dall-e-3":               CategoryImage,
		"imagen-3.0-generate":    CategoryImage,
		"text-embedding-3-small": CategoryEmbedding,
		"babbage-002":            CategoryOther,
	}
	for id, want := range tests {
		if got := Categorize(id); got != want {
			t.Errorf("Categorize(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestList_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"tts-1"},{"id":"gpt-4o-mini"},{"id":"dall-e-3"},{"id":"gpt-4o"}]}`))
	}))
	defer srv.Close()

	l, err := NewLister(context.Background(), &llm.Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []Model{
		{"gpt-4o", CategoryChat},
		{"gpt-4o-mini", CategoryChat},
		{"dall-e-3", CategoryImage},
		{"tts-1", CategorySpeech},
	}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestList_OpenAIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	l, err := NewLister(context.Background(), &llm.Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.List(context.Background()); !errors.Is(err, apperr.ErrNetwork) {
		t.Errorf("List() error = %v, want network error", err)
	}
}

func TestList_Gemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-2.5-flash"},{"name":"models/text-embedding-004"}]}`))
	}))
	defer srv.Close()

	l, err := NewLister(context.Background(), &llm.Config{Provider: "gemini", APIKey: "k", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "gemini-2.5-flash" || got[1].Category != CategoryEmbedding {
		t.Errorf("List() = %v", got)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "openai", []Model{{"gpt-4o", CategoryChat}, {"tts-1", CategorySpeech}})

	out := buf.String()
	for _, want := range []string{"Available openai models:", "Chat/Translation", "  gpt-4o", "Text-to-Speech", "  tts-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Image Models") {
		t.Error("empty categories should be omitted")
	}

	buf.Reset()
	Print(&buf, "gemini", nil)
	if !strings.Contains(buf.String(), "No models found") {
		t.Errorf("empty list output = %q", buf.String())
	}
}

func TestList_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	l, err := NewLister(context.Background(), &llm.Config{Provider: "openai", APIKey: apiKey})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.List(context.Background()); err != nil {
		t.Errorf("List() failed: %v", err)
	}
}
