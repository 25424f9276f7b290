package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/community"
	"codeberg.org/snonux/marghivasal/internal/history"
	"codeberg.org/snonux/marghivasal/internal/messages"
	"codeberg.org/snonux/marghivasal/internal/phrase"
	"codeberg.org/snonux/marghivasal/internal/store"
	"codeberg.org/snonux/marghivasal/internal/testutil"
	"codeberg.org/snonux/marghivasal/internal/translation"
)

type fakeSuggestions struct {
	got []community.Suggestion
	err error
}

func (f *fakeSuggestions) Submit(_ context.Context, s community.Suggestion) (string, error) {
	f.got = append(f.got, s)
	if f.err != nil {
		return "", f.err
	}
	return "Suggestion sent, thank you!", nil
}

type fixture struct {
	srv         *httptest.Server
	mt          *testutil.MockTranslator
	generator   *testutil.MockGenerator
	source      *testutil.MockPhraseSource
	history     *history.Store
	suggestions *fakeSuggestions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	f := &fixture{
		mt:          &testutil.MockTranslator{Translations: map[string]string{"hello": "Bonjour"}},
		generator:   &testutil.MockGenerator{},
		source:      &testutil.MockPhraseSource{Phrases: map[string][]phrase.Entry{"mrt": testutil.MarghiPhrases()}},
		history:     history.New(store.NewMemory()),
		suggestions: &fakeSuggestions{},
	}
	cache := phrase.NewCache(f.source, logger)
	resolver := translation.New(translation.Deps{
		MT:        f.mt,
		Generator: f.generator,
		Phrases:   cache,
		History:   f.history,
		Logger:    logger,
	})

	s := New(":0", Deps{
		Resolver:    resolver,
		History:     f.history,
		Phrases:     cache,
		Suggestions: f.suggestions,
		Messages:    messages.New("en", logger),
		Logger:      logger,
	})
	f.srv = httptest.NewServer(s.Handler())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: response is not JSON: %v", method, path, err)
		}
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestTranslate(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/translate", `{"text":"hello","source":"en","target":"fr"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["status"] != "success" || body["text"] != "Bonjour" || body["via"] != translation.ViaMachine {
		t.Errorf("body = %v", body)
	}

	_, hist := f.do(t, http.MethodGet, "/history", "")
	records, _ := hist["records"].([]any)
	if len(records) != 1 {
		t.Fatalf("history = %v, want one record", hist)
	}
	rec := records[0].(map[string]any)
	if rec["fromCode"] != "en" || rec["toCode"] != "fr" || rec["translated"] != "Bonjour" {
		t.Errorf("record = %v", rec)
	}
}

func TestTranslate_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(f *fixture)
		wantStatus int
		wantKind   string
	}{
		{
			name:       "validation",
			body:       `{"text":"   ","source":"en","target":"fr"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad json",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no matching phrase",
			body:       `{"text":"where is the river","source":"en","target":"mrt"}`,
			wantStatus: http.StatusNotFound,
			wantKind:   "not_found",
		},
		{
			name: "service error",
			body: `{"text":"hello","source":"en","target":"de"}`,
			setup: func(f *fixture) {
				f.mt.Errors = map[string]error{"hello": apperr.ErrNetwork}
				f.generator.Err = apperr.ErrBackend
			},
			wantStatus: http.StatusBadGateway,
			wantKind:   "service_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			resp, body := f.do(t, http.MethodPost, "/translate", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d (%v)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantKind != "" && body["status"] != tt.wantKind {
				t.Errorf("status field = %v, want %s", body["status"], tt.wantKind)
			}
			msg := fmt.Sprint(body["message"], body["error"])
			if strings.Contains(msg, "network error") || strings.Contains(msg, "backend error") {
				t.Errorf("raw error text leaked: %s", msg)
			}

			_, hist := f.do(t, http.MethodGet, "/history", "")
			if records, _ := hist["records"].([]any); len(records) != 0 {
				t.Errorf("history changed: %v", records)
			}
		})
	}
}

func TestHistoryClear(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/translate", `{"text":"hello","source":"en","target":"fr"}`)

	resp, _ := f.do(t, http.MethodDelete, "/history", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE /history = %d", resp.StatusCode)
	}
	_, hist := f.do(t, http.MethodGet, "/history", "")
	if records, _ := hist["records"].([]any); len(records) != 0 {
		t.Errorf("history after clear = %v", hist)
	}
}

func TestPhrases(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/phrases/Marghi", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	phrases, _ := body["phrases"].([]any)
	if len(phrases) != 3 {
		t.Errorf("phrases = %v", body["phrases"])
	}
	lang := body["language"].(map[string]any)
	if lang["code"] != "mrt" || lang["minority"] != true {
		t.Errorf("language = %v", lang)
	}

	resp, _ = f.do(t, http.MethodGet, "/phrases/klingon", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown language status = %d, want 400", resp.StatusCode)
	}
}

func TestSuggest(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/phrases",
		`{"language":"hwo","local_phrase":"Mbwa","english_meaning":"Hello","context":"greeting"}`)
	if resp.StatusCode != http.StatusCreated || body["message"] != "Suggestion sent, thank you!" {
		t.Errorf("suggest = %d %v", resp.StatusCode, body)
	}
	if len(f.suggestions.got) != 1 || f.suggestions.got[0].LanguageCode != "hwo" || f.suggestions.got[0].Context != "greeting" {
		t.Errorf("submitted = %+v", f.suggestions.got)
	}

	f.suggestions.err = fmt.Errorf("%w: submit suggestion: 500", apperr.ErrBackend)
	resp, _ = f.do(t, http.MethodPost, "/phrases", `{"language":"hwo","local_phrase":"a","english_meaning":"b"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("backend failure status = %d, want 502", resp.StatusCode)
	}
}

func TestLanguages(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/languages", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var langs []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(langs) < 50 {
		t.Errorf("got %d languages", len(langs))
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New("127.0.0.1:0", Deps{Logger: slog.New(slog.DiscardHandler)})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil after cancel", err)
	}
}
