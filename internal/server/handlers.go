package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"codeberg.org/snonux/marghivasal/internal"
	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/community"
	"codeberg.org/snonux/marghivasal/internal/history"
	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/messages"
	"codeberg.org/snonux/marghivasal/internal/phrase"
	"codeberg.org/snonux/marghivasal/internal/translation"
)

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	Status  string `json:"status"`
	Text    string `json:"text,omitempty"`
	Via     string `json:"via,omitempty"`
	Message string `json:"message,omitempty"`
}

type suggestRequest struct {
	Language       string `json:"language"`
	LocalPhrase    string `json:"local_phrase"`
	EnglishMeaning string `json:"english_meaning"`
	Context        string `json:"context"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": internal.Version})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, language.All())
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.deps.Resolver.Resolve(r.Context(), translation.Request{
		Text:   req.Text,
		Source: req.Source,
		Target: req.Target,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := translateResponse{Status: out.Kind.String()}
	status := http.StatusOK
	switch out.Kind {
	case translation.Success:
		resp.Text, resp.Via = out.Text, out.Via
	case translation.NotFound:
		status = http.StatusNotFound
		resp.Message = s.deps.Messages.T(messages.NotFound, map[string]any{"Reason": out.Reason})
	default:
		status = http.StatusBadGateway
		resp.Message = s.deps.Messages.T(messages.TranslationFailed, nil)
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.History.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]history.Record{"records": records})
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.History.Clear(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePhrases(w http.ResponseWriter, r *http.Request) {
	lang, err := language.Lookup(chi.URLParam(r, "lang"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", apperr.ErrValidation, err))
		return
	}

	entries := s.deps.Phrases.Get(r.Context(), lang.Code)
	writeJSON(w, http.StatusOK, struct {
		Language language.Language `json:"language"`
		Phrases  []phrase.Entry    `json:"phrases"`
	}{lang, entries})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !s.decode(w, r, &req) {
		return
	}

	msg, err := s.deps.Suggestions.Submit(r.Context(), community.Suggestion{
		LanguageCode:   req.Language,
		LocalPhrase:    req.LocalPhrase,
		EnglishMeaning: req.EnglishMeaning,
		Context:        req.Context,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

// decode reads a JSON body, answering 400 itself when it cannot
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: s.deps.Messages.T(messages.InvalidInput, map[string]any{"Detail": "the request body is not valid JSON"}),
		})
		return false
	}
	return true
}

// fail maps err to a status code and a user-facing message
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrNetwork), errors.Is(err, apperr.ErrBackend):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.deps.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	msg := s.deps.Messages.Error(err)
	if strings.TrimSpace(msg) == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
