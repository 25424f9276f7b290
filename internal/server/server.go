// Package server exposes the translator as a small JSON API for mobile
// front-ends. Handlers call the same services as the CLI.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"codeberg.org/snonux/marghivasal/internal/community"
	"codeberg.org/snonux/marghivasal/internal/history"
	"codeberg.org/snonux/marghivasal/internal/messages"
	"codeberg.org/snonux/marghivasal/internal/phrase"
	"codeberg.org/snonux/marghivasal/internal/translation"
)

const (
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 15 * time.Second
	maxBodyBytes    = 64 << 10
)

// Resolver resolves translation requests
type Resolver interface {
	Resolve(ctx context.Context, req translation.Request) (translation.Outcome, error)
}

// History is the translation log
type History interface {
	List(ctx context.Context) ([]history.Record, error)
	Clear(ctx context.Context) error
}

// Phrases returns approved phrases per language
type Phrases interface {
	Get(ctx context.Context, languageCode string) []phrase.Entry
}

// Suggestions accepts new phrase suggestions
type Suggestions interface {
	Submit(ctx context.Context, s community.Suggestion) (string, error)
}

// Deps are the services behind the API
type Deps struct {
	Resolver    Resolver
	History     History
	Phrases     Phrases
	Suggestions Suggestions
	Messages    *messages.Catalog
	Logger      *slog.Logger
}

// Server is the HTTP API
type Server struct {
	deps   Deps
	router chi.Router
	http   *http.Server
}

// New creates a server listening on addr
func New(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Messages == nil {
		d.Messages = messages.New("en", d.Logger)
	}

	s := &Server{deps: d, router: chi.NewRouter()}
	s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/languages", s.handleLanguages)
	r.Post("/translate", s.handleTranslate)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.handleHistoryList)
		r.Delete("/", s.handleHistoryClear)
	})
	r.Route("/phrases", func(r chi.Router) {
		r.Post("/", s.handleSuggest)
		r.Get("/{lang}", s.handlePhrases)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("server starting", "address", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.deps.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.deps.Logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// RequestIDExtractor adds the chi request ID to log records
func RequestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id := middleware.GetReqID(ctx)
	return slog.String("request_id", id), id != ""
}
