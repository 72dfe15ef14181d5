// Package web implements the crcoach JSON API.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/negz/crcoach/internal/battle"
	"github.com/negz/crcoach/internal/clash"
	"github.com/negz/crcoach/internal/meta"
	"github.com/negz/crcoach/internal/strategy/coach"
	"github.com/negz/crcoach/internal/strategy/insights"
)

// HeaderRequestID carries a request's ID.
const HeaderRequestID = "X-Request-ID"

// ErrMissingTag is returned to clients that don't supply a player tag.
const ErrMissingTag = "missing player tag"

// Server serves the crcoach JSON API.
type Server struct {
	source coach.Source
	log    *slog.Logger
	loc    *time.Location
}

// A ServerOption configures a Server.
type ServerOption func(*Server)

// WithLocation buckets match times by the hour of day in the supplied
// location. The default is UTC.
func WithLocation(loc *time.Location) ServerOption {
	return func(s *Server) {
		s.loc = loc
	}
}

// NewServer returns a new Server.
func NewServer(source coach.Source, log *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{source: source, log: log, loc: time.UTC}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/battlelog", s.handleBattleLog)
	mux.HandleFunc("GET /api/player", s.handlePlayer)
	mux.HandleFunc("GET /api/insights", s.handleInsights)
	mux.HandleFunc("GET /api/reco", s.handleReco)
	mux.HandleFunc("GET /api/coach", s.handleCoach)
	mux.HandleFunc("GET /api/meta", s.handleMeta)

	return mux
}

type errorBody struct {
	Error string `json:"error"`
}

type metaBody struct {
	Decks []meta.Deck `json:"decks"`
}

func (s *Server) handleBattleLog(w http.ResponseWriter, r *http.Request) {
	tag, ok := s.tag(w, r)
	if !ok {
		return
	}
	matches, err := s.matches(r.Context(), tag)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, matches)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	tag, ok := s.tag(w, r)
	if !ok {
		return
	}
	p, err := s.source.GetPlayer(r.Context(), tag)
	if err != nil {
		s.fail(w, r, fmt.Errorf("fetch player: %w", err))
		return
	}
	s.write(w, http.StatusOK, p)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	tag, ok := s.tag(w, r)
	if !ok {
		return
	}
	matches, err := s.matches(r.Context(), tag)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, insights.Analyze(matches, insights.InLocation(s.loc)))
}

func (s *Server) handleReco(w http.ResponseWriter, r *http.Request) {
	tag, ok := s.tag(w, r)
	if !ok {
		return
	}
	matches, err := s.matches(r.Context(), tag)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	decks, err := s.source.GetMetaDecks(r.Context())
	if err != nil {
		s.fail(w, r, fmt.Errorf("load meta decks: %w", err))
		return
	}
	s.write(w, http.StatusOK, coach.Recommend(matches, decks))
}

func (s *Server) handleCoach(w http.ResponseWriter, r *http.Request) {
	tag, ok := s.tag(w, r)
	if !ok {
		return
	}
	s.write(w, http.StatusOK, coach.Build(r.Context(), s.source, tag, coach.InLocation(s.loc)))
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	decks, err := s.source.GetMetaDecks(r.Context())
	if err != nil {
		s.fail(w, r, fmt.Errorf("load meta decks: %w", err))
		return
	}
	if decks == nil {
		decks = []meta.Deck{}
	}
	s.write(w, http.StatusOK, metaBody{Decks: decks})
}

// tag returns the normalized player tag from the query string, or writes a
// 400 if there isn't one.
func (s *Server) tag(w http.ResponseWriter, r *http.Request) (string, bool) {
	tag := clash.NormalizeTag(r.URL.Query().Get("tag"))
	if tag == "" {
		s.write(w, http.StatusBadRequest, errorBody{Error: ErrMissingTag})
		return "", false
	}
	return tag, true
}

// matches fetches and normalizes a player's most recent battles.
func (s *Server) matches(ctx context.Context, tag string) ([]battle.Match, error) {
	m, err := coach.Matches(ctx, s.source, tag)
	if err != nil {
		return nil, fmt.Errorf("fetch battle log: %w", err)
	}
	return m, nil
}

// fail reports an upstream failure to the client as a 502.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("upstream request failed", "path", r.URL.Path, "request-id", RequestID(r.Context()), "err", err)
	s.write(w, http.StatusBadGateway, errorBody{Error: err.Error()})
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("cannot encode response", "err", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithLogging wraps an http.Handler to log each request's method, path,
// status code, duration, and request ID.
func WithLogging(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start),
			"request-id", RequestID(r.Context()),
		)
	})
}

type contextKey struct{}

// RequestID returns the request ID stored by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// WithRequestID wraps an http.Handler to tag each request with an ID. It uses
// the client's X-Request-ID header if set, or generates one. The ID is echoed
// in the response.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, id)))
	})
}

// WithCacheControl wraps an http.Handler to set the Cache-Control header on
// every response.
func WithCacheControl(next http.Handler, value string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}

// WithCORS wraps an http.Handler to allow cross-origin GET requests from any
// origin.
func WithCORS(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{HeaderRequestID},
	}).Handler(next)
}

// Sync runs a data sync using the provided function, then repeats every
// interval. It blocks until the context is cancelled.
func Sync(ctx context.Context, syncFn func(context.Context) error, interval time.Duration, log *slog.Logger) {
	if err := syncFn(ctx); err != nil {
		log.Error("initial sync failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := syncFn(ctx); err != nil {
				log.Error("periodic sync failed", "err", err)
			}
		}
	}
}
