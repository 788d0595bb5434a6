// Package httpserver provides the HTTP API of the scholar rank service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/helixir/scholar-rank-service/internal/domain"
	"github.com/helixir/scholar-rank-service/internal/observability"
	"github.com/helixir/scholar-rank-service/internal/papersources"
)

// InsightsService is the query service behind the HTTP routes.
type InsightsService interface {
	Papers(ctx context.Context, query string) (*papersources.SearchResult, error)
	PapersWithAuthors(ctx context.Context, query string) ([]domain.EnrichedPaper, domain.RateLimitInfo, error)
	TopAuthors(ctx context.Context, query string) ([]domain.AggregatedAuthor, domain.RateLimitInfo, error)
}

// ReadinessFunc reports whether the service can serve queries.
type ReadinessFunc func() bool

// Server serves the ranking API over chi.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	service    InsightsService
	ready      ReadinessFunc
	metrics    *observability.Metrics
	logger     zerolog.Logger
	base       zerolog.Logger // untagged, stored in request contexts
}

// Config holds listener settings for the API server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a new HTTP server. metrics may be nil. A nil ready
// function reports the server as always ready.
func NewServer(
	cfg Config,
	service InsightsService,
	ready ReadinessFunc,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	if ready == nil {
		ready = func() bool { return true }
	}

	s := &Server{
		service: service,
		ready:   ready,
		metrics: metrics,
		logger:  logger.With().Str("component", "http-server").Logger(),
		base:    logger,
	}

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter wires middleware, health endpoints and the query routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.correlationIDMiddleware,
		s.requestLogMiddleware,
		middleware.Recoverer,
		middleware.StripSlashes,
	)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/papers", s.getPapers)
		r.Get("/get_paper_info", s.getPaperInfo)
		r.Get("/get_author_info", s.getAuthorInfo)
	})

	return r
}

// Handler exposes the router to tests and embedding callers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info().Str("address", ln.Addr().String()).Msg("HTTP server listening")
	return s.httpServer.Serve(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler fails while no upstream API key is configured.
func (s *Server) readinessHandler(w http.ResponseWriter, _ *http.Request) {
	status, body := http.StatusOK, map[string]string{"status": "ready"}
	if !s.ready() {
		status = http.StatusServiceUnavailable
		body = map[string]string{"status": "not_ready", "error": "upstream API key is not configured"}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent, nothing useful to do with an encode error.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// requestLog returns the request-scoped logger tagged as the HTTP server.
func (s *Server) requestLog(r *http.Request) zerolog.Logger {
	return observability.ComponentLogger(r.Context(), s.base, "http-server")
}
