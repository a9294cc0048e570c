// Package api exposes the snapshot engine over HTTP.
//
// The server is deliberately small: snapshot retrieval, a health probe,
// version and rate-budget introspection. Snapshot persistence runs
// through the same store the CLI uses, so a server in front of Redis
// gives every client conditional re-fetch for free.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/forgestats/forgestats/pkg/cache"
	"github.com/forgestats/forgestats/pkg/stats"
)

// Server handles HTTP requests for repository statistics.
type Server struct {
	client *stats.Client
	store  *cache.Store
	logger *log.Logger
	router chi.Router
}

// Config configures a Server.
type Config struct {
	// Client takes the snapshots. Required.
	Client *stats.Client

	// Store persists snapshots between requests. Nil disables persistence
	// (every request fetches fresh).
	Store *cache.Store

	Logger *log.Logger
}

// NewServer creates the server and mounts its routes.
func NewServer(cfg Config) *Server {
	if cfg.Store == nil {
		cfg.Store = cache.NewStore(nil, 0)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		client: cfg.Client,
		store:  cfg.Store,
		logger: cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/rate", s.handleRate)
	r.Route("/repos/{owner}/{name}", func(r chi.Router) {
		r.Get("/stats", s.handleSnapshot)
		r.Get("/stats/{category}", s.handleCategory)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}
