// Package stubserver implements a reference server for the tracked-resource
// wire contract. It backs the demo binary and the integration tests.
package stubserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Config holds server configuration
type Config struct {
	Port int
	// Token, when non-empty, requires a matching bearer token on every
	// request.
	Token string
	Log   zerolog.Logger
}

// Server serves the portfolio and watchlist wire contract over an in-memory
// store.
type Server struct {
	router *chi.Mux
	server *http.Server
	store  *Store
	token  string
	log    zerolog.Logger
}

// New creates a new stub server.
func New(cfg Config, store *Store) *Server {
	s := &Server{
		router: chi.NewRouter(),
		store:  store,
		token:  cfg.Token,
		log:    cfg.Log.With().Str("component", "stubserver").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router for httptest harnesses.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(s.authMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/portfolios", func(r chi.Router) {
		r.Get("/", s.handleListPortfolios)
		r.Post("/", s.handleCreatePortfolio)
		r.Get("/{id}", s.handleGetPortfolio)
		r.Patch("/{id}", s.handleUpdatePortfolio)
		r.Delete("/{id}", s.handleDeletePortfolio)
		r.Post("/{id}/items", s.handleAddTransaction)
		r.Delete("/{id}/items/{itemID}", s.handleRemoveTransaction)
	})

	s.router.Route("/watchlists", func(r chi.Router) {
		r.Get("/", s.handleListWatchlists)
		r.Post("/", s.handleCreateWatchlist)
		r.Get("/{id}", s.handleGetWatchlist)
		r.Patch("/{id}", s.handleUpdateWatchlist)
		r.Delete("/{id}", s.handleDeleteWatchlist)
		r.Post("/{id}/items", s.handleAddItem)
		r.Delete("/{id}/items/{itemID}", s.handleRemoveItem)
	})

	s.router.Get("/quotes/{symbol}", s.handleGetQuote)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting stub server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down stub server")
	return s.server.Shutdown(ctx)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.token {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
