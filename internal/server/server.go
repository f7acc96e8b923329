// Package server wires the gateway's HTTP surface: session endpoints, the
// authenticated object-manager API, and the public content lookups.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rxxuzi/fxgate/internal/auth"
	"github.com/rxxuzi/fxgate/internal/content"
	"github.com/rxxuzi/fxgate/internal/drive"
	"github.com/rxxuzi/fxgate/internal/logger"
)

// Server holds the gateway's collaborators. It keeps no per-request state.
type Server struct {
	store   drive.Store
	auth    *auth.Manager
	library *content.Library
	log     *logger.Logger

	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool
}

// New builds a Server around its collaborators.
func New(store drive.Store, authm *auth.Manager, library *content.Library, log *logger.Logger) *Server {
	return &Server{
		store:   store,
		auth:    authm,
		library: library,
		log:     log,
	}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth", s.handleLogin)
		r.Delete("/auth", s.handleLogout)

		r.Route("/objects", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListObjects)
			r.Post("/", s.handleCreateOrUpload)
			r.Delete("/", s.handleDeleteObjects)
			r.Patch("/", s.handleRenameMove)
		})

		r.Get("/files", s.handleListFiles)

		r.Get("/projects", s.handleListProjects)
		r.Get("/projects/{category}/{slug}", s.handleGetProject)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return r
}

// requireAuth rejects requests without a valid session cookie before any
// store access happens.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.IsAuthenticated(r) {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Z().Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
