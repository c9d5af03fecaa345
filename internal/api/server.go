// ABOUTME: HTTP surface for the spotter backend using chi
// ABOUTME: Wires CORS, request logging, auth gates, and validation around the handlers

package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itayeylath/spotter-backend/internal/auth"
	"github.com/itayeylath/spotter-backend/internal/identity"
	"github.com/itayeylath/spotter-backend/internal/store"
)

// Server holds the HTTP handler tree and its collaborators.
type Server struct {
	router   chi.Router
	tasks    store.TaskStore
	idp      identity.Provider
	registry *auth.Registry
	logger   *slog.Logger

	// devMode includes error detail and stack traces in 500 responses.
	devMode bool
}

// Option configures the server.
type Option func(*Server)

// WithDevMode toggles development error responses.
func WithDevMode(dev bool) Option {
	return func(s *Server) { s.devMode = dev }
}

// NewServer builds the full route tree. The admin registry is injected
// here once; nothing else consults the environment.
func NewServer(tasks store.TaskStore, idp identity.Provider, registry *auth.Registry, opts ...Option) *Server {
	s := &Server{
		tasks:    tasks,
		idp:      idp,
		registry: registry,
		logger:   slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/", s.handle(s.handleRoot))
	r.Get("/health", s.handle(s.handleHealth))

	requireAuth := auth.RequireAuth(s.idp, s.registry)
	requireAdmin := auth.RequireAdmin(s.idp)

	r.Route("/api", func(r chi.Router) {
		r.Route("/todos", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", s.handle(s.handleListTodos))
			r.With(validateBody(createTodoSchema)).Post("/", s.handle(s.handleCreateTodo))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handle(s.handleGetTodo))
				r.With(validateBody(updateTodoSchema)).Put("/", s.handle(s.handleUpdateTodo))
				r.Delete("/", s.handle(s.handleDeleteTodo))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)

			// Any authenticated caller may ask about admin membership
			r.Get("/check-status", s.handle(s.handleCheckAdminStatus))
			r.Get("/list", s.handle(s.handleAdminList))

			// Everything else requires passing the admin gate
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/users", s.handle(s.handleListUsers))
				r.Get("/users/{uid}/todos", s.handle(s.handleListUserTodos))
				r.Delete("/users/{uid}", s.handle(s.handleDeleteUser))
				r.Get("/stats", s.handle(s.handleStats))
			})
		})

		r.Route("/iam", func(r chi.Router) {
			r.Post("/signin/google", s.handle(s.handleSignIn))
			r.Post("/signout", s.handle(s.handleSignOut))
			r.With(requireAuth).Get("/me", s.handle(s.handleMe))
		})
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"message": "Spotter backend is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request with status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// recoverer converts panics into the standard 500 envelope instead of a
// dropped connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				s.logger.Error("panic in handler", "panic", rec, "stack", string(stack))
				s.writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error", string(stack))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
