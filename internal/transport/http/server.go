// Package http provides the HTTP transport layer for the user service.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mvaleed/seedwork/internal/config"
	"github.com/mvaleed/seedwork/internal/logger"
	"github.com/mvaleed/seedwork/internal/metrics"
	"github.com/mvaleed/seedwork/internal/service"
)

// Services bundles the application services the handlers call.
type Services struct {
	Users *service.UserService
	Roles *service.RoleService
	Auth  *service.AuthService
}

// Server is the HTTP server for the user service.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	cfg        config.Server
	maxLimit   int
	users      *service.UserService
	roles      *service.RoleService
	auth       *service.AuthService
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Config, services Services, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg.Server,
		maxLimit: cfg.Query.MaxLimit,
		users:    services.Users,
		roles:    services.Roles,
		auth:     services.Auth,
		metrics:  m,
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ListenAndServe starts the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestIDContext)
	s.router.Use(s.loggingMiddleware)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)

	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/users/me", s.handleGetCurrentUser)
			r.Put("/users/me", s.handleUpdateCurrentUser)
			r.Put("/users/me/password", s.handleChangePassword)

			r.Route("/users", func(r chi.Router) {
				r.With(s.requirePermission("users", "read")).Get("/", s.handleListUsers)
				r.With(s.requirePermission("users", "read")).Get("/{id}", s.handleGetUser)
				r.With(s.requirePermission("users", "read")).Get("/{id}/roles", s.handleGetUserRoles)

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission("users", "write"))
					r.Post("/", s.handleCreateUser)
					r.Put("/{id}", s.handleUpdateUser)
					r.Post("/{id}/activate", s.handleActivateUser)
					r.Post("/{id}/suspend", s.handleSuspendUser)
				})

				r.With(s.requirePermission("users", "delete")).Delete("/{id}", s.handleDeleteUser)

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission("roles", "assign"))
					r.Post("/{id}/roles", s.handleAssignRole)
					r.Delete("/{id}/roles/{roleId}", s.handleRemoveRole)
				})
			})

			r.Route("/roles", func(r chi.Router) {
				r.Use(s.requirePermission("roles", "read"))
				r.Get("/", s.handleListRoles)
				r.Get("/{id}", s.handleGetRole)

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission("roles", "write"))
					r.Post("/", s.handleCreateRole)
					r.Put("/{id}", s.handleUpdateRole)
				})

				r.With(s.requirePermission("roles", "delete")).Delete("/{id}", s.handleDeleteRole)
			})
		})
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// requestIDContext copies chi's request ID into the logger context key so
// services log it without depending on chi.
func requestIDContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.InfoContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
