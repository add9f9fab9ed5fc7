// Package rest wires the HTTP surface: routing, middleware, and handlers.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/interfaces/http/rest/handlers"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/interfaces/http/rest/middleware"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/auth"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/ratelimit"
)

// RateLimiters groups the per-endpoint limiter instances. Each endpoint
// class carries its own window and quota.
type RateLimiters struct {
	SessionRead  *ratelimit.Limiter
	SessionWrite *ratelimit.Limiter
	Search       *ratelimit.Limiter
	MessageRead  *ratelimit.Limiter
	MessageSend  *ratelimit.Limiter
}

// Close stops the limiters' background sweepers
func (l *RateLimiters) Close() {
	for _, limiter := range []*ratelimit.Limiter{
		l.SessionRead, l.SessionWrite, l.Search, l.MessageRead, l.MessageSend,
	} {
		if limiter != nil {
			limiter.Close()
		}
	}
}

// Router creates and configures the HTTP router
type Router struct {
	sessionHandler *handlers.SessionHandler
	messageHandler *handlers.MessageHandler
	validator      *auth.JWTValidator
	limiters       *RateLimiters
	errorHandler   *pkgerrors.ErrorHandler
	allowedOrigins []string
	logger         *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	sessionHandler *handlers.SessionHandler,
	messageHandler *handlers.MessageHandler,
	validator *auth.JWTValidator,
	limiters *RateLimiters,
	errorHandler *pkgerrors.ErrorHandler,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		sessionHandler: sessionHandler,
		messageHandler: messageHandler,
		validator:      validator,
		limiters:       limiters,
		errorHandler:   errorHandler,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		r.With(middleware.RateLimit(rt.limiters.Search, "sessions.search", rt.errorHandler)).
			Get("/search", rt.sessionHandler.SearchSessions)

		r.Route("/sessions", func(r chi.Router) {
			r.With(middleware.RateLimit(rt.limiters.SessionRead, "sessions.list", rt.errorHandler)).
				Get("/", rt.sessionHandler.ListSessions)
			r.With(middleware.RateLimit(rt.limiters.SessionWrite, "sessions.create", rt.errorHandler)).
				Post("/", rt.sessionHandler.CreateSession)
			r.With(middleware.RateLimit(rt.limiters.SessionWrite, "sessions.bulk-delete", rt.errorHandler)).
				Post("/bulk-delete", rt.sessionHandler.BulkDeleteSessions)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.With(middleware.RateLimit(rt.limiters.SessionRead, "sessions.get", rt.errorHandler)).
					Get("/", rt.sessionHandler.GetSession)
				r.With(middleware.RateLimit(rt.limiters.SessionWrite, "sessions.rename", rt.errorHandler)).
					Patch("/", rt.sessionHandler.RenameSession)
				r.With(middleware.RateLimit(rt.limiters.SessionWrite, "sessions.delete", rt.errorHandler)).
					Delete("/", rt.sessionHandler.DeleteSession)

				r.Route("/messages", func(r chi.Router) {
					r.With(middleware.RateLimit(rt.limiters.MessageRead, "messages.list", rt.errorHandler)).
						Get("/", rt.messageHandler.ListMessages)
					r.With(middleware.RateLimit(rt.limiters.MessageSend, "messages.send", rt.errorHandler)).
						Post("/", rt.messageHandler.SendMessage)
				})
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
