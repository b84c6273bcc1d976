package router

import (
	_ "go-auth-api/docs"
	"go-auth-api/handler"
	"go-auth-api/metrics"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Options carries what NewRouter mounts. Everything except Auth and
// Authenticate may be nil.
type Options struct {
	Auth           *handler.AuthHandler
	Authenticate   func(http.Handler) http.Handler
	RateLimiter    *handler.RateLimiter
	HealthChecks   map[string]handler.HealthChecker
	Metrics        prometheus.Gatherer
	StatusRecorder metrics.StatusRecorder

	// TrustProxyHeaders lets X-Forwarded-For, X-Real-IP and True-Client-IP
	// replace RemoteAddr, which the rate limiter keys on.
	TrustProxyHeaders bool
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(handler.RequestLogger(opts.StatusRecorder))
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.HealthCheck(opts.HealthChecks))
	if opts.Metrics != nil {
		r.Handle("/metrics", metrics.Handler(opts.Metrics))
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	auth := opts.Auth
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.Middleware)
			}
			r.Post("/signup", handler.ErrorHandlingMiddleware(auth.Signup))
			r.Post("/login", handler.ErrorHandlingMiddleware(auth.Login))
			r.Post("/refresh-token", handler.ErrorHandlingMiddleware(auth.RefreshToken))
		})

		r.Get("/check-email", handler.ErrorHandlingMiddleware(auth.CheckEmail))

		r.Group(func(r chi.Router) {
			r.Use(opts.Authenticate)
			r.Post("/logout", handler.ErrorHandlingMiddleware(auth.Logout))
			r.Get("/profile", handler.ErrorHandlingMiddleware(auth.Profile))
			r.Post("/change-password", handler.ErrorHandlingMiddleware(auth.ChangePassword))
		})
	})

	return r
}
