// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"go-auth-api/config"
	"go-auth-api/db"
	"go-auth-api/handler"
	"go-auth-api/logger"
	"go-auth-api/metrics"
	"go-auth-api/repository"
	"go-auth-api/router"
	"go-auth-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Dependencies are the outside resources the application is built on.
type Dependencies struct {
	Users      repository.IUserRepository
	BcryptCost int

	// Cache enables the Redis profile cache when non-nil.
	Cache service.ICacheClient
	// Registry receives the application metrics. A fresh one is created when nil.
	Registry *prometheus.Registry
	// HealthChecks are run by GET /health.
	HealthChecks map[string]handler.HealthChecker
}

// App is the wired application.
type App struct {
	Router   http.Handler
	Auth     *service.AuthService
	Registry *prometheus.Registry

	limiter *handler.RateLimiter
}

// NewApp wires the layers together.
func NewApp(cfg *config.Config, deps Dependencies) *App {
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	collector := metrics.NewCollector(registry)

	tokens := service.NewTokenIssuer(service.TokenConfig{
		SecretKey: []byte(cfg.JWT.SecretKey),
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
	})
	opts := []service.AuthServiceOption{service.WithMetrics(collector)}
	if deps.Cache != nil {
		opts = append(opts, service.WithProfileCache(service.NewRedisProfileCache(deps.Cache, cfg.Redis.ProfileTTL)))
	}
	authService := service.NewAuthService(
		deps.Users,
		service.NewPasswordHasher(deps.BcryptCost),
		tokens,
		service.NewRefreshTokenManager(deps.Users),
		opts...,
	)

	limiter := handler.NewRateLimiter(handler.RateLimiterConfig{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})

	r := router.NewRouter(router.Options{
		Auth:           handler.NewAuthHandler(authService),
		Authenticate:   handler.NewAuthMiddleware(tokens),
		RateLimiter:    limiter,
		HealthChecks:   deps.HealthChecks,
		Metrics:        registry,
		StatusRecorder: collector,

		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	return &App{
		Router:   r,
		Auth:     authService,
		Registry: registry,
		limiter:  limiter,
	}
}

// Close stops background work started by NewApp.
func (a *App) Close() {
	a.limiter.Stop()
}

func Run() {
	logger.Init()
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.Log.Fatalf("Error configuring logger: %v", err)
	}
	logger.Log.Info("Configuration loaded successfully")

	ctx := context.Background()

	var database *sql.DB
	var users repository.IUserRepository
	if cfg.Database.Driver == "memory" {
		logger.Log.Warn("Using the in-memory credential store; data is lost on exit")
		users = repository.NewMemoryUserRepository()
	} else {
		database, err = db.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Log.Fatalf("Error connecting to the database: %v", err)
		}
		defer database.Close()

		if err := db.RunMigrations(database); err != nil {
			logger.Log.Fatalf("Error running migrations: %v", err)
		}
		users = repository.NewUserRepository(database)
	}

	deps := Dependencies{
		Users:        users,
		BcryptCost:   service.DefaultBcryptCost,
		HealthChecks: map[string]handler.HealthChecker{},
	}
	if database != nil {
		deps.HealthChecks["database"] = database.PingContext
	}
	if cfg.Redis.Enabled {
		var rdb *redis.Client
		rdb, err = db.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Log.Fatalf("Error connecting to Redis: %v", err)
		}
		defer rdb.Close()
		deps.Cache = rdb
		deps.HealthChecks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	application := NewApp(cfg, deps)
	defer application.Close()

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      application.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
