package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ajharbinger/dealscope/internal/api"
	"github.com/ajharbinger/dealscope/internal/database"
	"github.com/ajharbinger/dealscope/internal/drafts"
	"github.com/ajharbinger/dealscope/internal/enrichment"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/middleware"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/repository"
	"github.com/ajharbinger/dealscope/internal/services"
	"github.com/ajharbinger/dealscope/pkg/config"
)

type hub interface {
	realtime.Publisher
	realtime.Subscriber
}

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Initialize configuration
	cfg := config.New()

	log := logger.New(cfg.LogLevel, cfg.IsProduction())
	if z, ok := log.(*logger.ZapLogger); ok {
		defer z.Sync()
	}
	if envErr != nil {
		log.Debug("No .env file found")
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := db.HealthCheck(); err != nil {
		log.Fatal("Database is not reachable", err)
	}

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations", err)
	}

	checks := map[string]api.HealthCheck{
		"database": db.HealthCheckContext,
	}

	// Drafts and change signals go through Redis when configured
	var store drafts.Store = drafts.NewMemoryStore()
	var changes hub = realtime.NewMemoryHub()
	if cfg.HasRedis() {
		client, err := drafts.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal("Invalid Redis configuration", err)
		}
		defer client.Close()

		redisStore := drafts.NewRedisStore(client, cfg.DraftTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := redisStore.Ping(ctx)
		cancel()
		if pingErr != nil {
			log.Warn("Redis unreachable at startup, will keep retrying per request", "error", pingErr.Error())
		}

		store = redisStore
		changes = realtime.NewRedisHub(client, log.With("component", "realtime"))
		checks["redis"] = redisStore.Ping
	} else {
		log.Warn("REDIS_URL not set, drafts and change signals are process-local")
	}

	repos := repository.NewRepositories(db.DB)
	svc := services.NewServices(repos, changes, log)

	fetcher := enrichment.NewClient(cfg.EnrichmentConcurrency, cfg.EnrichmentTimeout, cfg.EnrichmentUserAgent)
	defer fetcher.Close()
	enricher := enrichment.NewService(repos.Enrichment, fetcher, changes, log.With("service", "enrichment"), enrichment.Config{
		Concurrency: cfg.EnrichmentConcurrency,
		Timeout:     cfg.EnrichmentTimeout,
	})

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		log.Fatal("Invalid TRUSTED_PROXIES", err)
	}

	// Add security middleware
	r.Use(middleware.LoggingMiddleware(log.With("component", "http")))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))

	// Add rate limiting in production
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware())
	}

	// Add recovery middleware
	r.Use(gin.Recovery())

	// Setup API routes
	api.SetupRoutes(r, api.Dependencies{
		Services:   svc,
		Enrichment: enricher,
		Drafts:     store,
		Subscriber: changes,
		Checks:     checks,
		Logger:     log,
	}, cfg)

	// request contexts end on shutdown so event streams let go
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelRequests)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown incomplete", err)
	}
	if err := enricher.Shutdown(shutdownCtx); err != nil {
		log.Error("Enrichment workers did not stop in time", err)
	}
	log.Info("Server stopped")
}
