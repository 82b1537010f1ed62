// Package main is the entry point for the API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/loopcrew/loopfeed/internal/api"
	"github.com/loopcrew/loopfeed/internal/config"
	"github.com/loopcrew/loopfeed/internal/health"
	"github.com/loopcrew/loopfeed/internal/middleware"
	"github.com/loopcrew/loopfeed/internal/recommend"
	"github.com/loopcrew/loopfeed/internal/store"
	"github.com/loopcrew/loopfeed/internal/tracing"
)

// serviceName identifies this service in traces and logs.
const serviceName = "loopfeed-api"

// cleanupInterval is how often the in-memory rate limit store drops expired
// buckets. Chosen as a few multiples of the one-minute limit windows.
const cleanupInterval = 5 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Loopfeed API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	// Initialize logger
	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Initialize tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: cfg.TracingInsecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Metrics registry shared by the HTTP layer and the ranking engine
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}
	engineMetrics := recommend.NewMetrics()
	if err := engineMetrics.Register(registry); err != nil {
		logger.Error("failed to register engine metrics", "error", err)
		os.Exit(1)
	}

	// Backing stores: postgres when DATABASE_URL is set, in-memory otherwise
	var (
		interactions store.InteractionStore
		catalog      store.ContentCatalog
		socialGraph  store.SocialGraph
		dbChecker    api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			cancel()
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		cancel()

		interactions = store.NewPostgresInteractionStore(db)
		catalog = store.NewPostgresCatalog(db)
		socialGraph = store.NewPostgresGraph(db)
		dbChecker = health.NewDBChecker(db)
		logger.Info("using postgres stores")
	} else {
		interactions = store.NewInMemoryInteractionStore()
		catalog = store.NewInMemoryCatalog()
		socialGraph = store.NewInMemoryGraph()
		logger.Info("DATABASE_URL not set, using in-memory stores")
	}

	// Rate limit store: redis when configured, in-memory otherwise
	var (
		rateLimitStore middleware.RateLimitStore
		redisChecker   api.HealthChecker
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient, logger, httpMetrics)
		redisChecker = health.NewRedisChecker(redisClient)
		logger.Info("using redis rate limit store", "addr", cfg.RedisAddr)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		rateLimitStore = memStore
		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
		logger.Info("REDIS_ADDR not set, using in-memory rate limit store")
	}

	// Ranking weights, with optional calibration file overrides
	weights, err := recommend.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, using default weights", "error", err)
	}

	service := recommend.NewService(interactions, catalog, socialGraph, recommend.ServiceConfig{
		Weights:      weights,
		Logger:       logger,
		Metrics:      engineMetrics,
		QueryTimeout: time.Duration(cfg.QueryTimeoutMS) * time.Millisecond,
	})

	recommendationHandlers := api.NewRecommendationHandlers(service, logger)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:    dbChecker,
		RedisChecker: redisChecker,
	})

	rateLimitConfig := middleware.DefaultGlobalLimit()
	if cfg.RateLimitPerMinute > 0 {
		rateLimitConfig.RequestsPerWindow = cfg.RateLimitPerMinute
	}

	// Recommendation routes fan out to several store queries per call, so
	// they carry their own tighter per-viewer limit class on top of the
	// per-IP global limit.
	recommendLimit := middleware.RateLimiter(rateLimitStore, middleware.DefaultRecommendationLimit(), middleware.ViewerKeyFunc(), httpMetrics)

	mux := http.NewServeMux()
	recommendationHandlers.RegisterRoutes(mux, recommendLimit)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Apply middleware: RequestID -> Tracing -> Logging -> RateLimiter -> HTTPMetrics
	handler := middleware.RequestID(
		middleware.Tracing(serviceName)(
			middleware.Logging(logger)(
				middleware.RateLimiter(rateLimitStore, rateLimitConfig, middleware.IPKeyFunc(), httpMetrics)(
					middleware.HTTPMetrics(httpMetrics)(mux)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer provider", "error", err)
	}

	logger.Info("server stopped")
}
