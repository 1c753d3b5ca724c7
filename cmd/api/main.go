// Package main is the entry point for the Pulse analytics API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/api"
	"github.com/gatherly/pulse/internal/attendance"
	"github.com/gatherly/pulse/internal/auth"
	"github.com/gatherly/pulse/internal/comment"
	"github.com/gatherly/pulse/internal/config"
	"github.com/gatherly/pulse/internal/db"
	"github.com/gatherly/pulse/internal/event"
	"github.com/gatherly/pulse/internal/feedback"
	"github.com/gatherly/pulse/internal/health"
	"github.com/gatherly/pulse/internal/insights"
	"github.com/gatherly/pulse/internal/middleware"
	"github.com/gatherly/pulse/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Pulse Analytics API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	ctx := context.Background()

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "pulse-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: "otlp-" + cfg.TracingProtocol,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env == config.DefaultEnv,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Database
	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Repositories
	eventRepo := event.NewPostgresRepository(conn)
	attendanceRepo := attendance.NewPostgresRepository(conn)
	commentRepo := comment.NewPostgresRepository(conn)
	feedbackRepo := feedback.NewPostgresRepository(conn)
	analyticsRepo := analytics.NewPostgresRepository(conn, logger)
	insightsRepo := insights.NewPostgresRepository(conn)

	aggregator := analytics.NewAggregator(analyticsRepo, eventRepo, attendanceRepo, logger)
	generator := insights.NewGenerator(analyticsRepo, commentRepo, attendanceRepo, insightsRepo, logger)

	// Auth. Dual-key validation while a secret rotation is in flight.
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	if cfg.JWTSecretPrevious != "" {
		jwtService = auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTSecretPrevious)
	}

	// Rate limiting: Redis-backed when configured, in-memory otherwise.
	var rlStore middleware.RateLimitStore
	var redisChecker api.HealthChecker
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		rlStore = middleware.NewRedisRateLimitStore(redisClient)
		redisChecker = health.NewRedisChecker(redisClient)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				memStore.Cleanup()
			}
		}()
		rlStore = memStore
	}
	rlConfig := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitPerMinute,
		WindowDuration:    time.Minute,
	}

	// Metrics
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register HTTP metrics", "error", err)
		os.Exit(1)
	}

	// Handlers
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:    health.NewDBChecker(conn),
		RedisChecker: redisChecker,
		FeedChecker:  health.NewFeedChecker(cfg.FeedURL),
	})
	server := api.NewServer(
		api.NewEventHandlers(eventRepo),
		api.NewAttendanceHandlers(attendanceRepo, eventRepo, aggregator, generator),
		api.NewFeedbackHandlers(feedbackRepo, commentRepo, eventRepo, aggregator),
		api.NewInsightHandlers(analyticsRepo, insightsRepo, generator),
		healthHandlers,
	)
	mux := server.Routes()

	// Event routes require a valid access token; probes stay open.
	authMW := middleware.Auth(jwtService)
	handler := requireAuthFor("/events", authMW)(mux)

	// Middleware chain, outermost first:
	// RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS -> RateLimiter -> Auth
	handler = middleware.RateLimiter(rlStore, rlConfig, middleware.ActorKeyFunc())(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowCredentials: true,
		MaxAge:           3600,
	})(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing("pulse-api")(handler)
	handler = middleware.RequestID(handler)

	if cfg.Env == config.DefaultEnv {
		handler = middleware.Profiling(middleware.ProfilingConfig{
			Enabled:     true,
			Environment: cfg.Env,
		})(handler)
	}

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	root.Handle("/", handler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer provider", "error", err)
	}

	logger.Info("server stopped")
}

// requireAuthFor applies authMW only to requests under the given path prefix.
func requireAuthFor(prefix string, authMW func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authed := authMW(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
				authed.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
