// Package main is the entry point for the change-feed worker. It consumes
// attendance, feedback, and analytics frames from the event platform's
// change feed, maintains the per-event analytics aggregates, and runs the
// insight sweep and delivery-key cleanup jobs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/attendance"
	"github.com/gatherly/pulse/internal/comment"
	"github.com/gatherly/pulse/internal/config"
	"github.com/gatherly/pulse/internal/db"
	"github.com/gatherly/pulse/internal/dedup"
	"github.com/gatherly/pulse/internal/event"
	"github.com/gatherly/pulse/internal/ingest"
	"github.com/gatherly/pulse/internal/insights"
	"github.com/gatherly/pulse/internal/jobs"
	"github.com/gatherly/pulse/internal/middleware"
)

// metricsPort is where the worker exposes /metrics and /health.
const metricsPort = 9090

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Pulse Change-Feed Worker")
		fmt.Println()
		fmt.Println("Usage: feedworker [options]")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	eventRepo := event.NewPostgresRepository(conn)
	attendanceRepo := attendance.NewPostgresRepository(conn)
	commentRepo := comment.NewPostgresRepository(conn)
	analyticsRepo := analytics.NewPostgresRepository(conn, logger)
	insightsRepo := insights.NewPostgresRepository(conn)
	seenStore := dedup.NewPostgresStore(conn)

	aggregator := analytics.NewAggregator(analyticsRepo, eventRepo, attendanceRepo, logger)
	generator := insights.NewGenerator(analyticsRepo, commentRepo, attendanceRepo, insightsRepo, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	ingestMetrics := ingest.NewMetrics()
	if err := ingestMetrics.Register(registry); err != nil {
		logger.Error("failed to register ingest metrics", "error", err)
		os.Exit(1)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}

	// Feed client
	dispatcher := ingest.NewDispatcher(aggregator, generator, attendanceRepo, seenStore, ingestMetrics, logger)
	client, err := ingest.NewClient(ingest.DefaultConfig(cfg.FeedURL), dispatcher.Handler(ctx), logger)
	if err != nil {
		logger.Error("failed to create feed client", "error", err)
		os.Exit(1)
	}

	// Background jobs
	sweep := insights.NewSweepJob(insights.SweepConfig{
		Interval:   cfg.SweepInterval,
		Logger:     logger,
		JobMetrics: jobMetrics,
	}, analyticsRepo, generator)
	sweep.Start(ctx)
	defer sweep.Stop()

	go dedup.RunPeriodicCleanup(ctx, seenStore, cfg.CleanupInterval, cfg.DedupRetention)

	// Metrics and liveness endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})
	metricsServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", metricsPort),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		logger.Info("starting metrics server", "port", metricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Run the feed consumer until signalled.
	runErr := make(chan error, 1)
	go func() {
		logger.Info("starting feed consumer", "url", cfg.FeedURL)
		runErr <- client.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down worker...")
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("feed consumer stopped", "error", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server forced to shutdown", "error", err)
	}

	logger.Info("worker stopped")
}
