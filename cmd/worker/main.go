// Command worker consumes scoring jobs from the queue and persists results.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairyhunter13/cv-match-scorer/internal/adapter/cache/rediscache"
	"github.com/fairyhunter13/cv-match-scorer/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/cv-match-scorer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/cv-match-scorer/internal/config"
	"github.com/fairyhunter13/cv-match-scorer/internal/observability"
	"github.com/fairyhunter13/cv-match-scorer/internal/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	upRepo := postgres.NewUploadRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)
	resRepo := postgres.NewResultRepo(pool)

	scoreCache := rediscache.New(cfg.RedisAddr, cfg.RedisDB, cfg.ScoreCacheTTL)
	defer func() { _ = scoreCache.Close() }()

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup,
		jobRepo, upRepo, resRepo, scoreCache, scoring.NewEngine(),
		redpanda.ConsumerOptions{
			MinWorkers: cfg.WorkerPoolMin,
			MaxWorkers: cfg.WorkerPoolMax,
			RetryPolicy: redpanda.RetryPolicy{
				InitialInterval: cfg.RetryInitialInterval,
				MaxInterval:     cfg.RetryMaxInterval,
				MaxElapsedTime:  cfg.RetryMaxElapsedTime,
			},
		})
	if err != nil {
		slog.Error("queue consumer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = consumer.Close() }()

	// Expose worker metrics separately from the API server.
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerMetricsPort),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker metrics server starting", slog.Int("port", cfg.WorkerMetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", slog.Any("error", err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()
	}()

	slog.Info("worker starting", slog.String("group", cfg.ConsumerGroup))
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer stopped", slog.Any("error", err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancelShutdown()
	_ = metricsSrv.Shutdown(shutdownCtx)
}
