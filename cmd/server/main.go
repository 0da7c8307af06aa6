// Command server starts the CV match scorer HTTP API.
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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/cv-match-scorer/internal/adapter/cache/rediscache"
	httpserver "github.com/fairyhunter13/cv-match-scorer/internal/adapter/httpserver"
	"github.com/fairyhunter13/cv-match-scorer/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/cv-match-scorer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/cv-match-scorer/internal/app"
	"github.com/fairyhunter13/cv-match-scorer/internal/config"
	"github.com/fairyhunter13/cv-match-scorer/internal/observability"
	"github.com/fairyhunter13/cv-match-scorer/internal/usecase"
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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	upRepo := postgres.NewUploadRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)
	resRepo := postgres.NewResultRepo(pool)

	if cfg.DataRetentionDays > 0 {
		cleanupSvc := postgres.NewCleanupService(pool, cfg.DataRetentionDays)
		go cleanupSvc.RunPeriodic(ctx, cfg.CleanupInterval)
		slog.Info("cleanup service started",
			slog.Int("retention_days", cfg.DataRetentionDays),
			slog.Duration("interval", cfg.CleanupInterval))
	}

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("queue producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = producer.Close() }()

	// Redis is only probed here; the cache itself lives in the worker.
	scoreCache := rediscache.New(cfg.RedisAddr, cfg.RedisDB, cfg.ScoreCacheTTL)
	defer func() { _ = scoreCache.Close() }()

	uploadSvc := usecase.NewUploadService(upRepo)
	evalSvc := usecase.NewEvaluateService(jobRepo, producer, upRepo)
	resultSvc := usecase.NewResultService(jobRepo, resRepo)

	srv := httpserver.NewServer(cfg, uploadSvc, evalSvc, resultSvc,
		func(ctx context.Context) error { return pool.Ping(ctx) },
		scoreCache.Ping,
		producer.Ping,
	)
	handler := otelhttp.NewHandler(app.BuildRouter(cfg, srv), "http.server")

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
