// Package observability provides logging, metrics, and tracing.
//
// It integrates slog structured logging, Prometheus metrics, and
// OpenTelemetry tracing for the server and worker processes.
package observability

import (
	"log/slog"
	"os"

	"github.com/fairyhunter13/cv-match-scorer/internal/config"
)

// SetupLogger configures a JSON slog logger with environment fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
	return logger
}
