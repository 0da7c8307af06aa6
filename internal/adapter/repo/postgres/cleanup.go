package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CleanupService enforces the data retention policy by deleting old jobs,
// their results, and uploads no job references anymore.
type CleanupService struct {
	Pool          *pgxpool.Pool
	RetentionDays int
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(pool *pgxpool.Pool, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &CleanupService{Pool: pool, RetentionDays: retentionDays}
}

// CleanupOldData removes rows older than the retention period in one
// transaction.
func (s *CleanupService) CleanupOldData(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays)

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("op=cleanup.begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	resTag, err := tx.Exec(ctx, `DELETE FROM results WHERE job_id IN (SELECT id FROM jobs WHERE created_at < $1)`, cutoff)
	if err != nil {
		return fmt.Errorf("op=cleanup.results: %w", err)
	}
	jobTag, err := tx.Exec(ctx, `DELETE FROM jobs WHERE created_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("op=cleanup.jobs: %w", err)
	}
	upTag, err := tx.Exec(ctx, `DELETE FROM uploads WHERE created_at < $1 AND id NOT IN (SELECT cv_id FROM jobs UNION SELECT jd_id FROM jobs)`, cutoff)
	if err != nil {
		return fmt.Errorf("op=cleanup.uploads: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("op=cleanup.commit: %w", err)
	}

	slog.Info("data cleanup completed",
		slog.Int64("deleted_jobs", jobTag.RowsAffected()),
		slog.Int64("deleted_results", resTag.RowsAffected()),
		slog.Int64("deleted_uploads", upTag.RowsAffected()),
		slog.Time("cutoff", cutoff),
	)
	return nil
}

// RunPeriodic runs cleanup immediately and then on every tick until the
// context is cancelled.
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.CleanupOldData(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if err := s.CleanupOldData(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}
