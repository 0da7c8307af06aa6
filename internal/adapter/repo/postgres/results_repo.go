package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
)

// ResultRepo persists and loads score results from PostgreSQL. The breakdown
// and candidate summary are stored as JSONB; results are immutable values,
// so the row is simply replaced on conflict.
type ResultRepo struct{ Pool PgxPool }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p PgxPool) *ResultRepo { return &ResultRepo{Pool: p} }

// Upsert inserts or updates a result by job_id.
func (r *ResultRepo) Upsert(ctx domain.Context, jobID string, res domain.ScoreResult) error {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Upsert")
	defer span.End()
	breakdown, err := json.Marshal(res.Breakdown)
	if err != nil {
		return fmt.Errorf("op=result.upsert: marshal breakdown: %w", err)
	}
	candidate, err := json.Marshal(res.Candidate)
	if err != nil {
		return fmt.Errorf("op=result.upsert: marshal candidate: %w", err)
	}
	q := `INSERT INTO results (job_id, total, classification, breakdown, candidate, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (job_id)
	DO UPDATE SET total=EXCLUDED.total, classification=EXCLUDED.classification, breakdown=EXCLUDED.breakdown, candidate=EXCLUDED.candidate`
	_, err = r.Pool.Exec(ctx, q, jobID, res.Total, res.Classification, breakdown, candidate, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=result.upsert: %w", err)
	}
	return nil
}

// GetByJobID loads a result by its job_id.
func (r *ResultRepo) GetByJobID(ctx domain.Context, jobID string) (domain.ScoreResult, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.GetByJobID")
	defer span.End()
	q := `SELECT total, classification, breakdown, candidate FROM results WHERE job_id=$1`
	row := r.Pool.QueryRow(ctx, q, jobID)
	var res domain.ScoreResult
	var breakdown, candidate []byte
	if err := row.Scan(&res.Total, &res.Classification, &breakdown, &candidate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ScoreResult{}, fmt.Errorf("op=result.get: %w", domain.ErrNotFound)
		}
		return domain.ScoreResult{}, fmt.Errorf("op=result.get: %w", err)
	}
	if err := json.Unmarshal(breakdown, &res.Breakdown); err != nil {
		return domain.ScoreResult{}, fmt.Errorf("op=result.get: unmarshal breakdown: %w", err)
	}
	if err := json.Unmarshal(candidate, &res.Candidate); err != nil {
		return domain.ScoreResult{}, fmt.Errorf("op=result.get: unmarshal candidate: %w", err)
	}
	return res, nil
}
