// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"time"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
)

// EvaluateService orchestrates job creation and queueing for scoring.
type EvaluateService struct {
	Jobs    domain.JobRepository
	Queue   domain.Queue
	Uploads domain.UploadRepository
}

// NewEvaluateService constructs an EvaluateService with its dependencies.
func NewEvaluateService(j domain.JobRepository, q domain.Queue, u domain.UploadRepository) EvaluateService {
	return EvaluateService{Jobs: j, Queue: q, Uploads: u}
}

// Enqueue validates inputs, creates a job, and enqueues the scoring task.
// Weights default when nil; a supplied weight set must have a positive sum
// since the engine normalizes by it.
func (s EvaluateService) Enqueue(ctx domain.Context, cvID, jdID string, weights *domain.Weights, req *domain.Requirements, idemKey string) (string, error) {
	if cvID == "" || jdID == "" {
		return "", fmt.Errorf("%w: ids required", domain.ErrInvalidArgument)
	}
	if weights != nil && weights.Sum() <= 0 {
		return "", fmt.Errorf("%w: weights must have a positive sum", domain.ErrInvalidArgument)
	}
	// Fail fast on dangling ids instead of letting the worker discover them.
	if _, err := s.Uploads.Get(ctx, cvID); err != nil {
		return "", fmt.Errorf("cv upload: %w", err)
	}
	if _, err := s.Uploads.Get(ctx, jdID); err != nil {
		return "", fmt.Errorf("jd upload: %w", err)
	}
	// Idempotency: if provided, try to find an existing job
	if idemKey != "" {
		if j, err := s.Jobs.FindByIdempotencyKey(ctx, idemKey); err == nil && j.ID != "" {
			return j.ID, nil
		}
	}
	j := domain.Job{Status: domain.JobQueued, CVID: cvID, JDID: jdID, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	if idemKey != "" {
		j.IdemKey = &idemKey
	}
	jobID, err := s.Jobs.Create(ctx, j)
	if err != nil {
		return "", err
	}
	payload := domain.ScoreTaskPayload{JobID: jobID, CVID: cvID, JDID: jdID, Weights: weights, Requirements: req}
	if _, err := s.Queue.EnqueueScore(ctx, payload); err != nil {
		_ = s.Jobs.UpdateStatus(ctx, jobID, domain.JobFailed, ptr("enqueue failed"))
		return "", err
	}
	return jobID, nil
}

func ptr(s string) *string { return &s }
