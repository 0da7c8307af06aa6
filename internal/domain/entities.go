// Package domain holds the core entities, error taxonomy, and ports of the
// CV match scorer. It stays free of transport, storage, and queue concerns.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrInternal        = errors.New("internal error")
)

// UploadType enumerates upload types
const (
	UploadTypeCV = "cv"
	UploadTypeJD = "job_description"
)

// Upload represents stored plain text and metadata for a CV or a job
// description. Text is sanitized UTF-8; binary decoding happens before
// ingestion and is never this service's concern.
type Upload struct {
	ID        string
	Type      string
	Text      string
	Filename  string
	MIME      string
	Size      int64
	CreatedAt time.Time
}

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job tracks one scoring request through the queue.
type Job struct {
	ID        string
	Status    JobStatus
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
	CVID      string
	JDID      string
	IdemKey   *string
}

// Repositories (ports)

type UploadRepository interface {
	Create(ctx Context, u Upload) (string, error)
	Get(ctx Context, id string) (Upload, error)
	Count(ctx Context) (int64, error)
	CountByType(ctx Context, uploadType string) (int64, error)
}

type JobRepository interface {
	Create(ctx Context, j Job) (string, error)
	UpdateStatus(ctx Context, id string, status JobStatus, errMsg *string) error
	Get(ctx Context, id string) (Job, error)
	FindByIdempotencyKey(ctx Context, key string) (Job, error)
}

type ResultRepository interface {
	Upsert(ctx Context, jobID string, r ScoreResult) error
	GetByJobID(ctx Context, jobID string) (ScoreResult, error)
}

// Queue (port)

type Queue interface {
	EnqueueScore(ctx Context, payload ScoreTaskPayload) (string, error)
}

// ScoreCache (port). Scoring is a pure function of its inputs, so cached
// results never go stale; the TTL only bounds memory.
type ScoreCache interface {
	Get(ctx Context, key string) (ScoreResult, bool, error)
	Set(ctx Context, key string, r ScoreResult) error
}

// ScoreTaskPayload carries everything the worker needs to score one job.
type ScoreTaskPayload struct {
	JobID        string        `json:"job_id"`
	CVID         string        `json:"cv_id"`
	JDID         string        `json:"jd_id"`
	Weights      *Weights      `json:"weights,omitempty"`
	Requirements *Requirements `json:"requirements,omitempty"`
}

// Context is an alias so the domain package does not import transport-level
// packages; adapters pass context.Context through unchanged.
type Context = context.Context
