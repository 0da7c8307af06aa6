package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
	"github.com/fairyhunter13/cv-match-scorer/internal/usecase"
)

type stubResultRepo struct {
	results map[string]domain.ScoreResult
}

func newStubResultRepo() *stubResultRepo {
	return &stubResultRepo{results: map[string]domain.ScoreResult{}}
}

func (r *stubResultRepo) Upsert(_ domain.Context, jobID string, res domain.ScoreResult) error {
	r.results[jobID] = res
	return nil
}

func (r *stubResultRepo) GetByJobID(_ domain.Context, jobID string) (domain.ScoreResult, error) {
	res, ok := r.results[jobID]
	if !ok {
		return domain.ScoreResult{}, domain.ErrNotFound
	}
	return res, nil
}

func TestResult_Fetch_NotFound(t *testing.T) {
	t.Parallel()
	svc := usecase.NewResultService(newStubJobRepo(), newStubResultRepo())
	status, _, _, err := svc.Fetch(context.Background(), "nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResult_Fetch_Queued(t *testing.T) {
	t.Parallel()
	jobs := newStubJobRepo()
	now := time.Now().UTC()
	jobs.jobs["job-1"] = domain.Job{ID: "job-1", Status: domain.JobQueued, CreatedAt: now, UpdatedAt: now}
	svc := usecase.NewResultService(jobs, newStubResultRepo())

	status, body, etag, err := svc.Fetch(context.Background(), "job-1", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "queued", body["status"])
	assert.NotEmpty(t, etag)
	assert.NotContains(t, body, "result")
}

func TestResult_Fetch_StaleJobFlipsToFailed(t *testing.T) {
	t.Parallel()
	jobs := newStubJobRepo()
	old := time.Now().UTC().Add(-10 * time.Minute)
	jobs.jobs["job-1"] = domain.Job{ID: "job-1", Status: domain.JobQueued, CreatedAt: old, UpdatedAt: old}
	svc := usecase.NewResultService(jobs, newStubResultRepo())

	status, body, _, err := svc.Fetch(context.Background(), "job-1", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, 0, body["total"])
	assert.Contains(t, body, "error")
	assert.Equal(t, domain.JobFailed, jobs.jobs["job-1"].Status)
}

func TestResult_Fetch_Completed(t *testing.T) {
	t.Parallel()
	jobs := newStubJobRepo()
	now := time.Now().UTC()
	jobs.jobs["job-1"] = domain.Job{ID: "job-1", Status: domain.JobCompleted, CreatedAt: now, UpdatedAt: now}
	results := newStubResultRepo()
	results.results["job-1"] = domain.ScoreResult{Total: 85, Classification: domain.ClassExcellent}
	svc := usecase.NewResultService(jobs, results)

	status, body, etag, err := svc.Fetch(context.Background(), "job-1", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", body["status"])
	res, ok := body["result"].(domain.ScoreResult)
	require.True(t, ok)
	assert.Equal(t, 85, res.Total)
	assert.NotEmpty(t, etag)
}

func TestResult_Fetch_ETagNotModified(t *testing.T) {
	t.Parallel()
	jobs := newStubJobRepo()
	now := time.Now().UTC()
	jobs.jobs["job-1"] = domain.Job{ID: "job-1", Status: domain.JobCompleted, CreatedAt: now, UpdatedAt: now}
	results := newStubResultRepo()
	results.results["job-1"] = domain.ScoreResult{Total: 42, Classification: domain.ClassAverage}
	svc := usecase.NewResultService(jobs, results)

	_, _, etag, err := svc.Fetch(context.Background(), "job-1", "")
	require.NoError(t, err)

	status, body, etag2, err := svc.Fetch(context.Background(), "job-1", etag)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, status)
	assert.Nil(t, body)
	assert.Equal(t, etag, etag2)
}

func TestResult_Fetch_ProcessingNotStale(t *testing.T) {
	t.Parallel()
	jobs := newStubJobRepo()
	jobs.jobs["job-1"] = domain.Job{
		ID:        "job-1",
		Status:    domain.JobProcessing,
		CreatedAt: time.Now().UTC().Add(-5 * time.Minute),
		UpdatedAt: time.Now().UTC(),
	}
	svc := usecase.NewResultService(jobs, newStubResultRepo())

	_, body, _, err := svc.Fetch(context.Background(), "job-1", "")
	require.NoError(t, err)
	assert.Equal(t, "processing", body["status"])
}
