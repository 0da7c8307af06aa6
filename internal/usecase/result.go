package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
	"github.com/fairyhunter13/cv-match-scorer/internal/observability"
)

// staleAfter is how long a queued/processing job may sit before the result
// endpoint flips it to failed.
const staleAfter = 2 * time.Minute

// ResultService provides read access to score results and assembles the API
// response envelope including ETag logic and error mapping.
type ResultService struct {
	Jobs    domain.JobRepository
	Results domain.ResultRepository
}

// NewResultService constructs a ResultService with the given repositories.
func NewResultService(j domain.JobRepository, r domain.ResultRepository) ResultService {
	return ResultService{Jobs: j, Results: r}
}

// Fetch returns the HTTP status code, response body, and ETag for the given
// job id. It implements conditional responses (304 Not Modified) based on
// If-None-Match and returns proper shapes for queued/processing/failed states.
func (s ResultService) Fetch(ctx domain.Context, id, ifNoneMatch string) (int, map[string]any, string, error) {
	lg := observability.LoggerFromContext(ctx)
	job, err := s.Jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return http.StatusNotFound, nil, "", fmt.Errorf("%w: job not found", domain.ErrNotFound)
		}
		return http.StatusInternalServerError, nil, "", err
	}
	if job.Status != domain.JobCompleted {
		now := time.Now().UTC()
		stale := false
		if job.Status == domain.JobQueued && now.Sub(job.CreatedAt) > staleAfter {
			stale = true
		}
		if job.Status == domain.JobProcessing && now.Sub(job.UpdatedAt) > staleAfter {
			stale = true
		}
		if stale {
			lg.Warn("job marked as stale", "job_id", id, "status", string(job.Status), "age", now.Sub(job.CreatedAt).String())
			msg := "timeout: job exceeded " + staleAfter.String()
			_ = s.Jobs.UpdateStatus(ctx, id, domain.JobFailed, &msg)
			job.Status = domain.JobFailed
			job.Error = msg
		}
		m := map[string]any{"id": id, "status": string(job.Status)}
		if job.Status == domain.JobFailed {
			// Failed jobs carry a zero score and no breakdown.
			m["error"] = map[string]any{"message": job.Error}
			m["total"] = 0
		}
		etag := makeETag(m)
		if etag == ifNoneMatch {
			return http.StatusNotModified, nil, etag, nil
		}
		return http.StatusOK, m, etag, nil
	}
	res, err := s.Results.GetByJobID(ctx, id)
	if err != nil {
		return http.StatusInternalServerError, nil, "", err
	}
	m := map[string]any{
		"id":     id,
		"status": string(domain.JobCompleted),
		"result": res,
	}
	etag := makeETag(m)
	if etag == ifNoneMatch {
		return http.StatusNotModified, nil, etag, nil
	}
	return http.StatusOK, m, etag, nil
}

func makeETag(v any) string {
	b, _ := json.Marshal(v)
	s := sha256.Sum256(b)
	return hex.EncodeToString(s[:])
}
