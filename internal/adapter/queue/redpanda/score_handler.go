package redpanda

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
	"github.com/fairyhunter13/cv-match-scorer/internal/observability"
	"github.com/fairyhunter13/cv-match-scorer/internal/scoring"
)

// RetryPolicy bounds retries of transient store failures while persisting a
// completed score.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  60 * time.Second,
	}
}

func (p RetryPolicy) backoff(ctx domain.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = p.MaxElapsedTime
	return backoff.WithContext(b, ctx)
}

// HandleScore processes one scoring task end to end: load both uploads, check
// the cache, run the engine on a miss, persist the result, and flip the job
// to completed. Store writes retry with exponential backoff so a flapping
// database does not fail the job.
func HandleScore(
	ctx domain.Context,
	jobs domain.JobRepository,
	uploads domain.UploadRepository,
	results domain.ResultRepository,
	cache domain.ScoreCache,
	eng *scoring.Engine,
	policy RetryPolicy,
	payload domain.ScoreTaskPayload,
) error {
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("job_id", payload.JobID),
		slog.String("cv_id", payload.CVID),
		slog.String("jd_id", payload.JDID),
	)

	observability.StartProcessingJob("score")
	if err := jobs.UpdateStatus(ctx, payload.JobID, domain.JobProcessing, nil); err != nil {
		observability.FailJob("score")
		return fmt.Errorf("mark processing: %w", err)
	}

	cv, err := uploads.Get(ctx, payload.CVID)
	if err != nil {
		return failJob(ctx, jobs, lg, payload.JobID, fmt.Errorf("load cv: %w", err))
	}
	jd, err := uploads.Get(ctx, payload.JDID)
	if err != nil {
		return failJob(ctx, jobs, lg, payload.JobID, fmt.Errorf("load jd: %w", err))
	}

	weights := domain.DefaultWeights()
	if payload.Weights != nil {
		weights = *payload.Weights
	}
	if weights.Sum() <= 0 {
		return failJob(ctx, jobs, lg, payload.JobID, fmt.Errorf("%w: weights must have a positive sum", domain.ErrInvalidArgument))
	}
	req := domain.Requirements{}
	if payload.Requirements != nil {
		req = *payload.Requirements
	}

	var res domain.ScoreResult
	key := cacheKey(cv.Text, jd.Text, weights, req)
	cached, hit, cacheErr := lookupCache(ctx, cache, key)
	observability.ObserveCacheLookup(hit)
	if cacheErr != nil {
		lg.Warn("score cache lookup failed", slog.Any("error", cacheErr))
	}
	if hit {
		lg.Info("score served from cache", slog.String("cache_key", key))
		res = cached
	} else {
		res = eng.Score(cv.Text, jd.Text, req, weights)
		if cache != nil {
			if err := cache.Set(ctx, key, res); err != nil {
				lg.Warn("score cache store failed", slog.Any("error", err))
			}
		}
	}

	persist := func() error {
		return results.Upsert(ctx, payload.JobID, res)
	}
	if err := backoff.Retry(persist, policy.backoff(ctx)); err != nil {
		return failJob(ctx, jobs, lg, payload.JobID, fmt.Errorf("persist result: %w", err))
	}

	complete := func() error {
		return jobs.UpdateStatus(ctx, payload.JobID, domain.JobCompleted, nil)
	}
	if err := backoff.Retry(complete, policy.backoff(ctx)); err != nil {
		return failJob(ctx, jobs, lg, payload.JobID, fmt.Errorf("mark completed: %w", err))
	}

	observability.CompleteJob("score")
	observability.ObserveScore(res.Total, res.Classification)
	lg.Info("score task completed",
		slog.Int("total", res.Total),
		slog.String("classification", res.Classification),
		slog.Bool("cache_hit", hit),
	)
	return nil
}

func lookupCache(ctx domain.Context, cache domain.ScoreCache, key string) (domain.ScoreResult, bool, error) {
	if cache == nil {
		return domain.ScoreResult{}, false, nil
	}
	return cache.Get(ctx, key)
}

func failJob(ctx domain.Context, jobs domain.JobRepository, lg *slog.Logger, jobID string, err error) error {
	lg.Error("score task failed", slog.Any("error", err))
	msg := err.Error()
	if uErr := jobs.UpdateStatus(ctx, jobID, domain.JobFailed, &msg); uErr != nil {
		lg.Error("mark failed", slog.Any("error", uErr))
	}
	observability.FailJob("score")
	return err
}

// cacheKey hashes all scoring inputs. Scoring is pure, so the hash fully
// determines the result.
func cacheKey(cvText, jdText string, w domain.Weights, req domain.Requirements) string {
	h := sha256.New()
	h.Write([]byte(cvText))
	h.Write([]byte{0})
	h.Write([]byte(jdText))
	h.Write([]byte{0})
	wb, _ := json.Marshal(w)
	h.Write(wb)
	h.Write([]byte{0})
	rb, _ := json.Marshal(req)
	h.Write(rb)
	return "score:" + hex.EncodeToString(h.Sum(nil))
}
