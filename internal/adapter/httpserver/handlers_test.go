package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/cv-match-scorer/internal/adapter/httpserver"
	"github.com/fairyhunter13/cv-match-scorer/internal/app"
	"github.com/fairyhunter13/cv-match-scorer/internal/config"
	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
	"github.com/fairyhunter13/cv-match-scorer/internal/usecase"
)

type stubUploadRepo struct {
	uploads map[string]domain.Upload
	seq     int
}

func (r *stubUploadRepo) Create(_ domain.Context, u domain.Upload) (string, error) {
	r.seq++
	id := fmt.Sprintf("up-%d", r.seq)
	u.ID = id
	r.uploads[id] = u
	return id, nil
}

func (r *stubUploadRepo) Get(_ domain.Context, id string) (domain.Upload, error) {
	u, ok := r.uploads[id]
	if !ok {
		return domain.Upload{}, domain.ErrNotFound
	}
	return u, nil
}

func (r *stubUploadRepo) Count(_ domain.Context) (int64, error) { return int64(len(r.uploads)), nil }

func (r *stubUploadRepo) CountByType(_ domain.Context, _ string) (int64, error) { return 0, nil }

type stubJobRepo struct {
	jobs   map[string]domain.Job
	byIdem map[string]string
	seq    int
}

func (r *stubJobRepo) Create(_ domain.Context, j domain.Job) (string, error) {
	r.seq++
	id := fmt.Sprintf("job-%d", r.seq)
	j.ID = id
	r.jobs[id] = j
	if j.IdemKey != nil {
		r.byIdem[*j.IdemKey] = id
	}
	return id, nil
}

func (r *stubJobRepo) Get(_ domain.Context, id string) (domain.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return j, nil
}

func (r *stubJobRepo) UpdateStatus(_ domain.Context, id string, status domain.JobStatus, errMsg *string) error {
	j := r.jobs[id]
	j.Status = status
	if errMsg != nil {
		j.Error = *errMsg
	}
	j.UpdatedAt = time.Now().UTC()
	r.jobs[id] = j
	return nil
}

func (r *stubJobRepo) FindByIdempotencyKey(_ domain.Context, key string) (domain.Job, error) {
	id, ok := r.byIdem[key]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return r.jobs[id], nil
}

type stubResultRepo struct {
	results map[string]domain.ScoreResult
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

type stubQueue struct {
	payloads []domain.ScoreTaskPayload
	err      error
}

func (q *stubQueue) EnqueueScore(_ domain.Context, p domain.ScoreTaskPayload) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.payloads = append(q.payloads, p)
	return fmt.Sprintf("rec-%d", len(q.payloads)), nil
}

type testEnv struct {
	router  http.Handler
	uploads *stubUploadRepo
	jobs    *stubJobRepo
	results *stubResultRepo
	queue   *stubQueue
}

func newTestEnv() *testEnv {
	cfg := config.Config{
		AppEnv:           "test",
		MaxUploadMB:      10,
		RateLimitPerMin:  1000,
		CORSAllowOrigins: "*",
	}
	env := &testEnv{
		uploads: &stubUploadRepo{uploads: map[string]domain.Upload{}},
		jobs:    &stubJobRepo{jobs: map[string]domain.Job{}, byIdem: map[string]string{}},
		results: &stubResultRepo{results: map[string]domain.ScoreResult{}},
		queue:   &stubQueue{},
	}
	srv := httpserver.NewServer(
		cfg,
		usecase.NewUploadService(env.uploads),
		usecase.NewEvaluateService(env.jobs, env.queue, env.uploads),
		usecase.NewResultService(env.jobs, env.results),
		func(context.Context) error { return nil },
		func(context.Context) error { return nil },
		func(context.Context) error { return nil },
	)
	env.router = app.BuildRouter(cfg, srv)
	return env
}

func multipartBody(t *testing.T, files map[string]struct{ name, content string }) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for field, f := range files {
		fw, err := mw.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadHandler_Success(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	body, ct := multipartBody(t, map[string]struct{ name, content string }{
		"cv":              {"cv.txt", "Jane Doe\nPython developer with 5 years of experience."},
		"job_description": {"jd.txt", "Python developer wanted, 3+ years of experience."},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["cv_id"])
	assert.NotEmpty(t, resp["jd_id"])
	assert.NotEqual(t, resp["cv_id"], resp["jd_id"])

	cv, err := env.uploads.Get(context.Background(), resp["cv_id"])
	require.NoError(t, err)
	assert.Equal(t, domain.UploadTypeCV, cv.Type)
}

func TestUploadHandler_MissingField(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	body, ct := multipartBody(t, map[string]struct{ name, content string }{
		"cv": {"cv.txt", "some cv text"},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "job_description")
}

func TestUploadHandler_RejectsUnknownExtension(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	body, ct := multipartBody(t, map[string]struct{ name, content string }{
		"cv":              {"cv.exe", "mz fake binary"},
		"job_description": {"jd.txt", "text"},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file extension")
}

func TestUploadHandler_RejectsBinaryDocuments(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	body, ct := multipartBody(t, map[string]struct{ name, content string }{
		"cv":              {"cv.pdf", "%PDF-1.4 fake pdf content"},
		"job_description": {"jd.txt", "text"},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "converted to plain text")
}

func TestUploadHandler_RequiresMultipart(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodPost, "/v1/upload", strings.NewReader(`{"cv":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "multipart/form-data")
}

func seedUploads(t *testing.T, env *testEnv) (cvID, jdID string) {
	t.Helper()
	cvID, err := env.uploads.Create(context.Background(), domain.Upload{Type: domain.UploadTypeCV, Text: "cv text"})
	require.NoError(t, err)
	jdID, err = env.uploads.Create(context.Background(), domain.Upload{Type: domain.UploadTypeJD, Text: "jd text"})
	require.NoError(t, err)
	return cvID, jdID
}

func postEvaluate(env *testEnv, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateHandler_Success(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	cvID, jdID := seedUploads(t, env)

	rec := postEvaluate(env, fmt.Sprintf(`{"cv_id":%q,"jd_id":%q}`, cvID, jdID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["id"])
	assert.Equal(t, "queued", resp["status"])
	require.Len(t, env.queue.payloads, 1)
	assert.Equal(t, cvID, env.queue.payloads[0].CVID)
}

func TestEvaluateHandler_ValidationErrors(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	rec := postEvaluate(env, `{"cv_id":"only-one"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "jd_id")

	rec = postEvaluate(env, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid json")
}

func TestEvaluateHandler_ZeroSumWeights(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	cvID, jdID := seedUploads(t, env)

	body := fmt.Sprintf(`{"cv_id":%q,"jd_id":%q,"weights":{"semantic":0,"skills":0,"experience":0,"education":0}}`, cvID, jdID)
	rec := postEvaluate(env, body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "positive sum")
}

func TestEvaluateHandler_UnknownUpload(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	rec := postEvaluate(env, `{"cv_id":"nope","jd_id":"nope"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluateHandler_IdempotencyKeyReturnsSameJob(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	cvID, jdID := seedUploads(t, env)
	body := fmt.Sprintf(`{"cv_id":%q,"jd_id":%q}`, cvID, jdID)
	headers := map[string]string{"Idempotency-Key": "req-42"}

	first := postEvaluate(env, body, headers)
	second := postEvaluate(env, body, headers)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var r1, r2 map[string]string
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &r1))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &r2))
	assert.Equal(t, r1["id"], r2["id"])
	assert.Len(t, env.queue.payloads, 1)
}

func TestResultHandler_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/v1/result/missing", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultHandler_QueuedAndConditional(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	now := time.Now().UTC()
	env.jobs.jobs["job-1"] = domain.Job{ID: "job-1", Status: domain.JobQueued, CreatedAt: now, UpdatedAt: now}

	req := httptest.NewRequest(http.MethodGet, "/v1/result/job-1", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, rec.Body.String(), `"queued"`)

	req = httptest.NewRequest(http.MethodGet, "/v1/result/job-1", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestResultHandler_Completed(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	now := time.Now().UTC()
	env.jobs.jobs["job-1"] = domain.Job{ID: "job-1", Status: domain.JobCompleted, CreatedAt: now, UpdatedAt: now}
	env.results.results["job-1"] = domain.ScoreResult{
		Total:          82,
		Classification: domain.ClassExcellent,
		Candidate:      domain.Candidate{Name: "Jane Doe"},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/result/job-1", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ID     string             `json:"id"`
		Status string             `json:"status"`
		Result domain.ScoreResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 82, resp.Result.Total)
	assert.Equal(t, "Jane Doe", resp.Result.Candidate.Name)
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzHandler_DependencyDown(t *testing.T) {
	t.Parallel()
	cfg := config.Config{AppEnv: "test", MaxUploadMB: 10, RateLimitPerMin: 1000, CORSAllowOrigins: "*"}
	srv := httpserver.NewServer(
		cfg,
		usecase.UploadService{},
		usecase.EvaluateService{},
		usecase.ResultService{},
		func(context.Context) error { return nil },
		func(context.Context) error { return fmt.Errorf("redis down") },
		func(context.Context) error { return nil },
	)
	router := app.BuildRouter(cfg, srv)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis down")
}
