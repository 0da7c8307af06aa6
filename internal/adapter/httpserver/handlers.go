package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/cv-match-scorer/internal/config"
	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
	"github.com/fairyhunter13/cv-match-scorer/internal/usecase"
	"github.com/fairyhunter13/cv-match-scorer/pkg/textx"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Uploads    usecase.UploadService
	Evaluate   usecase.EvaluateService
	Results    usecase.ResultService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	KafkaCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, uploads usecase.UploadService, eval usecase.EvaluateService, results usecase.ResultService, dbCheck, redisCheck, kafkaCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Uploads: uploads, Evaluate: eval, Results: results, DBCheck: dbCheck, RedisCheck: redisCheck, KafkaCheck: kafkaCheck}
}

// allowedExt enforces an allowlist for uploads. Only .txt is decodable here;
// .pdf/.docx must be converted to text by the upstream extraction boundary
// before upload, so they are rejected with a pointed message.
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".pdf") || strings.HasSuffix(n, ".docx")
}

func allowedMIMEFor(m string, filename string) bool {
	m = strings.ToLower(m)
	// For .txt files, accept any text/* since some detectors misclassify rich text
	if strings.HasSuffix(strings.ToLower(filename), ".txt") && strings.HasPrefix(m, "text/") {
		return true
	}
	if strings.HasPrefix(m, "text/plain") { // allow parameters such as charset
		return true
	}
	return m == "application/pdf" || m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// acceptsJSON rejects requests that negotiate away from JSON.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	if a := r.Header.Get("Accept"); a != "" && a != "*/*" && !strings.Contains(a, "application/json") {
		writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a}}})
		return false
	}
	return true
}

// UploadHandler handles multipart upload of the cv and job_description files.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes*2)
		if err := r.ParseMultipartForm(maxBytes * 2); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "payload too large", Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB}}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		cvText, cvName, err := s.readTextPart(r, "cv")
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "cv"})
			return
		}
		jdText, jdName, err := s.readTextPart(r, "job_description")
		if err != nil {
			writeError(w, r, err, map[string]string{"field": "job_description"})
			return
		}

		cvID, jdID, err := s.Uploads.Ingest(r.Context(), cvText, jdText, cvName, jdName)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"cv_id": cvID, "jd_id": jdID})
	}
}

// readTextPart reads one multipart file field and returns its sanitized text.
func (s *Server) readTextPart(r *http.Request, field string) (text, name string, err error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s file required", domain.ErrInvalidArgument, field)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s read: %v", domain.ErrInvalidArgument, field, err)
	}
	if !allowedExt(header.Filename) {
		return "", "", fmt.Errorf("%w: unsupported file extension", domain.ErrInvalidArgument)
	}
	detected := mimetype.Detect(data).String()
	if !allowedMIMEFor(detected, header.Filename) {
		return "", "", fmt.Errorf("%w: unsupported media type %s", domain.ErrInvalidArgument, detected)
	}
	ext := strings.ToLower(header.Filename)
	if strings.HasSuffix(ext, ".pdf") || strings.HasSuffix(ext, ".docx") {
		// Binary decoding is the extraction boundary's job, not ours.
		return "", "", fmt.Errorf("%w: %s must be converted to plain text before upload", domain.ErrInvalidArgument, header.Filename)
	}
	return textx.SanitizeText(string(data)), header.Filename, nil
}

type evaluateRequest struct {
	CVID         string               `json:"cv_id" validate:"required"`
	JDID         string               `json:"jd_id" validate:"required"`
	Weights      *domain.Weights      `json:"weights,omitempty"`
	Requirements *domain.Requirements `json:"requirements,omitempty"`
}

// EvaluateHandler validates the request and enqueues a scoring job.
func (s *Server) EvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}
		if req.Weights != nil && req.Weights.Sum() <= 0 {
			writeError(w, r, fmt.Errorf("%w: weights must have a positive sum", domain.ErrInvalidArgument), map[string]string{"field": "weights"})
			return
		}
		jobID, err := s.Evaluate.Enqueue(r.Context(), req.CVID, req.JDID, req.Weights, req.Requirements, r.Header.Get("Idempotency-Key"))
		if err != nil {
			writeError(w, r, fmt.Errorf("enqueue: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": jobID, "status": string(domain.JobQueued)})
	}
}

// ResultHandler returns job status and the score result when completed.
func (s *Server) ResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		status, res, etag, err := s.Results.Fetch(r.Context(), id, r.Header.Get("If-None-Match"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("ETag", etag)
		if status != http.StatusNotModified {
			writeJSON(w, status, res)
		} else {
			w.WriteHeader(status)
		}
	}
}

// ReadyzHandler returns a readiness handler probing DB, Redis, and Kafka.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 3)
		probe := func(name string, fn func(context.Context) error) {
			if fn == nil {
				return
			}
			if err := fn(ctx); err != nil {
				checks = append(checks, check{Name: name, OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: name, OK: true})
			}
		}
		probe("db", s.DBCheck)
		probe("redis", s.RedisCheck)
		probe("kafka", s.KafkaCheck)
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

// OpenAPIServe serves api/openapi.yaml if present.
func (s *Server) OpenAPIServe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile("api/openapi.yaml")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
