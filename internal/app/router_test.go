package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/cv-match-scorer/internal/adapter/httpserver"
	"github.com/fairyhunter13/cv-match-scorer/internal/app"
	"github.com/fairyhunter13/cv-match-scorer/internal/config"
	"github.com/fairyhunter13/cv-match-scorer/internal/usecase"
)

func newRouter() http.Handler {
	cfg := config.Config{AppEnv: "test", MaxUploadMB: 10, RateLimitPerMin: 1000, CORSAllowOrigins: "*"}
	ok := func(context.Context) error { return nil }
	srv := httpserver.NewServer(cfg, usecase.UploadService{}, usecase.EvaluateService{}, usecase.ResultService{}, ok, ok, ok)
	return app.BuildRouter(cfg, srv)
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"*"}, app.ParseOrigins(""))
	assert.Equal(t, []string{"*"}, app.ParseOrigins("*"))
	assert.Equal(t, []string{"*"}, app.ParseOrigins(" , ,"))
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		app.ParseOrigins(" https://a.example, https://b.example "))
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_UnknownRoute(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SecurityAndRequestHeaders(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
