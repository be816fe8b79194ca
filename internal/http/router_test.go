package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/internal/platform/metrics"
	"keystone/internal/platform/middleware"
	"keystone/pkg/requestcontext"
)

type pingRegistrar struct{}

func (pingRegistrar) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"identity":"` + requestcontext.Identity(r.Context()) + `"}`))
	})
}

type fixedValidator string

func (f fixedValidator) ValidateIdentity(string) (string, error) { return string(f), nil }

func newRouter(checks map[string]HealthCheck) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Options{
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Identity:       fixedValidator("ada@example.com"),
		AllowedOrigins: []string{"http://localhost:3000"},
		HealthChecks:   checks,
	}, pingRegistrar{})
}

func TestRouterMountsRegistrarsBehindIdentity(t *testing.T) {
	h := newRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"identity":"ada@example.com"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(map[string]HealthCheck{
		"state": func(context.Context) error { return nil },
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"state":"ok"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newRouter(map[string]HealthCheck{
		"state": func(context.Context) error { return errors.New("down") },
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestMetricsEndpointExposesHTTPMetrics(t *testing.T) {
	h := newRouter(nil)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "keystone_http_request_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
