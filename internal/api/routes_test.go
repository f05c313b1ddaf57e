package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/internal/analytics"
	"github.com/inferloop/healthtrack/internal/insights"
	"github.com/inferloop/healthtrack/internal/storage"
	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

type fakeMetrics struct {
	mu       sync.Mutex
	requests []string
	errors   []string
}

func (f *fakeMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, method+" "+path+" "+status)
}

func (f *fakeMetrics) RecordError(component, errorType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, component+":"+errorType)
}

func newTestRouter(t *testing.T, metrics MetricsRecorder) http.Handler {
	t.Helper()

	store := storage.NewMemoryStore(logrus.New())
	store.PutProfile(&models.UserProfile{UserID: "u1", Height: models.Float(170)})
	require.NoError(t, store.AddRecords(context.Background(), "u1", []models.MetricRecord{
		{Date: "2024-05-01", Weight: models.Float(70)},
	}))

	service := insights.NewService(store, store, analytics.DefaultConfig(), logrus.New())

	return NewRouter(Options{
		Version:      "test",
		Environment:  "test",
		Service:      service,
		Records:      store,
		Dependencies: map[string]interfaces.Storage{"records": store},
		Metrics:      metrics,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
		Logger: logrus.New(),
	}).Handler()
}

func TestRouterServesAPI(t *testing.T) {
	metrics := &fakeMetrics{}
	handler := newTestRouter(t, metrics)

	req := httptest.NewRequest("GET", "/api/v1/users/u1/records", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Body.String(), `"success":true`)

	assert.Equal(t, []string{"GET /api/v1/users/{user_id}/records 200"}, metrics.requests)
}

func TestRouterPropagatesRequestID(t *testing.T) {
	handler := newTestRouter(t, nil)

	req := httptest.NewRequest("GET", "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRouterErrorEnvelope(t *testing.T) {
	metrics := &fakeMetrics{}
	handler := newTestRouter(t, metrics)

	req := httptest.NewRequest("GET", "/api/v1/users/u1/predict", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INSUFFICIENT_DATA"`)
	assert.Equal(t, []string{"predict:insufficient_data"}, metrics.errors)
}

func TestRouterUnknownRoute(t *testing.T) {
	handler := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/v1/users/u1/records", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouterMetricsAndReadiness(t *testing.T) {
	handler := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# metrics"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"records"`)
}

func TestRouterCORSPreflight(t *testing.T) {
	handler := newTestRouter(t, nil)

	req := httptest.NewRequest("OPTIONS", "/api/v1/users/u1/records", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	metrics := &fakeMetrics{}
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(logrus.New(), metrics)(panicking).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.Equal(t, []string{"http:internal"}, metrics.errors)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", getClientIP(req))
}
