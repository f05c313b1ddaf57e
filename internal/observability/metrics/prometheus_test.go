package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrometheusMetrics(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "healthtrack", pm.GetConfig().Namespace)
	assert.NotNil(t, pm.GetRegistry())
}

func TestRecordAnalysis(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, logrus.New())
	require.NoError(t, err)

	pm.RecordAnalysis("forecast", "success", 20*time.Millisecond)
	pm.RecordAnalysis("forecast", "success", 30*time.Millisecond)
	pm.RecordAnalysis("forecast", "insufficient_data", time.Millisecond)
	pm.RecordAnomalies("weight", 2)
	pm.RecordDegradedSection("anomalies.body_fat")

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.analysisRequestsTotal.WithLabelValues("forecast", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.analysisRequestsTotal.WithLabelValues("forecast", "insufficient_data")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.anomaliesFlagged.WithLabelValues("weight")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.dashboardDegraded.WithLabelValues("anomalies.body_fat")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	pm, err := NewPrometheusMetrics(nil, logrus.New())
	require.NoError(t, err)

	pm.RecordHTTPRequest("GET", "/api/v1/insights/{user_id}/dashboard", "200", 5*time.Millisecond)
	pm.RecordStorageOperation("memory", "list_records", "success", time.Millisecond)

	rec := httptest.NewRecorder()
	pm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "healthtrack_server_http_requests_total"))
	assert.True(t, strings.Contains(body, "healthtrack_server_storage_operations_total"))
}
