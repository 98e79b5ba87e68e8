package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.New("mch", prometheus.NewRegistry())
}

func TestRecordHTTPRequest(t *testing.T) {
	m := newTestMetrics()

	m.RecordHTTPRequest(http.MethodGet, "/api/v1/patients/:id", 200, 10*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/patients/:id", 200, 20*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/patients/:id", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/patients/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/patients/:id", "404")))
}

func TestRecordDashboard(t *testing.T) {
	m := newTestMetrics()

	m.RecordDashboard("admin", false, 120, 50*time.Millisecond)
	m.RecordDashboard("admin", true, 0, 0)
	m.RecordDashboard("admin", true, 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DashboardBuilds.WithLabelValues("admin", "computed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DashboardBuilds.WithLabelValues("admin", "cache")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DashboardLatency))
}

func TestRecordCacheAndWarm(t *testing.T) {
	m := newTestMetrics()

	m.RecordCache("get", "hit")
	m.RecordCache("get", "miss")
	m.RecordCache("get", "miss")
	m.RecordWarmRun(nil)
	m.RecordWarmRun(errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheOps.WithLabelValues("get", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WarmRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WarmRuns.WithLabelValues("error")))
}

func TestRecordAudit(t *testing.T) {
	m := newTestMetrics()
	m.RecordAudit("patients", "read", 200)
	m.RecordAudit("patients", "read", 204)
	m.RecordAudit("patients", "update", 403)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordAccess.WithLabelValues("patients", "read", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordAccess.WithLabelValues("patients", "update", "4xx")))
}

func TestUpdateDBStats(t *testing.T) {
	m := newTestMetrics()
	m.UpdateDBStats(3, 2, 5)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.DBConnections.WithLabelValues("total")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := newTestMetrics()
	m.RecordCache("set", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mch_cache_operations_total"))
}
