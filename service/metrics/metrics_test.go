package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordFetchCall("helius", "GetTransactions", "success", 0.2)
	m.RecordEventsClassified("transfer", 3)
	m.RecordEventsClassified("swap", 1)
	m.RecordSummary("helius", "success", 0.5)
	m.RecordDBQuery("list", "wallet_transactions", 0.01, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchCallsTotal.WithLabelValues("helius", "GetTransactions", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.eventsClassifiedTotal.WithLabelValues("transfer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsClassifiedTotal.WithLabelValues("swap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summariesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbOperationsTotal.WithLabelValues("list", "error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFetchCall("rpc", "GetTransaction", "error", 1)
		m.RecordSummary("rpc", "error", 1)
		m.RecordHTTPRequest("/health", "GET", 200, 0.1)
		m.RecordNATSPublish("success", 0.1)
	})
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	handler := HTTPMetricsMiddleware(m, "/api/v1/test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/test", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/v1/test", "GET", "4xx")))
}
