package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveAuthOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveAuthOperation("login", "success", 10*time.Millisecond)
	c.ObserveAuthOperation("login", "invalid_credentials", 5*time.Millisecond)
	c.ObserveAuthOperation("login", "invalid_credentials", 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.authOutcomes.WithLabelValues("login", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.authOutcomes.WithLabelValues("login", "invalid_credentials")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.authLatency))
}

func TestCollector_RecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(http.StatusUnauthorized)
	c.RecordHTTPStatus(http.StatusUnauthorized)
	c.RecordHTTPStatus(http.StatusOK)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("200")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveAuthOperation("signup", "success", time.Millisecond)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `auth_operations_total{operation="signup",outcome="success"} 1`)
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	assert.Panics(t, func() { NewCollector(reg) })
}
